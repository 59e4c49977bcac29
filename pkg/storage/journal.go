// Package storage persists a run journal: the fills and per-tick
// snapshots of one simulation, keyed by tick in a pebble database. This
// is a record of a run for later inspection, not book persistence; the
// matching engine always starts empty.
package storage

import (
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/qfex/quotesim/pkg/sim/book"
)

// Snapshot is the per-tick state record: depth, ledger and mark.
type Snapshot struct {
	Tick         uint64       `json:"tick"`
	Bids         []book.Level `json:"bids"`
	Asks         []book.Level `json:"asks"`
	Cash         float64      `json:"cash"`
	Inventory    int64        `json:"inventory"`
	MarkToMarket float64      `json:"markToMarket"`
	LastPrice    book.Price   `json:"lastPrice"` // 0 until the first trade
}

type Journal struct {
	db *pebble.DB
}

// keys: f:<8-byte tick> fills batch, s:<8-byte tick> snapshot
func kFills(t uint64) []byte    { return append([]byte("f:"), tickKey(t)...) }
func kSnapshot(t uint64) []byte { return append([]byte("s:"), tickKey(t)...) }

func Open(path string) (*Journal, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error { return j.db.Close() }

// AppendFills merges the fills into the batch stored for their tick.
func (j *Journal) AppendFills(tick uint64, fills []book.Fill) error {
	if len(fills) == 0 {
		return nil
	}
	existing, _, err := j.FillsAt(tick)
	if err != nil {
		return err
	}
	val, err := encodeGob(append(existing, fills...))
	if err != nil {
		return fmt.Errorf("journal: encode fills: %w", err)
	}
	if err := j.db.Set(kFills(tick), val, pebble.Sync); err != nil {
		return fmt.Errorf("journal: write fills: %w", err)
	}
	return nil
}

// FillsAt returns the fills stored for a tick, with found=false when the
// tick produced none.
func (j *Journal) FillsAt(tick uint64) (fills []book.Fill, found bool, err error) {
	val, closer, err := j.db.Get(kFills(tick))
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("journal: read fills: %w", err)
	}
	defer closer.Close()
	if err := decodeGob(val, &fills); err != nil {
		return nil, false, fmt.Errorf("journal: decode fills: %w", err)
	}
	return fills, true, nil
}

// SaveSnapshot stores the per-tick snapshot, replacing any previous one
// for the same tick.
func (j *Journal) SaveSnapshot(s Snapshot) error {
	val, err := encodeGob(s)
	if err != nil {
		return fmt.Errorf("journal: encode snapshot: %w", err)
	}
	if err := j.db.Set(kSnapshot(s.Tick), val, pebble.Sync); err != nil {
		return fmt.Errorf("journal: write snapshot: %w", err)
	}
	return nil
}

// SnapshotAt returns the snapshot stored for a tick.
func (j *Journal) SnapshotAt(tick uint64) (Snapshot, bool, error) {
	var s Snapshot
	val, closer, err := j.db.Get(kSnapshot(tick))
	if err != nil {
		if err == pebble.ErrNotFound {
			return s, false, nil
		}
		return s, false, fmt.Errorf("journal: read snapshot: %w", err)
	}
	defer closer.Close()
	if err := decodeGob(val, &s); err != nil {
		return s, false, fmt.Errorf("journal: decode snapshot: %w", err)
	}
	return s, true, nil
}

// Replay iterates all stored snapshots in tick order.
func (j *Journal) Replay(fn func(Snapshot) error) error {
	iter, err := j.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte("s:"),
		UpperBound: []byte("s;"), // ';' is the byte after ':'
	})
	if err != nil {
		return fmt.Errorf("journal: iterator: %w", err)
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		var s Snapshot
		if err := decodeGob(iter.Value(), &s); err != nil {
			return fmt.Errorf("journal: decode snapshot: %w", err)
		}
		if err := fn(s); err != nil {
			return err
		}
	}
	return iter.Error()
}
