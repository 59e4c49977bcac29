// Package recorder writes the per-run flat files: fills, per-tick ledger
// marks and book-depth snapshots, as CSV under a data directory.
package recorder

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/qfex/quotesim/pkg/sim/book"
)

type Recorder struct {
	fillsF *os.File
	pnlF   *os.File
	bookF  *os.File

	fills *csv.Writer
	pnl   *csv.Writer
	book  *csv.Writer

	err error // first write error, surfaced on Close
}

// New opens fills.csv, pnl.csv and book.csv under dir, creating the
// directory if needed, and writes the header rows.
func New(dir string) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("recorder: create dir: %w", err)
	}

	r := &Recorder{}
	var err error
	if r.fillsF, err = os.Create(filepath.Join(dir, "fills.csv")); err != nil {
		return nil, fmt.Errorf("recorder: %w", err)
	}
	if r.pnlF, err = os.Create(filepath.Join(dir, "pnl.csv")); err != nil {
		r.fillsF.Close()
		return nil, fmt.Errorf("recorder: %w", err)
	}
	if r.bookF, err = os.Create(filepath.Join(dir, "book.csv")); err != nil {
		r.fillsF.Close()
		r.pnlF.Close()
		return nil, fmt.Errorf("recorder: %w", err)
	}

	r.fills = csv.NewWriter(r.fillsF)
	r.pnl = csv.NewWriter(r.pnlF)
	r.book = csv.NewWriter(r.bookF)

	r.write(r.fills, []string{"tick", "side", "price", "qty", "maker_id"})
	r.write(r.pnl, []string{"tick", "cash", "inventory", "mark_to_market"})
	r.write(r.book, []string{"tick", "side", "price", "qty"})
	return r, nil
}

func (r *Recorder) write(w *csv.Writer, rec []string) {
	if err := w.Write(rec); err != nil && r.err == nil {
		r.err = err
	}
}

// RecordFills appends one row per fill. Satisfies strategy.FillSink.
func (r *Recorder) RecordFills(fills []book.Fill) {
	for _, f := range fills {
		r.write(r.fills, []string{
			strconv.FormatUint(f.Tick, 10),
			f.Taker.String(),
			strconv.FormatInt(f.Price, 10),
			strconv.FormatInt(f.Qty, 10),
			strconv.FormatUint(f.MakerID, 10),
		})
	}
}

// RecordMark appends the per-tick ledger row.
func (r *Recorder) RecordMark(tick uint64, cash float64, inventory int64, mtm float64) {
	r.write(r.pnl, []string{
		strconv.FormatUint(tick, 10),
		strconv.FormatFloat(cash, 'f', -1, 64),
		strconv.FormatInt(inventory, 10),
		strconv.FormatFloat(mtm, 'f', -1, 64),
	})
}

// RecordDepth appends one row per level, bids then asks, best-first.
func (r *Recorder) RecordDepth(tick uint64, bids, asks []book.Level) {
	t := strconv.FormatUint(tick, 10)
	for _, lv := range bids {
		r.write(r.book, []string{t, "bid", strconv.FormatInt(lv.Price, 10), strconv.FormatInt(lv.Qty, 10)})
	}
	for _, lv := range asks {
		r.write(r.book, []string{t, "ask", strconv.FormatInt(lv.Price, 10), strconv.FormatInt(lv.Qty, 10)})
	}
}

// Close flushes and closes all writers, returning the first error seen.
func (r *Recorder) Close() error {
	r.fills.Flush()
	r.pnl.Flush()
	r.book.Flush()
	for _, w := range []*csv.Writer{r.fills, r.pnl, r.book} {
		if err := w.Error(); err != nil && r.err == nil {
			r.err = err
		}
	}
	for _, f := range []*os.File{r.fillsF, r.pnlF, r.bookF} {
		if err := f.Close(); err != nil && r.err == nil {
			r.err = err
		}
	}
	return r.err
}
