// Package runner drives the simulation: it owns the per-tick sequence of
// strategy step, action application and exogenous taker flow, and fans
// the resulting state out to the recorder, the run journal and any live
// subscribers.
package runner

import (
	"sync"

	"go.uber.org/zap"

	"github.com/qfex/quotesim/pkg/sim/book"
	"github.com/qfex/quotesim/pkg/sim/flow"
	"github.com/qfex/quotesim/pkg/sim/ledger"
	"github.com/qfex/quotesim/pkg/sim/strategy"
	"github.com/qfex/quotesim/pkg/storage"
)

type Config struct {
	Steps       int
	Depth       int        // levels per side in snapshots
	SeedQty     book.Qty   // size of the two initial resting orders
	FallbackMid book.Price // mark reference when the book is empty
}

func DefaultConfig() Config {
	return Config{Steps: 100, Depth: 10, SeedQty: 10, FallbackMid: 100}
}

// Recorder receives the flat-file records of a run.
type Recorder interface {
	RecordFills(fills []book.Fill)
	RecordMark(tick uint64, cash float64, inventory int64, mtm float64)
	RecordDepth(tick uint64, bids, asks []book.Level)
}

// Publisher receives each tick's snapshot for live observers.
type Publisher interface {
	PublishTick(storage.Snapshot)
}

// Summary is the outcome of a completed run.
type Summary struct {
	Ticks      int
	TotalFills int
	Cash       float64
	Inventory  int64
	Mark       float64
}

// Deps are the runner's collaborators. Recorder, Journal and Publisher
// may each be nil.
type Deps struct {
	Strategy  strategy.Strategy
	Flow      *flow.Generator
	Recorder  Recorder
	Journal   *storage.Journal
	Publisher Publisher
	Log       *zap.SugaredLogger
}

const recentFillsCap = 256

type Runner struct {
	cfg  Config
	deps Deps

	book   *book.Book
	ledger *ledger.Ledger
	ids    *strategy.IDGen
	tick   uint64

	// read by API handlers while the loop runs
	mu          sync.RWMutex
	latest      storage.Snapshot
	recentFills []book.Fill
}

func New(cfg Config, deps Deps) *Runner {
	if deps.Log == nil {
		deps.Log = zap.NewNop().Sugar()
	}
	return &Runner{
		cfg:    cfg,
		deps:   deps,
		book:   book.New(),
		ledger: ledger.New(),
		ids:    strategy.NewIDGen(),
	}
}

// SetPublisher attaches a live subscriber. Call before Run.
func (r *Runner) SetPublisher(p Publisher) { r.deps.Publisher = p }

// Latest returns the most recently published snapshot.
func (r *Runner) Latest() storage.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest
}

// RecentFills returns up to n of the most recent fills, newest last.
func (r *Runner) RecentFills(n int) []book.Fill {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if n <= 0 || n > len(r.recentFills) {
		n = len(r.recentFills)
	}
	out := make([]book.Fill, n)
	copy(out, r.recentFills[len(r.recentFills)-n:])
	return out
}

// markRef is the mark-to-market reference: two-sided mid, else the
// one-sided best, else the configured fallback.
func (r *Runner) markRef() book.Price {
	bb, haveBid := r.book.BestBid()
	ba, haveAsk := r.book.BestAsk()
	switch {
	case haveBid && haveAsk:
		return (bb + ba) / 2
	case haveBid:
		return bb
	case haveAsk:
		return ba
	default:
		return r.cfg.FallbackMid
	}
}

// Run executes the configured number of ticks and returns the summary.
// Each tick runs strictly in order: strategy step, action application,
// one exogenous market order, then recording.
func (r *Runner) Run() (Summary, error) {
	log := r.deps.Log

	// seed initial liquidity one tick inside the fallback mid
	r.tick++
	r.book.SubmitLimit(&book.Order{
		ID: r.ids.Next(), Side: book.Buy,
		Price: r.cfg.FallbackMid - 1, Qty: r.cfg.SeedQty, Tick: r.tick,
	})
	r.book.SubmitLimit(&book.Order{
		ID: r.ids.Next(), Side: book.Sell,
		Price: r.cfg.FallbackMid + 1, Qty: r.cfg.SeedQty, Tick: r.tick,
	})

	totalFills := 0
	for t := 1; t <= r.cfg.Steps; t++ {
		r.tick++
		ctx := &strategy.Context{Book: r.book, Ledger: r.ledger, IDs: r.ids, Tick: r.tick}

		tickFills := &fillBatch{}
		actions := r.deps.Strategy.Step(ctx)
		res := strategy.Apply(actions, ctx, strategy.ApplyOptions{
			UpdateLedger: true,
			Sink:         tickFills,
		})
		if res.Fills > 0 {
			// a fresh quote crossed a resting order, possibly our own
			log.Debugw("quote_crossed_on_placement", "tick", r.tick, "fills", res.Fills)
		}

		taker := r.deps.Flow.Next(r.ids.Next(), r.tick)
		fills := r.book.SubmitMarket(taker)
		for _, f := range fills {
			// the makers hit by exogenous flow are our resting quotes,
			// so the ledger sees the opposite of the taker's side
			r.ledger.OnTrade(f.Taker.Opposite(), f.Price, f.Qty)
		}
		tickFills.add(fills)

		ref := r.markRef()
		mtm := r.ledger.MarkToMarket(ref)
		snap := storage.Snapshot{
			Tick:         r.tick,
			Bids:         r.book.TopBids(r.cfg.Depth),
			Asks:         r.book.TopAsks(r.cfg.Depth),
			Cash:         r.ledger.Cash,
			Inventory:    r.ledger.Inventory,
			MarkToMarket: mtm,
			LastPrice:    r.book.LastPrice(),
		}

		if r.deps.Recorder != nil {
			r.deps.Recorder.RecordFills(tickFills.fills)
			r.deps.Recorder.RecordMark(r.tick, r.ledger.Cash, r.ledger.Inventory, mtm)
			r.deps.Recorder.RecordDepth(r.tick, snap.Bids, snap.Asks)
		}
		if r.deps.Journal != nil {
			if err := r.deps.Journal.AppendFills(r.tick, tickFills.fills); err != nil {
				return Summary{}, err
			}
			if err := r.deps.Journal.SaveSnapshot(snap); err != nil {
				return Summary{}, err
			}
		}

		r.publish(snap, tickFills.fills)
		totalFills += len(tickFills.fills)

		log.Debugw("tick",
			"t", t,
			"actions", len(actions),
			"cancels_ok", res.CanceledOK,
			"fills", len(tickFills.fills),
			"cash", r.ledger.Cash,
			"inventory", r.ledger.Inventory,
			"mark_to_market", mtm,
		)
	}

	sum := Summary{
		Ticks:      r.cfg.Steps,
		TotalFills: totalFills,
		Cash:       r.ledger.Cash,
		Inventory:  r.ledger.Inventory,
		Mark:       r.ledger.MarkToMarket(r.markRef()),
	}
	log.Infow("run_complete",
		"ticks", sum.Ticks,
		"fills", sum.TotalFills,
		"cash", sum.Cash,
		"inventory", sum.Inventory,
		"mark_to_market", sum.Mark,
	)
	return sum, nil
}

func (r *Runner) publish(snap storage.Snapshot, fills []book.Fill) {
	r.mu.Lock()
	r.latest = snap
	r.recentFills = append(r.recentFills, fills...)
	if len(r.recentFills) > recentFillsCap {
		r.recentFills = r.recentFills[len(r.recentFills)-recentFillsCap:]
	}
	r.mu.Unlock()

	if r.deps.Publisher != nil {
		r.deps.Publisher.PublishTick(snap)
	}
}

// fillBatch collects the fills of one tick. Satisfies strategy.FillSink.
type fillBatch struct {
	fills []book.Fill
}

func (b *fillBatch) RecordFills(fills []book.Fill) { b.add(fills) }
func (b *fillBatch) add(fills []book.Fill)         { b.fills = append(b.fills, fills...) }
