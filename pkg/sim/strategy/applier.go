package strategy

import "github.com/qfex/quotesim/pkg/sim/book"

// FillSink receives the fills produced while applying a strategy's
// actions, e.g. a CSV recorder or a run journal.
type FillSink interface {
	RecordFills(fills []book.Fill)
}

// ApplyOptions controls the side effects of Apply.
type ApplyOptions struct {
	// UpdateLedger applies each fill to the context ledger using the
	// action's own side. Fill attribution here is load-bearing for PnL:
	// the ledger must see our side of the trade, not the aggressor's.
	UpdateLedger bool
	// Sink, when non-nil, receives the fills of each placement.
	Sink FillSink
}

// Result summarizes one Apply pass.
type Result struct {
	PlacedIDs    []book.OrderID
	CanceledOK   int
	CancelMisses int
	Fills        int
}

// Apply executes a strategy's actions in order against the book and
// ledger. Cancels of unknown ids are tallied, never errors. A New action
// missing side, price or quantity is skipped silently and counted in
// neither tally.
func Apply(actions []Action, ctx *Context, opts ApplyOptions) Result {
	var out Result

	for _, a := range actions {
		switch a.Type {
		case ActionCancel:
			if ctx.Book.Cancel(a.ID) {
				out.CanceledOK++
			} else {
				out.CancelMisses++
			}

		case ActionNew:
			if a.Side == nil || a.Price == nil || a.Qty == nil {
				break
			}
			o := &book.Order{
				ID:    a.ID,
				Side:  *a.Side,
				Price: *a.Price,
				Qty:   *a.Qty,
				Tick:  ctx.Tick,
			}
			id, fills := ctx.Book.SubmitLimit(o)

			if len(fills) > 0 {
				if opts.Sink != nil {
					opts.Sink.RecordFills(fills)
				}
				if opts.UpdateLedger {
					for _, f := range fills {
						ctx.Ledger.OnTrade(*a.Side, f.Price, f.Qty)
					}
				}
			}
			out.Fills += len(fills)
			out.PlacedIDs = append(out.PlacedIDs, id)
		}
	}
	return out
}
