package strategy

import "github.com/qfex/quotesim/pkg/sim/book"

// BaselineParams configures the inventory-skew quoter.
type BaselineParams struct {
	Spread      int64      // full quoted spread, bid to ask
	SkewPerUnit int64      // quote shift per unit of inventory
	Qty         book.Qty   // fixed quote size
	FallbackMid book.Price // mid to quote around when the book is empty
}

func DefaultBaselineParams() BaselineParams {
	return BaselineParams{Spread: 2, SkewPerUnit: 1, Qty: 5, FallbackMid: 100}
}

// Baseline quotes a fixed spread around the mid, shifted down as
// inventory grows long and up as it grows short, so fills push the
// position back toward flat. A side is re-quoted only when its target
// price or the quote size changed; an unchanged quote keeps its place in
// the level's queue.
type Baseline struct {
	p BaselineParams

	bidID   *book.OrderID
	askID   *book.OrderID
	bidPx   *book.Price
	askPx   *book.Price
	lastQty book.Qty
}

func NewBaseline(p BaselineParams) *Baseline {
	return &Baseline{p: p}
}

func (s *Baseline) mid(ctx *Context) book.Price {
	bb, haveBid := ctx.Book.BestBid()
	ba, haveAsk := ctx.Book.BestAsk()
	switch {
	case haveBid && haveAsk:
		return (bb + ba) / 2
	case haveBid:
		return bb
	case haveAsk:
		return ba
	default:
		return s.p.FallbackMid
	}
}

func (s *Baseline) Step(ctx *Context) []Action {
	var actions []Action

	mid := s.mid(ctx)
	half := s.p.Spread / 2
	skew := ctx.Ledger.Inventory * s.p.SkewPerUnit
	targetBid := mid - half - skew
	targetAsk := mid + half - skew
	targetQty := s.p.Qty

	bidStale := s.bidPx == nil || *s.bidPx != targetBid || s.lastQty != targetQty
	askStale := s.askPx == nil || *s.askPx != targetAsk || s.lastQty != targetQty

	if bidStale && s.bidID != nil {
		actions = append(actions, CancelQuote(*s.bidID))
		s.bidID, s.bidPx = nil, nil
	}
	if askStale && s.askID != nil {
		actions = append(actions, CancelQuote(*s.askID))
		s.askID, s.askPx = nil, nil
	}

	if bidStale {
		id := ctx.IDs.Next()
		actions = append(actions, NewQuote(id, book.Buy, targetBid, targetQty))
		s.bidID, s.bidPx = &id, &targetBid
	}
	if askStale {
		id := ctx.IDs.Next()
		actions = append(actions, NewQuote(id, book.Sell, targetAsk, targetQty))
		s.askID, s.askPx = &id, &targetAsk
	}

	s.lastQty = targetQty
	return actions
}
