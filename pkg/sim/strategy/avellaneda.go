package strategy

import (
	"math"

	"github.com/qfex/quotesim/pkg/sim/book"
)

// ASParams configures the Avellaneda–Stoikov quoter.
type ASParams struct {
	Gamma         float64 // risk aversion
	Kappa         float64 // order-flow liquidity sensitivity
	HorizonTicks  int     // remaining horizon used for inventory penalty
	VolWindow     int     // rolling log-return window length
	TickSize      float64 // minimum price increment for quote rounding
	MinHalfSpread float64
	MaxHalfSpread float64
	QuoteSize     book.Qty
}

func DefaultASParams() ASParams {
	return ASParams{
		Gamma:         0.10,
		Kappa:         1.00,
		HorizonTicks:  5,
		VolWindow:     60,
		TickSize:      1.0,
		MinHalfSpread: 0.0,
		MaxHalfSpread: 1.0,
		QuoteSize:     100,
	}
}

// AvellanedaStoikov quotes around a reservation price instead of the raw
// mid. Holding a long position lowers the reservation price below mid to
// encourage selling back to flat; a short position raises it. The
// half-spread widens with realized variance over the remaining horizon.
//
// Quotes are always replaced: every productive tick cancels both live
// ids and places two fresh quotes. On an unpriced market (one-sided or
// empty book) or a non-finite/non-positive computed price, the tick is
// skipped and existing quotes stay put.
type AvellanedaStoikov struct {
	p ASParams

	// rolling log-return window with running moments for O(1) sigma
	returns     []float64
	sum         float64
	sumsq       float64
	haveLastMid bool
	lastMid     float64

	liveBidID *book.OrderID
	liveAskID *book.OrderID
}

func NewAvellanedaStoikov(p ASParams) *AvellanedaStoikov {
	return &AvellanedaStoikov{p: p}
}

func roundToTick(px, tick float64, isBid bool) float64 {
	if tick <= 0 || math.IsNaN(px) {
		return px
	}
	n := px / tick
	if isBid {
		return math.Floor(n) * tick
	}
	return math.Ceil(n) * tick
}

// safeMid is the two-sided mid, or NaN when either side is empty.
func safeMid(b *book.Book) float64 {
	bb, haveBid := b.BestBid()
	ba, haveAsk := b.BestAsk()
	if !haveBid || !haveAsk {
		return math.NaN()
	}
	return 0.5 * (float64(bb) + float64(ba))
}

// updateSigma folds the latest mid into the rolling window and returns
// realized volatility. Eviction keeps the running sum and sum of squares
// exactly in step with the window contents. Zero until two returns exist.
func (s *AvellanedaStoikov) updateSigma(mid float64) float64 {
	if !isFinitePositive(mid) {
		return 0
	}
	if s.haveLastMid {
		r := math.Log(mid) - math.Log(s.lastMid)
		s.returns = append(s.returns, r)
		s.sum += r
		s.sumsq += r * r
		if len(s.returns) > s.p.VolWindow {
			old := s.returns[0]
			s.returns = s.returns[1:]
			s.sum -= old
			s.sumsq -= old * old
		}
	}
	s.lastMid = mid
	s.haveLastMid = true

	n := len(s.returns)
	if n <= 1 {
		return 0
	}
	mean := s.sum / float64(n)
	variance := math.Max(0, s.sumsq/float64(n)-mean*mean)
	return math.Sqrt(variance)
}

func isFinitePositive(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0) && x > 0
}

// quotes computes the reservation price, clamped half-spread and the
// tick-rounded bid/ask for the given mid, volatility and inventory.
func (s *AvellanedaStoikov) quotes(mid, sigma, q float64) (bidPx, askPx float64) {
	h := s.p.HorizonTicks
	if h < 1 {
		h = 1
	}
	varH := sigma * sigma * float64(h)

	r := mid - q*s.p.Gamma*varH

	delta := (1.0/s.p.Gamma)*math.Log(1.0+s.p.Gamma/s.p.Kappa) + 0.5*s.p.Gamma*varH
	delta = math.Min(math.Max(delta, s.p.MinHalfSpread), s.p.MaxHalfSpread)

	bidPx = roundToTick(r-delta, s.p.TickSize, true)
	askPx = roundToTick(r+delta, s.p.TickSize, false)
	return bidPx, askPx
}

func (s *AvellanedaStoikov) Step(ctx *Context) []Action {
	mid := safeMid(ctx.Book)
	if math.IsNaN(mid) || math.IsInf(mid, 0) {
		return nil
	}

	sigma := s.updateSigma(mid)
	q := float64(ctx.Ledger.Inventory)

	bidPx, askPx := s.quotes(mid, sigma, q)
	if !isFinitePositive(bidPx) || !isFinitePositive(askPx) {
		return nil
	}

	actions := make([]Action, 0, 4)
	if s.liveBidID != nil {
		actions = append(actions, CancelQuote(*s.liveBidID))
		s.liveBidID = nil
	}
	if s.liveAskID != nil {
		actions = append(actions, CancelQuote(*s.liveAskID))
		s.liveAskID = nil
	}

	newBidID := ctx.IDs.Next()
	newAskID := ctx.IDs.Next()
	actions = append(actions,
		NewQuote(newBidID, book.Buy, book.Price(bidPx), s.p.QuoteSize),
		NewQuote(newAskID, book.Sell, book.Price(askPx), s.p.QuoteSize),
	)
	s.liveBidID = &newBidID
	s.liveAskID = &newAskID
	return actions
}
