// Package ledger tracks the cash and inventory of a single trading
// strategy. Cash is realized PnL from completed trades; inventory is the
// signed open position (positive = long).
package ledger

import "github.com/qfex/quotesim/pkg/sim/book"

type Ledger struct {
	Cash      float64
	Inventory int64
}

func New() *Ledger { return &Ledger{} }

// OnTrade applies one fill from our side of the trade: a buy adds
// inventory and spends cash, a sell sheds inventory and collects cash.
func (l *Ledger) OnTrade(side book.Side, px book.Price, qty book.Qty) {
	notional := float64(px) * float64(qty)
	if side == book.Buy {
		l.Inventory += int64(qty)
		l.Cash -= notional
	} else {
		l.Inventory -= int64(qty)
		l.Cash += notional
	}
}

// MarkToMarket values the open position at ref: realized cash plus
// inventory at the reference price. This is the number a market maker
// watches; inventory near zero means little exposure to price moves.
func (l *Ledger) MarkToMarket(ref book.Price) float64 {
	return l.Cash + float64(l.Inventory)*float64(ref)
}

// Reset zeroes cash and inventory.
func (l *Ledger) Reset() {
	l.Cash = 0
	l.Inventory = 0
}
