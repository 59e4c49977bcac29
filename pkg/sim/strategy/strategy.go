// Package strategy defines the quoting contract between market-making
// strategies and the matching engine, plus the applier that turns a
// strategy's desired actions into book and ledger state.
package strategy

import (
	"github.com/qfex/quotesim/pkg/sim/book"
	"github.com/qfex/quotesim/pkg/sim/ledger"
)

// ActionType tags what to do with a quote.
type ActionType int8

const (
	// ActionNew places a fresh quote.
	ActionNew ActionType = iota
	// ActionCancel removes an existing quote.
	ActionCancel
)

// Action is one desired change to the strategy's quotes. For ActionNew
// the Side/Price/Qty pointers must all be set; an incomplete New is
// skipped by the applier. For ActionCancel only ID is read.
type Action struct {
	Type ActionType
	ID   book.OrderID

	Side  *book.Side
	Price *book.Price
	Qty   *book.Qty
}

// NewQuote builds a complete ActionNew.
func NewQuote(id book.OrderID, side book.Side, px book.Price, qty book.Qty) Action {
	return Action{Type: ActionNew, ID: id, Side: &side, Price: &px, Qty: &qty}
}

// CancelQuote builds an ActionCancel.
func CancelQuote(id book.OrderID) Action {
	return Action{Type: ActionCancel, ID: id}
}

// IDGen issues process-unique, monotonically increasing order ids.
// IDs are never reused.
type IDGen struct {
	next book.OrderID
}

func NewIDGen() *IDGen { return &IDGen{next: 1} }

func (g *IDGen) Next() book.OrderID {
	id := g.next
	g.next++
	return id
}

// Context bundles everything a strategy and the applier operate on for
// one tick. State is passed explicitly; there are no package globals.
type Context struct {
	Book   *book.Book
	Ledger *ledger.Ledger
	IDs    *IDGen
	Tick   uint64
}

// Strategy is the one-operation quoting capability. Step inspects the
// context and returns the ordered list of quote changes to apply this
// tick; the list order is the application order. A strategy replacing a
// quote must itself emit the Cancel before the matching New; the engine
// infers nothing.
type Strategy interface {
	Step(ctx *Context) []Action
}
