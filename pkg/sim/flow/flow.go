// Package flow generates the exogenous taker flow that crosses the book
// each tick, standing in for the rest of the market.
package flow

import (
	"math/rand"

	"github.com/qfex/quotesim/pkg/sim/book"
)

type Params struct {
	MinQty book.Qty
	MaxQty book.Qty
}

func DefaultParams() Params { return Params{MinQty: 1, MaxQty: 3} }

// Generator emits one random market order per call: uniform side, qty
// uniform in [MinQty, MaxQty]. Runs are reproducible for a fixed seed.
type Generator struct {
	p   Params
	rng *rand.Rand
}

func NewGenerator(seed int64, p Params) *Generator {
	if p.MaxQty < p.MinQty {
		p.MaxQty = p.MinQty
	}
	return &Generator{p: p, rng: rand.New(rand.NewSource(seed))}
}

// Next builds the next taker order with the given pre-allocated id.
func (g *Generator) Next(id book.OrderID, tick uint64) *book.Order {
	side := book.Buy
	if g.rng.Intn(2) == 1 {
		side = book.Sell
	}
	qty := g.p.MinQty + book.Qty(g.rng.Int63n(int64(g.p.MaxQty-g.p.MinQty)+1))
	return &book.Order{ID: id, Side: side, Qty: qty, Tick: tick}
}
