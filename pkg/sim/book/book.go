package book

import (
	"container/heap"
	"sort"
)

// Book is a single-instrument limit order book with price-time priority:
// better prices match first, equal prices match in arrival order.
//
// Layout: per side a price -> FIFO slice of resting orders, plus a price
// heap for O(1) best-price peeks, plus an id index for O(1) cancellation.
// The index and the level slices are always updated together.
//
// The book is owner-blind: it matches purely by price and time, so a
// strategy's new order can cross its own resting quote. Callers that care
// can detect this from the returned fills.
//
// All mutation happens on the single simulation goroutine; the book has
// no internal locking.
type Book struct {
	bidHeap *maxPriceHeap
	askHeap *minPriceHeap

	bids map[Price][]*Order // price -> FIFO queue
	asks map[Price][]*Order

	index map[OrderID]indexEntry // resting orders only

	lastPrice Price // most recent fill price, 0 until first trade
}

type indexEntry struct {
	side  Side
	price Price
}

func New() *Book {
	bidHeap := &maxPriceHeap{}
	askHeap := &minPriceHeap{}
	heap.Init(bidHeap)
	heap.Init(askHeap)

	return &Book{
		bidHeap: bidHeap,
		askHeap: askHeap,
		bids:    make(map[Price][]*Order),
		asks:    make(map[Price][]*Order),
		index:   make(map[OrderID]indexEntry),
	}
}

// BestBid returns the highest resting bid price, if any.
func (b *Book) BestBid() (Price, bool) {
	if b.bidHeap.Len() == 0 {
		return 0, false
	}
	return b.bidHeap.peek(), true
}

// BestAsk returns the lowest resting ask price, if any.
func (b *Book) BestAsk() (Price, bool) {
	if b.askHeap.Len() == 0 {
		return 0, false
	}
	return b.askHeap.peek(), true
}

// LastPrice returns the price of the most recent fill, or 0 if nothing
// has traded yet.
func (b *Book) LastPrice() Price { return b.lastPrice }

func (b *Book) rest(o *Order) {
	levels := b.bids
	if o.Side == Sell {
		levels = b.asks
	}
	if len(levels[o.Price]) == 0 {
		if o.Side == Buy {
			heap.Push(b.bidHeap, o.Price)
		} else {
			heap.Push(b.askHeap, o.Price)
		}
	}
	levels[o.Price] = append(levels[o.Price], o)
	b.index[o.ID] = indexEntry{side: o.Side, price: o.Price}
}

// removeLevel drops an emptied price level from the side map and its heap.
// Heap removal is O(n) in the number of levels, which stays small here.
func (b *Book) removeLevel(side Side, p Price) {
	if side == Buy {
		delete(b.bids, p)
		for i := 0; i < b.bidHeap.Len(); i++ {
			if (*b.bidHeap)[i] == p {
				heap.Remove(b.bidHeap, i)
				return
			}
		}
	} else {
		delete(b.asks, p)
		for i := 0; i < b.askHeap.Len(); i++ {
			if (*b.askHeap)[i] == p {
				heap.Remove(b.askHeap, i)
				return
			}
		}
	}
}

// matchAt fills the incoming order against the FIFO queue at price p on
// the opposite side, until either runs out. Returns the fills produced.
func (b *Book) matchAt(o *Order, p Price) []Fill {
	var fills []Fill
	levels := b.asks
	if o.Side == Sell {
		levels = b.bids
	}
	queue := levels[p]
	for o.Qty > 0 && len(queue) > 0 {
		maker := queue[0]
		match := min(o.Qty, maker.Qty)
		o.Qty -= match
		maker.Qty -= match
		fills = append(fills, Fill{
			Price:   p,
			Qty:     match,
			Tick:    o.Tick,
			MakerID: maker.ID,
			Taker:   o.Side,
		})
		b.lastPrice = p
		if maker.Qty == 0 {
			queue = queue[1:]
			delete(b.index, maker.ID)
		}
	}
	levels[p] = queue
	if len(queue) == 0 {
		b.removeLevel(o.Side.Opposite(), p)
	}
	return fills
}

// SubmitLimit matches the order against the opposite side while its limit
// price crosses the opposite best, then rests any remainder at its limit
// price. Returns the order id and the fills in match order.
//
// Matched quantity is conserved: each fill is min(remaining incoming,
// remaining resting), decrementing both. The book is never left crossed.
func (b *Book) SubmitLimit(o *Order) (OrderID, []Fill) {
	var fills []Fill
	if o.Side == Buy {
		for o.Qty > 0 {
			askP, ok := b.BestAsk()
			if !ok || askP > o.Price {
				break
			}
			fills = append(fills, b.matchAt(o, askP)...)
		}
	} else {
		for o.Qty > 0 {
			bidP, ok := b.BestBid()
			if !ok || bidP < o.Price {
				break
			}
			fills = append(fills, b.matchAt(o, bidP)...)
		}
	}
	if o.Qty > 0 {
		cp := *o
		b.rest(&cp)
	}
	return o.ID, fills
}

// SubmitMarket crosses as many opposite levels as needed to fill the
// order, FIFO within each level. A market order never rests: any
// remainder against an emptied opposite side is dropped.
func (b *Book) SubmitMarket(o *Order) []Fill {
	var fills []Fill
	for o.Qty > 0 {
		var p Price
		var ok bool
		if o.Side == Buy {
			p, ok = b.BestAsk()
		} else {
			p, ok = b.BestBid()
		}
		if !ok {
			break
		}
		fills = append(fills, b.matchAt(o, p)...)
	}
	return fills
}

// Cancel removes a resting order. Returns false when the id is unknown or
// already fully filled; that is a normal outcome, not an error.
func (b *Book) Cancel(id OrderID) bool {
	entry, ok := b.index[id]
	if !ok {
		return false
	}
	levels := b.bids
	if entry.side == Sell {
		levels = b.asks
	}
	queue := levels[entry.price]
	for i, o := range queue {
		if o.ID == id {
			levels[entry.price] = append(queue[:i], queue[i+1:]...)
			if len(levels[entry.price]) == 0 {
				b.removeLevel(entry.side, entry.price)
			}
			delete(b.index, id)
			return true
		}
	}
	// Index said the order rests here; the level must contain it.
	delete(b.index, id)
	return false
}

// TopBids returns up to depth aggregated bid levels, best (highest) first.
func (b *Book) TopBids(depth int) []Level {
	return topLevels(b.bids, depth, func(i, j Price) bool { return i > j })
}

// TopAsks returns up to depth aggregated ask levels, best (lowest) first.
func (b *Book) TopAsks(depth int) []Level {
	return topLevels(b.asks, depth, func(i, j Price) bool { return i < j })
}

func topLevels(side map[Price][]*Order, depth int, better func(i, j Price) bool) []Level {
	levels := make([]Level, 0, len(side))
	for p, orders := range side {
		if len(orders) == 0 {
			continue
		}
		var total Qty
		for _, o := range orders {
			total += o.Qty
		}
		levels = append(levels, Level{Price: p, Qty: total})
	}
	sort.Slice(levels, func(i, j int) bool {
		return better(levels[i].Price, levels[j].Price)
	})
	if depth > 0 && len(levels) > depth {
		levels = levels[:depth]
	}
	return levels
}
