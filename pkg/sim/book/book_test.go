package book

import (
	"math/rand"
	"testing"
)

func limit(id OrderID, side Side, px Price, qty Qty) *Order {
	return &Order{ID: id, Side: side, Price: px, Qty: qty}
}

func market(id OrderID, side Side, qty Qty) *Order {
	return &Order{ID: id, Side: side, Qty: qty}
}

func TestSubmitLimitRests(t *testing.T) {
	b := New()

	_, fills := b.SubmitLimit(limit(1, Buy, 99, 10))
	if len(fills) != 0 {
		t.Fatalf("expected no fills on empty book, got %d", len(fills))
	}

	bb, ok := b.BestBid()
	if !ok || bb != 99 {
		t.Fatalf("best bid = %d, %v; want 99, true", bb, ok)
	}
	if _, ok := b.BestAsk(); ok {
		t.Fatal("expected no best ask")
	}
}

func TestSubmitLimitMatches(t *testing.T) {
	tests := []struct {
		name      string
		resting   []*Order
		incoming  *Order
		wantFills []Fill
		wantRest  bool // incoming leaves a remainder resting
	}{
		{
			name:     "full fill at one level",
			resting:  []*Order{limit(1, Sell, 101, 10)},
			incoming: limit(2, Buy, 101, 10),
			wantFills: []Fill{
				{Price: 101, Qty: 10, MakerID: 1, Taker: Buy},
			},
		},
		{
			name:     "partial fill rests remainder",
			resting:  []*Order{limit(1, Sell, 101, 4)},
			incoming: limit(2, Buy, 101, 10),
			wantFills: []Fill{
				{Price: 101, Qty: 4, MakerID: 1, Taker: Buy},
			},
			wantRest: true,
		},
		{
			name: "walks levels with price improvement",
			resting: []*Order{
				limit(1, Sell, 101, 5),
				limit(2, Sell, 102, 5),
			},
			incoming: limit(3, Buy, 102, 8),
			wantFills: []Fill{
				{Price: 101, Qty: 5, MakerID: 1, Taker: Buy},
				{Price: 102, Qty: 3, MakerID: 2, Taker: Buy},
			},
		},
		{
			name: "respects limit price",
			resting: []*Order{
				limit(1, Sell, 101, 5),
				limit(2, Sell, 103, 5),
			},
			incoming: limit(3, Buy, 101, 8),
			wantFills: []Fill{
				{Price: 101, Qty: 5, MakerID: 1, Taker: Buy},
			},
			wantRest: true,
		},
		{
			name: "sell aggressor hits bids",
			resting: []*Order{
				limit(1, Buy, 100, 5),
				limit(2, Buy, 99, 5),
			},
			incoming: limit(3, Sell, 99, 8),
			wantFills: []Fill{
				{Price: 100, Qty: 5, MakerID: 1, Taker: Sell},
				{Price: 99, Qty: 3, MakerID: 2, Taker: Sell},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New()
			for _, o := range tt.resting {
				b.SubmitLimit(o)
			}

			id, fills := b.SubmitLimit(tt.incoming)
			if id != tt.incoming.ID {
				t.Errorf("returned id = %d, want %d", id, tt.incoming.ID)
			}
			if len(fills) != len(tt.wantFills) {
				t.Fatalf("got %d fills, want %d: %+v", len(fills), len(tt.wantFills), fills)
			}
			for i, f := range fills {
				w := tt.wantFills[i]
				if f.Price != w.Price || f.Qty != w.Qty || f.MakerID != w.MakerID || f.Taker != w.Taker {
					t.Errorf("fill[%d] = %+v, want %+v", i, f, w)
				}
			}

			resting := b.Cancel(tt.incoming.ID)
			if resting != tt.wantRest {
				t.Errorf("incoming resting = %v, want %v", resting, tt.wantRest)
			}
		})
	}
}

func TestFIFOWithinLevel(t *testing.T) {
	b := New()
	b.SubmitLimit(limit(1, Sell, 101, 5))
	b.SubmitLimit(limit(2, Sell, 101, 5))
	b.SubmitLimit(limit(3, Sell, 101, 5))

	_, fills := b.SubmitLimit(limit(4, Buy, 101, 8))
	if len(fills) != 2 {
		t.Fatalf("got %d fills, want 2", len(fills))
	}
	if fills[0].MakerID != 1 || fills[0].Qty != 5 {
		t.Errorf("first fill = %+v, want maker 1 qty 5", fills[0])
	}
	if fills[1].MakerID != 2 || fills[1].Qty != 3 {
		t.Errorf("second fill = %+v, want maker 2 qty 3", fills[1])
	}
}

func TestMarketOrderSweep(t *testing.T) {
	// market buy of 15 vs resting asks 10@101, 20@102:
	// fills (10@101), (5@102); 15 remain resting at 102
	b := New()
	b.SubmitLimit(limit(1, Sell, 101, 10))
	b.SubmitLimit(limit(2, Sell, 102, 20))

	fills := b.SubmitMarket(market(3, Buy, 15))
	if len(fills) != 2 {
		t.Fatalf("got %d fills, want 2: %+v", len(fills), fills)
	}
	if fills[0].Price != 101 || fills[0].Qty != 10 {
		t.Errorf("fill[0] = %+v, want 10@101", fills[0])
	}
	if fills[1].Price != 102 || fills[1].Qty != 5 {
		t.Errorf("fill[1] = %+v, want 5@102", fills[1])
	}

	asks := b.TopAsks(0)
	if len(asks) != 1 || asks[0].Price != 102 || asks[0].Qty != 15 {
		t.Errorf("remaining asks = %+v, want [15@102]", asks)
	}
}

func TestMarketOrderEmptyBookDropped(t *testing.T) {
	b := New()
	fills := b.SubmitMarket(market(1, Buy, 10))
	if len(fills) != 0 {
		t.Fatalf("got %d fills on empty book", len(fills))
	}
	if _, ok := b.BestAsk(); ok {
		t.Error("market order must never rest")
	}
	if _, ok := b.BestBid(); ok {
		t.Error("market order must never rest")
	}
}

func TestCancel(t *testing.T) {
	b := New()
	b.SubmitLimit(limit(1, Buy, 99, 10))

	if !b.Cancel(1) {
		t.Fatal("first cancel should succeed")
	}
	if b.Cancel(1) {
		t.Fatal("second cancel of same id must return false")
	}
	if b.Cancel(42) {
		t.Fatal("cancel of unknown id must return false")
	}
	if _, ok := b.BestBid(); ok {
		t.Error("level should be gone after cancelling its only order")
	}
}

func TestCancelAfterFullFill(t *testing.T) {
	b := New()
	b.SubmitLimit(limit(1, Sell, 101, 10))
	b.SubmitLimit(limit(2, Buy, 101, 10))

	if b.Cancel(1) {
		t.Error("cancel of fully filled order must return false")
	}
}

func TestCancelPreservesFIFO(t *testing.T) {
	b := New()
	b.SubmitLimit(limit(1, Sell, 101, 5))
	b.SubmitLimit(limit(2, Sell, 101, 5))
	b.SubmitLimit(limit(3, Sell, 101, 5))

	if !b.Cancel(2) {
		t.Fatal("cancel of order 2 should succeed")
	}

	_, fills := b.SubmitLimit(limit(4, Buy, 101, 10))
	if len(fills) != 2 || fills[0].MakerID != 1 || fills[1].MakerID != 3 {
		t.Errorf("fills = %+v, want makers 1 then 3", fills)
	}
}

func TestTopLevelsDepth(t *testing.T) {
	b := New()
	b.SubmitLimit(limit(1, Buy, 97, 1))
	b.SubmitLimit(limit(2, Buy, 98, 2))
	b.SubmitLimit(limit(3, Buy, 99, 3))
	b.SubmitLimit(limit(4, Buy, 99, 4))
	b.SubmitLimit(limit(5, Sell, 101, 5))
	b.SubmitLimit(limit(6, Sell, 102, 6))

	bids := b.TopBids(2)
	if len(bids) != 2 {
		t.Fatalf("got %d bid levels, want 2", len(bids))
	}
	if bids[0].Price != 99 || bids[0].Qty != 7 {
		t.Errorf("bids[0] = %+v, want 7@99 aggregate", bids[0])
	}
	if bids[1].Price != 98 || bids[1].Qty != 2 {
		t.Errorf("bids[1] = %+v, want 2@98", bids[1])
	}

	asks := b.TopAsks(10)
	if len(asks) != 2 || asks[0].Price != 101 || asks[1].Price != 102 {
		t.Errorf("asks = %+v, want [5@101 6@102]", asks)
	}
}

func TestQuantityConservation(t *testing.T) {
	b := New()
	b.SubmitLimit(limit(1, Sell, 101, 10))
	b.SubmitLimit(limit(2, Sell, 102, 20))

	incoming := limit(3, Buy, 102, 25)
	_, fills := b.SubmitLimit(incoming)

	var filled Qty
	for _, f := range fills {
		filled += f.Qty
	}
	if filled != 25 {
		t.Errorf("total filled = %d, want 25", filled)
	}
	var resting Qty
	for _, lv := range b.TopAsks(0) {
		resting += lv.Qty
	}
	if filled+resting != 30 {
		t.Errorf("filled %d + resting %d != 30: quantity not conserved", filled, resting)
	}
}

// TestNeverCrossedAfterOperations drives the book with a deterministic
// random sequence and checks best_bid < best_ask after every operation.
func TestNeverCrossedAfterOperations(t *testing.T) {
	b := New()
	rng := rand.New(rand.NewSource(7))
	var id OrderID

	checkUncrossed := func() {
		bb, haveBid := b.BestBid()
		ba, haveAsk := b.BestAsk()
		if haveBid && haveAsk && bb >= ba {
			t.Fatalf("book crossed: best bid %d >= best ask %d", bb, ba)
		}
	}

	var liveIDs []OrderID
	for i := 0; i < 2000; i++ {
		id++
		switch rng.Intn(10) {
		case 0, 1: // cancel something, possibly already gone
			if len(liveIDs) > 0 {
				b.Cancel(liveIDs[rng.Intn(len(liveIDs))])
			}
		case 2: // market order
			side := Buy
			if rng.Intn(2) == 0 {
				side = Sell
			}
			b.SubmitMarket(market(id, side, Qty(rng.Int63n(20)+1)))
		default: // limit order around 100
			side := Buy
			if rng.Intn(2) == 0 {
				side = Sell
			}
			px := Price(95 + rng.Int63n(11))
			b.SubmitLimit(limit(id, side, px, Qty(rng.Int63n(10)+1)))
			liveIDs = append(liveIDs, id)
		}
		checkUncrossed()
	}
}

func TestLastPrice(t *testing.T) {
	b := New()
	if b.LastPrice() != 0 {
		t.Fatalf("last price = %d before any trade, want 0", b.LastPrice())
	}
	b.SubmitLimit(limit(1, Sell, 101, 10))
	b.SubmitMarket(market(2, Buy, 5))
	if b.LastPrice() != 101 {
		t.Errorf("last price = %d, want 101", b.LastPrice())
	}
}

func BenchmarkSubmitLimit(b *testing.B) {
	bk := New()
	var id OrderID

	// realistic standing depth
	for i := int64(0); i < 100; i++ {
		id++
		bk.SubmitLimit(limit(id, Buy, 1000-i, 100))
		id++
		bk.SubmitLimit(limit(id, Sell, 1100+i, 100))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		id++
		side := Buy
		px := Price(1100)
		if i%2 == 0 {
			side = Sell
			px = 1000
		}
		bk.SubmitLimit(limit(id, side, px, 10))
	}
}
