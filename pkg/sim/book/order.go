package book

// Side is the direction of an order. The numeric values make signed
// inventory math convenient (Buy adds, Sell subtracts).
type Side int8

const (
	Buy  Side = 1
	Sell Side = -1
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// Opposite returns the other side of the book.
func (s Side) Opposite() Side { return -s }

// Price is an integer price in ticks.
type Price = int64

// Qty is an integer size in lots.
type Qty = int64

// OrderID is a process-unique order identifier. IDs are issued
// monotonically by strategy.IDGen and never reused.
type OrderID = uint64

// Order is a single limit or market order. Qty is the remaining
// unfilled quantity and only ever decreases; everything else is fixed
// at submission.
type Order struct {
	ID    OrderID
	Side  Side
	Price Price // ignored for market orders
	Qty   Qty
	Tick  uint64 // simulation tick at submission
}

// Fill records one match between an incoming order and a resting one.
// Taker is the side of the incoming (aggressing) order.
type Fill struct {
	Price   Price
	Qty     Qty
	Tick    uint64
	MakerID OrderID
	Taker   Side
}

// Level is an aggregated (price, total resting qty) pair for depth
// snapshots.
type Level struct {
	Price Price `json:"price"`
	Qty   Qty   `json:"qty"`
}
