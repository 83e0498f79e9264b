package matching

type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

type Kind int

const (
	Limit Kind = iota
	Market
	Cancel
)

// Order is a pure domain entity. Seq is assigned by the book at insertion,
// monotonically increasing and never reused; it is the order's only
// identity. A resting order is owned exclusively by the price-level queue
// holding it until it is filled or canceled.
type Order struct {
	Seq    uint64
	Kind   Kind
	Side   Side
	Price  float64 // bucketed to the tick grid at insertion
	Volume int64

	next  *Order
	prev  *Order
	level *priceLevel
}

// Next walks the resting queue at the order's price in time priority.
// Read-only traversal helper.
func (o *Order) Next() *Order {
	return o.next
}
