package book

type Side int

const (
	Bid Side = iota
	Ask
)

func (s Side) Opposite() Side {
	if s == Bid {
		return Ask
	}
	return Bid
}

func (s Side) String() string {
	if s == Bid {
		return "bid"
	}
	return "ask"
}

type EventKind int

const (
	LimitArrival EventKind = iota
	MarketArrival
	Cancellation
)

func (k EventKind) String() string {
	switch k {
	case LimitArrival:
		return "limit"
	case MarketArrival:
		return "market"
	case Cancellation:
		return "cancel"
	default:
		return "unknown"
	}
}

// Event is one transition of the queue-reactive process. Level is
// meaningless for MarketArrival: a market order always consumes the best
// level on the opposite side. Dt is the exponential waiting time that
// elapsed before the event fired.
type Event struct {
	Kind   EventKind
	Side   Side
	Level  int
	Volume int64
	Dt     float64
}
