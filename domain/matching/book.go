package matching

import (
	"errors"
	"math"
)

// ErrInvalidOrderType rejects non-limit orders at insertion: market orders
// execute immediately via matching, cancels remove immediately via Cancel,
// neither ever rests. The failed call does not corrupt book state.
var ErrInvalidOrderType = errors.New("only limit orders can rest in the book")

var errTickSize = errors.New("tick size must be positive")

// Book keeps resting limit orders per tick price with price-time priority.
type Book struct {
	tick float64

	bids *rbTree
	asks *rbTree

	bySeq   map[uint64]*Order
	lastSeq uint64
}

// Fill is one partial execution against a resting order. MakerSeq
// identifies the resting order that was consumed.
type Fill struct {
	Price    float64
	Volume   int64
	MakerSeq uint64
}

func NewBook(tick float64) (*Book, error) {
	if tick <= 0 {
		return nil, errTickSize
	}
	return &Book{
		tick:  tick,
		bids:  newRBTree(),
		asks:  newRBTree(),
		bySeq: make(map[uint64]*Order),
	}, nil
}

// Add rests a limit order. The price is bucketed to the nearest tick and
// the order joins the tail of that price's queue, preserving time priority.
// The assigned sequence number is the order's identity from here on.
func (b *Book) Add(o *Order) (uint64, error) {
	if o.Kind != Limit {
		return 0, ErrInvalidOrderType
	}

	ticks := b.bucket(o.Price)
	o.Price = float64(ticks) * b.tick

	b.lastSeq++
	o.Seq = b.lastSeq

	b.tree(o.Side).upsert(ticks).enqueue(o)
	b.bySeq[o.Seq] = o
	return o.Seq, nil
}

// Cancel removes a resting order by identity. An unknown sequence number
// means the order was already filled or canceled; that is not an error and
// returns nil. Removal preserves the order of the rest of the queue.
func (b *Book) Cancel(seq uint64) *Order {
	o, ok := b.bySeq[seq]
	if !ok {
		return nil
	}
	delete(b.bySeq, seq)

	lvl := o.level
	side := o.Side
	lvl.remove(o)
	if lvl.empty() {
		b.tree(side).delete(lvl.ticks)
	}
	return o
}

// Reduce shrinks a resting order in place, preserving its queue priority,
// and returns the volume actually removed. The order leaves the book when
// nothing remains.
func (b *Book) Reduce(seq uint64, by int64) int64 {
	o, ok := b.bySeq[seq]
	if !ok || by <= 0 {
		return 0
	}
	if by >= o.Volume {
		removed := o.Volume
		b.Cancel(seq)
		return removed
	}
	o.Volume -= by
	o.level.totalVolume -= by
	return by
}

// MatchMarket crosses an incoming market order of the given volume against
// resting liquidity on the opposite side: best price first (ascending asks
// for a buy, descending bids for a sell), head of queue first within a
// price. Fully consumed resting orders leave the book; the walk stops when
// the incoming volume is exhausted or no liquidity remains. The returned
// fills are the aggressor's trade tape, in execution order, and never sum
// to more than the resting volume.
func (b *Book) MatchMarket(side Side, volume int64) []Fill {
	var fills []Fill
	remaining := volume

	for remaining > 0 {
		var lvl *priceLevel
		if side == Buy {
			lvl = b.asks.min()
		} else {
			lvl = b.bids.max()
		}
		if lvl == nil {
			break
		}

		price := float64(lvl.ticks) * b.tick
		for remaining > 0 && !lvl.empty() {
			maker := lvl.head
			traded := remaining
			if maker.Volume < traded {
				traded = maker.Volume
			}

			maker.Volume -= traded
			lvl.totalVolume -= traded
			remaining -= traded
			fills = append(fills, Fill{Price: price, Volume: traded, MakerSeq: maker.Seq})

			if maker.Volume == 0 {
				lvl.popHead()
				delete(b.bySeq, maker.Seq)
			}
		}

		if lvl.empty() {
			b.opposite(side).delete(lvl.ticks)
		}
	}

	return fills
}

// ---- derived read-only queries ----

func (b *Book) BestBid() (float64, bool) {
	lvl := b.bids.max()
	if lvl == nil {
		return 0, false
	}
	return float64(lvl.ticks) * b.tick, true
}

func (b *Book) BestAsk() (float64, bool) {
	lvl := b.asks.min()
	if lvl == nil {
		return 0, false
	}
	return float64(lvl.ticks) * b.tick, true
}

func (b *Book) MidPrice() (float64, bool) {
	bid, okBid := b.BestBid()
	ask, okAsk := b.BestAsk()
	if !okBid || !okAsk {
		return 0, false
	}
	return (bid + ask) / 2, true
}

func (b *Book) Spread() (float64, bool) {
	bid, okBid := b.BestBid()
	ask, okAsk := b.BestAsk()
	if !okBid || !okAsk {
		return 0, false
	}
	return ask - bid, true
}

// VolumeAt sums the resting volume at one tick-bucketed price.
func (b *Book) VolumeAt(side Side, price float64) int64 {
	lvl := b.tree(side).find(b.bucket(price))
	if lvl == nil {
		return 0
	}
	return lvl.totalVolume
}

// FirstAt returns the head of the resting queue at a price, nil when the
// level is empty or absent. Read-only.
func (b *Book) FirstAt(side Side, price float64) *Order {
	lvl := b.tree(side).find(b.bucket(price))
	if lvl == nil {
		return nil
	}
	return lvl.head
}

// Walk visits one side's price levels best-first, calling fn for every
// resting order in priority order until fn returns false.
func (b *Book) Walk(side Side, fn func(*Order) bool) {
	visit := func(lvl *priceLevel) bool {
		for o := lvl.head; o != nil; o = o.next {
			if !fn(o) {
				return false
			}
		}
		return true
	}
	if side == Buy {
		b.bids.descend(visit)
	} else {
		b.asks.ascend(visit)
	}
}

// RestingOrders counts orders currently in the book.
func (b *Book) RestingOrders() int {
	return len(b.bySeq)
}

// Reset drops every resting order and the identity index. Assigned
// sequence numbers are never reused across a reset.
func (b *Book) Reset() {
	b.bids.clear()
	b.asks.clear()
	b.bySeq = make(map[uint64]*Order)
}

func (b *Book) tree(side Side) *rbTree {
	if side == Buy {
		return b.bids
	}
	return b.asks
}

func (b *Book) opposite(side Side) *rbTree {
	if side == Buy {
		return b.asks
	}
	return b.bids
}

func (b *Book) bucket(price float64) int64 {
	return int64(math.Round(price / b.tick))
}
