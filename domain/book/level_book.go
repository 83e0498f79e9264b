package book

import "math/rand"

// ShiftDirection names the one-tick reference price move that triggered a
// window re-center.
type ShiftDirection int

const (
	ShiftUp ShiftDirection = iota
	ShiftDown
)

func (d ShiftDirection) String() string {
	if d == ShiftUp {
		return "up"
	}
	return "down"
}

// LevelBook tracks the aggregate depth of K price levels per side around a
// moving reference price. Level 0 is the innermost level on each side;
// levels outside [0, K) are not tracked, the window re-centers on the
// reference price instead.
type LevelBook struct {
	k     int
	depth UniformInt

	bids []int64
	asks []int64
}

func NewLevelBook(k int, depth UniformInt) (*LevelBook, error) {
	if k <= 0 {
		return nil, &ConfigError{Field: "K", Reason: "must be positive"}
	}
	return &LevelBook{
		k:    k,
		bids: make([]int64, k),
		asks: make([]int64, k),

		depth: depth,
	}, nil
}

func (b *LevelBook) K() int { return b.k }

// QueueSize reports the depth at (side, level). Untouched and out-of-window
// levels read as 0.
func (b *LevelBook) QueueSize(side Side, level int) int64 {
	if level < 0 || level >= b.k {
		return 0
	}
	return b.levels(side)[level]
}

// Adjust adds delta (which may be negative) to the queue at (side, level),
// clamping the result at 0. A level outside [0, K) is a caller defect.
func (b *LevelBook) Adjust(side Side, level int, delta int64) error {
	if level < 0 || level >= b.k {
		return &RangeError{Side: side, Level: level, K: b.k}
	}
	q := b.levels(side)
	q[level] += delta
	if q[level] < 0 {
		q[level] = 0
	}
	return nil
}

// BestLevel returns the lowest level with a non-empty queue, scanning from
// level 0 upward. ok is false when the whole side is empty in-window.
func (b *LevelBook) BestLevel(side Side) (level int, ok bool) {
	q := b.levels(side)
	for i := 0; i < b.k; i++ {
		if q[i] > 0 {
			return i, true
		}
	}
	return 0, false
}

// Initialize redraws every level size independently from the replenishment
// distribution: all bid levels first, then all asks, in level order.
func (b *LevelBook) Initialize(rng *rand.Rand) {
	bids := make([]int64, b.k)
	asks := make([]int64, b.k)
	for i := range bids {
		bids[i] = b.depth.Draw(rng)
	}
	for i := range asks {
		asks[i] = b.depth.Draw(rng)
	}
	b.bids, b.asks = bids, asks
}

// Shift re-centers the window after a one-tick reference price move. On a
// ShiftUp the ask levels slide toward level 0 and the bid levels away from
// it; ShiftDown is the mirror image. The vacated boundary level on each
// side is refilled from the replenishment distribution and the level pushed
// past K-1 is dropped.
//
// Fresh slices are built in a single pass and swapped in afterwards: the
// old state is only ever read while the new one is being written.
func (b *LevelBook) Shift(dir ShiftDirection, rng *rand.Rand) {
	bids := make([]int64, b.k)
	asks := make([]int64, b.k)

	switch dir {
	case ShiftUp:
		for i := 0; i < b.k-1; i++ {
			asks[i] = b.asks[i+1]
		}
		asks[b.k-1] = b.depth.Draw(rng)
		for i := b.k - 1; i > 0; i-- {
			bids[i] = b.bids[i-1]
		}
		bids[0] = b.depth.Draw(rng)
	case ShiftDown:
		for i := 0; i < b.k-1; i++ {
			bids[i] = b.bids[i+1]
		}
		bids[b.k-1] = b.depth.Draw(rng)
		for i := b.k - 1; i > 0; i-- {
			asks[i] = b.asks[i-1]
		}
		asks[0] = b.depth.Draw(rng)
	}

	b.bids, b.asks = bids, asks
}

// TotalVolume sums the in-window depth of one side.
func (b *LevelBook) TotalVolume(side Side) int64 {
	var total int64
	for _, q := range b.levels(side) {
		total += q
	}
	return total
}

// Depths lays the full window out as one length-2K vector ordered by price:
// deepest bid first, then down to the best bid, then best ask out to the
// deepest ask.
func (b *LevelBook) Depths() []int64 {
	out := make([]int64, 0, 2*b.k)
	for i := b.k - 1; i >= 0; i-- {
		out = append(out, b.bids[i])
	}
	out = append(out, b.asks...)
	return out
}

func (b *LevelBook) levels(side Side) []int64 {
	if side == Bid {
		return b.bids
	}
	return b.asks
}
