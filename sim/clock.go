package sim

import (
	"math/rand"

	"qrsim/domain/book"
)

// Clock draws the next event of the queue-reactive process with the
// competing-exponential-clocks construction: the waiting time is
// exponential with the summed rate over all admissible events, and the
// fired event is a categorical draw weighted by its rate. Volume is drawn
// from the order-size distribution afterwards, independent of the rates.
type Clock struct {
	limit  book.Intensity
	cancel book.Intensity
	market book.Intensity
	sizes  book.UniformInt
}

func NewClock(limit, cancel, market book.Intensity, sizes book.UniformInt) *Clock {
	return &Clock{limit: limit, cancel: cancel, market: market, sizes: sizes}
}

type candidate struct {
	kind  book.EventKind
	side  book.Side
	level int
	rate  float64
}

var bothSides = [2]book.Side{book.Bid, book.Ask}

// candidates enumerates every admissible event at the current state in a
// fixed order, so a seeded run replays identically: per side, per level, a
// limit arrival and, on a non-empty queue, a cancellation; then one market
// order per side when the best opposite level holds volume.
func (c *Clock) candidates(lb *book.LevelBook) ([]candidate, float64) {
	out := make([]candidate, 0, 4*lb.K()+2)
	total := 0.0

	add := func(kind book.EventKind, side book.Side, level int, rate float64) {
		if rate <= 0 {
			return
		}
		out = append(out, candidate{kind: kind, side: side, level: level, rate: rate})
		total += rate
	}

	for _, side := range bothSides {
		for level := 0; level < lb.K(); level++ {
			q := lb.QueueSize(side, level)
			add(book.LimitArrival, side, level, c.limit.Eval(q))
			if q > 0 {
				add(book.Cancellation, side, level, c.cancel.Eval(q))
			}
		}
	}
	for _, side := range bothSides {
		opp := side.Opposite()
		if best, ok := lb.BestLevel(opp); ok {
			add(book.MarketArrival, side, 0, c.market.Eval(lb.QueueSize(opp, best)))
		}
	}

	return out, total
}

// Next draws the next event. It returns ErrNoAdmissibleEvent when the
// summed intensity is zero; the caller reinitializes and retries rather
// than spinning. The book is never mutated here.
func (c *Clock) Next(lb *book.LevelBook, rng *rand.Rand) (book.Event, error) {
	cands, total := c.candidates(lb)
	if total <= 0 {
		return book.Event{}, book.ErrNoAdmissibleEvent
	}

	dt := rng.ExpFloat64() / total

	// Categorical draw weighted by rate. Floating point may leave the
	// target a hair past the final cumulative sum, so the last candidate
	// is the fallback.
	target := rng.Float64() * total
	idx := len(cands) - 1
	acc := 0.0
	for i, cand := range cands {
		acc += cand.rate
		if target < acc {
			idx = i
			break
		}
	}
	picked := cands[idx]

	return book.Event{
		Kind:   picked.kind,
		Side:   picked.side,
		Level:  picked.level,
		Volume: c.sizes.Draw(rng),
		Dt:     dt,
	}, nil
}
