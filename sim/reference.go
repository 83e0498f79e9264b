package sim

import (
	"math/rand"

	"qrsim/domain/book"
)

// RefController owns the reference price. It moves by exactly one tick per
// shift, and only when the best level on the vacated side is empty.
type RefController struct {
	theta       float64
	thetaReinit float64
	tick        float64
	price       float64
}

func NewRefController(price, tick, theta, thetaReinit float64) (*RefController, error) {
	if tick <= 0 {
		return nil, &book.ConfigError{Field: "tick_size", Reason: "must be positive"}
	}
	if theta < 0 || theta > 1 {
		return nil, &book.ConfigError{Field: "theta", Reason: "must be a probability in [0, 1]"}
	}
	if thetaReinit < 0 || thetaReinit > 1 {
		return nil, &book.ConfigError{Field: "theta_reinit", Reason: "must be a probability in [0, 1]"}
	}
	return &RefController{
		theta:       theta,
		thetaReinit: thetaReinit,
		tick:        tick,
		price:       price,
	}, nil
}

// RefOutcome reports what one per-event evaluation did.
type RefOutcome struct {
	Shifted   bool
	Direction book.ShiftDirection
	Reinit    bool
}

// Evaluate runs the two transitions once, in a fixed order. With
// probability theta a move is considered: an empty ask queue at level 0
// moves the reference up one tick and shifts the window; otherwise an
// empty bid queue at level 0 moves it down. At most one shift fires, and
// when both level-0 queues are empty the up-shift wins. Independently,
// with probability thetaReinit, the whole book is redrawn while the
// reference price stays put.
func (rc *RefController) Evaluate(lb *book.LevelBook, rng *rand.Rand) RefOutcome {
	var out RefOutcome

	if rng.Float64() < rc.theta {
		switch {
		case lb.QueueSize(book.Ask, 0) == 0:
			rc.price += rc.tick
			lb.Shift(book.ShiftUp, rng)
			out.Shifted = true
			out.Direction = book.ShiftUp
		case lb.QueueSize(book.Bid, 0) == 0:
			rc.price -= rc.tick
			lb.Shift(book.ShiftDown, rng)
			out.Shifted = true
			out.Direction = book.ShiftDown
		}
	}

	if rng.Float64() < rc.thetaReinit {
		lb.Initialize(rng)
		out.Reinit = true
	}

	return out
}

func (rc *RefController) Price() float64 { return rc.price }
func (rc *RefController) Tick() float64  { return rc.tick }
