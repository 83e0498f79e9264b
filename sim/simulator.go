package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"

	"github.com/rs/zerolog"

	"qrsim/domain/book"
	"qrsim/domain/matching"
	"qrsim/infra/metrics"
)

// Params fixes one simulation run. Together with the seed they determine
// the full event sequence and trajectory.
type Params struct {
	K           int
	TickSize    float64
	RefPrice    float64
	Theta       float64 // reference-price-move probability per step
	ThetaReinit float64 // full reinitialization probability per step
	Seed        int64

	Depth      book.UniformInt // depth-replenishment distribution
	OrderSizes book.UniformInt

	Limit  book.Intensity
	Cancel book.Intensity
	Market book.Intensity

	// Mirror keeps an order-granular matching book in sync with the
	// aggregate window, producing per-order fills for market events.
	Mirror bool
}

// Recorder receives every applied event, e.g. the tape log.
type Recorder interface {
	Record(step int, ev book.Event) error
}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(step int, ev book.Event) error

func (f RecorderFunc) Record(step int, ev book.Event) error { return f(step, ev) }

// SnapshotSink receives each step's snapshot, e.g. the results store or a
// live stream.
type SnapshotSink interface {
	Put(s Snapshot) error
}

// Simulator drives the queue-reactive loop: draw the next event, apply it,
// evaluate the reference price, mirror into the matching book, snapshot.
// It exclusively owns the books and the random source; one step runs to
// completion before the next begins.
type Simulator struct {
	params Params

	book  *book.LevelBook
	match *matching.Book
	ref   *RefController
	clock *Clock
	rng   *rand.Rand

	log   zerolog.Logger
	rec   Recorder
	sinks []SnapshotSink

	step int
	time float64
}

// New validates the parameters, builds the components and draws the
// initial book state.
func New(p Params, logger zerolog.Logger) (*Simulator, error) {
	lb, err := book.NewLevelBook(p.K, p.Depth)
	if err != nil {
		return nil, err
	}
	ref, err := NewRefController(p.RefPrice, p.TickSize, p.Theta, p.ThetaReinit)
	if err != nil {
		return nil, err
	}

	s := &Simulator{
		params: p,
		book:   lb,
		ref:    ref,
		clock:  NewClock(p.Limit, p.Cancel, p.Market, p.OrderSizes),
		rng:    rand.New(rand.NewSource(p.Seed)),
		log:    logger,
	}

	if p.Mirror {
		mb, err := matching.NewBook(p.TickSize)
		if err != nil {
			return nil, &book.ConfigError{Field: "tick_size", Reason: err.Error()}
		}
		s.match = mb
	}

	s.book.Initialize(s.rng)
	s.reseedMirror()
	s.log.Debug().Int("k", p.K).Float64("tick", p.TickSize).Msg("book initialized")
	return s, nil
}

// Book exposes the aggregate window for read-only inspection.
func (s *Simulator) Book() *book.LevelBook { return s.book }

// MatchingBook is nil unless mirroring is on. Read-only.
func (s *Simulator) MatchingBook() *matching.Book { return s.match }

func (s *Simulator) SetRecorder(r Recorder)    { s.rec = r }
func (s *Simulator) AddSink(sink SnapshotSink) { s.sinks = append(s.sinks, sink) }

// Run applies exactly numSteps events and returns one snapshot per step.
// A degenerate clock (no admissible event) is recovered once per step by
// reinitializing the book; if the clock is still degenerate after that,
// the intensities are all zero and the run aborts instead of spinning.
func (s *Simulator) Run(ctx context.Context, numSteps int) ([]Snapshot, error) {
	if numSteps < 0 {
		return nil, &book.ConfigError{Field: "num_steps", Reason: "must be non-negative"}
	}
	s.log.Info().Int("steps", numSteps).Int64("seed", s.params.Seed).Msg("starting simulation")

	out := make([]Snapshot, 0, numSteps)
	for i := 0; i < numSteps; i++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		ev, err := s.clock.Next(s.book, s.rng)
		if errors.Is(err, book.ErrNoAdmissibleEvent) {
			s.log.Warn().Int("step", s.step).Msg("degenerate clock state, reinitializing book")
			metrics.ClockStallsTotal.Inc()
			s.book.Initialize(s.rng)
			s.reseedMirror()

			ev, err = s.clock.Next(s.book, s.rng)
			if err != nil {
				return out, fmt.Errorf("clock degenerate after reinitialization: %w", err)
			}
		}

		s.apply(ev)
		s.time += ev.Dt
		s.step++
		metrics.StepsTotal.Inc()

		outcome := s.ref.Evaluate(s.book, s.rng)
		if outcome.Shifted {
			metrics.ShiftsTotal.WithLabelValues(outcome.Direction.String()).Inc()
			s.log.Debug().
				Str("direction", outcome.Direction.String()).
				Float64("reference_price", s.ref.Price()).
				Msg("reference price shifted")
		}
		if outcome.Reinit {
			metrics.ReinitsTotal.Inc()
			s.log.Debug().Int("step", s.step).Msg("book reinitialized")
		}
		if outcome.Shifted || outcome.Reinit {
			s.reseedMirror()
		}

		if s.rec != nil {
			if err := s.rec.Record(s.step, ev); err != nil {
				s.log.Error().Err(err).Msg("event record failed")
			}
		}

		snap := s.snapshot()
		out = append(out, snap)
		for _, sink := range s.sinks {
			if err := sink.Put(snap); err != nil {
				s.log.Error().Err(err).Int("step", snap.Step).Msg("snapshot sink failed")
			}
		}

		if s.step%1000 == 0 {
			s.log.Info().Int("step", s.step).Float64("time", s.time).Msg("simulation progress")
		}
	}

	s.log.Info().Int("steps", numSteps).Float64("time", s.time).Msg("simulation completed")
	return out, nil
}

// apply mutates the aggregate window per the event rules and mirrors the
// event into the matching book when one is attached.
func (s *Simulator) apply(ev book.Event) {
	metrics.EventsTotal.WithLabelValues(ev.Kind.String()).Inc()
	metrics.EventVolumeTotal.WithLabelValues(ev.Kind.String()).Add(float64(ev.Volume))

	switch ev.Kind {
	case book.LimitArrival:
		_ = s.book.Adjust(ev.Side, ev.Level, ev.Volume)
		if s.match != nil {
			_, _ = s.match.Add(&matching.Order{
				Kind:   matching.Limit,
				Side:   mirrorSide(ev.Side),
				Price:  s.levelPrice(ev.Side, ev.Level),
				Volume: ev.Volume,
			})
		}

	case book.Cancellation:
		q := s.book.QueueSize(ev.Side, ev.Level)
		vol := ev.Volume
		if q < vol {
			vol = q
		}
		_ = s.book.Adjust(ev.Side, ev.Level, -vol)
		if s.match != nil {
			s.cancelMirrored(mirrorSide(ev.Side), s.levelPrice(ev.Side, ev.Level), vol)
		}

	case book.MarketArrival:
		opp := ev.Side.Opposite()
		best, ok := s.book.BestLevel(opp)
		if !ok {
			// Market orders cannot create negative depth.
			metrics.NoLiquidityTotal.Inc()
			s.log.Debug().Str("side", ev.Side.String()).Msg("market order into empty window dropped")
			return
		}
		q := s.book.QueueSize(opp, best)
		vol := ev.Volume
		if q < vol {
			vol = q
		}
		_ = s.book.Adjust(opp, best, -vol)
		if s.match != nil {
			// Match only what the window consumed so the two
			// representations stay in lockstep.
			fills := s.match.MatchMarket(mirrorSide(ev.Side), vol)
			metrics.FillsTotal.Add(float64(len(fills)))
			for _, f := range fills {
				metrics.FillVolumeTotal.Add(float64(f.Volume))
			}
		}
	}
}

// cancelMirrored removes volume at a price head-first: the aggregate model
// does not say which resting order was pulled, so the oldest goes first,
// partially amending the last one touched.
func (s *Simulator) cancelMirrored(side matching.Side, price float64, vol int64) {
	for vol > 0 {
		o := s.match.FirstAt(side, price)
		if o == nil {
			return
		}
		vol -= s.match.Reduce(o.Seq, vol)
	}
}

// reseedMirror rebuilds the matching book from the aggregate window: one
// resting order per non-empty level. Shifts and reinitializations redraw
// aggregate depth with no order-level identity to preserve, so the mirror
// starts over rather than diverge.
func (s *Simulator) reseedMirror() {
	if s.match == nil {
		return
	}
	s.match.Reset()
	for _, side := range bothSides {
		for level := 0; level < s.book.K(); level++ {
			q := s.book.QueueSize(side, level)
			if q == 0 {
				continue
			}
			_, _ = s.match.Add(&matching.Order{
				Kind:   matching.Limit,
				Side:   mirrorSide(side),
				Price:  s.levelPrice(side, level),
				Volume: q,
			})
		}
	}
}

// levelPrice maps (side, level) to an absolute price: ask level i rests at
// ref + (i+1) ticks, bid level i at ref - (i+1) ticks.
func (s *Simulator) levelPrice(side book.Side, level int) float64 {
	offset := float64(level+1) * s.ref.Tick()
	if side == book.Bid {
		return s.ref.Price() - offset
	}
	return s.ref.Price() + offset
}

func (s *Simulator) snapshot() Snapshot {
	snap := Snapshot{
		Step:     s.step,
		Time:     s.time,
		RefPrice: s.ref.Price(),
		Depths:   s.book.Depths(),
	}
	bb, okBid := s.book.BestLevel(book.Bid)
	ba, okAsk := s.book.BestLevel(book.Ask)
	if okBid && okAsk {
		bid := s.ref.Price() - float64(bb+1)*s.ref.Tick()
		ask := s.ref.Price() + float64(ba+1)*s.ref.Tick()
		snap.Mid = (bid + ask) / 2
		snap.Spread = ask - bid
		snap.TwoSided = true
	}
	return snap
}

func mirrorSide(side book.Side) matching.Side {
	if side == book.Bid {
		return matching.Buy
	}
	return matching.Sell
}

// SnapshotKey is the stable identity of a snapshot in external stores and
// message streams.
func SnapshotKey(s Snapshot) string {
	return strconv.Itoa(s.Step)
}
