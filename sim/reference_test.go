package sim

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"qrsim/domain/book"
)

func refTestBook(t *testing.T) *book.LevelBook {
	t.Helper()
	depth, _ := book.NewUniformInt(1, 5)
	lb, err := book.NewLevelBook(3, depth)
	if err != nil {
		t.Fatalf("new book: %v", err)
	}
	return lb
}

func TestNewRefControllerValidation(t *testing.T) {
	cases := []struct {
		name              string
		tick, th, thReset float64
	}{
		{"zero tick", 0, 0.1, 0.01},
		{"negative tick", -0.01, 0.1, 0.01},
		{"theta above one", 0.01, 1.5, 0.01},
		{"negative theta", 0.01, -0.1, 0.01},
		{"theta_reinit above one", 0.01, 0.1, 2},
	}
	for _, tc := range cases {
		_, err := NewRefController(100, tc.tick, tc.th, tc.thReset)
		var cfgErr *book.ConfigError
		if !errors.As(err, &cfgErr) {
			t.Errorf("%s: expected *ConfigError, got %v", tc.name, err)
		}
	}
}

func TestShiftUpWhenBestAskEmpty(t *testing.T) {
	lb := refTestBook(t)
	_ = lb.Adjust(book.Bid, 0, 5) // bids present, asks empty

	rc, _ := NewRefController(100.0, 0.01, 1.0, 0)
	out := rc.Evaluate(lb, rand.New(rand.NewSource(1)))

	if !out.Shifted || out.Direction != book.ShiftUp {
		t.Fatalf("outcome = %+v, want up-shift", out)
	}
	if math.Abs(rc.Price()-100.01) > 1e-9 {
		t.Errorf("price = %v, want 100.01 (exactly one tick)", rc.Price())
	}
}

func TestShiftDownWhenBestBidEmpty(t *testing.T) {
	lb := refTestBook(t)
	_ = lb.Adjust(book.Ask, 0, 5) // asks present, bids empty

	rc, _ := NewRefController(100.0, 0.01, 1.0, 0)
	out := rc.Evaluate(lb, rand.New(rand.NewSource(1)))

	if !out.Shifted || out.Direction != book.ShiftDown {
		t.Fatalf("outcome = %+v, want down-shift", out)
	}
	if math.Abs(rc.Price()-99.99) > 1e-9 {
		t.Errorf("price = %v, want 99.99", rc.Price())
	}
}

func TestTieBreakPrefersUpShift(t *testing.T) {
	lb := refTestBook(t) // both sides empty

	rc, _ := NewRefController(100.0, 0.01, 1.0, 0)
	out := rc.Evaluate(lb, rand.New(rand.NewSource(1)))

	if !out.Shifted || out.Direction != book.ShiftUp {
		t.Fatalf("outcome = %+v, want deterministic up-shift on tie", out)
	}
}

func TestNoShiftWhenBothBestLevelsBusy(t *testing.T) {
	lb := refTestBook(t)
	_ = lb.Adjust(book.Bid, 0, 1)
	_ = lb.Adjust(book.Ask, 0, 1)

	rc, _ := NewRefController(100.0, 0.01, 1.0, 0)
	for i := 0; i < 100; i++ {
		if out := rc.Evaluate(lb, rand.New(rand.NewSource(int64(i)))); out.Shifted {
			t.Fatalf("shift fired with both best levels non-empty: %+v", out)
		}
	}
	if rc.Price() != 100.0 {
		t.Errorf("price moved to %v without a shift", rc.Price())
	}
}

func TestReinitKeepsReferencePrice(t *testing.T) {
	lb := refTestBook(t)
	_ = lb.Adjust(book.Bid, 0, 100) // out-of-distribution depth
	_ = lb.Adjust(book.Ask, 0, 100)

	rc, _ := NewRefController(100.0, 0.01, 0, 1.0)
	out := rc.Evaluate(lb, rand.New(rand.NewSource(9)))

	if !out.Reinit || out.Shifted {
		t.Fatalf("outcome = %+v, want reinit only", out)
	}
	if rc.Price() != 100.0 {
		t.Errorf("reinit moved the reference price to %v", rc.Price())
	}
	if q := lb.QueueSize(book.Bid, 0); q < 1 || q > 5 {
		t.Errorf("book not redrawn from depth distribution: bid[0] = %d", q)
	}
}
