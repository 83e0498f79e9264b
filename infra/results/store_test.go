package results

import (
	"fmt"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPutAndGet(t *testing.T) {
	s := openTestStore(t)

	if err := s.Put(7, []byte(`{"step":7}`)); err != nil {
		t.Fatalf("put: %v", err)
	}

	rec, ok, err := s.Get(7)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if rec.State != StateNew {
		t.Errorf("state = %v, want NEW", rec.State)
	}
	if string(rec.Payload) != `{"step":7}` {
		t.Errorf("payload = %q", rec.Payload)
	}

	if _, ok, err := s.Get(8); err != nil || ok {
		t.Errorf("absent step: ok=%v err=%v, want false nil", ok, err)
	}
}

func TestDeliveryLifecycle(t *testing.T) {
	s := openTestStore(t)

	for step := uint64(1); step <= 5; step++ {
		if err := s.Put(step, []byte(fmt.Sprintf("snap-%d", step))); err != nil {
			t.Fatalf("put %d: %v", step, err)
		}
	}

	// Ack two, leave three pending in mixed states.
	_ = s.MarkSent(2)
	_ = s.MarkAcked(2)
	_ = s.MarkSent(4)
	_ = s.MarkAcked(4)
	_ = s.MarkSent(5)

	var pending []uint64
	err := s.ScanPending(func(r Record) error {
		pending = append(pending, r.Step)
		return nil
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	want := []uint64{1, 3, 5}
	if len(pending) != len(want) {
		t.Fatalf("pending = %v, want %v", pending, want)
	}
	for i := range want {
		if pending[i] != want[i] {
			t.Fatalf("pending = %v, want %v (step order)", pending, want)
		}
	}
}

func TestMarkAbsentStepIsNoError(t *testing.T) {
	s := openTestStore(t)
	if err := s.MarkSent(999); err != nil {
		t.Errorf("mark sent on absent step: %v", err)
	}
	if err := s.MarkAcked(999); err != nil {
		t.Errorf("mark acked on absent step: %v", err)
	}
}

func TestMarkPreservesPayload(t *testing.T) {
	s := openTestStore(t)
	_ = s.Put(1, []byte("payload"))
	_ = s.MarkSent(1)

	rec, ok, err := s.Get(1)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if rec.State != StateSent {
		t.Errorf("state = %v, want SENT", rec.State)
	}
	if string(rec.Payload) != "payload" {
		t.Errorf("payload lost across state change: %q", rec.Payload)
	}
}
