package tape

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTapeAppendAndReplay(t *testing.T) {
	dir := t.TempDir()

	l, err := Open(Config{Dir: dir, SegmentSize: 1 << 20, SegmentDuration: time.Hour})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	const n = 200
	for i := 0; i < n; i++ {
		rec := Record{
			Kind: uint8(i % 3),
			Step: uint64(i + 1),
			Data: []byte(fmt.Sprintf("0,%d,7", i%5)),
		}
		if err := l.Append(rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	var got []Record
	skipped, err := Replay(dir, func(r Record) { got = append(got, r) })
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if skipped != 0 {
		t.Errorf("skipped %d records on a clean tape", skipped)
	}
	if len(got) != n {
		t.Fatalf("replayed %d records, want %d", len(got), n)
	}
	for i, r := range got {
		if r.Step != uint64(i+1) {
			t.Fatalf("record %d out of order: step %d", i, r.Step)
		}
		if want := fmt.Sprintf("0,%d,7", i%5); string(r.Data) != want {
			t.Fatalf("record %d payload = %q, want %q", i, r.Data, want)
		}
	}
}

func TestTapeSkipsCorruptLines(t *testing.T) {
	dir := t.TempDir()

	l, err := Open(Config{Dir: dir})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = l.Append(Record{Kind: 1, Step: 1, Data: []byte("a")})
	_ = l.Append(Record{Kind: 1, Step: 2, Data: []byte("b")})
	_ = l.Close()

	// Flip a payload byte in the middle of the file; the CRC must catch it.
	path := filepath.Join(dir, "000000.tape")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	data[4] = 'z'
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var steps []uint64
	skipped, err := Replay(dir, func(r Record) { steps = append(steps, r.Step) })
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
	if len(steps) != 1 || steps[0] != 2 {
		t.Errorf("surviving records = %v, want [2]", steps)
	}
}

// TestTapeReopenResumesLastSegment writes enough to rotate, reopens the
// directory and appends more: the new records must land at or after the
// highest existing segment, never back in the oldest one, so Replay keeps
// step order.
func TestTapeReopenResumesLastSegment(t *testing.T) {
	dir := t.TempDir()

	l, err := Open(Config{Dir: dir, SegmentSize: 32})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for i := 1; i <= 10; i++ {
		if err := l.Append(Record{Kind: 0, Step: uint64(i), Data: []byte("payload")}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	_ = l.Close()

	first, err := os.ReadFile(filepath.Join(dir, "000000.tape"))
	if err != nil {
		t.Fatalf("read oldest segment: %v", err)
	}

	l, err = Open(Config{Dir: dir, SegmentSize: 32})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	for i := 11; i <= 20; i++ {
		if err := l.Append(Record{Kind: 0, Step: uint64(i), Data: []byte("payload")}); err != nil {
			t.Fatalf("append after reopen: %v", err)
		}
	}
	_ = l.Close()

	after, err := os.ReadFile(filepath.Join(dir, "000000.tape"))
	if err != nil {
		t.Fatalf("reread oldest segment: %v", err)
	}
	if string(after) != string(first) {
		t.Fatal("reopen appended to the oldest segment instead of resuming the newest")
	}

	var steps []uint64
	if _, err := Replay(dir, func(r Record) { steps = append(steps, r.Step) }); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(steps) != 20 {
		t.Fatalf("replayed %d records, want 20", len(steps))
	}
	for i, s := range steps {
		if s != uint64(i+1) {
			t.Fatalf("record %d out of step order: step %d", i, s)
		}
	}
}

func TestTapeRotation(t *testing.T) {
	dir := t.TempDir()

	l, err := Open(Config{Dir: dir, SegmentSize: 32})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for i := 0; i < 10; i++ {
		if err := l.Append(Record{Kind: 0, Step: uint64(i), Data: []byte("payload")}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	_ = l.Close()

	files, _ := os.ReadDir(dir)
	if len(files) < 2 {
		t.Fatalf("expected rotated segments, found %d file(s)", len(files))
	}

	count := 0
	if _, err := Replay(dir, func(Record) { count++ }); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if count != 10 {
		t.Fatalf("replay across segments found %d records, want 10", count)
	}
}
