// Package tape persists the applied event sequence of a simulation run as
// an append-only, segmented log. A run replayed from its tape reproduces
// the exact trajectory, which makes long runs auditable after the fact.
package tape

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type Config struct {
	Dir             string
	SegmentSize     int64
	SegmentDuration time.Duration
}

// Log appends event records to the current segment, rotating when the
// segment grows past SegmentSize or older than SegmentDuration.
type Log struct {
	dir             string
	segmentSize     int64
	segmentDuration time.Duration

	current      *segment
	nextIndex    int
	lastRotation time.Time
}

// Open resumes appending at the highest existing segment index, so a
// reopened directory keeps its segments in step order for Replay.
func Open(cfg Config) (*Log, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}

	index, err := lastSegmentIndex(cfg.Dir)
	if err != nil {
		return nil, err
	}
	seg, err := openSegment(cfg.Dir, index)
	if err != nil {
		return nil, err
	}

	return &Log{
		dir:             cfg.Dir,
		segmentSize:     cfg.SegmentSize,
		segmentDuration: cfg.SegmentDuration,
		current:         seg,
		nextIndex:       index,
		lastRotation:    time.Now(),
	}, nil
}

// lastSegmentIndex finds the highest segment index already in dir, 0 when
// the directory is empty. Files not matching the segment name pattern are
// ignored.
func lastSegmentIndex(dir string) (int, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.tape"))
	if err != nil {
		return 0, err
	}
	last := 0
	for _, path := range files {
		var idx int
		if _, err := fmt.Sscanf(filepath.Base(path), "%06d.tape", &idx); err != nil {
			continue
		}
		if idx > last {
			last = idx
		}
	}
	return last, nil
}

func (l *Log) Append(r Record) error {
	if err := l.current.append(encodeLine(r)); err != nil {
		return err
	}
	if l.shouldRotate() {
		return l.rotate()
	}
	return nil
}

func (l *Log) Close() error {
	return l.current.close()
}

func (l *Log) shouldRotate() bool {
	return (l.segmentSize > 0 && l.current.offset >= l.segmentSize) ||
		(l.segmentDuration > 0 && time.Since(l.lastRotation) >= l.segmentDuration)
}

func (l *Log) rotate() error {
	_ = l.current.close()
	l.nextIndex++

	seg, err := openSegment(l.dir, l.nextIndex)
	if err != nil {
		return err
	}

	l.current = seg
	l.lastRotation = time.Now()
	return nil
}

// Replay walks every segment in index order and calls fn for each intact
// record. Lines failing the CRC check are skipped and counted rather than
// aborting the replay.
func Replay(dir string, fn func(Record)) (skipped int, err error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.tape"))
	if err != nil {
		return 0, err
	}

	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return skipped, err
		}
		for _, line := range splitLines(string(data)) {
			if line == "" {
				continue
			}
			rec, err := decodeLine(line)
			if err != nil {
				skipped++
				continue
			}
			fn(rec)
		}
	}
	return skipped, nil
}

func splitLines(s string) []string {
	out := []string{}
	start := 0
	for i, c := range s {
		if c == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

// ---- segment ----

type segment struct {
	file   *os.File
	offset int64
}

func openSegment(dir string, index int) (*segment, error) {
	path := filepath.Join(dir, fmt.Sprintf("%06d.tape", index))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &segment{file: f, offset: info.Size()}, nil
}

func (s *segment) append(b []byte) error {
	n, err := s.file.Write(b)
	s.offset += int64(n)
	return err
}

func (s *segment) close() error {
	return s.file.Close()
}
