// Package results persists per-step snapshots in a pebble store that
// doubles as a publish outbox: each record carries a delivery state the
// broadcaster walks through (new -> sent -> acked), so every snapshot
// reaches the stream at least once even across retries.
package results

import (
	"encoding/binary"
	"errors"

	"github.com/cockroachdb/pebble"
)

type State uint8

const (
	StateNew State = iota
	StateSent
	StateAcked
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	default:
		return "UNKNOWN"
	}
}

// Record is one stored snapshot plus its delivery state.
type Record struct {
	Step    uint64
	State   State
	Payload []byte
}

// value encoding: [state:1][payload:rest]
func encodeValue(r Record) []byte {
	buf := make([]byte, 1+len(r.Payload))
	buf[0] = byte(r.State)
	copy(buf[1:], r.Payload)
	return buf
}

func decodeValue(step uint64, b []byte) (Record, error) {
	if len(b) < 1 {
		return Record{}, errors.New("results: invalid record value")
	}
	payload := make([]byte, len(b)-1)
	copy(payload, b[1:])
	return Record{Step: step, State: State(b[0]), Payload: payload}, nil
}

func keyFor(step uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, step)
	return key
}

type Store struct {
	db *pebble.DB
}

func Open(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores a snapshot payload in state NEW, keyed by step.
func (s *Store) Put(step uint64, payload []byte) error {
	return s.db.Set(keyFor(step), encodeValue(Record{State: StateNew, Payload: payload}), pebble.Sync)
}

// Get returns the record at step; ok is false when absent.
func (s *Store) Get(step uint64) (Record, bool, error) {
	v, closer, err := s.db.Get(keyFor(step))
	if errors.Is(err, pebble.ErrNotFound) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	defer closer.Close()

	rec, err := decodeValue(step, v)
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// MarkSent and MarkAcked advance a record's delivery state, preserving the
// payload. Both are idempotent; marking an absent step is not an error.
func (s *Store) MarkSent(step uint64) error  { return s.setState(step, StateSent) }
func (s *Store) MarkAcked(step uint64) error { return s.setState(step, StateAcked) }

func (s *Store) setState(step uint64, state State) error {
	rec, ok, err := s.Get(step)
	if err != nil || !ok {
		return err
	}
	rec.State = state
	return s.db.Set(keyFor(step), encodeValue(rec), pebble.Sync)
}

// ScanPending walks every record not yet acked in step order. Returning an
// error from fn stops the scan.
func (s *Store) ScanPending(fn func(Record) error) error {
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		step := binary.BigEndian.Uint64(iter.Key())
		rec, err := decodeValue(step, iter.Value())
		if err != nil {
			return err
		}
		if rec.State == StateAcked {
			continue
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return iter.Error()
}
