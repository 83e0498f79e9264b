package book

import (
	"errors"
	"fmt"
)

// ErrNoAdmissibleEvent is returned by the event clock when the summed
// intensity over all admissible events is zero. Recoverable: the caller
// reinitializes the book and continues instead of spinning.
var ErrNoAdmissibleEvent = errors.New("no admissible event: total intensity is zero")

// ConfigError reports an invalid constructor parameter. Fatal, raised at
// construction, never recovered.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// RangeError reports a level index outside [0, K). It indicates a caller
// defect, not a recoverable condition.
type RangeError struct {
	Side  Side
	Level int
	K     int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("level %d out of range [0, %d) on %s side", e.Level, e.K, e.Side)
}
