package book

import "math/rand"

// UniformInt draws integers uniformly from [Min, Max], both inclusive.
// It backs depth replenishment and order sizing.
type UniformInt struct {
	Min int64
	Max int64
}

func NewUniformInt(min, max int64) (UniformInt, error) {
	if min < 0 {
		return UniformInt{}, &ConfigError{Field: "min", Reason: "must be non-negative"}
	}
	if max < min {
		return UniformInt{}, &ConfigError{Field: "max", Reason: "must be >= min"}
	}
	return UniformInt{Min: min, Max: max}, nil
}

func (u UniformInt) Draw(rng *rand.Rand) int64 {
	return u.Min + rng.Int63n(u.Max-u.Min+1)
}
