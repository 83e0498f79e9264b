// Package book holds the aggregate, level-indexed view of the limit order
// book used by the queue-reactive process: per-level queue sizes around a
// moving reference price, the intensity functions that turn those sizes
// into event arrival rates, and the event type itself.
//
// Everything in this package is single-writer and deterministic. Draws take
// an explicit *rand.Rand so a seeded run is exactly reproducible.
package book
