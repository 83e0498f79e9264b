// Package matching is the order-granular view of the simulated market: the
// same book the level-indexed model describes in aggregate, but kept as
// individual resting orders with explicit price-time priority. It is used
// when fill granularity matters: which specific resting order a market
// order consumed.
//
// The book is single-writer and deterministic. It depends only on its own
// Order type.
package matching
