// Package exchange is the order-matching core: per-instrument books of
// resting orders, price-time priority matching and the trades that
// fall out of it.
//
// The package is pure and synchronous. It knows nothing about the
// message transport; the service layer feeds it one order at a time
// and carries the resulting trades away.
package exchange
