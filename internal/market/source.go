// Package market supplies price feeds for the trading engine. A Source pushes
// (symbol, price) observations into a Sink at its own cadence; the engine's
// UpdateMarketPrice is the only sink in production.
package market

import "context"

// Sink consumes a price observation. Errors are reported back to the source
// for logging only; a source never retries a rejected price.
type Sink func(symbol string, price float64) error

// Source streams prices until ctx is cancelled.
type Source interface {
	Run(ctx context.Context, sink Sink) error
}
