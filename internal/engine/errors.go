package engine

import "errors"

var (
	// ErrInvalidOrder marks an order request that is rejected before any
	// state is touched (missing fields, bad quantity, unknown kind).
	ErrInvalidOrder = errors.New("invalid order")

	// ErrNoMarketPrice is returned when a market order references a symbol
	// that has never received a price update.
	ErrNoMarketPrice = errors.New("no market price")

	// ErrInvalidPrice is returned for non-positive or non-finite price updates.
	ErrInvalidPrice = errors.New("invalid price")

	// ErrOrderNotFound is returned when cancelling an unknown or already
	// settled order.
	ErrOrderNotFound = errors.New("order not found")
)
