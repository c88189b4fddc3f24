package storage

import "errors"

// Sentinel errors shared across the storage and service layers.
// Callers should use errors.Is to match these values.
var (
	// ErrNotFound is returned when a raffle or entry does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientFunds is returned by ApplyPurchase before any
	// state is touched when the wallet cannot cover the cost.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrRaffleFinalized is returned when a purchase targets a raffle
	// that is no longer active.
	ErrRaffleFinalized = errors.New("raffle already finalized")
)
