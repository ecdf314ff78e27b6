package activity

import "errors"

var (
	// ErrInvalidEvent marks a log that cannot be classified or decoded.
	ErrInvalidEvent = errors.New("invalid event")
	// ErrMissingArgs marks a log that matched a topic but carried no arguments.
	ErrMissingArgs = errors.New("event arguments missing")
	// ErrProviderUnavailable marks a failed or absent chain connection.
	ErrProviderUnavailable = errors.New("chain provider unavailable")
	// ErrInvalidAddress marks a malformed wallet address.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrInvalidAmount marks a malformed key amount.
	ErrInvalidAmount = errors.New("invalid amount")
)
