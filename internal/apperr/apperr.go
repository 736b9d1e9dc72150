// Package apperr holds the error taxonomy surfaced to API callers.
package apperr

import "errors"

var (
	// ErrInvalidRequest covers malformed input, missing fields and non-positive amounts.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInsufficientBalance means the source wallet cannot cover the requested amount.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrUnknownToken means neither the catalog nor the token search could describe a mint.
	ErrUnknownToken = errors.New("unknown token")

	// ErrNotFound means a referenced user or news item does not exist.
	ErrNotFound = errors.New("not found")
)

// Known reports whether err belongs to the taxonomy above. Anything else is an
// internal failure.
func Known(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrUnknownToken) ||
		errors.Is(err, ErrNotFound)
}
