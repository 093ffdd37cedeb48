package domain

import "errors"

var (
	// ErrNotFound is returned when a referenced list, item, account or price does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalid is returned when a mutation would break a store invariant.
	ErrInvalid = errors.New("invalid operation")
)
