package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrCorrupt is returned when a stored body no longer matches its digest.
	ErrCorrupt = errors.New("persistence: digest mismatch")
)
