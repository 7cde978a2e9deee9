package storage

import "errors"

// Storage errors shared by all backends.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a snapshot batch collides with an
	// existing (item_id, timestamp). Snapshots are never updated.
	ErrDuplicateKey = errors.New("duplicate key: snapshots are append-only")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
