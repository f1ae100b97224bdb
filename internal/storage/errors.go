package storage

import "errors"

// Errors shared by every store implementation. Callers match them with
// errors.Is regardless of the backing database.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when an insert collides with an
	// existing primary key.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput is returned when a record fails validation
	// before it reaches the database.
	ErrInvalidInput = errors.New("invalid input")
)
