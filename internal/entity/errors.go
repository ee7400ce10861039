package entity

import "errors"

// Domain-specific errors for entity persistence operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotFound is returned when the requested entity does not exist.
	ErrNotFound = errors.New("entity: not found")

	// ErrAlreadyExists is returned when creating an entity that already exists.
	ErrAlreadyExists = errors.New("entity: already exists")
)
