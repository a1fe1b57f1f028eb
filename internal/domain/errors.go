package domain

import "errors"

var (
	// ErrValidation marks input that fails domain validation.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a missing record or push token.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks an update rejected by a status guard.
	ErrConflict = errors.New("conflict")
	// ErrUnauthenticated marks a caller without valid credentials.
	ErrUnauthenticated = errors.New("unauthenticated")
)
