package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity or key doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrAccessDenied is returned when the server refuses a request because of plan limits
	ErrAccessDenied = errors.New("access denied: plan limit reached")

	// ErrUnavailable is returned when the remote API cannot be reached or answers with a failure status
	ErrUnavailable = errors.New("remote unavailable")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
)

// ErrConflict is returned when an entity with the same id already exists
var ErrConflict = errors.New("conflict: entity already exists")
