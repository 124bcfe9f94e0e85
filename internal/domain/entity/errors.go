package entity

import "errors"

var (
	// ErrInvalidInput indicates a draft failed validation.
	ErrInvalidInput = errors.New("invalid entity input")
	// ErrMissingID indicates an operation needs an entity id.
	ErrMissingID = errors.New("entity id required")
)
