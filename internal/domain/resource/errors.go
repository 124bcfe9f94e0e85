package resource

import (
	"errors"

	"github.com/rpggio/localfirst/internal/repository"
)

var (
	// ErrAccessDenied indicates the server refused the request because of plan
	// limits. Callers should offer an upgrade instead of showing cached data.
	ErrAccessDenied = repository.ErrAccessDenied
	// ErrNotApplied indicates a write did not persist anywhere.
	ErrNotApplied = errors.New("change not applied")
	// ErrNotFound indicates the entity is not in the local collection.
	ErrNotFound = errors.New("entity not found")
	// ErrOffline indicates an operation that needs the server ran while offline.
	ErrOffline = errors.New("offline")
)
