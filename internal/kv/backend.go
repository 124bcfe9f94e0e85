// Package kv implements the key-value persistence adapter that backs the local
// entity cache, and the backends it can run on.
package kv

import (
	"context"
	"errors"
	"sync"

	"github.com/rpggio/localfirst/internal/repository"
)

var (
	// ErrQuotaExceeded indicates a value is larger than the configured quota.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrNoMatch indicates UpdateItem found no element with the item's id.
	ErrNoMatch = errors.New("no item with matching id")
)

// Backend stores raw values by key. Get returns repository.ErrNotFound for
// missing keys.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// MemoryBackend keeps values in a map.
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string][]byte)}
}

// Get implements Backend.
func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set implements Backend.
func (m *MemoryBackend) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), value...)
	return nil
}

// Delete implements Backend.
func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
