package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/rpggio/localfirst/internal/domain/entity"
	"github.com/rpggio/localfirst/internal/repository"
)

// DefaultQuota mirrors the per-origin budget of browser local storage.
const DefaultQuota = 5 * 1024 * 1024

// Result reports whether a write persisted. Err is set when it did not.
type Result struct {
	Success bool
	Err     error
}

func ok() Result { return Result{Success: true} }

func failed(err error) Result { return Result{Err: err} }

// Adapter reads and writes JSON values and entity collections on a Backend.
// Its methods never return errors: failures are logged and reported through
// Result or a false/empty return.
type Adapter struct {
	backend Backend
	quota   int
	logger  *slog.Logger

	// Serializes read-modify-write cycles issued through this adapter. Other
	// processes sharing the backend can still interleave.
	mu sync.Mutex
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithQuota sets the maximum serialized size of one value. Zero disables it.
func WithQuota(bytes int) Option {
	return func(a *Adapter) { a.quota = bytes }
}

// WithLogger sets the logger used for swallowed failures.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates an adapter over backend.
func New(backend Backend, opts ...Option) *Adapter {
	a := &Adapter{
		backend: backend,
		quota:   DefaultQuota,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GetItem decodes the value under key into dst. It returns false when the key
// is absent or the stored value is malformed.
func (a *Adapter) GetItem(ctx context.Context, key string, dst any) bool {
	data, err := a.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			a.logger.Warn("storage read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		a.logger.Warn("stored value is malformed", "key", key, "error", err)
		return false
	}
	return true
}

// SetItem serializes value and overwrites key.
func (a *Adapter) SetItem(ctx context.Context, key string, value any) Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.write(ctx, key, value)
}

// RemoveItem deletes key entirely.
func (a *Adapter) RemoveItem(ctx context.Context, key string) Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.backend.Delete(ctx, key); err != nil {
		a.logger.Warn("storage delete failed", "key", key, "error", err)
		return failed(err)
	}
	return ok()
}

// Items returns the entity collection under key, or an empty slice.
func (a *Adapter) Items(ctx context.Context, key string) []entity.Entity {
	var items []entity.Entity
	if !a.GetItem(ctx, key, &items) || items == nil {
		return []entity.Entity{}
	}
	return items
}

// AddItem appends item to the collection under key.
func (a *Adapter) AddItem(ctx context.Context, key string, item entity.Entity) Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	items, err := a.load(ctx, key)
	if err != nil {
		return failed(err)
	}
	return a.write(ctx, key, append(items, item))
}

// UpdateItem shallow-merges item into the element with the same id. The sync
// flags of item win. Reports ErrNoMatch when no element has that id.
func (a *Adapter) UpdateItem(ctx context.Context, key string, item entity.Entity) Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	items, err := a.load(ctx, key)
	if err != nil {
		return failed(err)
	}
	i := entity.Index(items, item.ID)
	if i < 0 {
		return failed(fmt.Errorf("%w: %s", ErrNoMatch, item.ID))
	}
	items[i] = items[i].Merge(item.Map())
	return a.write(ctx, key, items)
}

// DeleteItem removes the element with id. A missing id is a successful no-op.
func (a *Adapter) DeleteItem(ctx context.Context, key, id string) Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	items, err := a.load(ctx, key)
	if err != nil {
		return failed(err)
	}
	kept := slices.DeleteFunc(items, func(e entity.Entity) bool { return e.ID == id })
	return a.write(ctx, key, kept)
}

// load reads the collection strictly: absent is empty, malformed is an error.
func (a *Adapter) load(ctx context.Context, key string) ([]entity.Entity, error) {
	data, err := a.backend.Get(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		return []entity.Entity{}, nil
	}
	if err != nil {
		a.logger.Warn("storage read failed", "key", key, "error", err)
		return nil, err
	}
	var items []entity.Entity
	if err := json.Unmarshal(data, &items); err != nil {
		a.logger.Warn("stored collection is malformed", "key", key, "error", err)
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	if items == nil {
		items = []entity.Entity{}
	}
	return items, nil
}

func (a *Adapter) write(ctx context.Context, key string, value any) Result {
	data, err := json.Marshal(value)
	if err != nil {
		a.logger.Warn("serialization failed", "key", key, "error", err)
		return failed(fmt.Errorf("encode %s: %w", key, err))
	}
	if a.quota > 0 && len(data) > a.quota {
		a.logger.Warn("storage quota exceeded", "key", key, "size", len(data), "quota", a.quota)
		return failed(fmt.Errorf("%w: %d > %d bytes", ErrQuotaExceeded, len(data), a.quota))
	}
	if err := a.backend.Set(ctx, key, data); err != nil {
		a.logger.Warn("storage write failed", "key", key, "error", err)
		return failed(err)
	}
	return ok()
}
