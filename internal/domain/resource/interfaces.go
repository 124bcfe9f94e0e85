package resource

import (
	"context"
	"net/url"

	"github.com/rpggio/localfirst/internal/domain/entity"
	"github.com/rpggio/localfirst/internal/kv"
)

// Remote is the server side of one resource.
type Remote interface {
	List(ctx context.Context, query url.Values) ([]entity.Entity, error)
	Create(ctx context.Context, e entity.Entity) (entity.Entity, error)
	Update(ctx context.Context, id string, patch map[string]any) (entity.Entity, error)
	Delete(ctx context.Context, id string) error
}

// Cache is the local persistence adapter.
type Cache interface {
	Items(ctx context.Context, key string) []entity.Entity
	SetItem(ctx context.Context, key string, value any) kv.Result
	AddItem(ctx context.Context, key string, item entity.Entity) kv.Result
	UpdateItem(ctx context.Context, key string, item entity.Entity) kv.Result
	DeleteItem(ctx context.Context, key, id string) kv.Result
}

// Connectivity reports the current connectivity state.
type Connectivity interface {
	Online() bool
}
