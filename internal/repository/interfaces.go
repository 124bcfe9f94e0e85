package repository

import (
	"context"

	"github.com/rpggio/localfirst/internal/domain/entity"
)

// ResourceStore persists server-side resource collections per tenant.
type ResourceStore interface {
	Create(ctx context.Context, tenantID, resource string, e entity.Entity) (entity.Entity, error)
	Get(ctx context.Context, tenantID, resource, id string) (entity.Entity, error)
	List(ctx context.Context, tenantID, resource string, filters map[string]string) ([]entity.Entity, error)
	Update(ctx context.Context, tenantID, resource, id string, patch map[string]any) (entity.Entity, error)
	Delete(ctx context.Context, tenantID, resource, id string) error
	Count(ctx context.Context, tenantID, resource string) (int, error)
}
