package mocks

import (
	"context"
	"net/url"

	"github.com/rpggio/localfirst/internal/domain/activity"
	"github.com/rpggio/localfirst/internal/domain/entity"
	"github.com/stretchr/testify/mock"
)

// Remote is a mock for resource.Remote.
type Remote struct {
	mock.Mock
}

func (m *Remote) List(ctx context.Context, query url.Values) ([]entity.Entity, error) {
	args := m.Called(ctx, query)
	if items, ok := args.Get(0).([]entity.Entity); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Remote) Create(ctx context.Context, e entity.Entity) (entity.Entity, error) {
	args := m.Called(ctx, e)
	if out, ok := args.Get(0).(entity.Entity); ok {
		return out, args.Error(1)
	}
	return entity.Entity{}, args.Error(1)
}

func (m *Remote) Update(ctx context.Context, id string, patch map[string]any) (entity.Entity, error) {
	args := m.Called(ctx, id, patch)
	if out, ok := args.Get(0).(entity.Entity); ok {
		return out, args.Error(1)
	}
	return entity.Entity{}, args.Error(1)
}

func (m *Remote) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, opts)
	if entries, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return entries, args.Error(1)
	}
	return nil, args.Error(1)
}
