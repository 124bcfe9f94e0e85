package sqlite

import (
	"context"
	"testing"

	"github.com/rpggio/localfirst/internal/domain/entity"
	"github.com/rpggio/localfirst/internal/kv"
	"github.com/rpggio/localfirst/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestKVStore_GetSetDelete(t *testing.T) {
	store := NewKVStore(NewTestDB(t))
	ctx := context.Background()

	_, err := store.Get(ctx, "projects")
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, store.Set(ctx, "projects", []byte(`[1]`)))
	require.NoError(t, store.Set(ctx, "projects", []byte(`[2]`)))
	value, err := store.Get(ctx, "projects")
	require.NoError(t, err)
	require.Equal(t, `[2]`, string(value))

	require.NoError(t, store.Delete(ctx, "projects"))
	_, err = store.Get(ctx, "projects")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestKVStore_BacksAdapter(t *testing.T) {
	adapter := kv.New(NewKVStore(NewTestDB(t)))
	ctx := context.Background()

	e := entity.New(map[string]any{"id": "s1", "name": "Bolt Supply"})
	require.True(t, adapter.AddItem(ctx, "suppliers", e).Success)
	require.True(t, adapter.UpdateItem(ctx, "suppliers", entity.Entity{ID: "s1", Fields: map[string]any{"category": "hardware"}}).Success)

	items := adapter.Items(ctx, "suppliers")
	require.Len(t, items, 1)
	require.Equal(t, "Bolt Supply", items[0].Fields["name"])
	require.Equal(t, "hardware", items[0].Fields["category"])
}
