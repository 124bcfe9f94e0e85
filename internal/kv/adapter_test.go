package kv_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rpggio/localfirst/internal/domain/entity"
	"github.com/rpggio/localfirst/internal/kv"
	"github.com/stretchr/testify/require"
)

func newAdapter(t *testing.T, opts ...kv.Option) (*kv.Adapter, *kv.MemoryBackend) {
	t.Helper()
	backend := kv.NewMemoryBackend()
	return kv.New(backend, opts...), backend
}

func acme() entity.Entity {
	return entity.New(map[string]any{"id": "p1", "name": "Acme", "status": "active", "isSynced": true})
}

func TestAdapter_SetGetRoundTrip(t *testing.T) {
	a, _ := newAdapter(t)
	ctx := context.Background()

	want := []entity.Entity{acme()}
	require.True(t, a.SetItem(ctx, "projects", want).Success)

	var got []entity.Entity
	require.True(t, a.GetItem(ctx, "projects", &got))
	require.Equal(t, want, got)
}

func TestAdapter_GetMissingOrMalformed(t *testing.T) {
	a, backend := newAdapter(t)
	ctx := context.Background()

	var got []entity.Entity
	require.False(t, a.GetItem(ctx, "projects", &got))

	require.NoError(t, backend.Set(ctx, "projects", []byte("{not json")))
	require.False(t, a.GetItem(ctx, "projects", &got))
	require.Empty(t, a.Items(ctx, "projects"))
}

func TestAdapter_AddThenDeleteRestoresCollection(t *testing.T) {
	a, _ := newAdapter(t)
	ctx := context.Background()

	existing := entity.New(map[string]any{"id": "c0", "name": "Existing"})
	require.True(t, a.SetItem(ctx, "customers", []entity.Entity{existing}).Success)
	before := a.Items(ctx, "customers")

	added := entity.New(map[string]any{"id": "c1", "name": "New"})
	require.True(t, a.AddItem(ctx, "customers", added).Success)
	require.Len(t, a.Items(ctx, "customers"), 2)

	require.True(t, a.DeleteItem(ctx, "customers", "c1").Success)
	require.Equal(t, before, a.Items(ctx, "customers"))
}

func TestAdapter_AddToEmptyKey(t *testing.T) {
	a, _ := newAdapter(t)
	ctx := context.Background()

	require.True(t, a.AddItem(ctx, "projects", acme()).Success)
	require.Equal(t, []entity.Entity{acme()}, a.Items(ctx, "projects"))
}

func TestAdapter_DeleteMissingIDIsNoop(t *testing.T) {
	a, _ := newAdapter(t)
	ctx := context.Background()

	require.True(t, a.SetItem(ctx, "projects", []entity.Entity{acme()}).Success)
	res := a.DeleteItem(ctx, "projects", "missing-id")
	require.True(t, res.Success)
	require.NoError(t, res.Err)
	require.Equal(t, []entity.Entity{acme()}, a.Items(ctx, "projects"))
}

func TestAdapter_UpdateMergesShallow(t *testing.T) {
	a, _ := newAdapter(t)
	ctx := context.Background()
	require.True(t, a.SetItem(ctx, "projects", []entity.Entity{acme()}).Success)

	patch := entity.Entity{ID: "p1", Fields: map[string]any{"status": "done"}}
	require.True(t, a.UpdateItem(ctx, "projects", patch).Success)

	items := a.Items(ctx, "projects")
	require.Len(t, items, 1)
	require.Equal(t, "Acme", items[0].Fields["name"])
	require.Equal(t, "done", items[0].Fields["status"])
	require.False(t, items[0].IsSynced)
}

func TestAdapter_UpdateNoMatch(t *testing.T) {
	a, _ := newAdapter(t)
	ctx := context.Background()
	require.True(t, a.SetItem(ctx, "projects", []entity.Entity{acme()}).Success)

	res := a.UpdateItem(ctx, "projects", entity.Entity{ID: "nope"})
	require.False(t, res.Success)
	require.ErrorIs(t, res.Err, kv.ErrNoMatch)
}

func TestAdapter_MalformedCollectionFailsWrites(t *testing.T) {
	a, backend := newAdapter(t)
	ctx := context.Background()
	require.NoError(t, backend.Set(ctx, "projects", []byte(`{"id":"x"}`)))

	require.False(t, a.AddItem(ctx, "projects", acme()).Success)
	require.False(t, a.DeleteItem(ctx, "projects", "x").Success)
}

func TestAdapter_QuotaExceeded(t *testing.T) {
	a, _ := newAdapter(t, kv.WithQuota(16))
	ctx := context.Background()

	res := a.SetItem(ctx, "projects", []entity.Entity{acme()})
	require.False(t, res.Success)
	require.ErrorIs(t, res.Err, kv.ErrQuotaExceeded)

	var got []entity.Entity
	require.False(t, a.GetItem(ctx, "projects", &got), "nothing should have been written")
}

func TestAdapter_SerializationFailure(t *testing.T) {
	a, _ := newAdapter(t)
	res := a.SetItem(context.Background(), "bad", map[string]any{"ch": make(chan int)})
	require.False(t, res.Success)
	require.Error(t, res.Err)
}

type failingBackend struct{ *kv.MemoryBackend }

func (f *failingBackend) Set(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestAdapter_BackendFailure(t *testing.T) {
	backend := &failingBackend{MemoryBackend: kv.NewMemoryBackend()}
	a := kv.New(backend)

	res := a.AddItem(context.Background(), "projects", acme())
	require.False(t, res.Success)
	require.EqualError(t, res.Err, "disk full")
}

func TestAdapter_RemoveItem(t *testing.T) {
	a, _ := newAdapter(t)
	ctx := context.Background()
	require.True(t, a.SetItem(ctx, "projects", []entity.Entity{acme()}).Success)
	require.True(t, a.RemoveItem(ctx, "projects").Success)
	require.Empty(t, a.Items(ctx, "projects"))
}
