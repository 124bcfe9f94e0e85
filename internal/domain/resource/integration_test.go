package resource_test

import (
	"context"
	"testing"

	"github.com/rpggio/localfirst/internal/domain/connectivity"
	"github.com/rpggio/localfirst/internal/domain/entity"
	"github.com/rpggio/localfirst/internal/domain/notify"
	"github.com/rpggio/localfirst/internal/domain/resource"
	"github.com/rpggio/localfirst/internal/kv"
	"github.com/rpggio/localfirst/internal/testserver"
	"github.com/rpggio/localfirst/internal/transport"
	"github.com/stretchr/testify/require"
)

func TestService_AgainstReferenceServer(t *testing.T) {
	ctx := context.Background()
	ts := testserver.New(t, "token", "tenant1", transport.Options{})
	def, _ := resource.Lookup("customers")

	conn := connectivity.NewMonitor(connectivity.StatusOnline, notify.Discard, nil)
	backend, err := kv.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	cache := kv.New(backend)
	svc := resource.NewService(def, ts.Client(t).Resource(def.Key, def.Path), cache, conn, notify.Discard, nil)

	acme, err := svc.Create(ctx, entity.New(map[string]any{"name": "Acme", "email": "acme@example.test"}))
	require.NoError(t, err)
	require.True(t, acme.IsSynced)
	globex, err := svc.Create(ctx, entity.New(map[string]any{"name": "Globex", "email": "globex@example.test"}))
	require.NoError(t, err)

	conn.Handle(connectivity.EventOffline)

	local, err := svc.Create(ctx, entity.New(map[string]any{"name": "Initech", "email": "initech@example.test"}))
	require.NoError(t, err)
	require.True(t, local.IsLocal)
	_, err = svc.Update(ctx, acme.ID, map[string]any{"name": "Acme Corp"})
	require.NoError(t, err)
	require.NoError(t, svc.Remove(ctx, globex.ID))
	require.Equal(t, 3, svc.Pending(ctx))

	onServer, err := ts.Resources.List(ctx, "tenant1", "customers", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"Acme", "Globex"}, names(onServer))

	conn.Handle(connectivity.EventOnline)

	snap, err := svc.List(ctx)
	require.NoError(t, err)
	require.Equal(t, resource.SourceRemote, snap.Source)
	require.Equal(t, []string{"Acme Corp", "Initech"}, names(snap.Items))

	report, err := svc.Sync(ctx)
	require.NoError(t, err)
	require.Equal(t, resource.SyncReport{Created: 1, Updated: 1, Deleted: 1}, report)
	require.Equal(t, 0, svc.Pending(ctx))

	onServer, err = ts.Resources.List(ctx, "tenant1", "customers", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"Acme Corp", "Initech"}, names(onServer))
	for _, e := range svc.Current().Items {
		require.False(t, e.IsLocal)
		require.True(t, e.IsSynced)
		require.False(t, e.HasLocalID())
	}
}

func TestService_PlanLimitDeniesCreate(t *testing.T) {
	ctx := context.Background()
	ts := testserver.New(t, "token", "tenant1", transport.Options{MaxRecords: 1})
	def, _ := resource.Lookup("projects")

	conn := connectivity.NewMonitor(connectivity.StatusOnline, notify.Discard, nil)
	svc := resource.NewService(def, ts.Client(t).Resource(def.Key, def.Path), kv.New(kv.NewMemoryBackend()), conn, notify.Discard, nil)

	_, err := svc.Create(ctx, entity.New(map[string]any{"name": "First"}))
	require.NoError(t, err)
	_, err = svc.Create(ctx, entity.New(map[string]any{"name": "Second"}))
	require.ErrorIs(t, err, resource.ErrAccessDenied)
	require.Len(t, svc.Current().Items, 1)
}
