package connectivity_test

import (
	"context"
	"testing"

	"github.com/rpggio/localfirst/internal/domain/connectivity"
	"github.com/rpggio/localfirst/internal/domain/notify"
	"github.com/stretchr/testify/require"
)

func TestMonitor_InitialStatus(t *testing.T) {
	require.True(t, connectivity.NewMonitor(connectivity.StatusOnline, nil, nil).Online())
	require.False(t, connectivity.NewMonitor(connectivity.StatusOffline, nil, nil).Online())
}

func TestMonitor_TransitionsNotify(t *testing.T) {
	rec := &notify.Recorder{}
	m := connectivity.NewMonitor(connectivity.StatusOnline, rec, nil)

	var seen []connectivity.Status
	m.OnChange(func(s connectivity.Status) { seen = append(seen, s) })

	m.Handle(connectivity.EventOffline)
	require.False(t, m.Online())
	m.Handle(connectivity.EventOnline)
	require.True(t, m.Online())

	all := rec.All()
	require.Len(t, all, 2)
	require.Equal(t, notify.LevelWarning, all[0].Level)
	require.Equal(t, notify.KindWentOffline, all[0].Kind)
	require.Contains(t, all[0].Message, "sync when you reconnect")
	require.Equal(t, notify.LevelSuccess, all[1].Level)
	require.Equal(t, notify.KindWentOnline, all[1].Kind)
	require.Equal(t, []connectivity.Status{connectivity.StatusOffline, connectivity.StatusOnline}, seen)
}

func TestMonitor_RepeatedEventIsIgnored(t *testing.T) {
	rec := &notify.Recorder{}
	m := connectivity.NewMonitor(connectivity.StatusOffline, rec, nil)

	m.Handle(connectivity.EventOffline)
	m.Handle(connectivity.Event("bogus"))
	require.Empty(t, rec.All())
	require.False(t, m.Online())
}

func TestMonitor_Watch(t *testing.T) {
	m := connectivity.NewMonitor(connectivity.StatusOnline, nil, nil)
	src := connectivity.SourceFunc(func(ctx context.Context, emit func(connectivity.Event)) error {
		emit(connectivity.EventOffline)
		return nil
	})

	require.NoError(t, m.Watch(context.Background(), src))
	require.False(t, m.Online())
}
