package notify_test

import (
	"testing"

	"github.com/rpggio/localfirst/internal/domain/notify"
	"github.com/stretchr/testify/require"
)

func TestBus_SubscribeEmitUnsubscribe(t *testing.T) {
	bus := notify.NewBus()

	var first, second []notify.Kind
	unsubFirst := bus.Subscribe(func(n notify.Notification) { first = append(first, n.Kind) })
	bus.Subscribe(func(n notify.Notification) { second = append(second, n.Kind) })

	bus.Emit(notify.Notification{Kind: notify.KindWentOffline, Level: notify.LevelWarning})
	unsubFirst()
	bus.Emit(notify.Notification{Kind: notify.KindWentOnline, Level: notify.LevelSuccess})

	require.Equal(t, []notify.Kind{notify.KindWentOffline}, first)
	require.Equal(t, []notify.Kind{notify.KindWentOffline, notify.KindWentOnline}, second)
}

func TestBus_StampsTime(t *testing.T) {
	bus := notify.NewBus()
	rec := &notify.Recorder{}
	bus.Subscribe(rec.Emit)

	bus.Emit(notify.Notification{Kind: notify.KindCreated})
	all := rec.All()
	require.Len(t, all, 1)
	require.False(t, all[0].At.IsZero())
}
