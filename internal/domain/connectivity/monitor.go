package connectivity

import (
	"context"
	"log/slog"
	"sync"

	"github.com/rpggio/localfirst/internal/domain/notify"
)

const (
	offlineMessage = "You are offline. Changes will sync when you reconnect."
	onlineMessage  = "Back online. Syncing changes..."
)

// Monitor tracks Online/Offline. State only changes through Handle; the monitor
// never polls.
type Monitor struct {
	mu        sync.RWMutex
	status    Status
	listeners map[int]func(Status)
	nextID    int
	events    notify.Emitter
	logger    *slog.Logger
}

// NewMonitor creates a monitor starting in the platform's current status.
func NewMonitor(initial Status, events notify.Emitter, logger *slog.Logger) *Monitor {
	if initial != StatusOffline {
		initial = StatusOnline
	}
	if events == nil {
		events = notify.Discard
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Monitor{
		status:    initial,
		listeners: make(map[int]func(Status)),
		events:    events,
		logger:    logger,
	}
}

// Status returns the current state.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Online reports whether the current state is Online.
func (m *Monitor) Online() bool {
	return m.Status() == StatusOnline
}

// OnChange registers fn for every transition. The returned func unregisters it.
func (m *Monitor) OnChange(fn func(Status)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

// Handle applies a platform event. Events matching the current state are ignored.
// The emitted notification is advisory; it does not trigger a re-sync.
func (m *Monitor) Handle(ev Event) {
	next, ok := ev.status()
	if !ok {
		m.logger.Warn("ignoring unknown connectivity event", "event", ev)
		return
	}

	m.mu.Lock()
	if m.status == next {
		m.mu.Unlock()
		return
	}
	m.status = next
	listeners := make([]func(Status), 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	m.logger.Info("connectivity changed", "status", next)
	if next == StatusOffline {
		m.events.Emit(notify.Notification{
			Level:   notify.LevelWarning,
			Kind:    notify.KindWentOffline,
			Message: offlineMessage,
		})
	} else {
		m.events.Emit(notify.Notification{
			Level:   notify.LevelSuccess,
			Kind:    notify.KindWentOnline,
			Message: onlineMessage,
		})
	}
	for _, fn := range listeners {
		fn(next)
	}
}

// Watch feeds events from src into the monitor until ctx is done or src fails.
func (m *Monitor) Watch(ctx context.Context, src Source) error {
	return src.Run(ctx, m.Handle)
}
