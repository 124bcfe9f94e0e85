package connectivity

import "context"

// Status is the connectivity state of the process.
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

// Event is a platform connectivity event.
type Event string

const (
	EventOnline  Event = "online"
	EventOffline Event = "offline"
)

// Source delivers platform connectivity events until ctx is done.
type Source interface {
	Run(ctx context.Context, emit func(Event)) error
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, emit func(Event)) error

// Run implements Source.
func (f SourceFunc) Run(ctx context.Context, emit func(Event)) error {
	return f(ctx, emit)
}

func (e Event) status() (Status, bool) {
	switch e {
	case EventOnline:
		return StatusOnline, true
	case EventOffline:
		return StatusOffline, true
	default:
		return "", false
	}
}
