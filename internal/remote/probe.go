package remote

import (
	"context"
	"time"

	"github.com/rpggio/localfirst/internal/domain/connectivity"
)

// HealthProbe is the connectivity event source for targets without browser
// online/offline events: it reports the reachability of /health.
type HealthProbe struct {
	client   *Client
	interval time.Duration
}

// NewHealthProbe creates a probe that checks every interval.
func NewHealthProbe(client *Client, interval time.Duration) *HealthProbe {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &HealthProbe{client: client, interval: interval}
}

// Check reports the current platform status.
func (p *HealthProbe) Check(ctx context.Context) connectivity.Status {
	ctx, cancel := context.WithTimeout(ctx, p.interval)
	defer cancel()
	if err := p.client.Ping(ctx); err != nil {
		return connectivity.StatusOffline
	}
	return connectivity.StatusOnline
}

// Run implements connectivity.Source.
func (p *HealthProbe) Run(ctx context.Context, emit func(connectivity.Event)) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if p.Check(ctx) == connectivity.StatusOnline {
				emit(connectivity.EventOnline)
			} else if ctx.Err() == nil {
				emit(connectivity.EventOffline)
			}
		}
	}
}
