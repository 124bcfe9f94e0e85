package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rpggio/localfirst/internal/domain/notify"
)

// Service handles activity log operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new activity service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger}
}

// LogActivity logs an activity entry with the current timestamp if missing.
func (s *Service) LogActivity(ctx context.Context, entry *ActivityEntry) error {
	if entry == nil || entry.ActivityType == "" {
		return ErrInvalidInput
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := s.repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

// GetRecentActivity lists activity entries with filtering.
func (s *Service) GetRecentActivity(ctx context.Context, opts ListActivityOptions) ([]ActivityEntry, error) {
	return s.repo.List(ctx, opts)
}

// Recorder returns a notification handler that journals every notification.
// Journal failures are logged and otherwise ignored.
func (s *Service) Recorder(ctx context.Context) notify.Handler {
	return func(n notify.Notification) {
		entry := &ActivityEntry{
			Resource:     n.Resource,
			ActivityType: n.Kind,
			Level:        n.Level,
			Summary:      n.Message,
			CreatedAt:    n.At,
		}
		if n.EntityID != "" {
			id := n.EntityID
			entry.EntityID = &id
		}
		if err := s.LogActivity(ctx, entry); err != nil {
			s.logger.Warn("failed to journal notification", "kind", n.Kind, "error", err)
		}
	}
}
