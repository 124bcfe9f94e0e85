package activity

import (
	"time"

	"github.com/rpggio/localfirst/internal/domain/notify"
)

// ActivityType is the kind of sync event recorded
type ActivityType = notify.Kind

// ActivityEntry represents an event in the sync journal
type ActivityEntry struct {
	ID           int64        `json:"id"`
	Resource     string       `json:"resource,omitempty"`
	EntityID     *string      `json:"entity_id,omitempty"`
	ActivityType ActivityType `json:"type"`
	Level        notify.Level `json:"level"`
	Summary      string       `json:"summary"`
	CreatedAt    time.Time    `json:"created_at"`
}
