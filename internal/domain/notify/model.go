package notify

import "time"

// Level is the severity of a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Kind identifies what happened.
type Kind string

const (
	KindWentOffline    Kind = "went_offline"
	KindWentOnline     Kind = "went_online"
	KindLoadedRemote   Kind = "loaded_remote"
	KindLoadedOffline  Kind = "loaded_offline"
	KindCacheFallback  Kind = "cache_fallback"
	KindAccessDenied   Kind = "access_denied"
	KindCreated        Kind = "created"
	KindCreatedLocal   Kind = "created_local"
	KindUpdated        Kind = "updated"
	KindUpdatedLocal   Kind = "updated_local"
	KindDeleted        Kind = "deleted"
	KindDeletedLocal   Kind = "deleted_local"
	KindWriteFailed    Kind = "write_failed"
	KindStorageFailed  Kind = "storage_failed"
	KindReconciled     Kind = "reconciled"
	KindExternalChange Kind = "external_change"
)

// Notification is a typed event emitted by the sync layer. Rendering it is up to
// the subscriber.
type Notification struct {
	Level    Level     `json:"level"`
	Kind     Kind      `json:"kind"`
	Resource string    `json:"resource,omitempty"`
	EntityID string    `json:"entity_id,omitempty"`
	Count    int       `json:"count,omitempty"`
	Message  string    `json:"message"`
	At       time.Time `json:"at"`
}
