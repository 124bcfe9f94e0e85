package resource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/localfirst/internal/domain/entity"
	"github.com/rpggio/localfirst/internal/domain/notify"
	"github.com/rpggio/localfirst/internal/kv"
	"github.com/rpggio/localfirst/internal/repository"
)

// Source says where a snapshot came from.
type Source string

const (
	SourceRemote Source = "remote"
	SourceCache  Source = "cache"
)

// Snapshot is the result of the latest list.
type Snapshot struct {
	Items     []entity.Entity
	Source    Source
	FetchedAt time.Time
}

// SyncReport counts what an explicit sync pushed.
type SyncReport struct {
	Created int
	Updated int
	Deleted int
	Failed  int
}

// Total is the number of changes the server accepted.
func (r SyncReport) Total() int {
	return r.Created + r.Updated + r.Deleted
}

// Service is the entity repository for one resource. It decides per call whether
// to talk to the server or to the local cache.
type Service struct {
	def    Definition
	remote Remote
	cache  Cache
	conn   Connectivity
	events notify.Emitter
	logger *slog.Logger
	newID  func() string

	mu      sync.RWMutex
	current Snapshot
}

// NewService creates a repository service for def.
func NewService(def Definition, remote Remote, cache Cache, conn Connectivity, events notify.Emitter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if events == nil {
		events = notify.Discard
	}
	return &Service{
		def:    def,
		remote: remote,
		cache:  cache,
		conn:   conn,
		events: events,
		logger: logger.With("resource", def.Key),
		newID:  func() string { return entity.LocalIDPrefix + uuid.NewString() },
	}
}

// Definition returns the resource definition the service was built with.
func (s *Service) Definition() Definition {
	return s.def
}

// Current returns the latest snapshot.
func (s *Service) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.current
	out.Items = append([]entity.Entity(nil), s.current.Items...)
	return out
}

// List returns the collection. Offline it reads the cache only. Online it fetches
// from the server and refreshes the cache; a failed fetch falls back to the cache.
// The only error besides context cancellation is ErrAccessDenied.
func (s *Service) List(ctx context.Context) (Snapshot, error) {
	if !s.conn.Online() {
		items := s.cache.Items(ctx, s.def.Key)
		s.emit(notify.LevelInfo, notify.KindLoadedOffline, "", len(items),
			fmt.Sprintf("Loaded %d records (offline mode)", len(items)))
		return s.store(items, SourceCache), nil
	}

	fetched, err := s.remote.List(ctx, s.def.Query)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return Snapshot{}, ctx.Err()
	case errors.Is(err, repository.ErrAccessDenied):
		s.logger.Warn("list refused by server", "error", err)
		s.emit(notify.LevelError, notify.KindAccessDenied, "", 0, "Your plan does not allow this. Please upgrade.")
		return Snapshot{}, fmt.Errorf("listing %s: %w", s.def.Key, ErrAccessDenied)
	default:
		s.logger.Warn("list failed, using cache", "error", err)
		items := s.cache.Items(ctx, s.def.Key)
		s.emit(notify.LevelWarning, notify.KindCacheFallback, "", len(items), "Network error, using locally saved data")
		return s.store(items, SourceCache), nil
	}

	items := s.overlay(ctx, fetched)
	if res := s.cache.SetItem(ctx, s.def.Key, items); !res.Success {
		s.logger.Warn("cache write failed", "error", res.Err)
		s.emit(notify.LevelWarning, notify.KindStorageFailed, "", 0, "Could not save data locally")
	}
	s.emit(notify.LevelInfo, notify.KindLoadedRemote, "", len(items), fmt.Sprintf("Loaded %d records", len(items)))
	return s.store(items, SourceRemote), nil
}

// overlay merges the server collection with changes the server has not seen:
// pending edits replace their server version, tombstoned records are hidden and
// local-only records are appended.
func (s *Service) overlay(ctx context.Context, fetched []entity.Entity) []entity.Entity {
	cached := s.cache.Items(ctx, s.def.Key)
	deleted := map[string]bool{}
	for _, t := range s.cache.Items(ctx, s.def.PendingDeletesKey()) {
		deleted[t.ID] = true
	}
	pending := map[string]entity.Entity{}
	for _, c := range cached {
		if !c.IsLocal && !c.IsSynced {
			pending[c.ID] = c
		}
	}

	out := make([]entity.Entity, 0, len(fetched))
	for _, e := range fetched {
		if deleted[e.ID] {
			continue
		}
		if p, ok := pending[e.ID]; ok {
			out = append(out, p)
			continue
		}
		out = append(out, e)
	}
	for _, c := range cached {
		if c.IsLocal {
			out = append(out, c)
		}
	}
	return out
}

// Create validates and stores a new record, on the server when online and in the
// cache otherwise. The collection is relisted afterwards either way.
func (s *Service) Create(ctx context.Context, draft entity.Entity) (entity.Entity, error) {
	draft = draft.Clone()
	draft.IsLocal, draft.IsSynced = false, false
	if err := entity.ValidateRequired(draft, s.def.Required); err != nil {
		return entity.Entity{}, err
	}
	if draft.ID == "" {
		draft.ID = s.newID()
	}

	var (
		out entity.Entity
		err error
	)
	if s.conn.Online() {
		out, err = s.remote.Create(ctx, draft)
		if err == nil {
			s.emit(notify.LevelSuccess, notify.KindCreated, out.ID, 0, "Created successfully")
		} else {
			err = s.writeFailed(ctx, "create", draft.ID, err)
		}
	} else {
		draft.MarkLocal()
		out = draft
		if res := s.cache.AddItem(ctx, s.def.Key, draft); res.Success {
			s.emit(notify.LevelInfo, notify.KindCreatedLocal, draft.ID, 0, "Saved locally. It will sync when you reconnect.")
		} else {
			err = s.storageFailed("create", draft.ID, res.Err)
		}
	}

	if _, lerr := s.List(ctx); lerr != nil && err == nil {
		s.logger.Warn("relist after create failed", "error", lerr)
	}
	if err != nil {
		return entity.Entity{}, err
	}
	return out, nil
}

// Update applies patch to the record with id. Records that only exist locally are
// always updated in the cache.
func (s *Service) Update(ctx context.Context, id string, patch map[string]any) (entity.Entity, error) {
	current, found := s.find(ctx, id)
	if found {
		if err := entity.ValidateRequired(current.MergeFields(patch), s.def.Required); err != nil {
			return entity.Entity{}, err
		}
	}

	var (
		out entity.Entity
		err error
	)
	if s.conn.Online() && !(found && current.IsLocal) {
		body := patch
		if found && !current.IsSynced {
			// carry earlier offline edits along
			body = current.MergeFields(patch).Fields
		}
		out, err = s.remote.Update(ctx, id, body)
		if err == nil {
			if found {
				out.MarkSynced()
				if res := s.cache.UpdateItem(ctx, s.def.Key, out); !res.Success {
					s.logger.Warn("cache write failed", "op", "update", "id", id, "error", res.Err)
				}
			}
			s.emit(notify.LevelSuccess, notify.KindUpdated, id, 0, "Updated successfully")
		} else {
			err = s.writeFailed(ctx, "update", id, err)
		}
	} else {
		if !found {
			return entity.Entity{}, fmt.Errorf("updating %s %s: %w", s.def.Key, id, ErrNotFound)
		}
		out = current.MergeFields(patch)
		if !out.IsLocal {
			out.MarkPending()
		}
		if res := s.cache.UpdateItem(ctx, s.def.Key, out); res.Success {
			s.emit(notify.LevelInfo, notify.KindUpdatedLocal, id, 0, "Updated locally. It will sync when you reconnect.")
		} else {
			err = s.storageFailed("update", id, res.Err)
		}
	}

	if _, lerr := s.List(ctx); lerr != nil && err == nil {
		s.logger.Warn("relist after update failed", "error", lerr)
	}
	if err != nil {
		return entity.Entity{}, err
	}
	return out, nil
}

// Remove deletes the record with id. Offline removal of a record the server knows
// about leaves a tombstone for Sync.
func (s *Service) Remove(ctx context.Context, id string) error {
	current, found := s.find(ctx, id)

	var err error
	if s.conn.Online() && !(found && current.IsLocal) {
		err = s.remote.Delete(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			err = nil
		}
		if err == nil {
			s.emit(notify.LevelSuccess, notify.KindDeleted, id, 0, "Deleted successfully")
		} else {
			err = s.writeFailed(ctx, "delete", id, err)
		}
	} else {
		res := s.cache.DeleteItem(ctx, s.def.Key, id)
		if res.Success && found && !current.IsLocal {
			res = s.cache.AddItem(ctx, s.def.PendingDeletesKey(), entity.Entity{ID: id})
		}
		if res.Success {
			s.emit(notify.LevelInfo, notify.KindDeletedLocal, id, 0, "Deleted locally. It will sync when you reconnect.")
		} else {
			err = s.storageFailed("delete", id, res.Err)
		}
	}

	if _, lerr := s.List(ctx); lerr != nil && err == nil {
		s.logger.Warn("relist after delete failed", "error", lerr)
	}
	return err
}

// Sync pushes every pending local change to the server: local-only records are
// created, pending edits are sent whole and tombstones are deleted. Changes that
// fail stay pending. It never runs on its own.
func (s *Service) Sync(ctx context.Context) (SyncReport, error) {
	var report SyncReport
	if !s.conn.Online() {
		return report, fmt.Errorf("syncing %s: %w", s.def.Key, ErrOffline)
	}

	for _, item := range s.cache.Items(ctx, s.def.Key) {
		switch {
		case item.IsLocal:
			draft := item.Clone()
			draft.IsLocal = false
			created, err := s.remote.Create(ctx, draft)
			if err != nil {
				if s.syncStop(err) {
					return report, s.syncDenied(err)
				}
				s.logger.Warn("sync create failed", "id", item.ID, "error", err)
				report.Failed++
				continue
			}
			if res := s.replace(ctx, item.ID, created); !res.Success {
				_ = s.storageFailed("sync", item.ID, res.Err)
				report.Failed++
				continue
			}
			report.Created++
		case !item.IsSynced:
			updated, err := s.remote.Update(ctx, item.ID, item.Fields)
			if err != nil {
				if s.syncStop(err) {
					return report, s.syncDenied(err)
				}
				s.logger.Warn("sync update failed", "id", item.ID, "error", err)
				report.Failed++
				continue
			}
			updated.MarkSynced()
			if res := s.cache.UpdateItem(ctx, s.def.Key, updated); !res.Success {
				_ = s.storageFailed("sync", item.ID, res.Err)
				report.Failed++
				continue
			}
			report.Updated++
		}
	}

	for _, tomb := range s.cache.Items(ctx, s.def.PendingDeletesKey()) {
		err := s.remote.Delete(ctx, tomb.ID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			if s.syncStop(err) {
				return report, s.syncDenied(err)
			}
			s.logger.Warn("sync delete failed", "id", tomb.ID, "error", err)
			report.Failed++
			continue
		}
		if res := s.cache.DeleteItem(ctx, s.def.PendingDeletesKey(), tomb.ID); !res.Success {
			_ = s.storageFailed("sync", tomb.ID, res.Err)
			report.Failed++
			continue
		}
		report.Deleted++
	}

	switch {
	case report.Failed > 0:
		s.emit(notify.LevelWarning, notify.KindReconciled, "", report.Total(),
			fmt.Sprintf("Synced %d changes, %d still pending", report.Total(), report.Failed))
	case report.Total() > 0:
		s.emit(notify.LevelSuccess, notify.KindReconciled, "", report.Total(),
			fmt.Sprintf("Synced %d changes", report.Total()))
	}
	s.logger.Info("sync finished", "created", report.Created, "updated", report.Updated,
		"deleted", report.Deleted, "failed", report.Failed)

	if _, err := s.List(ctx); err != nil {
		return report, err
	}
	return report, nil
}

// Pending counts records and tombstones the server has not seen.
func (s *Service) Pending(ctx context.Context) int {
	n := len(s.cache.Items(ctx, s.def.PendingDeletesKey()))
	for _, item := range s.cache.Items(ctx, s.def.Key) {
		if !item.IsSynced {
			n++
		}
	}
	return n
}

func (s *Service) syncStop(err error) bool {
	return errors.Is(err, repository.ErrAccessDenied) || errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func (s *Service) syncDenied(err error) error {
	if errors.Is(err, repository.ErrAccessDenied) {
		s.emit(notify.LevelError, notify.KindAccessDenied, "", 0, "Your plan does not allow this. Please upgrade.")
		return fmt.Errorf("syncing %s: %w", s.def.Key, ErrAccessDenied)
	}
	return err
}

// replace swaps the local record id for the server copy in a single write, so a
// failed write never leaves both behind.
func (s *Service) replace(ctx context.Context, id string, created entity.Entity) kv.Result {
	items := s.cache.Items(ctx, s.def.Key)
	if i := entity.Index(items, id); i >= 0 {
		items[i] = created
	} else {
		items = append(items, created)
	}
	return s.cache.SetItem(ctx, s.def.Key, items)
}

func (s *Service) find(ctx context.Context, id string) (entity.Entity, bool) {
	items := s.cache.Items(ctx, s.def.Key)
	if i := entity.Index(items, id); i >= 0 {
		return items[i], true
	}
	return entity.Entity{}, false
}

func (s *Service) writeFailed(ctx context.Context, op, id string, err error) error {
	if errors.Is(err, repository.ErrAccessDenied) {
		s.logger.Warn("write refused by server", "op", op, "id", id, "error", err)
		s.emit(notify.LevelError, notify.KindAccessDenied, id, 0, "Your plan does not allow this. Please upgrade.")
		return fmt.Errorf("%s %s: %w", op, s.def.Key, ErrAccessDenied)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.logger.Warn("write failed", "op", op, "id", id, "error", err)
	s.emit(notify.LevelWarning, notify.KindWriteFailed, id, 0, "Could not save changes. Please try again.")
	return fmt.Errorf("%s %s: %w: %w", op, s.def.Key, ErrNotApplied, err)
}

func (s *Service) storageFailed(op, id string, err error) error {
	s.logger.Warn("local write failed", "op", op, "id", id, "error", err)
	s.emit(notify.LevelWarning, notify.KindStorageFailed, id, 0, "Could not save data locally")
	return fmt.Errorf("%s %s locally: %w", op, s.def.Key, ErrNotApplied)
}

func (s *Service) emit(level notify.Level, kind notify.Kind, id string, count int, msg string) {
	s.events.Emit(notify.Notification{
		Level:    level,
		Kind:     kind,
		Resource: s.def.Key,
		EntityID: id,
		Count:    count,
		Message:  msg,
	})
}

func (s *Service) store(items []entity.Entity, src Source) Snapshot {
	if items == nil {
		items = []entity.Entity{}
	}
	snap := Snapshot{Items: items, Source: src, FetchedAt: time.Now()}
	s.mu.Lock()
	s.current = snap
	s.mu.Unlock()
	return snap
}
