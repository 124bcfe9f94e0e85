// Package page binds a resource repository and its list view to user actions.
package page

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rpggio/localfirst/internal/domain/entity"
	"github.com/rpggio/localfirst/internal/domain/listview"
	"github.com/rpggio/localfirst/internal/domain/notify"
	"github.com/rpggio/localfirst/internal/domain/resource"
)

// ErrUnknownSort is returned when sorting by a key the schema does not define.
var ErrUnknownSort = errors.New("unknown sort key")

// Repository is the part of resource.Service the controller drives.
type Repository interface {
	Definition() resource.Definition
	Current() resource.Snapshot
	List(ctx context.Context) (resource.Snapshot, error)
	Create(ctx context.Context, draft entity.Entity) (entity.Entity, error)
	Update(ctx context.Context, id string, patch map[string]any) (entity.Entity, error)
	Remove(ctx context.Context, id string) error
	Sync(ctx context.Context) (resource.SyncReport, error)
}

// View is everything a screen needs to render one list.
type View struct {
	Page            listview.Page
	State           listview.State
	Categories      []string
	Source          resource.Source
	UpgradeRequired bool
}

// Controller holds the view state of one list screen.
type Controller struct {
	repo   Repository
	schema listview.Schema
	logger *slog.Logger
	unsub  func()

	mu      sync.Mutex
	state   listview.State
	upgrade bool
	toasts  []notify.Notification
}

// New creates a controller for repo. When bus is not nil the controller queues
// notifications about its resource, and connectivity changes, as toasts.
func New(repo Repository, bus *notify.Bus, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	def := repo.Definition()
	c := &Controller{
		repo:   repo,
		schema: def.Schema,
		logger: logger.With("resource", def.Key),
		state:  def.Schema.DefaultState(),
	}
	if bus != nil {
		c.unsub = bus.Subscribe(func(n notify.Notification) {
			if n.Kind == notify.KindLoadedRemote {
				return
			}
			if n.Resource != "" && n.Resource != def.Key {
				return
			}
			c.mu.Lock()
			c.toasts = append(c.toasts, n)
			c.mu.Unlock()
		})
	}
	return c
}

// Close stops listening for notifications.
func (c *Controller) Close() {
	if c.unsub != nil {
		c.unsub()
	}
}

// Load refreshes the collection.
func (c *Controller) Load(ctx context.Context) error {
	_, err := c.repo.List(ctx)
	return c.settle(err)
}

// Search sets the search term.
func (c *Controller) Search(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = c.state.WithSearch(term)
}

// Filter sets the category filter; "" or listview.All clears it.
func (c *Controller) Filter(category string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = c.state.WithCategory(category)
}

// Sort orders by key. An empty direction toggles the current one when key is
// already active, and uses the key's default otherwise.
func (c *Controller) Sort(key string, dir listview.Direction) error {
	sk, ok := c.schema.SortKeys[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSort, key)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if dir == "" {
		dir = sk.Direction
		if c.state.SortKey == key {
			dir = listview.Asc
			if c.state.Direction == listview.Asc {
				dir = listview.Desc
			}
		}
	}
	c.state = c.state.WithSort(key, dir)
	return nil
}

// GoTo moves to page n (zero based).
func (c *Controller) GoTo(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = c.state.WithPage(n)
}

// ClearFilters restores the default state.
func (c *Controller) ClearFilters() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = c.state.Cleared(c.schema)
}

// Create submits a new record built from fields.
func (c *Controller) Create(ctx context.Context, fields map[string]any) (entity.Entity, error) {
	e, err := c.repo.Create(ctx, entity.New(fields))
	return e, c.settle(err)
}

// Edit applies patch to the record with id.
func (c *Controller) Edit(ctx context.Context, id string, patch map[string]any) (entity.Entity, error) {
	e, err := c.repo.Update(ctx, id, patch)
	return e, c.settle(err)
}

// Delete removes the record with id.
func (c *Controller) Delete(ctx context.Context, id string) error {
	return c.settle(c.repo.Remove(ctx, id))
}

// Sync pushes pending local changes.
func (c *Controller) Sync(ctx context.Context) (resource.SyncReport, error) {
	report, err := c.repo.Sync(ctx)
	return report, c.settle(err)
}

// View computes the current page from the latest snapshot.
func (c *Controller) View() View {
	snap := c.repo.Current()
	c.mu.Lock()
	defer c.mu.Unlock()
	// the page clamp is written back so the next GoTo starts from a real page
	page := listview.Compute(snap.Items, c.schema, c.state)
	c.state.Page = page.Page
	return View{
		Page:            page,
		State:           c.state,
		Categories:      listview.Categories(snap.Items, c.schema),
		Source:          snap.Source,
		UpgradeRequired: c.upgrade,
	}
}

// State returns the current view state.
func (c *Controller) State() listview.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// UpgradeRequired reports whether the last server call was refused by plan limits.
func (c *Controller) UpgradeRequired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.upgrade
}

// Toasts drains the queued notifications.
func (c *Controller) Toasts() []notify.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.toasts
	c.toasts = nil
	return out
}

// settle records the outcome of a repository call. Access denial flips the
// screen into its upgrade prompt; success clears it.
func (c *Controller) settle(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case err == nil:
		c.upgrade = false
	case errors.Is(err, resource.ErrAccessDenied):
		c.upgrade = true
	default:
		c.logger.Debug("action failed", "error", err)
	}
	return err
}
