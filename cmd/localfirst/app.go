package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rpggio/localfirst/internal/config"
	"github.com/rpggio/localfirst/internal/domain/activity"
	"github.com/rpggio/localfirst/internal/domain/connectivity"
	"github.com/rpggio/localfirst/internal/domain/notify"
	"github.com/rpggio/localfirst/internal/domain/resource"
	"github.com/rpggio/localfirst/internal/kv"
	"github.com/rpggio/localfirst/internal/page"
	"github.com/rpggio/localfirst/internal/rediskv"
	"github.com/rpggio/localfirst/internal/remote"
	"github.com/rpggio/localfirst/internal/sqlite"
)

// clientApp is everything the client commands share.
type clientApp struct {
	cfg     config.Config
	logger  *slog.Logger
	bus     *notify.Bus
	monitor *connectivity.Monitor
	probe   *remote.HealthProbe
	api     *remote.Client
	cache   *kv.Adapter
	files   *kv.FileBackend
	journal *activity.Service
	closers []func() error
}

func openDB(path string) (*sqlite.DB, error) {
	if err := ensureDir(path); err != nil {
		return nil, fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

func openClient(ctx context.Context, cfg config.Config, logger *slog.Logger) (*clientApp, error) {
	app := &clientApp{cfg: cfg, logger: logger, bus: notify.NewBus()}

	db, err := openDB(cfg.DB.Path)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, db.Close)
	app.journal = activity.NewService(sqlite.NewActivityRepository(db), logger)
	app.bus.Subscribe(app.journal.Recorder(ctx))

	backend, err := app.openBackend(db)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.cache = kv.New(backend, kv.WithQuota(cfg.Cache.QuotaBytes), kv.WithLogger(logger))

	app.api, err = remote.NewClient(cfg.Client.BaseURL, cfg.Client.Token, cfg.Client.Timeout, logger)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.probe = remote.NewHealthProbe(app.api, cfg.Sync.ProbeInterval)
	initial := app.probe.Check(ctx)
	app.monitor = connectivity.NewMonitor(initial, app.bus, logger)
	logger.Debug("client ready", "status", initial, "cache", cfg.Cache.Backend)

	return app, nil
}

func (a *clientApp) openBackend(db *sqlite.DB) (kv.Backend, error) {
	switch strings.ToLower(a.cfg.Cache.Backend) {
	case config.CacheSQLite:
		return sqlite.NewKVStore(db), nil
	case config.CacheRedis:
		store, err := rediskv.NewStore(a.cfg.Cache.RedisURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	case config.CacheMemory:
		return kv.NewMemoryBackend(), nil
	default:
		files, err := kv.NewFileBackend(a.cfg.Cache.Path)
		if err != nil {
			return nil, err
		}
		a.files = files
		return files, nil
	}
}

func (a *clientApp) service(name string) (*resource.Service, error) {
	def, ok := resource.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown resource %q (known: %s)", name, strings.Join(resource.Names(), ", "))
	}
	api := a.api.Resource(def.Key, def.Path)
	return resource.NewService(def, api, a.cache, a.monitor, a.bus, a.logger), nil
}

func (a *clientApp) controller(name string) (*page.Controller, *resource.Service, error) {
	svc, err := a.service(name)
	if err != nil {
		return nil, nil, err
	}
	return page.New(svc, a.bus, a.logger), svc, nil
}

// Close releases resources in reverse order of acquisition.
func (a *clientApp) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
}
