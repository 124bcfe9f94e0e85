package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/rpggio/localfirst/internal/config"
	"github.com/rpggio/localfirst/internal/domain/activity"
	"github.com/rpggio/localfirst/internal/domain/connectivity"
	"github.com/rpggio/localfirst/internal/domain/listview"
	"github.com/rpggio/localfirst/internal/domain/notify"
	"github.com/rpggio/localfirst/internal/domain/resource"
	"github.com/rpggio/localfirst/internal/page"
	"github.com/rpggio/localfirst/internal/sqlite"
)

func runList(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	search := fs.String("search", "", "case-insensitive search term")
	category := fs.String("category", listview.All, "category filter")
	sortKey := fs.String("sort", "", "sort key")
	dir := fs.String("dir", "", "sort direction: asc or desc")
	pageNum := fs.Int("page", 1, "page number")
	asJSON := fs.Bool("json", false, "print the page as JSON")
	name, rest, err := resourceArg(args)
	if err != nil {
		return err
	}
	if err := fs.Parse(rest); err != nil {
		return err
	}

	app, err := openClient(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()
	ctrl, svc, err := app.controller(name)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	if err := ctrl.Load(ctx); err != nil {
		printToasts(ctrl)
		return explain(err)
	}
	ctrl.Search(*search)
	ctrl.Filter(*category)
	if *sortKey != "" {
		if err := ctrl.Sort(*sortKey, listview.Direction(*dir)); err != nil {
			return err
		}
	}
	ctrl.GoTo(*pageNum - 1)

	printToasts(ctrl)
	if *asJSON {
		return printJSON(os.Stdout, ctrl.View().Page)
	}
	printView(os.Stdout, svc.Definition(), ctrl.View())
	return nil
}

func runCreate(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string) error {
	name, rest, err := resourceArg(args)
	if err != nil {
		return err
	}
	fields, err := parseFields(rest)
	if err != nil {
		return err
	}
	return withController(ctx, cfg, logger, name, func(ctrl *page.Controller) error {
		created, err := ctrl.Create(ctx, fields)
		if err != nil {
			return err
		}
		fmt.Println(created.ID)
		return nil
	})
}

func runUpdate(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string) error {
	name, rest, err := resourceArg(args)
	if err != nil {
		return err
	}
	if len(rest) == 0 {
		return fmt.Errorf("update needs an id")
	}
	id := rest[0]
	patch, err := parseFields(rest[1:])
	if err != nil {
		return err
	}
	return withController(ctx, cfg, logger, name, func(ctrl *page.Controller) error {
		_, err := ctrl.Edit(ctx, id, patch)
		return err
	})
}

func runDelete(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string) error {
	name, rest, err := resourceArg(args)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return fmt.Errorf("delete needs exactly one id")
	}
	return withController(ctx, cfg, logger, name, func(ctrl *page.Controller) error {
		return ctrl.Delete(ctx, rest[0])
	})
}

func runSync(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string) error {
	names := args
	if len(names) == 0 {
		names = resource.Names()
	}

	app, err := openClient(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()
	if !app.monitor.Online() {
		return fmt.Errorf("cannot reach %s: %w", cfg.Client.BaseURL, resource.ErrOffline)
	}

	var failed error
	for _, name := range names {
		svc, err := app.service(name)
		if err != nil {
			return err
		}
		if svc.Pending(ctx) == 0 {
			continue
		}
		report, err := svc.Sync(ctx)
		if err != nil {
			failed = errors.Join(failed, fmt.Errorf("%s: %w", name, explain(err)))
			continue
		}
		fmt.Printf("%-10s created %d, updated %d, deleted %d, pending %d\n",
			name, report.Created, report.Updated, report.Deleted, report.Failed)
	}
	return failed
}

func runWatch(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	autoSync := fs.Bool("auto-sync", false, "push pending changes whenever the connection comes back")
	name, rest, err := resourceArg(args)
	if err != nil {
		return err
	}
	if err := fs.Parse(rest); err != nil {
		return err
	}

	app, err := openClient(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()
	ctrl, svc, err := app.controller(name)
	if err != nil {
		return err
	}
	defer ctrl.Close()
	def := svc.Definition()

	changes := make(chan connectivity.Status, 1)
	defer app.monitor.OnChange(func(st connectivity.Status) {
		select {
		case changes <- st:
		default:
		}
	})()
	go func() {
		if err := app.monitor.Watch(ctx, app.probe); err != nil && ctx.Err() == nil {
			logger.Error("connectivity probe stopped", "error", err)
		}
	}()

	reload := make(chan struct{}, 1)
	if app.files != nil {
		go func() {
			err := app.files.Watch(ctx, func(key string) {
				if key != def.Key && key != def.PendingDeletesKey() {
					return
				}
				app.bus.Emit(notify.Notification{
					Level:    notify.LevelInfo,
					Kind:     notify.KindExternalChange,
					Resource: def.Key,
					Message:  "Data changed in another window",
				})
				select {
				case reload <- struct{}{}:
				default:
				}
			})
			if err != nil && ctx.Err() == nil {
				logger.Error("cache watcher stopped", "error", err)
			}
		}()
	}

	refresh := func() {
		if err := ctrl.Load(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("reload failed", "error", explain(err))
		}
		printToasts(ctrl)
		printView(os.Stdout, def, ctrl.View())
	}
	refresh()

	for {
		select {
		case <-ctx.Done():
			return nil
		case st := <-changes:
			if st == connectivity.StatusOnline && *autoSync && svc.Pending(ctx) > 0 {
				if _, err := ctrl.Sync(ctx); err != nil {
					logger.Warn("sync failed", "error", explain(err))
				}
			}
			refresh()
		case <-reload:
			refresh()
		}
	}
}

func runActivity(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("activity", flag.ContinueOnError)
	res := fs.String("resource", "", "only this resource")
	kind := fs.String("type", "", "only this activity type")
	limit := fs.Int("limit", 20, "maximum entries")
	asJSON := fs.Bool("json", false, "print entries as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, err := openDB(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	journal := activity.NewService(sqlite.NewActivityRepository(db), logger)

	opts := activity.ListActivityOptions{Resource: *res, Limit: *limit}
	if *kind != "" {
		t := activity.ActivityType(*kind)
		opts.ActivityType = &t
	}
	entries, err := journal.GetRecentActivity(ctx, opts)
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(os.Stdout, entries)
	}
	printActivity(os.Stdout, entries)
	return nil
}

func withController(ctx context.Context, cfg config.Config, logger *slog.Logger, name string, fn func(*page.Controller) error) error {
	app, err := openClient(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()
	ctrl, _, err := app.controller(name)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	err = fn(ctrl)
	printToasts(ctrl)
	return explain(err)
}

func resourceArg(args []string) (string, []string, error) {
	if len(args) == 0 || args[0] == "" || args[0][0] == '-' {
		return "", nil, fmt.Errorf("missing resource name")
	}
	return args[0], args[1:], nil
}

// explain turns access denial into the message a user can act on.
func explain(err error) error {
	if errors.Is(err, resource.ErrAccessDenied) {
		return fmt.Errorf("your plan does not allow this, upgrade to continue: %w", err)
	}
	return err
}
