// Command localfirst is the local-first sync client for the business API, and
// the reference API server it talks to.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/rpggio/localfirst/internal/config"
)

type command struct {
	summary string
	run     func(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string) error
}

var commands = map[string]command{
	"serve":    {"run the reference REST API", runServe},
	"add-key":  {"create an API key for a tenant", runAddKey},
	"list":     {"list a resource: list <resource> [-search s] [-category c] [-sort key] [-page n]", runList},
	"create":   {"create a record: create <resource> field=value...", runCreate},
	"update":   {"update a record: update <resource> <id> field=value...", runUpdate},
	"delete":   {"delete a record: delete <resource> <id>", runDelete},
	"sync":     {"push pending local changes: sync [resource...]", runSync},
	"watch":    {"follow connectivity and local cache changes: watch <resource>", runWatch},
	"activity": {"show the sync journal", runActivity},
}

var errUsage = errors.New("usage: localfirst <command> [args]")

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			printUsage()
		}
		fmt.Fprintf(os.Stderr, "localfirst: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	logger, closeLog, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return cmd.run(ctx, cfg, logger, args[1:])
}

func printUsage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(os.Stderr, "usage: localfirst <command> [args]")
	fmt.Fprintln(os.Stderr)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-9s %s\n", name, commands[name].summary)
	}
}
