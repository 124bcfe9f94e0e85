package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/localfirst/internal/config"
	"github.com/rpggio/localfirst/internal/domain/resource"
	"github.com/rpggio/localfirst/internal/sqlite"
	"github.com/rpggio/localfirst/internal/transport"
)

func runServe(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, err := openDB(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	var auth func(http.Handler) http.Handler
	if cfg.Auth.Enabled {
		auth = transport.AuthMiddleware(sqlite.NewAPIKeyRepository(db))
	}
	router := transport.NewServer(sqlite.NewResourceRepository(db), transport.Options{
		Resources:  resource.Names(),
		MaxRecords: cfg.Limits.MaxRecords,
		Logger:     logger,
	}, auth)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr, "auth", cfg.Auth.Enabled, "max_records", cfg.Limits.MaxRecords)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func runAddKey(ctx context.Context, cfg config.Config, _ *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("add-key", flag.ContinueOnError)
	tenant := fs.String("tenant", transport.DefaultTenant, "tenant owning the key")
	token := fs.String("token", "", "token to register (generated when empty)")
	desc := fs.String("desc", "", "description")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *token == "" {
		*token = uuid.NewString()
	}

	db, err := openDB(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := sqlite.NewAPIKeyRepository(db).Create(ctx, *tenant, *token, *desc); err != nil {
		return err
	}
	fmt.Println(*token)
	return nil
}
