package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emx-mail/tempmail/pkgs/address"
	"github.com/emx-mail/tempmail/pkgs/api"
	"github.com/emx-mail/tempmail/pkgs/config"
	"github.com/emx-mail/tempmail/pkgs/email"
)

const shutdownTimeout = 10 * time.Second

func handleServe(cfg *config.Config) error {
	mb, err := newMailbox(cfg)
	if err != nil {
		return err
	}
	logger := slog.Default()

	srv := api.New(address.NewRegistry(cfg.Domain), mb, api.Options{
		Domain:        cfg.Domain,
		CleanupSecret: cfg.Cleanup.Secret,
		RetentionDays: cfg.Cleanup.RetentionDays,
		Logger:        logger.With("component", "api"),
	})
	if cfg.Cleanup.Secret == "" {
		logger.Warn("CLEANUP_SECRET is not set, POST /api/cleanup will reject every request")
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Cleanup.Interval > 0 {
		sweeper := &email.Sweeper{
			Cleaner:       mb,
			Interval:      cfg.Cleanup.Interval,
			RetentionDays: cfg.Cleanup.RetentionDays,
			Logger:        logger.With("component", "sweeper"),
		}
		go func() {
			if err := sweeper.Run(ctx); err != nil {
				logger.Error("sweeper exited", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTP.Listen, "domain", cfg.Domain)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
