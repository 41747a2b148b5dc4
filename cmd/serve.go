package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newServeCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the offline-caching and push-notification agent",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), app)
		},
	}
}

func serve(parent context.Context, app *app) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Install then activate before taking traffic. A failed install is
	// fatal to this run only; whatever version is already on disk keeps
	// serving the next one.
	if err := app.lifecycle.Install(ctx); err != nil {
		return fmt.Errorf("install: %w", err)
	}
	if err := app.lifecycle.Activate(ctx); err != nil {
		return fmt.Errorf("activate: %w", err)
	}

	server := &http.Server{
		Addr:              app.cfg.ListenAddr,
		Handler:           app.server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info("agent listening", "addr", app.cfg.ListenAddr, "origin", app.cfg.OriginURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	app.logger.Info("shutting down", "grace", app.cfg.ShutdownGrace)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGrace)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Warn("server shutdown", "error", err)
	}
	// Drain registered pending work before exiting; the host contract is
	// that in-flight handler branches finish.
	if err := app.pending.Wait(shutdownCtx); err != nil {
		app.logger.Warn("pending work not drained", "error", err)
	}
	return nil
}
