// ABOUTME: Service entry point: builds dependencies, starts the HTTP
// ABOUTME: server, and drives graceful shutdown on SIGINT/SIGTERM
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"mail-digest/config"
	"mail-digest/utils/logger"
)

// Run starts the service with the given configuration and blocks until a
// shutdown signal arrives.
func Run(ctx context.Context, cfg *config.Config) error {
	log := logger.New()

	log.Info("starting mail-digest service",
		"port", cfg.Server.Port,
		"engine", cfg.Summarizer.Engine,
		"fetch_mode", cfg.Fetch.Mode,
		"workers", cfg.Pipeline.Workers)

	deps, cleanup, err := BuildDependencies(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to build dependencies: %w", err)
	}
	defer cleanup()

	e := NewHTTPServer(deps, cfg.Server)

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Info("mail-digest service started")

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case sig := <-quit:
		log.Info("shutting down mail-digest service", "signal", sig.String())
	case <-ctx.Done():
		log.Info("shutting down mail-digest service", "reason", ctx.Err())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("error shutting down HTTP server", "error", err)
	}

	log.Info("mail-digest service stopped")
	return nil
}
