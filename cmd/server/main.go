package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/gereecole/internal/app"
	"github.com/JonMunkholm/gereecole/internal/config"
	"github.com/JonMunkholm/gereecole/internal/core"
	"github.com/JonMunkholm/gereecole/internal/logging"
	"github.com/JonMunkholm/gereecole/internal/web"
)

func main() {
	if err := config.LoadDotEnv(".env", ".env.local"); err != nil {
		slog.Error("failed to read .env", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()
	store, err := app.OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		logger.Error("failed to open store", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}

	service := core.NewService(store, app.ServiceOptions(cfg, logger))
	logger.Info("import kinds registered", "count", len(service.Templates()))

	server := web.NewServer(service, cfg)

	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown error", "error", err)
		}

		// Runs keep writing rows after their request returned.
		if status := service.LimiterStatus(); status.Active > 0 {
			logger.Info("waiting for imports to complete", "active", status.Active)
			if err := service.Shutdown(shutdownCtx); err != nil {
				logger.Warn("imports did not complete in time", "error", err)
			}
		}

		if err := store.Close(shutdownCtx); err != nil {
			logger.Error("store close error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-done
}
