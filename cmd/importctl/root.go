package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/gereecole/internal/app"
	"github.com/JonMunkholm/gereecole/internal/config"
	"github.com/JonMunkholm/gereecole/internal/core"
	"github.com/JonMunkholm/gereecole/internal/logging"
)

// serviceFactory builds the import service a command runs against. The
// returned func releases its store.
type serviceFactory func(ctx context.Context, logger *slog.Logger) (*core.Service, func(), error)

func newRootCmd(newService serviceFactory) *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:           "importctl",
		Short:         "Import students, teachers and grades from spreadsheets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	logger := func() *slog.Logger {
		return logging.New(os.Stderr, logLevel, "text")
	}

	cmd.AddCommand(newImportCmd(newService, logger))
	cmd.AddCommand(newTemplateCmd())
	return cmd
}

// serviceFromEnv opens the store described by the environment, the same
// way the server does.
func serviceFromEnv(ctx context.Context, logger *slog.Logger) (*core.Service, func(), error) {
	if err := config.LoadDotEnv(".env", ".env.local"); err != nil {
		return nil, nil, fmt.Errorf("read .env: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	store, err := app.OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if err := store.Close(context.Background()); err != nil {
			logger.Warn("store close error", "error", err)
		}
	}
	return core.NewService(store, app.ServiceOptions(cfg, logger)), release, nil
}

func execute() {
	if err := newRootCmd(serviceFromEnv).Execute(); err != nil {
		if core.IsUserFacing(err) {
			fmt.Fprintln(os.Stderr, core.FormatUserError(err))
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
