// Package app wires configuration to a store and an import service. The
// server and the CLI share it.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/gereecole/internal/config"
	"github.com/JonMunkholm/gereecole/internal/core"
	_ "github.com/JonMunkholm/gereecole/internal/core/kinds" // Register import kinds
	"github.com/JonMunkholm/gereecole/internal/store/memory"
	"github.com/JonMunkholm/gereecole/internal/store/mongo"
	"github.com/JonMunkholm/gereecole/internal/store/postgres"
)

// OpenStore connects to the configured backend. Postgres schemas are
// migrated when cfg.Migrate is set.
func OpenStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (core.Store, error) {
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	switch cfg.Backend {
	case config.BackendMemory:
		logger.Warn("using in-memory store, records are lost on exit")
		return memory.New(), nil

	case config.BackendPostgres:
		st, err := postgres.Open(ctx, postgres.Options{
			URL:             cfg.DatabaseURL,
			MaxConns:        cfg.MaxConns,
			MinConns:        cfg.MinConns,
			MaxConnLifetime: cfg.MaxConnLifetime,
			MaxConnIdleTime: cfg.MaxConnIdleTime,
		})
		if err != nil {
			return nil, err
		}
		if cfg.Migrate {
			if err := st.Migrate(ctx); err != nil {
				st.Close(ctx)
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		logger.Info("connected to postgres", "max_conns", cfg.MaxConns)
		return st, nil

	case config.BackendMongo:
		st, err := mongo.Open(ctx, mongo.Options{
			URI:            cfg.MongoURI,
			Database:       cfg.MongoDatabase,
			MaxPoolSize:    cfg.MongoMaxPoolSize,
			ConnectTimeout: cfg.ConnectTimeout,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("connected to mongo", "database", cfg.MongoDatabase)
		return st, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// ServiceOptions maps the import settings onto core.ServiceOptions.
func ServiceOptions(cfg *config.Config, logger *slog.Logger) core.ServiceOptions {
	return core.ServiceOptions{
		MaxFileSize:           cfg.Import.MaxFileSize,
		MaxConcurrent:         cfg.Import.MaxConcurrent,
		MaxWait:               cfg.Import.MaxWait,
		Retention:             cfg.Import.Retention,
		DefaultEnrollmentYear: cfg.Import.DefaultEnrollmentYear,
		Logger:                logger,
	}
}
