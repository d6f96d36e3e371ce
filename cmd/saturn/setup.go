package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/saturn/pkg/backend"
	"mercator-hq/saturn/pkg/config"
	"mercator-hq/saturn/pkg/engine"
	"mercator-hq/saturn/pkg/pricing"
	"mercator-hq/saturn/pkg/retention"
	"mercator-hq/saturn/pkg/store"
)

// openedStore bundles the engine and retention store views with the
// close function of the backing store, a no-op for the memory backend.
type openedStore struct {
	engine    engine.Stores
	retention retention.Stores
	close     func() error
}

// openStore creates the storage backend named by the configuration.
func openStore(cfg *config.Config) (*openedStore, error) {
	switch cfg.Storage.Backend {
	case "memory":
		mem := store.NewMemory()
		return &openedStore{
			engine: engine.Stores{
				Rules:      mem,
				Violations: mem,
				Records:    mem,
				History:    mem,
			},
			retention: retention.Stores{
				Records:    mem,
				Violations: mem,
				History:    mem,
			},
			close: func() error { return nil },
		}, nil

	case "sqlite":
		db, err := store.NewSQLite(&store.SQLiteConfig{
			Path:         cfg.Storage.SQLite.Path,
			Driver:       cfg.Storage.SQLite.Driver,
			MaxOpenConns: cfg.Storage.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.Storage.SQLite.MaxIdleConns,
			WALMode:      cfg.Storage.SQLite.WALMode,
			BusyTimeout:  cfg.Storage.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return &openedStore{
			engine: engine.Stores{
				Rules:      db,
				Violations: db,
				Records:    db,
				History:    db,
			},
			retention: retention.Stores{
				Records:    db,
				Violations: db,
				History:    db,
			},
			close: db.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
}

// buildEngine wires a governance engine from the configuration and an
// opened store. The returned pricing table is the one the engine
// estimates with, so hot reload updates take effect immediately; the
// registry carries the engine's metrics.
func buildEngine(ctx context.Context, cfg *config.Config, st *openedStore) (*engine.Engine, *pricing.Table, *prometheus.Registry, error) {
	table := pricing.NewTable(cfg.Pricing.Rates())
	registry := prometheus.NewRegistry()

	eng, err := engine.New(ctx, engine.Config{
		DailyLimitUSD:        cfg.Budget.DailyLimitUSD,
		PerOperationLimitUSD: cfg.Budget.PerOperationLimitUSD,
		AllowUnestimated:     cfg.Budget.AllowUnestimated,
	}, backend.Unconfigured(), table, st.engine, registry)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating engine: %w", err)
	}
	return eng, table, registry, nil
}
