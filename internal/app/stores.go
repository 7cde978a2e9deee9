// Package app wires configured storage backends for the cmd binaries.
package app

import (
	"context"
	"fmt"

	"ge-price-lab/internal/config"
	"ge-price-lab/internal/storage"
	chstore "ge-price-lab/internal/storage/clickhouse"
	"ge-price-lab/internal/storage/memory"
	"ge-price-lab/internal/storage/migrations"
	pgstore "ge-price-lab/internal/storage/postgres"
	redisstore "ge-price-lab/internal/storage/redis"
)

// Stores holds the item and snapshot stores selected by configuration.
type Stores struct {
	Items     storage.ItemStore
	Snapshots storage.SnapshotStore
}

// OpenStores connects every backend named in cfg and applies schema
// migrations. The returned cleanup closes all connections.
func OpenStores(ctx context.Context, cfg config.StorageConfig) (*Stores, func(), error) {
	stores := &Stores{}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// PostgreSQL pool shared by both tables when selected.
	var pool *pgstore.Pool
	if cfg.Items == config.BackendPostgres || cfg.Snapshots == config.BackendPostgres {
		var err error
		pool, err = pgstore.NewPool(ctx, cfg.PostgresDSN, cfg.PostgresMaxConns)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		closers = append(closers, pool.Close)

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
	}

	switch cfg.Items {
	case config.BackendMemory:
		stores.Items = memory.NewItemStore()
	case config.BackendPostgres:
		stores.Items = pgstore.NewItemStore(pool)
	case config.BackendRedis:
		client, err := redisstore.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		closers = append(closers, func() { client.Close() })
		stores.Items = redisstore.NewItemStore(client, cfg.RedisKey)
	default:
		cleanup()
		return nil, nil, fmt.Errorf("unknown items backend %q", cfg.Items)
	}

	switch cfg.Snapshots {
	case config.BackendMemory:
		stores.Snapshots = memory.NewSnapshotStore()
	case config.BackendPostgres:
		stores.Snapshots = pgstore.NewSnapshotStore(pool)
	case config.BackendClickhouse:
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("clickhouse: %w", err)
		}
		closers = append(closers, func() { conn.Close() })
		stores.Snapshots = chstore.NewSnapshotStore(conn)
	default:
		cleanup()
		return nil, nil, fmt.Errorf("unknown snapshots backend %q", cfg.Snapshots)
	}

	return stores, cleanup, nil
}
