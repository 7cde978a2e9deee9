package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Feed.BaseURL == "" {
		return errors.New("feed.base_url is required")
	}
	if c.Feed.Timeout < 0 {
		return errors.New("feed.timeout must be >= 0")
	}

	if c.Ingestion.Interval <= 0 {
		return errors.New("ingestion.interval must be > 0")
	}
	if c.Ingestion.SnapshotEvery < 1 {
		return errors.New("ingestion.snapshot_every must be >= 1")
	}

	if c.Spike.Enabled {
		if len(c.Spike.Thresholds) == 0 {
			return errors.New("spike.thresholds must not be empty")
		}
		for _, t := range c.Spike.Thresholds {
			if t < 0 {
				return fmt.Errorf("spike.thresholds must be >= 0, got %v", t)
			}
		}
		if c.Spike.MinAvgVolume < 0 {
			return errors.New("spike.min_avg_volume must be >= 0")
		}
		if c.Spike.Lookback < 0 {
			return errors.New("spike.lookback must be >= 0")
		}
	}

	if err := c.Storage.validate(); err != nil {
		return err
	}

	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return errors.New("kafka.topic is required when kafka.brokers is set")
	}

	return nil
}

func (s *StorageConfig) validate() error {
	switch s.Items {
	case BackendMemory:
	case BackendPostgres:
		if s.PostgresDSN == "" {
			return errors.New("storage.postgres_dsn is required for postgres items")
		}
	case BackendRedis:
		if s.RedisURL == "" {
			return errors.New("storage.redis_url is required for redis items")
		}
	default:
		return fmt.Errorf("storage.items: unknown backend %q", s.Items)
	}

	switch s.Snapshots {
	case BackendMemory:
	case BackendPostgres:
		if s.PostgresDSN == "" {
			return errors.New("storage.postgres_dsn is required for postgres snapshots")
		}
	case BackendClickhouse:
		if s.ClickhouseDSN == "" {
			return errors.New("storage.clickhouse_dsn is required for clickhouse snapshots")
		}
	default:
		return fmt.Errorf("storage.snapshots: unknown backend %q", s.Snapshots)
	}

	if s.PostgresMaxConns < 1 {
		return errors.New("storage.postgres_max_conns must be >= 1")
	}
	return nil
}
