package config

import (
	"time"

	"ge-price-lab/internal/feed"
	"ge-price-lab/internal/snapshot"
)

// Default values for optional configuration fields.
const (
	DefaultPollInterval     = 60 * time.Second
	DefaultSnapshotEvery    = snapshot.DefaultEvery
	DefaultPostgresMaxConns = 10
	DefaultKafkaTopic       = "ge.price.spikes"
	DefaultHTTPAddr         = ":8080"
)

// DefaultThresholds are the spike tiers used when none are configured.
var DefaultThresholds = []float64{10, 25, 50, 100, 200}

// ApplyDefaults fills every optional field left at its zero value.
func (c *Config) ApplyDefaults() {
	// Feed defaults
	if c.Feed.BaseURL == "" {
		c.Feed.BaseURL = feed.DefaultBaseURL
	}
	if c.Feed.UserAgent == "" {
		c.Feed.UserAgent = feed.DefaultUserAgent
	}
	if c.Feed.Timeout == 0 {
		c.Feed.Timeout = feed.DefaultTimeout
	}

	// Ingestion defaults
	if c.Ingestion.Interval == 0 {
		c.Ingestion.Interval = DefaultPollInterval
	}
	if c.Ingestion.SnapshotEvery == 0 {
		c.Ingestion.SnapshotEvery = DefaultSnapshotEvery
	}

	// Spike defaults
	if len(c.Spike.Thresholds) == 0 {
		c.Spike.Thresholds = append([]float64(nil), DefaultThresholds...)
	}

	// Storage defaults
	if c.Storage.Items == "" {
		c.Storage.Items = BackendMemory
	}
	if c.Storage.Snapshots == "" {
		c.Storage.Snapshots = BackendMemory
	}
	if c.Storage.PostgresMaxConns == 0 {
		c.Storage.PostgresMaxConns = DefaultPostgresMaxConns
	}

	if c.Kafka.Topic == "" {
		c.Kafka.Topic = DefaultKafkaTopic
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = DefaultHTTPAddr
	}
}
