package config

import (
	"time"

	"ge-price-lab/internal/spike"
)

// Config is the root configuration.
type Config struct {
	Feed      FeedConfig      `yaml:"feed"`
	Ingestion IngestionConfig `yaml:"ingestion"`
	Spike     SpikeConfig     `yaml:"spike"`
	Storage   StorageConfig   `yaml:"storage"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	HTTP      HTTPConfig      `yaml:"http"`
}

// FeedConfig holds upstream price API settings.
type FeedConfig struct {
	BaseURL   string        `yaml:"base_url"`
	UserAgent string        `yaml:"user_agent"`
	Contact   string        `yaml:"contact"` // sent as the From header
	Timeout   time.Duration `yaml:"timeout"`
}

// IngestionConfig holds polling cadence settings.
type IngestionConfig struct {
	Interval      time.Duration `yaml:"interval"`
	SnapshotEvery int           `yaml:"snapshot_every"`
}

// SpikeConfig holds detection settings.
type SpikeConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Thresholds   []float64     `yaml:"thresholds"`
	MinAvgVolume float64       `yaml:"min_avg_volume"`
	MinPrice     float64       `yaml:"min_price"`
	Lookback     time.Duration `yaml:"lookback"` // 0 scans the full history
}

// Detector returns the detection parameters.
func (s SpikeConfig) Detector() spike.Config {
	return spike.Config{
		Thresholds:   append([]float64(nil), s.Thresholds...),
		MinAvgVolume: s.MinAvgVolume,
		MinPrice:     s.MinPrice,
	}
}

// Storage backends.
const (
	BackendMemory     = "memory"
	BackendPostgres   = "postgres"
	BackendClickhouse = "clickhouse"
	BackendRedis      = "redis"
)

// StorageConfig selects a backend per logical table.
type StorageConfig struct {
	Items     string `yaml:"items"`     // memory, postgres or redis
	Snapshots string `yaml:"snapshots"` // memory, postgres or clickhouse

	PostgresDSN      string `yaml:"postgres_dsn"`
	PostgresMaxConns int32  `yaml:"postgres_max_conns"`
	ClickhouseDSN    string `yaml:"clickhouse_dsn"`
	RedisURL         string `yaml:"redis_url"`
	RedisKey         string `yaml:"redis_key"`
}

// KafkaConfig enables spike publishing when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// HTTPConfig holds the consumer API listener.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}
