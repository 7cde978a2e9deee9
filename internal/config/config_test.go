package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	yaml := `
feed:
  contact: ops@example.com
  timeout: 5s
ingestion:
  interval: 30s
  snapshot_every: 10
spike:
  enabled: true
  thresholds: [20, 40]
  min_price: 1000
storage:
  items: postgres
  snapshots: clickhouse
  postgres_dsn: postgres://ge:ge@localhost:5432/ge
  clickhouse_dsn: clickhouse://localhost:9000/ge
kafka:
  brokers: [localhost:9092]
`
	cfg, err := Load(writeTempFile(t, yaml))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Feed.Contact != "ops@example.com" {
		t.Errorf("Feed.Contact = %q, want %q", cfg.Feed.Contact, "ops@example.com")
	}
	if cfg.Feed.Timeout != 5*time.Second {
		t.Errorf("Feed.Timeout = %v, want 5s", cfg.Feed.Timeout)
	}
	if cfg.Ingestion.SnapshotEvery != 10 {
		t.Errorf("Ingestion.SnapshotEvery = %d, want 10", cfg.Ingestion.SnapshotEvery)
	}
	if got := cfg.Spike.Detector(); len(got.Thresholds) != 2 || got.MinPrice != 1000 {
		t.Errorf("Spike.Detector() = %+v", got)
	}
	if cfg.Storage.Snapshots != BackendClickhouse {
		t.Errorf("Storage.Snapshots = %q, want %q", cfg.Storage.Snapshots, BackendClickhouse)
	}
	if len(cfg.Kafka.Brokers) != 1 {
		t.Errorf("Kafka.Brokers = %v, want 1 broker", cfg.Kafka.Brokers)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_PG_DSN", "postgres://u:secret@db:5432/ge")

	yaml := `
storage:
  items: postgres
  postgres_dsn: ${TEST_PG_DSN}
`
	cfg, err := Load(writeTempFile(t, yaml))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Storage.PostgresDSN != "postgres://u:secret@db:5432/ge" {
		t.Errorf("Storage.PostgresDSN = %q", cfg.Storage.PostgresDSN)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := LoadWithDefaults(writeTempFile(t, "feed: {}\n"))
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Feed.BaseURL != "https://prices.runescape.wiki/api/v1/osrs" {
		t.Errorf("Feed.BaseURL = %q", cfg.Feed.BaseURL)
	}
	if cfg.Ingestion.Interval != DefaultPollInterval {
		t.Errorf("Ingestion.Interval = %v, want %v", cfg.Ingestion.Interval, DefaultPollInterval)
	}
	if cfg.Ingestion.SnapshotEvery != 5 {
		t.Errorf("Ingestion.SnapshotEvery = %d, want 5", cfg.Ingestion.SnapshotEvery)
	}
	if len(cfg.Spike.Thresholds) != len(DefaultThresholds) {
		t.Errorf("Spike.Thresholds = %v", cfg.Spike.Thresholds)
	}
	if cfg.Storage.Items != BackendMemory || cfg.Storage.Snapshots != BackendMemory {
		t.Errorf("Storage backends = %q/%q, want memory", cfg.Storage.Items, cfg.Storage.Snapshots)
	}
	if cfg.HTTP.Addr != DefaultHTTPAddr {
		t.Errorf("HTTP.Addr = %q", cfg.HTTP.Addr)
	}

	// Defaults must not alias the package-level slice.
	cfg.Spike.Thresholds[0] = -1
	if DefaultThresholds[0] == -1 {
		t.Error("ApplyDefaults aliased DefaultThresholds")
	}
}

func TestLoadAndValidate_EmptyPath(t *testing.T) {
	cfg, err := LoadAndValidate("")
	if err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.Kafka.Topic != DefaultKafkaTopic {
		t.Errorf("Kafka.Topic = %q", cfg.Kafka.Topic)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load(writeTempFile(t, "feed: [unclosed")); err == nil {
		t.Error("expected error for invalid yaml")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"zero interval", func(c *Config) { c.Ingestion.Interval = -time.Second }, "ingestion.interval"},
		{"bad cadence", func(c *Config) { c.Ingestion.SnapshotEvery = -1 }, "snapshot_every"},
		{"unknown items backend", func(c *Config) { c.Storage.Items = "sqlite" }, "storage.items"},
		{"clickhouse items", func(c *Config) { c.Storage.Items = BackendClickhouse }, "storage.items"},
		{"postgres without dsn", func(c *Config) { c.Storage.Snapshots = BackendPostgres }, "postgres_dsn"},
		{"clickhouse without dsn", func(c *Config) { c.Storage.Snapshots = BackendClickhouse }, "clickhouse_dsn"},
		{"redis without url", func(c *Config) { c.Storage.Items = BackendRedis }, "redis_url"},
		{"redis with url", func(c *Config) {
			c.Storage.Items = BackendRedis
			c.Storage.RedisURL = "redis://localhost:6379/0"
		}, ""},
		{"negative threshold", func(c *Config) {
			c.Spike.Enabled = true
			c.Spike.Thresholds = []float64{10, -5}
		}, "spike.thresholds"},
		{"disabled spike ignores thresholds", func(c *Config) { c.Spike.Thresholds = nil }, ""},
		{"zero lookback scans full history", func(c *Config) {
			c.Spike.Enabled = true
			c.Spike.Lookback = 0
		}, ""},
		{"negative lookback", func(c *Config) {
			c.Spike.Enabled = true
			c.Spike.Lookback = -time.Hour
		}, "spike.lookback"},
		{"kafka without topic", func(c *Config) {
			c.Kafka.Brokers = []string{"localhost:9092"}
			c.Kafka.Topic = ""
		}, "kafka.topic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
