package app

import (
	"flag"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"ge-price-lab/internal/config"
)

// LoadDotEnv loads .env from the working directory if present. Variables
// already set in the environment win.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// Flags are the command-line settings shared by the binaries. Defaults come
// from environment variables.
type Flags struct {
	ConfigPath    string
	Items         string
	Snapshots     string
	PostgresDSN   string
	ClickhouseDSN string
	RedisURL      string
	KafkaBrokers  string
	Contact       string
}

// RegisterFlags defines the shared flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.ConfigPath, "config", os.Getenv("GE_CONFIG"), "YAML config file (optional)")
	fs.StringVar(&f.Items, "items-store", os.Getenv("ITEM_STORE"), "Item store backend: memory, postgres or redis")
	fs.StringVar(&f.Snapshots, "snapshot-store", os.Getenv("SNAPSHOT_STORE"), "Snapshot store backend: memory, postgres or clickhouse")
	fs.StringVar(&f.PostgresDSN, "postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	fs.StringVar(&f.ClickhouseDSN, "clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	fs.StringVar(&f.RedisURL, "redis-url", os.Getenv("REDIS_URL"), "Redis URL (redis://host:6379/0)")
	fs.StringVar(&f.KafkaBrokers, "kafka-brokers", os.Getenv("KAFKA_BROKERS"), "Comma-separated Kafka brokers for spike events")
	fs.StringVar(&f.Contact, "contact", os.Getenv("FEED_CONTACT"), "Contact sent to the price API in the From header")
	return f
}

// Resolve loads the config file (or defaults) and layers the flags on top.
// A flag set on the command line always wins; a flag that only carries its
// environment default fills fields the file left empty.
func (f *Flags) Resolve(fs *flag.FlagSet) (*config.Config, error) {
	cfg := &config.Config{}
	if f.ConfigPath != "" {
		var err error
		if cfg, err = config.Load(f.ConfigPath); err != nil {
			return nil, err
		}
	}

	// Storage as written in the file, before defaults fill the backends.
	fileCfg := cfg.Storage
	cfg.ApplyDefaults()

	explicit := make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { explicit[fl.Name] = true })

	// Backends default to "memory", so an environment value replaces the
	// default unless the file chose a backend.
	apply := func(name, value string, dst *string, fileValue string) {
		if value == "" {
			return
		}
		if explicit[name] || fileValue == "" {
			*dst = value
		}
	}

	apply("items-store", f.Items, &cfg.Storage.Items, fileCfg.Items)
	apply("snapshot-store", f.Snapshots, &cfg.Storage.Snapshots, fileCfg.Snapshots)
	apply("postgres-dsn", f.PostgresDSN, &cfg.Storage.PostgresDSN, cfg.Storage.PostgresDSN)
	apply("clickhouse-dsn", f.ClickhouseDSN, &cfg.Storage.ClickhouseDSN, cfg.Storage.ClickhouseDSN)
	apply("redis-url", f.RedisURL, &cfg.Storage.RedisURL, cfg.Storage.RedisURL)
	apply("contact", f.Contact, &cfg.Feed.Contact, cfg.Feed.Contact)

	if f.KafkaBrokers != "" && (explicit["kafka-brokers"] || len(cfg.Kafka.Brokers) == 0) {
		cfg.Kafka.Brokers = splitList(f.KafkaBrokers)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
