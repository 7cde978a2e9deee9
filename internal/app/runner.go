package app

import (
	"log"

	"ge-price-lab/internal/config"
	"ge-price-lab/internal/feed"
	"ge-price-lab/internal/ingestion"
	"ge-price-lab/internal/publish"
)

// NewFeedClient builds the upstream client from the feed section.
func NewFeedClient(cfg config.FeedConfig) *feed.Client {
	opts := []feed.ClientOption{feed.WithContact(cfg.Contact)}
	if cfg.Timeout > 0 {
		opts = append(opts, feed.WithTimeout(cfg.Timeout))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, feed.WithUserAgent(cfg.UserAgent))
	}
	return feed.NewClient(cfg.BaseURL, opts...)
}

// NewRunner builds the ingestion runner for cfg on top of stores. Spike
// publishing is enabled when Kafka brokers are configured. The returned
// cleanup closes the producer.
func NewRunner(cfg *config.Config, stores *Stores, logger *log.Logger) (*ingestion.Runner, func()) {
	opts := ingestion.RunnerOptions{
		Fetcher:       NewFeedClient(cfg.Feed),
		ItemStore:     stores.Items,
		SnapshotStore: stores.Snapshots,
		SnapshotEvery: cfg.Ingestion.SnapshotEvery,
		Interval:      cfg.Ingestion.Interval,
		SpikeLookback: cfg.Spike.Lookback,
		Logger:        logger,
	}

	if cfg.Spike.Enabled {
		detector := cfg.Spike.Detector()
		opts.SpikeConfig = &detector
	}

	cleanup := func() {}
	if len(cfg.Kafka.Brokers) > 0 && cfg.Spike.Enabled {
		producer := publish.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		opts.Publisher = producer
		cleanup = func() {
			if err := producer.Close(); err != nil {
				logger.Printf("close kafka producer: %v", err)
			}
		}
		logger.Printf("Publishing spikes to kafka topic %s", cfg.Kafka.Topic)
	}

	return ingestion.NewRunner(opts), cleanup
}
