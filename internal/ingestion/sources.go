package ingestion

import (
	"context"

	"ge-price-lab/internal/domain"
	"ge-price-lab/internal/feed"
)

// Fetcher provides the four upstream payloads of one cycle.
type Fetcher interface {
	// FetchAll returns every payload or an error; partial results are never returned.
	FetchAll(ctx context.Context) (*feed.Payloads, error)
}

// SpikePublisher forwards newly detected spike events downstream.
type SpikePublisher interface {
	Publish(ctx context.Context, events []*domain.SpikeEvent) error
}
