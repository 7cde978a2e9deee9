package storage

import (
	"context"

	"ge-price-lab/internal/domain"
)

// ItemStore provides access to current-state items storage.
type ItemStore interface {
	// UpsertBulk inserts or replaces items by id in one commit.
	UpsertBulk(ctx context.Context, items []*domain.Item) error

	// GetByID retrieves an item by id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id int64) (*domain.Item, error)

	// GetAll retrieves all items, ordered by id ASC.
	GetAll(ctx context.Context) ([]*domain.Item, error)
}

// SnapshotStore provides access to the append-only item_snapshots time series.
type SnapshotStore interface {
	// InsertBulk adds a batch of snapshots in one commit.
	// Fails entire batch if any (item_id, timestamp) already exists.
	InsertBulk(ctx context.Context, snapshots []*domain.Snapshot) error

	// GetByItemID retrieves all snapshots for an item, ordered by timestamp ASC.
	GetByItemID(ctx context.Context, itemID int64) ([]*domain.Snapshot, error)

	// GetByTimeRange retrieves snapshots for an item within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, itemID int64, start, end int64) ([]*domain.Snapshot, error)

	// GetHistory retrieves all snapshots with timestamp >= since, grouped by
	// item id and ordered by timestamp ASC within each item.
	GetHistory(ctx context.Context, since int64) (map[int64][]*domain.Snapshot, error)
}
