package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"ge-price-lab/internal/domain"
	"ge-price-lab/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using PostgreSQL.
type SnapshotStore struct {
	pool *Pool
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(pool *Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

var snapshotColumns = []string{
	"item_id", "timestamp_ms", "avg_high_price", "avg_low_price",
	"high_price_volume", "low_price_volume", "total_volume",
}

const selectSnapshotColumns = `
	SELECT item_id, timestamp_ms, avg_high_price, avg_low_price,
		high_price_volume, low_price_volume, total_volume
	FROM item_snapshots
`

// InsertBulk copies a batch of snapshots in one transaction.
// Fails entire batch on duplicate (item_id, timestamp).
func (s *SnapshotStore) InsertBulk(ctx context.Context, snapshots []*domain.Snapshot) (err error) {
	if len(snapshots) == 0 {
		return nil
	}

	type key struct{ itemID, timestamp int64 }
	seen := make(map[key]struct{}, len(snapshots))
	rows := make([][]any, 0, len(snapshots))
	for _, snap := range snapshots {
		if snap == nil {
			return storage.ErrInvalidInput
		}
		k := key{snap.ItemID, snap.Timestamp}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
		rows = append(rows, []any{
			snap.ItemID, snap.Timestamp, snap.AvgHighPrice, snap.AvgLowPrice,
			snap.HighPriceVolume, snap.LowPriceVolume, snap.TotalVolume,
		})
	}

	start := time.Now()
	defer func() { observe("snapshots", "insert_bulk", start, err) }()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"item_snapshots"}, snapshotColumns, pgx.CopyFromRows(rows)); err != nil {
		return mapError("copy snapshots", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByItemID retrieves all snapshots for an item, ordered by timestamp ASC.
func (s *SnapshotStore) GetByItemID(ctx context.Context, itemID int64) ([]*domain.Snapshot, error) {
	rows, err := s.pool.Query(ctx, selectSnapshotColumns+`
		WHERE item_id = $1
		ORDER BY timestamp_ms ASC
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("get snapshots by item id: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// GetByTimeRange retrieves snapshots for an item within [start, end] (inclusive).
func (s *SnapshotStore) GetByTimeRange(ctx context.Context, itemID int64, start, end int64) ([]*domain.Snapshot, error) {
	rows, err := s.pool.Query(ctx, selectSnapshotColumns+`
		WHERE item_id = $1 AND timestamp_ms >= $2 AND timestamp_ms <= $3
		ORDER BY timestamp_ms ASC
	`, itemID, start, end)
	if err != nil {
		return nil, fmt.Errorf("get snapshots by time range: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// GetHistory retrieves all snapshots since the given timestamp, grouped by item.
func (s *SnapshotStore) GetHistory(ctx context.Context, since int64) (map[int64][]*domain.Snapshot, error) {
	rows, err := s.pool.Query(ctx, selectSnapshotColumns+`
		WHERE timestamp_ms >= $1
		ORDER BY item_id ASC, timestamp_ms ASC
	`, since)
	if err != nil {
		return nil, fmt.Errorf("get snapshot history: %w", err)
	}
	defer rows.Close()

	snaps, err := scanSnapshots(rows)
	if err != nil {
		return nil, err
	}

	history := make(map[int64][]*domain.Snapshot)
	for _, snap := range snaps {
		history[snap.ItemID] = append(history[snap.ItemID], snap)
	}
	return history, nil
}

// scanSnapshots scans multiple rows.
func scanSnapshots(rows pgx.Rows) ([]*domain.Snapshot, error) {
	var snaps []*domain.Snapshot
	for rows.Next() {
		var snap domain.Snapshot
		err := rows.Scan(
			&snap.ItemID, &snap.Timestamp, &snap.AvgHighPrice, &snap.AvgLowPrice,
			&snap.HighPriceVolume, &snap.LowPriceVolume, &snap.TotalVolume,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		snaps = append(snaps, &snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return snaps, nil
}
