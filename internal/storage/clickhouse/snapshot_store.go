package clickhouse

import (
	"context"
	"fmt"
	"time"

	"ge-price-lab/internal/domain"
	"ge-price-lab/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using ClickHouse.
type SnapshotStore struct {
	conn *Conn
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(conn *Conn) *SnapshotStore {
	return &SnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

const selectSnapshots = `
	SELECT item_id, timestamp_ms, avg_high_price, avg_low_price,
		high_price_volume, low_price_volume, total_volume
	FROM item_snapshots
`

// InsertBulk adds a batch of snapshots in one block. Fails entire batch on duplicate.
// MergeTree does not enforce keys, so duplicates are checked before sending.
func (s *SnapshotStore) InsertBulk(ctx context.Context, snapshots []*domain.Snapshot) (err error) {
	if len(snapshots) == 0 {
		return nil
	}

	// Intra-batch duplicates, grouped by timestamp for the existence check
	byTimestamp := make(map[int64]map[int64]struct{})
	for _, snap := range snapshots {
		if snap == nil {
			return storage.ErrInvalidInput
		}
		ids, ok := byTimestamp[snap.Timestamp]
		if !ok {
			ids = make(map[int64]struct{})
			byTimestamp[snap.Timestamp] = ids
		}
		if _, exists := ids[snap.ItemID]; exists {
			return storage.ErrDuplicateKey
		}
		ids[snap.ItemID] = struct{}{}
	}

	start := time.Now()
	defer func() { observe("insert_bulk", start, err) }()

	// Batches share one timestamp, so this is normally a single query
	for ts, ids := range byTimestamp {
		existing, err := s.itemIDsAt(ctx, ts)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		for _, id := range existing {
			if _, dup := ids[id]; dup {
				return storage.ErrDuplicateKey
			}
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO item_snapshots (
			item_id, timestamp_ms, avg_high_price, avg_low_price,
			high_price_volume, low_price_volume, total_volume
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, snap := range snapshots {
		err = batch.Append(
			snap.ItemID, uint64(snap.Timestamp), snap.AvgHighPrice, snap.AvgLowPrice,
			snap.HighPriceVolume, snap.LowPriceVolume, snap.TotalVolume,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByItemID retrieves all snapshots for an item, ordered by timestamp ASC.
func (s *SnapshotStore) GetByItemID(ctx context.Context, itemID int64) ([]*domain.Snapshot, error) {
	rows, err := s.conn.Query(ctx, selectSnapshots+`
		WHERE item_id = ?
		ORDER BY timestamp_ms ASC
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("query by item id: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// GetByTimeRange retrieves snapshots for an item within [start, end] (inclusive).
func (s *SnapshotStore) GetByTimeRange(ctx context.Context, itemID int64, start, end int64) ([]*domain.Snapshot, error) {
	rows, err := s.conn.Query(ctx, selectSnapshots+`
		WHERE item_id = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`, itemID, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// GetHistory retrieves all snapshots since the given timestamp, grouped by item.
func (s *SnapshotStore) GetHistory(ctx context.Context, since int64) (map[int64][]*domain.Snapshot, error) {
	if since < 0 {
		since = 0
	}
	rows, err := s.conn.Query(ctx, selectSnapshots+`
		WHERE timestamp_ms >= ?
		ORDER BY item_id ASC, timestamp_ms ASC
	`, uint64(since))
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
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

// itemIDsAt returns the item ids already stored at a timestamp.
func (s *SnapshotStore) itemIDsAt(ctx context.Context, timestamp int64) ([]int64, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT item_id FROM item_snapshots WHERE timestamp_ms = ?
	`, uint64(timestamp))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// scanSnapshots scans multiple rows.
func scanSnapshots(rows chRows) ([]*domain.Snapshot, error) {
	var snaps []*domain.Snapshot

	for rows.Next() {
		var snap domain.Snapshot
		var timestampMs uint64

		err := rows.Scan(
			&snap.ItemID, &timestampMs, &snap.AvgHighPrice, &snap.AvgLowPrice,
			&snap.HighPriceVolume, &snap.LowPriceVolume, &snap.TotalVolume,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}

		snap.Timestamp = int64(timestampMs)
		snaps = append(snaps, &snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}

	return snaps, nil
}
