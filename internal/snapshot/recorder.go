// Package snapshot appends 5-minute aggregate observations to the snapshot time series.
package snapshot

import (
	"context"
	"fmt"
	"sort"
	"time"

	"ge-price-lab/internal/coerce"
	"ge-price-lab/internal/domain"
	"ge-price-lab/internal/feed"
	"ge-price-lab/internal/observability"
	"ge-price-lab/internal/storage"
)

// DefaultEvery is the snapshot cadence in ingestion cycles.
const DefaultEvery = 5

// Recorder turns 5m payloads into snapshot batches.
type Recorder struct {
	store storage.SnapshotStore
	now   func() time.Time
}

// NewRecorder creates a Recorder writing to store.
func NewRecorder(store storage.SnapshotStore) *Recorder {
	return &Recorder{store: store, now: time.Now}
}

// Append writes one snapshot per entry of vol5m, all stamped with the same
// instant, in a single InsertBulk call. Returns the batch timestamp (unix ms)
// and the number of snapshots written. Entries whose key is not an item id
// are dropped.
func (r *Recorder) Append(ctx context.Context, vol5m *feed.Volume5m) (int64, int, error) {
	ts := r.now().UTC().UnixMilli()

	if vol5m == nil || len(vol5m.Data) == 0 {
		return ts, 0, nil
	}

	snaps := Build(vol5m, ts)
	if len(snaps) == 0 {
		return ts, 0, nil
	}

	if err := r.store.InsertBulk(ctx, snaps); err != nil {
		return ts, 0, fmt.Errorf("insert snapshots: %w", err)
	}

	observability.RecordSnapshots(len(snaps), ts/1000)
	return ts, len(snaps), nil
}

// Build converts a 5m payload into snapshots stamped with timestamp, ordered by item id.
func Build(vol5m *feed.Volume5m, timestamp int64) []*domain.Snapshot {
	if vol5m == nil {
		return nil
	}

	ids := make([]int64, 0, len(vol5m.Data))
	byID := make(map[int64]feed.AggregateQuad, len(vol5m.Data))
	for key, agg := range vol5m.Data {
		id, ok := coerce.ID(key)
		if !ok {
			continue
		}
		ids = append(ids, id)
		byID[id] = agg
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	snaps := make([]*domain.Snapshot, 0, len(ids))
	for _, id := range ids {
		agg := byID[id]
		snaps = append(snaps, domain.NewSnapshot(
			id,
			timestamp,
			coerce.NullableFloat(agg.AvgHighPrice),
			coerce.NullableFloat(agg.AvgLowPrice),
			coerce.Int(agg.HighPriceVolume),
			coerce.Int(agg.LowPriceVolume),
		))
	}
	return snaps
}

// ShouldRecord reports whether the given cycle number takes a snapshot.
// Cycle 0 always records; every <= 0 records every cycle.
func ShouldRecord(cycle, every int) bool {
	if every <= 1 {
		return true
	}
	return cycle%every == 0
}
