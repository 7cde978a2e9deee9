package memory

import (
	"context"
	"sort"
	"sync"

	"ge-price-lab/internal/domain"
	"ge-price-lab/internal/storage"
)

// snapshotKey identifies one snapshot.
type snapshotKey struct {
	itemID    int64
	timestamp int64
}

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[snapshotKey]*domain.Snapshot
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data: make(map[snapshotKey]*domain.Snapshot),
	}
}

// InsertBulk adds multiple snapshots. Fails entire batch on duplicate.
func (s *SnapshotStore) InsertBulk(_ context.Context, snapshots []*domain.Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: validate and check duplicates (existing + intra-batch)
	batchKeys := make(map[snapshotKey]struct{}, len(snapshots))
	for _, snap := range snapshots {
		if snap == nil {
			return storage.ErrInvalidInput
		}
		key := snapshotKey{snap.ItemID, snap.Timestamp}
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, snap := range snapshots {
		s.data[snapshotKey{snap.ItemID, snap.Timestamp}] = copySnapshot(snap)
	}
	return nil
}

// GetByItemID retrieves all snapshots for an item, ordered by timestamp ASC.
func (s *SnapshotStore) GetByItemID(_ context.Context, itemID int64) ([]*domain.Snapshot, error) {
	return s.collect(func(snap *domain.Snapshot) bool {
		return snap.ItemID == itemID
	}), nil
}

// GetByTimeRange retrieves snapshots for an item within [start, end] (inclusive).
func (s *SnapshotStore) GetByTimeRange(_ context.Context, itemID int64, start, end int64) ([]*domain.Snapshot, error) {
	return s.collect(func(snap *domain.Snapshot) bool {
		return snap.ItemID == itemID && snap.Timestamp >= start && snap.Timestamp <= end
	}), nil
}

// GetHistory retrieves all snapshots since the given timestamp, grouped by item.
func (s *SnapshotStore) GetHistory(_ context.Context, since int64) (map[int64][]*domain.Snapshot, error) {
	snaps := s.collect(func(snap *domain.Snapshot) bool {
		return snap.Timestamp >= since
	})

	history := make(map[int64][]*domain.Snapshot)
	for _, snap := range snaps {
		history[snap.ItemID] = append(history[snap.ItemID], snap)
	}
	return history, nil
}

func (s *SnapshotStore) collect(match func(*domain.Snapshot) bool) []*domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Snapshot
	for _, snap := range s.data {
		if match(snap) {
			result = append(result, copySnapshot(snap))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Timestamp != result[j].Timestamp {
			return result[i].Timestamp < result[j].Timestamp
		}
		return result[i].ItemID < result[j].ItemID
	})
	return result
}

func copySnapshot(snap *domain.Snapshot) *domain.Snapshot {
	c := *snap
	c.AvgHighPrice = copyFloat(snap.AvgHighPrice)
	c.AvgLowPrice = copyFloat(snap.AvgLowPrice)
	return &c
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)
