package memory

import (
	"context"
	"errors"
	"testing"

	"ge-price-lab/internal/domain"
	"ge-price-lab/internal/storage"
)

func float64Ptr(v float64) *float64 { return &v }

func TestSnapshotStore_InsertBulkAndGet(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	snaps := []*domain.Snapshot{
		domain.NewSnapshot(4151, 3000, float64Ptr(100), nil, 5, 5),
		domain.NewSnapshot(4151, 1000, nil, nil, 1, 2),
		domain.NewSnapshot(1511, 1000, nil, nil, 0, 0),
	}

	if err := store.InsertBulk(ctx, snaps); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByItemID(ctx, 4151)
	if err != nil {
		t.Fatalf("GetByItemID failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 snapshots, got %d", len(result))
	}
	if result[0].Timestamp != 1000 || result[1].Timestamp != 3000 {
		t.Errorf("Expected timestamp ASC order, got %d, %d", result[0].Timestamp, result[1].Timestamp)
	}
	if result[1].TotalVolume != 10 {
		t.Errorf("Expected total volume 10, got %d", result[1].TotalVolume)
	}
}

func TestSnapshotStore_DuplicateKey(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	snaps := []*domain.Snapshot{domain.NewSnapshot(1, 1000, nil, nil, 1, 1)}
	if err := store.InsertBulk(ctx, snaps); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.InsertBulk(ctx, snaps)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestSnapshotStore_IntraBatchDuplicateRejectsBatch(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	snaps := []*domain.Snapshot{
		domain.NewSnapshot(2, 1000, nil, nil, 1, 1),
		domain.NewSnapshot(1, 1000, nil, nil, 1, 1),
		domain.NewSnapshot(1, 1000, nil, nil, 2, 2),
	}

	err := store.InsertBulk(ctx, snaps)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	result, _ := store.GetByItemID(ctx, 2)
	if len(result) != 0 {
		t.Errorf("Expected no partial insert, got %d", len(result))
	}
}

func TestSnapshotStore_GetByTimeRange(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	var snaps []*domain.Snapshot
	for ts := int64(1000); ts <= 5000; ts += 1000 {
		snaps = append(snaps, domain.NewSnapshot(1, ts, nil, nil, ts, 0))
	}
	if err := store.InsertBulk(ctx, snaps); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByTimeRange(ctx, 1, 2000, 4000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(result) != 3 {
		t.Errorf("Expected 3 snapshots in inclusive range, got %d", len(result))
	}
}

func TestSnapshotStore_GetHistory(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	snaps := []*domain.Snapshot{
		domain.NewSnapshot(1, 1000, nil, nil, 1, 0),
		domain.NewSnapshot(1, 2000, nil, nil, 2, 0),
		domain.NewSnapshot(2, 2000, nil, nil, 3, 0),
		domain.NewSnapshot(2, 500, nil, nil, 4, 0),
	}
	if err := store.InsertBulk(ctx, snaps); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	history, err := store.GetHistory(ctx, 1000)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("Expected 2 items in history, got %d", len(history))
	}
	if len(history[1]) != 2 || history[1][0].Timestamp != 1000 {
		t.Errorf("Unexpected history for item 1: %+v", history[1])
	}
	if len(history[2]) != 1 {
		t.Errorf("Expected snapshot before since to be excluded, got %d", len(history[2]))
	}
}

func TestSnapshotStore_EmptyBatch(t *testing.T) {
	store := NewSnapshotStore()
	if err := store.InsertBulk(context.Background(), nil); err != nil {
		t.Errorf("Expected nil error for empty batch, got %v", err)
	}
}
