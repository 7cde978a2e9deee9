package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ge-price-lab/internal/domain"
	"ge-price-lab/internal/feed"
	"ge-price-lab/internal/spike"
	"ge-price-lab/internal/storage/memory"
)

const (
	catalogJSON = `[
		{"examine": "A weapon from the abyss.", "id": 4151, "members": true, "lowalch": 48000, "highalch": 72000, "limit": 70, "value": 120001, "icon": "Abyssal whip.png", "name": "Abyssal whip"},
		{"examine": "Ammo for the Dwarf Cannon.", "id": 2, "members": true, "lowalch": 2, "highalch": 3, "limit": 11000, "value": 5, "icon": "Cannonball.png", "name": "Cannonball"}
	]`
	latestJSON = `{"data": {
		"4151": {"high": 1500000, "highTime": 1700000000, "low": 1480000, "lowTime": 1700000100},
		"2":    {"high": 200, "highTime": 1700000000, "low": 190, "lowTime": 1700000000},
		"999":  {"high": 1, "highTime": 1, "low": 1, "lowTime": 1}
	}}`
	volume24hJSON = `{"timestamp": 1700000000, "data": {"4151": 12000, "2": 9000000}}`
)

func volume5mJSON(whipHighVolume int) string {
	b, _ := json.Marshal(map[string]any{
		"timestamp": 1700000000,
		"data": map[string]any{
			"4151": map[string]any{"avgHighPrice": 1500000, "highPriceVolume": whipHighVolume, "avgLowPrice": 1480000, "lowPriceVolume": 0},
			"2":    map[string]any{"avgHighPrice": nil, "highPriceVolume": 50, "avgLowPrice": 190, "lowPriceVolume": 50},
		},
	})
	return string(b)
}

func decode[T any](t *testing.T, body string) *T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	return &v
}

// mockFetcher returns fixed payloads or a fixed error and counts calls.
type mockFetcher struct {
	mu       sync.Mutex
	payloads *feed.Payloads
	err      error
	calls    int
}

func (m *mockFetcher) FetchAll(context.Context) (*feed.Payloads, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.payloads, nil
}

func (m *mockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockPublisher struct {
	events []*domain.SpikeEvent
}

func (m *mockPublisher) Publish(_ context.Context, events []*domain.SpikeEvent) error {
	m.events = append(m.events, events...)
	return nil
}

func newPayloads(t *testing.T, whipHighVolume int) *feed.Payloads {
	t.Helper()
	return &feed.Payloads{
		Catalog:   *decode[feed.Catalog](t, catalogJSON),
		Latest:    decode[feed.LatestPrices](t, latestJSON),
		Volume24h: decode[feed.Volume24h](t, volume24hJSON),
		Volume5m:  decode[feed.Volume5m](t, volume5mJSON(whipHighVolume)),
	}
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestRunner_RunCycleWritesItemsAndSnapshots(t *testing.T) {
	items := memory.NewItemStore()
	snaps := memory.NewSnapshotStore()

	runner := NewRunner(RunnerOptions{
		Fetcher:       &mockFetcher{payloads: newPayloads(t, 40)},
		ItemStore:     items,
		SnapshotStore: snaps,
		Logger:        quietLogger(),
	})

	ctx := context.Background()
	res, err := runner.RunCycle(ctx)
	require.NoError(t, err)

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, 0, res.Cycle)
	assert.Equal(t, 2, res.Items)
	assert.Equal(t, 1, res.Unmapped)
	assert.Equal(t, 2, res.Snapshots, "cycle 0 records a snapshot")
	assert.NotZero(t, res.SnapshotTime)

	all, err := items.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, int64(2), all[0].ID)
	assert.Equal(t, "Abyssal whip", all[1].Name)
	assert.Equal(t, int64(40), all[1].HighPriceVolume)

	whip, err := snaps.GetByItemID(ctx, 4151)
	require.NoError(t, err)
	require.Len(t, whip, 1)
	assert.Equal(t, res.SnapshotTime, whip[0].Timestamp)
	assert.Equal(t, int64(40), whip[0].TotalVolume)
}

func TestRunner_SnapshotCadence(t *testing.T) {
	snaps := memory.NewSnapshotStore()

	runner := NewRunner(RunnerOptions{
		Fetcher:       &mockFetcher{payloads: newPayloads(t, 40)},
		ItemStore:     memory.NewItemStore(),
		SnapshotStore: snaps,
		SnapshotEvery: 3,
		Logger:        quietLogger(),
	})

	var recorded []int
	for i := 0; i < 7; i++ {
		res, err := runner.RunCycle(context.Background())
		require.NoError(t, err)
		if res.Snapshots > 0 {
			recorded = append(recorded, res.Cycle)
		}
		// Distinct batch timestamps
		time.Sleep(2 * time.Millisecond)
	}

	assert.Equal(t, []int{0, 3, 6}, recorded)

	history, err := snaps.GetByItemID(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestRunner_FetchErrorWritesNothing(t *testing.T) {
	items := memory.NewItemStore()
	snaps := memory.NewSnapshotStore()
	fetcher := &mockFetcher{err: errors.New("latest: failed to fetch data: 503")}

	runner := NewRunner(RunnerOptions{
		Fetcher:       fetcher,
		ItemStore:     items,
		SnapshotStore: snaps,
		Logger:        quietLogger(),
	})

	ctx := context.Background()
	_, err := runner.RunCycle(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch data: 503")

	all, err := items.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	status := runner.Status()
	assert.Equal(t, 1, status.Cycles)
	assert.Equal(t, StatusFetchError, status.LastStatus)
	assert.NotEmpty(t, status.LastError)

	// The failed cycle still consumed cycle 0; recovery lands on cycle 1.
	fetcher.err = nil
	fetcher.payloads = newPayloads(t, 40)
	res, err := runner.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Cycle)
	assert.Zero(t, res.Snapshots)
	assert.Equal(t, StatusOK, runner.Status().LastStatus)
	assert.Empty(t, runner.Status().LastError)
}

func TestRunner_ReconcileErrorWritesNothing(t *testing.T) {
	items := memory.NewItemStore()
	payloads := newPayloads(t, 40)
	payloads.Latest = nil

	runner := NewRunner(RunnerOptions{
		Fetcher:   &mockFetcher{payloads: payloads},
		ItemStore: items,
		Logger:    quietLogger(),
	})

	_, err := runner.RunCycle(context.Background())
	require.Error(t, err)
	assert.Equal(t, StatusReconcileError, runner.Status().LastStatus)

	all, _ := items.GetAll(context.Background())
	assert.Empty(t, all)
}

func TestRunner_PublishesSpikesAtNewBatch(t *testing.T) {
	ctx := context.Background()
	snaps := memory.NewSnapshotStore()

	// Three prior batches with a flat whip volume of 100.
	now := time.Now()
	for h := 3; h >= 1; h-- {
		ts := now.Add(-time.Duration(h) * time.Hour).UnixMilli()
		price := 1500000.0
		require.NoError(t, snaps.InsertBulk(ctx, []*domain.Snapshot{
			domain.NewSnapshot(4151, ts, &price, nil, 100, 0),
			domain.NewSnapshot(2, ts, nil, nil, 50, 50),
		}))
	}

	publisher := &mockPublisher{}
	cfg := spike.Config{Thresholds: []float64{10, 25, 50, 100}}

	runner := NewRunner(RunnerOptions{
		Fetcher:       &mockFetcher{payloads: newPayloads(t, 400)},
		ItemStore:     memory.NewItemStore(),
		SnapshotStore: snaps,
		SpikeConfig:   &cfg,
		Publisher:     publisher,
		Logger:        quietLogger(),
	})

	res, err := runner.RunCycle(ctx)
	require.NoError(t, err)

	require.Len(t, res.Spikes, 1)
	e := res.Spikes[0]
	assert.Equal(t, int64(4151), e.ItemID)
	assert.Equal(t, 100.0, e.Tier)
	assert.InDelta(t, 300.0, e.PercentIncrease, 1e-9)
	assert.Equal(t, res.SnapshotTime, e.Timestamp)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, 1, runner.Status().LastSpikes)
}

func TestRunner_SpikeBaselineUsesFullHistory(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	price := 1500000.0

	// Old quiet batches outside any 24h window, then one busy batch an hour ago.
	seed := func() *memory.SnapshotStore {
		snaps := memory.NewSnapshotStore()
		for _, age := range []time.Duration{30 * time.Hour, 29 * time.Hour, 28 * time.Hour} {
			require.NoError(t, snaps.InsertBulk(ctx, []*domain.Snapshot{
				domain.NewSnapshot(4151, now.Add(-age).UnixMilli(), &price, nil, 100, 0),
			}))
		}
		require.NoError(t, snaps.InsertBulk(ctx, []*domain.Snapshot{
			domain.NewSnapshot(4151, now.Add(-time.Hour).UnixMilli(), &price, nil, 400, 0),
		}))
		return snaps
	}

	cfg := spike.Config{Thresholds: []float64{10, 25, 50, 100}}
	runner := NewRunner(RunnerOptions{
		Fetcher:       &mockFetcher{payloads: newPayloads(t, 400)},
		ItemStore:     memory.NewItemStore(),
		SnapshotStore: seed(),
		SpikeConfig:   &cfg,
		Logger:        quietLogger(),
	})

	res, err := runner.RunCycle(ctx)
	require.NoError(t, err)

	// Baseline (100*3 + 400) / 4 = 175; a 24h window alone would see 400 and no spike.
	require.Len(t, res.Spikes, 1)
	assert.InDelta(t, 225.0/175.0*100, res.Spikes[0].PercentIncrease, 1e-9)
	assert.Equal(t, 100.0, res.Spikes[0].Tier)

	windowed := NewRunner(RunnerOptions{
		Fetcher:       &mockFetcher{payloads: newPayloads(t, 400)},
		ItemStore:     memory.NewItemStore(),
		SnapshotStore: seed(),
		SpikeConfig:   &cfg,
		SpikeLookback: 24 * time.Hour,
		Logger:        quietLogger(),
	})
	res, err = windowed.RunCycle(ctx)
	require.NoError(t, err)
	assert.Empty(t, res.Spikes)
}

func TestRunner_RunStopsOnCancel(t *testing.T) {
	fetcher := &mockFetcher{payloads: newPayloads(t, 40)}

	runner := NewRunner(RunnerOptions{
		Fetcher:   fetcher,
		ItemStore: memory.NewItemStore(),
		Interval:  10 * time.Millisecond,
		Logger:    quietLogger(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()

	err := runner.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, fetcher.Calls(), 2, "runs immediately and then on each tick")
}
