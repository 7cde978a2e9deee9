package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"ge-price-lab/internal/domain"
	"ge-price-lab/internal/observability"
	"ge-price-lab/internal/reconcile"
	"ge-price-lab/internal/snapshot"
	"ge-price-lab/internal/spike"
	"ge-price-lab/internal/storage"
)

// Cycle outcome labels.
const (
	StatusOK             = "ok"
	StatusFetchError     = "fetch_error"
	StatusReconcileError = "reconcile_error"
	StatusStoreError     = "store_error"
	StatusSnapshotError  = "snapshot_error"
)

// Runner polls the feed on a fixed interval and persists each cycle.
// Cycles never overlap: Run executes them sequentially on one goroutine.
type Runner struct {
	fetcher       Fetcher
	itemStore     storage.ItemStore
	snapshotStore storage.SnapshotStore
	recorder      *snapshot.Recorder
	publisher     SpikePublisher
	spikeConfig   *spike.Config
	spikeLookback time.Duration
	snapshotEvery int
	interval      time.Duration
	logger        *log.Logger

	cycle int // next cycle number, advanced on every attempt

	mu     sync.RWMutex
	status Status
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Fetcher       Fetcher
	ItemStore     storage.ItemStore
	SnapshotStore storage.SnapshotStore

	// SnapshotEvery is the snapshot cadence in cycles. Default: 5.
	SnapshotEvery int
	// Interval between cycle starts. Default: 60s.
	Interval time.Duration

	// SpikeConfig enables detection after each snapshot batch when set.
	SpikeConfig *spike.Config
	// SpikeLookback bounds the history read for detection. Zero reads every
	// stored batch, so the baseline covers all prior snapshots.
	SpikeLookback time.Duration
	// Publisher receives the spikes found at the new batch. Optional.
	Publisher SpikePublisher

	Logger *log.Logger
}

// CycleResult summarizes one completed cycle.
type CycleResult struct {
	ID           string
	Cycle        int
	Items        int
	Unmapped     int
	Snapshots    int
	SnapshotTime int64 // batch timestamp (ms), 0 when no snapshot was taken
	Spikes       []*domain.SpikeEvent
	Duration     time.Duration
}

// Status is the runner state exposed to the status endpoint.
type Status struct {
	Cycles            int    `json:"cycles"`
	LastCycleID       string `json:"last_cycle_id,omitempty"`
	LastStatus        string `json:"last_status,omitempty"`
	LastError         string `json:"last_error,omitempty"`
	LastSuccess       int64  `json:"last_success_ms,omitempty"`
	LastItems         int    `json:"last_items"`
	LastSnapshotBatch int64  `json:"last_snapshot_batch_ms,omitempty"`
	LastSpikes        int    `json:"last_spikes"`
}

// NewRunner creates a new ingestion runner.
func NewRunner(opts RunnerOptions) *Runner {
	every := opts.SnapshotEvery
	if every == 0 {
		every = snapshot.DefaultEvery
	}

	interval := opts.Interval
	if interval == 0 {
		interval = 60 * time.Second
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	r := &Runner{
		fetcher:       opts.Fetcher,
		itemStore:     opts.ItemStore,
		snapshotStore: opts.SnapshotStore,
		publisher:     opts.Publisher,
		spikeConfig:   opts.SpikeConfig,
		spikeLookback: opts.SpikeLookback,
		snapshotEvery: every,
		interval:      interval,
		logger:        logger,
	}
	if opts.SnapshotStore != nil {
		r.recorder = snapshot.NewRecorder(opts.SnapshotStore)
	}
	return r
}

// Run executes one cycle immediately and then one per interval until ctx is
// cancelled. A failed cycle is logged and left for the next tick to retry.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Printf("Runner started, interval: %v, snapshot every %d cycles", r.interval, r.snapshotEvery)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if _, err := r.RunCycle(ctx); err != nil && ctx.Err() == nil {
			r.logger.Printf("Cycle failed: %v", err)
		}

		select {
		case <-ctx.Done():
			r.logger.Println("Runner stopping...")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunCycle performs fetch, reconcile, upsert and, on snapshot cycles, the
// snapshot append and spike detection. Nothing is written when the fetch or
// reconcile step fails.
func (r *Runner) RunCycle(ctx context.Context) (*CycleResult, error) {
	start := time.Now()
	res := &CycleResult{ID: uuid.NewString(), Cycle: r.cycle}
	r.cycle++

	status, err := r.runCycle(ctx, res, start)
	res.Duration = time.Since(start)

	observability.RecordCycle(status, res.Duration.Seconds())
	r.setStatus(res, status, err)

	if err != nil {
		return nil, err
	}

	r.logger.Printf("Cycle %s (#%d): %d items, %d unmapped, %d snapshots, %d spikes in %v",
		res.ID, res.Cycle, res.Items, res.Unmapped, res.Snapshots, len(res.Spikes), res.Duration)
	return res, nil
}

func (r *Runner) runCycle(ctx context.Context, res *CycleResult, start time.Time) (string, error) {
	if r.fetcher == nil || r.itemStore == nil {
		return StatusFetchError, errors.New("runner requires a fetcher and an item store")
	}

	payloads, err := r.fetcher.FetchAll(ctx)
	if err != nil {
		return StatusFetchError, fmt.Errorf("fetch: %w", err)
	}

	items, stats, err := reconcile.ReconcileWithStats(payloads, start.UTC().UnixMilli())
	if err != nil {
		return StatusReconcileError, fmt.Errorf("reconcile: %w", err)
	}
	res.Items = stats.Reconciled
	res.Unmapped = stats.Unmapped

	if err := r.itemStore.UpsertBulk(ctx, reconcile.Sorted(items)); err != nil {
		return StatusStoreError, fmt.Errorf("upsert items: %w", err)
	}
	observability.RecordReconcile(stats.Reconciled, stats.Unmapped)

	if r.recorder == nil || payloads.Volume5m == nil || !snapshot.ShouldRecord(res.Cycle, r.snapshotEvery) {
		return StatusOK, nil
	}

	ts, n, err := r.recorder.Append(ctx, payloads.Volume5m)
	if err != nil {
		return StatusSnapshotError, fmt.Errorf("append snapshots: %w", err)
	}
	res.Snapshots = n
	if n > 0 {
		res.SnapshotTime = ts
	}

	if r.spikeConfig != nil && n > 0 {
		res.Spikes = r.detectSpikes(ctx, ts)
	}

	return StatusOK, nil
}

// detectSpikes evaluates the stored history and publishes the events at the
// newest batch. Failures here are logged; the cycle's writes already stand.
func (r *Runner) detectSpikes(ctx context.Context, batch int64) []*domain.SpikeEvent {
	var since int64
	if r.spikeLookback > 0 {
		since = batch - r.spikeLookback.Milliseconds()
	}

	history, err := r.snapshotStore.GetHistory(ctx, since)
	if err != nil {
		r.logger.Printf("Spike detection skipped: load history: %v", err)
		return nil
	}

	events := spike.Latest(spike.Detect(history, *r.spikeConfig), batch)
	for _, e := range events {
		observability.RecordSpike(e.Tier)
	}

	if r.publisher != nil && len(events) > 0 {
		if err := r.publisher.Publish(ctx, events); err != nil {
			r.logger.Printf("Publish %d spikes failed: %v", len(events), err)
		} else {
			observability.RecordSpikesPublished(len(events))
		}
	}

	return events
}

func (r *Runner) setStatus(res *CycleResult, status string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.status.Cycles = res.Cycle + 1
	r.status.LastCycleID = res.ID
	r.status.LastStatus = status
	if err != nil {
		r.status.LastError = err.Error()
		return
	}

	now := time.Now()
	r.status.LastError = ""
	r.status.LastSuccess = now.UnixMilli()
	r.status.LastItems = res.Items
	r.status.LastSpikes = len(res.Spikes)
	if res.SnapshotTime != 0 {
		r.status.LastSnapshotBatch = res.SnapshotTime
	}
	observability.RecordSuccessfulIngestion(now.Unix())
}

// Status returns a copy of the runner state. Safe for concurrent use.
func (r *Runner) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}
