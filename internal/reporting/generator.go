package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"ge-price-lab/internal/domain"
	"ge-price-lab/internal/query"
	"ge-price-lab/internal/spike"
	"ge-price-lab/internal/storage"
)

// Options selects what a report covers.
type Options struct {
	Lookback time.Duration // history window; default 24h
	Tier     float64       // keep only this tier; 0 keeps all
	Limit    int           // max rows per table; 0 means no limit
}

// Generator produces reports from stored data.
type Generator struct {
	itemStore     storage.ItemStore
	snapshotStore storage.SnapshotStore
	spikeCfg      spike.Config
	now           func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(items storage.ItemStore, snapshots storage.SnapshotStore, cfg spike.Config) *Generator {
	return &Generator{
		itemStore:     items,
		snapshotStore: snapshots,
		spikeCfg:      cfg,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a complete report.
func (g *Generator) Generate(ctx context.Context, opts Options) (*Report, error) {
	if opts.Lookback <= 0 {
		opts.Lookback = 24 * time.Hour
	}

	now := g.now()
	since := now.Add(-opts.Lookback).UnixMilli()

	items, err := g.itemStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}

	history, err := g.snapshotStore.GetHistory(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	names := make(map[int64]string, len(items))
	for _, it := range items {
		names[it.ID] = it.Name
	}

	events := spike.Detect(history, g.spikeCfg)
	if opts.Tier > 0 {
		events = spike.FilterTier(events, opts.Tier)
	}

	points := 0
	for _, snaps := range history {
		points += len(snaps)
	}

	return &Report{
		GeneratedAt:    now,
		Since:          since,
		Until:          now.UnixMilli(),
		Thresholds:     append([]float64(nil), g.spikeCfg.Thresholds...),
		Tier:           opts.Tier,
		ItemCount:      len(items),
		SnapshotItems:  len(history),
		SnapshotPoints: points,
		TierCounts:     tierCounts(events),
		Spikes:         spikeRows(events, names, opts.Limit),
		TopMargins:     marginRows(items, opts.Limit),
	}, nil
}

func tierCounts(events []*domain.SpikeEvent) []TierCountRow {
	counts := make(map[float64]int)
	for _, e := range events {
		counts[e.Tier]++
	}

	rows := make([]TierCountRow, 0, len(counts))
	for tier, n := range counts {
		rows = append(rows, TierCountRow{Tier: tier, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Tier < rows[j].Tier })
	return rows
}

func spikeRows(events []*domain.SpikeEvent, names map[int64]string, limit int) []SpikeRow {
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}

	rows := make([]SpikeRow, 0, len(events))
	for _, e := range events {
		rows = append(rows, SpikeRow{
			ItemID:          e.ItemID,
			Name:            names[e.ItemID],
			Tier:            e.Tier,
			PercentIncrease: e.PercentIncrease,
			BaselineVolume:  e.BaselineVolume,
			CurrentVolume:   e.CurrentVolume,
			Timestamp:       e.Timestamp,
			Price:           e.Price,
			PriceDrop:       e.PriceDrop,
		})
	}
	return rows
}

func marginRows(items []*domain.Item, limit int) []MarginRow {
	margin, _ := query.ItemField("margin")
	sorted := query.SortBy(items, margin, true)
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}

	rows := make([]MarginRow, 0, len(sorted))
	for _, it := range sorted {
		rows = append(rows, ItemMarginRow(it))
	}
	return rows
}

// ItemMarginRow converts an item into a margin table row.
func ItemMarginRow(it *domain.Item) MarginRow {
	return MarginRow{
		ItemID: it.ID,
		Name:   it.Name,
		High:   it.High,
		Low:    it.Low,
		Margin: it.Margin(),
		Volume: it.Volume,
		Limit:  it.Limit,
	}
}
