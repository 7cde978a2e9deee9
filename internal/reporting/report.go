package reporting

import "time"

// Report is the spike and margin summary over one lookback window.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	Since       int64 // Unix ms, start of the history window
	Until       int64 // Unix ms
	Thresholds  []float64
	Tier        float64 // 0 means every tier

	// Data Summary
	ItemCount      int
	SnapshotItems  int // items with at least one snapshot in the window
	SnapshotPoints int

	// Tier breakdown, ascending by tier
	TierCounts []TierCountRow

	// Spikes sorted by percent increase descending
	Spikes []SpikeRow

	// Items sorted by margin descending
	TopMargins []MarginRow
}

// TierCountRow counts events per tier.
type TierCountRow struct {
	Tier  float64
	Count int
}

// SpikeRow is one spike event with the item name resolved.
type SpikeRow struct {
	ItemID          int64
	Name            string
	Tier            float64
	PercentIncrease float64
	BaselineVolume  float64
	CurrentVolume   int64
	Timestamp       int64 // Unix ms
	Price           float64
	PriceDrop       *float64 // nil when no later price is known
}

// MarginRow is one item in the margin table.
type MarginRow struct {
	ItemID int64
	Name   string
	High   int64
	Low    int64
	Margin int64
	Volume int64
	Limit  int64
}
