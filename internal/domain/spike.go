package domain

// SpikeEvent marks a snapshot whose volume exceeded the item's cumulative baseline.
type SpikeEvent struct {
	ItemID          int64    `json:"item_id"`
	PercentIncrease float64  `json:"percent_increase"` // (current - baseline) / baseline * 100
	Tier            float64  `json:"tier"`             // highest configured threshold <= PercentIncrease
	BaselineVolume  float64  `json:"baseline_volume"`  // mean total volume of all prior snapshots
	CurrentVolume   int64    `json:"current_volume"`
	Timestamp       int64    `json:"timestamp"` // snapshot time (ms)
	Price           float64  `json:"price"`     // resolved avg high price at the spike
	PriceDrop       *float64 `json:"price_drop"` // Price minus the next known avg high price; nil if none
}
