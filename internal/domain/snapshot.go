package domain

// Snapshot is one immutable observation of an item's 5-minute aggregate data.
// Corresponds to the item_snapshots table (PostgreSQL or ClickHouse).
type Snapshot struct {
	ItemID          int64    `json:"item_id"`           // references Item.ID, not enforced
	Timestamp       int64    `json:"timestamp"`         // write time, Unix ms UTC, shared per batch
	AvgHighPrice    *float64 `json:"avg_high_price"`    // nullable
	AvgLowPrice     *float64 `json:"avg_low_price"`     // nullable
	HighPriceVolume int64    `json:"high_price_volume"` // 0 when source is null
	LowPriceVolume  int64    `json:"low_price_volume"`  // 0 when source is null
	TotalVolume     int64    `json:"total_volume"`      // HighPriceVolume + LowPriceVolume
}

// NewSnapshot builds a snapshot and derives TotalVolume from the two side volumes.
func NewSnapshot(itemID, timestamp int64, avgHigh, avgLow *float64, highVol, lowVol int64) *Snapshot {
	return &Snapshot{
		ItemID:          itemID,
		Timestamp:       timestamp,
		AvgHighPrice:    avgHigh,
		AvgLowPrice:     avgLow,
		HighPriceVolume: highVol,
		LowPriceVolume:  lowVol,
		TotalVolume:     highVol + lowVol,
	}
}
