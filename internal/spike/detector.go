// Package spike flags snapshots whose trading volume jumps above the item's
// cumulative baseline.
//
// The baseline at index i is the mean total volume of every snapshot before i
// (an expanding window). A point is a spike when its percent increase over the
// baseline meets at least one configured threshold; the event is classified
// into the highest such threshold.
package spike

import (
	"sort"

	"ge-price-lab/internal/domain"
)

// Config parameterizes detection.
type Config struct {
	// Thresholds are percent increases, in any order. Duplicates are harmless.
	Thresholds []float64 `yaml:"thresholds"`

	// MinAvgVolume skips points whose baseline is below this value.
	MinAvgVolume float64 `yaml:"min_avg_volume"`

	// MinPrice skips points whose resolved price is below this value.
	MinPrice float64 `yaml:"min_price"`
}

// DefaultConfig returns the tiers used by the dashboard views.
func DefaultConfig() Config {
	return Config{
		Thresholds:   []float64{10, 25, 50, 100, 200},
		MinAvgVolume: 0,
		MinPrice:     0,
	}
}

// Detect evaluates every item's history and returns spike events sorted by
// percent increase descending. Items are enumerated in ascending id order and
// ties keep that enumeration order. history is not modified.
func Detect(history map[int64][]*domain.Snapshot, cfg Config) []*domain.SpikeEvent {
	tiers := descending(cfg.Thresholds)
	if len(tiers) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(history))
	for id := range history {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var events []*domain.SpikeEvent
	for _, id := range ids {
		events = append(events, detectItem(id, history[id], tiers, cfg)...)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].PercentIncrease > events[j].PercentIncrease
	})
	return events
}

// detectItem runs the per-item scan. tiers must be sorted descending.
func detectItem(itemID int64, snaps []*domain.Snapshot, tiers []float64, cfg Config) []*domain.SpikeEvent {
	ordered := make([]*domain.Snapshot, 0, len(snaps))
	for _, s := range snaps {
		if s != nil {
			ordered = append(ordered, s)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp < ordered[j].Timestamp
	})

	var events []*domain.SpikeEvent
	var sum float64

	for i := 1; i < len(ordered); i++ {
		sum += float64(ordered[i-1].TotalVolume)

		baseline := sum / float64(i)
		if baseline == 0 || baseline < cfg.MinAvgVolume {
			continue
		}

		cur := ordered[i]
		pct := (float64(cur.TotalVolume) - baseline) / baseline * 100

		price := resolvePrice(ordered, i)
		if price == nil || *price < cfg.MinPrice {
			continue
		}

		tier, ok := resolveTier(tiers, pct)
		if !ok {
			continue
		}

		var drop *float64
		if next := nextPrice(ordered, i); next != nil {
			d := *price - *next
			drop = &d
		}

		events = append(events, &domain.SpikeEvent{
			ItemID:          itemID,
			PercentIncrease: pct,
			Tier:            tier,
			BaselineVolume:  baseline,
			CurrentVolume:   cur.TotalVolume,
			Timestamp:       cur.Timestamp,
			Price:           *price,
			PriceDrop:       drop,
		})
	}

	return events
}

// resolvePrice returns the avg high price at i, or the nearest earlier non-null one.
func resolvePrice(snaps []*domain.Snapshot, i int) *float64 {
	for j := i; j >= 0; j-- {
		if p := snaps[j].AvgHighPrice; p != nil {
			return p
		}
	}
	return nil
}

// nextPrice returns the first non-null avg high price after i.
func nextPrice(snaps []*domain.Snapshot, i int) *float64 {
	for j := i + 1; j < len(snaps); j++ {
		if p := snaps[j].AvgHighPrice; p != nil {
			return p
		}
	}
	return nil
}

// resolveTier returns the highest tier <= pct.
func resolveTier(tiers []float64, pct float64) (float64, bool) {
	for _, t := range tiers {
		if t <= pct {
			return t, true
		}
	}
	return 0, false
}

func descending(thresholds []float64) []float64 {
	out := append([]float64(nil), thresholds...)
	sort.Sort(sort.Reverse(sort.Float64Slice(out)))
	return out
}

// FilterTier keeps the events classified into tier, preserving order.
func FilterTier(events []*domain.SpikeEvent, tier float64) []*domain.SpikeEvent {
	var out []*domain.SpikeEvent
	for _, e := range events {
		if e.Tier == tier {
			out = append(out, e)
		}
	}
	return out
}

// Latest keeps only events stamped at timestamp.
func Latest(events []*domain.SpikeEvent, timestamp int64) []*domain.SpikeEvent {
	var out []*domain.SpikeEvent
	for _, e := range events {
		if e.Timestamp == timestamp {
			out = append(out, e)
		}
	}
	return out
}
