package query

import "ge-price-lab/internal/domain"

func num(v int64) *float64 {
	f := float64(v)
	return &f
}

func nullable(v *int64) *float64 {
	if v == nil {
		return nil
	}
	return num(*v)
}

var itemFields = map[string]Getter[*domain.Item]{
	"id":                func(i *domain.Item) *float64 { return num(i.ID) },
	"high":              func(i *domain.Item) *float64 { return num(i.High) },
	"low":               func(i *domain.Item) *float64 { return num(i.Low) },
	"margin":            func(i *domain.Item) *float64 { return num(i.Margin()) },
	"volume":            func(i *domain.Item) *float64 { return num(i.Volume) },
	"limit":             func(i *domain.Item) *float64 { return num(i.Limit) },
	"value":             func(i *domain.Item) *float64 { return num(i.Value) },
	"lowalch":           func(i *domain.Item) *float64 { return num(i.LowAlch) },
	"highalch":          func(i *domain.Item) *float64 { return num(i.HighAlch) },
	"avg_high_price":    func(i *domain.Item) *float64 { return nullable(i.AvgHighPrice) },
	"avg_low_price":     func(i *domain.Item) *float64 { return nullable(i.AvgLowPrice) },
	"high_price_volume": func(i *domain.Item) *float64 { return num(i.HighPriceVolume) },
	"low_price_volume":  func(i *domain.Item) *float64 { return num(i.LowPriceVolume) },
}

var spikeFields = map[string]Getter[*domain.SpikeEvent]{
	"item_id":          func(e *domain.SpikeEvent) *float64 { return num(e.ItemID) },
	"percent_increase": func(e *domain.SpikeEvent) *float64 { return &e.PercentIncrease },
	"tier":             func(e *domain.SpikeEvent) *float64 { return &e.Tier },
	"baseline_volume":  func(e *domain.SpikeEvent) *float64 { return &e.BaselineVolume },
	"current_volume":   func(e *domain.SpikeEvent) *float64 { return num(e.CurrentVolume) },
	"timestamp":        func(e *domain.SpikeEvent) *float64 { return num(e.Timestamp) },
	"price":            func(e *domain.SpikeEvent) *float64 { return &e.Price },
	"price_drop":       func(e *domain.SpikeEvent) *float64 { return e.PriceDrop },
}

// ItemField resolves a sortable/filterable item field. "volume_24h" is an
// alias of "volume".
func ItemField(name string) (Getter[*domain.Item], bool) {
	if name == "volume_24h" {
		name = "volume"
	}
	get, ok := itemFields[name]
	return get, ok
}

// SpikeField resolves a sortable/filterable spike event field.
func SpikeField(name string) (Getter[*domain.SpikeEvent], bool) {
	get, ok := spikeFields[name]
	return get, ok
}
