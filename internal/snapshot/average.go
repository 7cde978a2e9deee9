package snapshot

import "ge-price-lab/internal/domain"

// Field names accepted by AverageField.
const (
	FieldAvgHighPrice    = "avg_high_price"
	FieldAvgLowPrice     = "avg_low_price"
	FieldHighPriceVolume = "high_price_volume"
	FieldLowPriceVolume  = "low_price_volume"
	FieldTotalVolume     = "total_volume"
)

// Fields lists every averageable field in display order.
var Fields = []string{
	FieldAvgHighPrice,
	FieldAvgLowPrice,
	FieldHighPriceVolume,
	FieldLowPriceVolume,
	FieldTotalVolume,
}

// AverageField returns the mean of the non-null values of field across snaps.
// Returns nil for an unknown field or when no snapshot carries a value.
func AverageField(snaps []*domain.Snapshot, field string) *float64 {
	get := fieldGetter(field)
	if get == nil {
		return nil
	}

	var sum float64
	var n int
	for _, s := range snaps {
		if s == nil {
			continue
		}
		if v := get(s); v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return nil
	}

	avg := sum / float64(n)
	return &avg
}

// Averages computes AverageField for every entry of Fields.
func Averages(snaps []*domain.Snapshot) map[string]*float64 {
	out := make(map[string]*float64, len(Fields))
	for _, f := range Fields {
		out[f] = AverageField(snaps, f)
	}
	return out
}

func fieldGetter(field string) func(*domain.Snapshot) *float64 {
	switch field {
	case FieldAvgHighPrice:
		return func(s *domain.Snapshot) *float64 { return s.AvgHighPrice }
	case FieldAvgLowPrice:
		return func(s *domain.Snapshot) *float64 { return s.AvgLowPrice }
	case FieldHighPriceVolume:
		return func(s *domain.Snapshot) *float64 { return intPtr(s.HighPriceVolume) }
	case FieldLowPriceVolume:
		return func(s *domain.Snapshot) *float64 { return intPtr(s.LowPriceVolume) }
	case FieldTotalVolume:
		return func(s *domain.Snapshot) *float64 { return intPtr(s.TotalVolume) }
	}
	return nil
}

func intPtr(v int64) *float64 {
	f := float64(v)
	return &f
}
