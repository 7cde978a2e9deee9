// Package reconcile merges the four upstream feeds into one Item per catalog id.
package reconcile

import (
	"encoding/json"
	"errors"
	"sort"
	"strconv"

	"ge-price-lab/internal/coerce"
	"ge-price-lab/internal/domain"
	"ge-price-lab/internal/feed"
)

// Structural input errors. These are fatal to the ingestion cycle.
var (
	ErrMissingCatalog = errors.New("reconcile: catalog payload missing")
	ErrMissingLatest  = errors.New("reconcile: latest prices payload missing data")
)

// DefaultName is used when a catalog entry has a non-string name.
const DefaultName = "Unknown"

// Stats summarises one reconciliation.
type Stats struct {
	CatalogEntries int // entries in the mapping payload
	InvalidEntries int // entries excluded for missing required fields
	Reconciled     int // items produced
	Unmapped       int // latest-price ids without a catalog entry
}

// Reconcile builds the current Item set from the fetched payloads.
//
// Priority rules: the 5m totalVolume (when the key is present) overrides the
// 24h volume. Ids in the price feeds that are not in the catalog are dropped.
// Malformed numeric fields never fail the call.
func Reconcile(p *feed.Payloads) (map[int64]*domain.Item, error) {
	items, _, err := ReconcileWithStats(p, 0)
	return items, err
}

// ReconcileWithStats is Reconcile that also reports counts and stamps
// UpdatedAt on every item.
func ReconcileWithStats(p *feed.Payloads, updatedAt int64) (map[int64]*domain.Item, Stats, error) {
	var stats Stats
	if p == nil || p.Catalog == nil {
		return nil, stats, ErrMissingCatalog
	}
	if p.Latest == nil || p.Latest.Data == nil {
		return nil, stats, ErrMissingLatest
	}

	catalog, invalid := buildCatalog(p.Catalog)
	stats.CatalogEntries = len(p.Catalog)
	stats.InvalidEntries = invalid

	var volumes map[string]json.RawMessage
	if p.Volume24h != nil {
		volumes = p.Volume24h.Data
	}
	var fiveMin map[string]feed.AggregateQuad
	if p.Volume5m != nil {
		fiveMin = p.Volume5m.Data
	}

	items := make(map[int64]*domain.Item, len(p.Latest.Data))
	for key, prices := range p.Latest.Data {
		id, ok := coerce.ID(key)
		if !ok {
			stats.Unmapped++
			continue
		}
		entry, ok := catalog[id]
		if !ok {
			stats.Unmapped++
			continue
		}

		item := fromCatalog(id, entry)
		item.High = coerce.Int(prices.High)
		item.HighTime = coerce.Int(prices.HighTime)
		item.Low = coerce.Int(prices.Low)
		item.LowTime = coerce.Int(prices.LowTime)
		item.UpdatedAt = updatedAt

		// 24h keys are strings; always look up by the canonical decimal form.
		strID := strconv.FormatInt(id, 10)
		item.Volume = coerce.Int(volumes[strID])

		if agg, ok := fiveMin[strID]; ok {
			applyFiveMinute(item, agg)
		}

		items[id] = item
	}

	stats.Reconciled = len(items)
	return items, stats, nil
}

// Sorted returns the items ordered by id.
func Sorted(items map[int64]*domain.Item) []*domain.Item {
	out := make([]*domain.Item, 0, len(items))
	for _, it := range items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

func applyFiveMinute(item *domain.Item, agg feed.AggregateQuad) {
	if coerce.Key(agg.TotalVolume) {
		item.Volume = coerce.Int(agg.TotalVolume)
	}
	item.AvgHighPrice = coerce.NullableInt(agg.AvgHighPrice)
	item.AvgLowPrice = coerce.NullableInt(agg.AvgLowPrice)
	item.HighPriceVolume = coerce.Int(agg.HighPriceVolume)
	item.LowPriceVolume = coerce.Int(agg.LowPriceVolume)
}

// buildCatalog indexes valid catalog entries by id. The last duplicate wins.
func buildCatalog(entries feed.Catalog) (map[int64]feed.CatalogEntry, int) {
	out := make(map[int64]feed.CatalogEntry, len(entries))
	invalid := 0
	for _, e := range entries {
		id, ok := validEntry(e)
		if !ok {
			invalid++
			continue
		}
		out[id] = e
	}
	return out, invalid
}

// validEntry requires examine, id, members and name, and an integer id.
func validEntry(e feed.CatalogEntry) (int64, bool) {
	if !coerce.Present(e.Examine) || !coerce.Present(e.Members) || !coerce.Present(e.Name) {
		return 0, false
	}
	id := coerce.NullableInt(e.ID)
	if id == nil {
		return 0, false
	}
	return *id, true
}

func fromCatalog(id int64, e feed.CatalogEntry) *domain.Item {
	return &domain.Item{
		ID:       id,
		Name:     coerce.String(e.Name, DefaultName),
		Examine:  coerce.String(e.Examine, ""),
		Members:  coerce.Bool(e.Members),
		Icon:     coerce.String(e.Icon, ""),
		LowAlch:  coerce.Int(e.LowAlch),
		HighAlch: coerce.Int(e.HighAlch),
		Limit:    coerce.Int(e.Limit),
		Value:    coerce.Int(e.Value),
	}
}
