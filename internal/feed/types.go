package feed

import "encoding/json"

// Fields are kept raw so that coercion happens in one place (internal/coerce)
// instead of failing the whole decode on one malformed value.

// CatalogEntry is one record of the mapping endpoint.
type CatalogEntry struct {
	Examine  json.RawMessage `json:"examine"`
	ID       json.RawMessage `json:"id"`
	Members  json.RawMessage `json:"members"`
	LowAlch  json.RawMessage `json:"lowalch"`
	HighAlch json.RawMessage `json:"highalch"`
	Limit    json.RawMessage `json:"limit"`
	Value    json.RawMessage `json:"value"`
	Icon     json.RawMessage `json:"icon"`
	Name     json.RawMessage `json:"name"`
}

// Catalog is the mapping endpoint payload.
type Catalog []CatalogEntry

// PriceQuad is one entry of the latest endpoint.
type PriceQuad struct {
	High     json.RawMessage `json:"high"`
	HighTime json.RawMessage `json:"highTime"`
	Low      json.RawMessage `json:"low"`
	LowTime  json.RawMessage `json:"lowTime"`
}

// LatestPrices is the latest endpoint payload. Keys are decimal item ids.
type LatestPrices struct {
	Data map[string]PriceQuad `json:"data"`
}

// Volume24h is the volumes endpoint payload. Keys are decimal item ids.
type Volume24h struct {
	Timestamp json.RawMessage            `json:"timestamp"`
	Data      map[string]json.RawMessage `json:"data"`
}

// AggregateQuad is one entry of the 5m endpoint.
type AggregateQuad struct {
	AvgHighPrice    json.RawMessage `json:"avgHighPrice"`
	HighPriceVolume json.RawMessage `json:"highPriceVolume"`
	AvgLowPrice     json.RawMessage `json:"avgLowPrice"`
	LowPriceVolume  json.RawMessage `json:"lowPriceVolume"`
	TotalVolume     json.RawMessage `json:"totalVolume"` // not always sent
}

// Volume5m is the 5m endpoint payload. Keys are decimal item ids.
type Volume5m struct {
	Timestamp json.RawMessage          `json:"timestamp"`
	Data      map[string]AggregateQuad `json:"data"`
}

// Payloads bundles the four feeds fetched in one ingestion cycle.
// Volume24h and Volume5m may be nil.
type Payloads struct {
	Catalog   Catalog
	Latest    *LatestPrices
	Volume24h *Volume24h
	Volume5m  *Volume5m
}
