package domain

// Tax parameters applied by the exchange on the selling side.
const (
	TaxDivisor int64 = 100       // 1% of the sell price
	TaxCap     int64 = 5_000_000 // per-unit ceiling
)

// Item is the current-state record for one tradable item.
// Corresponds to the items table. Recreated every ingestion cycle and upserted by ID.
type Item struct {
	ID       int64  `json:"id"`       // catalog identifier (PK)
	Name     string `json:"name"`     // defaults to "Unknown"
	Examine  string `json:"examine"`  // defaults to ""
	Members  bool   `json:"members"`  // members-only item
	Icon     string `json:"icon"`     // wiki icon file name
	LowAlch  int64  `json:"lowalch"`  // low alchemy value
	HighAlch int64  `json:"highalch"` // high alchemy value
	Limit    int64  `json:"limit"`    // buy limit per 4h
	Value    int64  `json:"value"`    // store value

	High     int64 `json:"high"`      // latest instant-buy price, 0 when no recent trade
	HighTime int64 `json:"high_time"` // epoch seconds of High
	Low      int64 `json:"low"`       // latest instant-sell price, 0 when no recent trade
	LowTime  int64 `json:"low_time"`  // epoch seconds of Low
	Volume   int64 `json:"volume"`    // 24h volume unless overridden by the 5m total

	// 5-minute aggregate enrichment. Averages are nil when the window had no trades.
	AvgHighPrice    *int64 `json:"avg_high_price"`
	AvgLowPrice     *int64 `json:"avg_low_price"`
	HighPriceVolume int64  `json:"high_price_volume"`
	LowPriceVolume  int64  `json:"low_price_volume"`

	UpdatedAt int64 `json:"updated_at"` // ingestion time (ms)
}

// Margin returns the per-unit profit of buying at Low and selling at High after tax.
func (i *Item) Margin() int64 {
	return Margin(i.High, i.Low)
}

// Margin computes (high - tax) - low where tax = min(high/100, 5_000_000).
func Margin(high, low int64) int64 {
	return (high - Tax(high)) - low
}

// Tax returns the capped sell-side tax for a unit sold at price.
func Tax(price int64) int64 {
	tax := price / TaxDivisor
	if tax > TaxCap {
		tax = TaxCap
	}
	return tax
}
