package reporting

import (
	"encoding/csv"
	"strconv"
	"strings"
)

// SpikesCSVHeader is the column order of RenderSpikesCSV.
var SpikesCSVHeader = []string{
	"item_id", "name", "tier", "percent_increase", "baseline_volume",
	"current_volume", "timestamp_ms", "price", "price_drop",
}

// ItemsCSVHeader is the column order of RenderItemsCSV.
var ItemsCSVHeader = []string{"item_id", "name", "high", "low", "margin", "volume", "limit"}

// RenderSpikesCSV renders spike rows as CSV string. An absent price drop is
// an empty cell.
func RenderSpikesCSV(rows []SpikeRow) string {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		drop := ""
		if r.PriceDrop != nil {
			drop = formatFloat(*r.PriceDrop, 2)
		}
		records = append(records, []string{
			strconv.FormatInt(r.ItemID, 10),
			r.Name,
			formatFloat(r.Tier, -1),
			formatFloat(r.PercentIncrease, 6),
			formatFloat(r.BaselineVolume, 6),
			strconv.FormatInt(r.CurrentVolume, 10),
			strconv.FormatInt(r.Timestamp, 10),
			formatFloat(r.Price, 2),
			drop,
		})
	}
	return renderCSV(SpikesCSVHeader, records)
}

// RenderItemsCSV renders margin rows as CSV string.
func RenderItemsCSV(rows []MarginRow) string {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			strconv.FormatInt(r.ItemID, 10),
			r.Name,
			strconv.FormatInt(r.High, 10),
			strconv.FormatInt(r.Low, 10),
			strconv.FormatInt(r.Margin, 10),
			strconv.FormatInt(r.Volume, 10),
			strconv.FormatInt(r.Limit, 10),
		})
	}
	return renderCSV(ItemsCSVHeader, records)
}

// renderCSV quotes names that contain commas or quotes.
func renderCSV(header []string, records [][]string) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	w.Write(header)
	w.WriteAll(records) // flushes; strings.Builder never fails
	return sb.String()
}

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}
