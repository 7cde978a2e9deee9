package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Volume Spike Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Window: %s to %s\n\n", formatMs(r.Since), formatMs(r.Until)))

	// Data Summary
	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Items | %d |\n", r.ItemCount))
	sb.WriteString(fmt.Sprintf("| Items With Snapshots | %d |\n", r.SnapshotItems))
	sb.WriteString(fmt.Sprintf("| Snapshot Points | %d |\n", r.SnapshotPoints))
	sb.WriteString(fmt.Sprintf("| Thresholds (%%) | %s |\n", joinFloats(r.Thresholds)))
	if r.Tier > 0 {
		sb.WriteString(fmt.Sprintf("| Tier Filter (%%) | %s |\n", formatFloat(r.Tier, -1)))
	}
	sb.WriteString("\n")

	// Tiers
	sb.WriteString("## Spikes by Tier\n\n")
	if len(r.TierCounts) == 0 {
		sb.WriteString("No spikes detected.\n\n")
	} else {
		sb.WriteString("| Tier (%) | Events |\n")
		sb.WriteString("|----------|--------|\n")
		for _, tc := range r.TierCounts {
			sb.WriteString(fmt.Sprintf("| %s | %d |\n", formatFloat(tc.Tier, -1), tc.Count))
		}
		sb.WriteString("\n")
	}

	// Spikes
	if len(r.Spikes) > 0 {
		sb.WriteString("## Spikes\n\n")
		sb.WriteString("| Item | Name | Tier | Increase (%) | Baseline | Volume | Time | Price | Price Drop |\n")
		sb.WriteString("|------|------|------|--------------|----------|--------|------|-------|------------|\n")
		for _, s := range r.Spikes {
			drop := "n/a"
			if s.PriceDrop != nil {
				drop = formatFloat(*s.PriceDrop, 0)
			}
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %.1f | %.0f | %d | %s | %.0f | %s |\n",
				s.ItemID, escapeCell(s.Name), formatFloat(s.Tier, -1), s.PercentIncrease,
				s.BaselineVolume, s.CurrentVolume, formatMs(s.Timestamp), s.Price, drop))
		}
		sb.WriteString("\n")
	}

	// Margins
	if len(r.TopMargins) > 0 {
		sb.WriteString("## Top Margins\n\n")
		sb.WriteString("| Item | Name | High | Low | Margin | Volume |\n")
		sb.WriteString("|------|------|------|-----|--------|--------|\n")
		for _, m := range r.TopMargins {
			sb.WriteString(fmt.Sprintf("| %d | %s | %d | %d | %d | %d |\n",
				m.ItemID, escapeCell(m.Name), m.High, m.Low, m.Margin, m.Volume))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func formatMs(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

func joinFloats(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = formatFloat(v, -1)
	}
	return strings.Join(parts, ", ")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
