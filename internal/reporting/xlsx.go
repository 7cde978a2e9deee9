package reporting

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the workbook written by WriteXLSX.
const (
	SheetSummary = "Summary"
	SheetSpikes  = "Spikes"
	SheetMargins = "Margins"
)

// WriteXLSX writes the report as a workbook with summary, spike and margin sheets.
func WriteXLSX(r *Report, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetSpikes, SheetMargins} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	summary := [][]any{
		{"Metric", "Value"},
		{"Generated", r.GeneratedAt.Format("2006-01-02 15:04:05")},
		{"Window Start", formatMs(r.Since)},
		{"Window End", formatMs(r.Until)},
		{"Items", r.ItemCount},
		{"Items With Snapshots", r.SnapshotItems},
		{"Snapshot Points", r.SnapshotPoints},
		{"Thresholds (%)", joinFloats(r.Thresholds)},
	}
	for _, tc := range r.TierCounts {
		summary = append(summary, []any{fmt.Sprintf("Tier %s%%", formatFloat(tc.Tier, -1)), tc.Count})
	}
	if err := writeRows(f, SheetSummary, summary); err != nil {
		return err
	}

	spikes := [][]any{toAny(SpikesCSVHeader)}
	for _, s := range r.Spikes {
		var drop any
		if s.PriceDrop != nil {
			drop = *s.PriceDrop
		}
		spikes = append(spikes, []any{
			s.ItemID, s.Name, s.Tier, s.PercentIncrease, s.BaselineVolume,
			s.CurrentVolume, formatMs(s.Timestamp), s.Price, drop,
		})
	}
	if err := writeRows(f, SheetSpikes, spikes); err != nil {
		return err
	}

	margins := [][]any{toAny(ItemsCSVHeader)}
	for _, m := range r.TopMargins {
		margins = append(margins, []any{m.ItemID, m.Name, m.High, m.Low, m.Margin, m.Volume, m.Limit})
	}
	if err := writeRows(f, SheetMargins, margins); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
