package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ge-price-lab/internal/app"
	"ge-price-lab/internal/config"
	"ge-price-lab/internal/reporting"
)

func main() {
	app.LoadDotEnv()

	shared := app.RegisterFlags(flag.CommandLine)
	outputDir := flag.String("output-dir", "reports", "Output directory for generated files")
	lookback := flag.Duration("lookback", 24*time.Hour, "History window to scan for spikes")
	tier := flag.Float64("tier", 0, "Only report this tier (0 = all tiers)")
	limit := flag.Int("limit", 100, "Maximum rows per table (0 = no limit)")
	formats := flag.String("formats", "md,csv,xlsx", "Comma-separated output formats: md, csv, xlsx")
	flag.Parse()

	ctx := context.Background()

	cfg, err := shared.Resolve(flag.CommandLine)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if cfg.Storage.Snapshots == config.BackendMemory {
		fmt.Fprintln(os.Stderr, "Error: reports need a persistent snapshot store")
		fmt.Fprintln(os.Stderr, "Use --snapshot-store postgres or clickhouse")
		os.Exit(1)
	}

	stores, cleanup, err := app.OpenStores(ctx, cfg.Storage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to stores: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	gen := reporting.NewGenerator(stores.Items, stores.Snapshots, cfg.Spike.Detector())
	report, err := gen.Generate(ctx, reporting.Options{
		Lookback: *lookback,
		Tier:     *tier,
		Limit:    *limit,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating report: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output dir: %v\n", err)
		os.Exit(1)
	}

	written, err := writeOutputs(report, *outputDir, *formats)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Report generated: %d spikes over %v\n", len(report.Spikes), *lookback)
	for _, path := range written {
		fmt.Printf("  - %s\n", path)
	}
}

func writeOutputs(r *reporting.Report, dir, formats string) ([]string, error) {
	var written []string

	for _, format := range strings.Split(formats, ",") {
		switch strings.TrimSpace(format) {
		case "md":
			path := filepath.Join(dir, "SPIKE_REPORT.md")
			if err := os.WriteFile(path, []byte(reporting.RenderMarkdown(r)), 0o644); err != nil {
				return written, err
			}
			written = append(written, path)

		case "csv":
			spikes := filepath.Join(dir, "SPIKES.csv")
			if err := os.WriteFile(spikes, []byte(reporting.RenderSpikesCSV(r.Spikes)), 0o644); err != nil {
				return written, err
			}
			items := filepath.Join(dir, "ITEM_MARGINS.csv")
			if err := os.WriteFile(items, []byte(reporting.RenderItemsCSV(r.TopMargins)), 0o644); err != nil {
				return written, err
			}
			written = append(written, spikes, items)

		case "xlsx":
			path := filepath.Join(dir, "SPIKE_REPORT.xlsx")
			f, err := os.Create(path)
			if err != nil {
				return written, err
			}
			if err := reporting.WriteXLSX(r, f); err != nil {
				f.Close()
				return written, err
			}
			if err := f.Close(); err != nil {
				return written, err
			}
			written = append(written, path)

		case "":
		default:
			return written, fmt.Errorf("unknown format %q", format)
		}
	}

	return written, nil
}
