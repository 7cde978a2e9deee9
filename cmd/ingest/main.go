// Package main runs the price-feed ingestion loop on its own, exposing only
// /health and /metrics.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ge-price-lab/internal/app"
	"ge-price-lab/internal/observability"
)

func main() {
	app.LoadDotEnv()

	shared := app.RegisterFlags(flag.CommandLine)
	once := flag.Bool("once", false, "Run a single cycle and exit")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")
	flag.Parse()

	logger := log.New(os.Stdout, "[ingest] ", log.LstdFlags|log.Lshortfile)

	cfg, err := shared.Resolve(flag.CommandLine)
	if err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	// Start metrics server if enabled
	if *metricsAddr != "" && !*once {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()

		select {
		case <-sigCh:
			logger.Println("Second signal, forcing exit")
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		}
	}()

	stores, cleanup, err := app.OpenStores(ctx, cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()
	logger.Printf("Stores: items=%s snapshots=%s", cfg.Storage.Items, cfg.Storage.Snapshots)

	runner, closeRunner := app.NewRunner(cfg, stores, logger)
	defer closeRunner()

	if *once {
		res, err := runner.RunCycle(ctx)
		if err != nil {
			logger.Printf("Cycle failed: %v", err)
			return
		}
		logger.Printf("Cycle %s done: %d items, %d snapshots", res.ID, res.Items, res.Snapshots)
		return
	}

	if err := runner.Run(ctx); err != nil && err != context.Canceled {
		logger.Printf("Runner error: %v", err)
		return
	}
	logger.Println("Shutdown complete")
}
