// Package main provides the unified service: the ingestion loop plus the
// HTTP query API over items, snapshot history and spikes.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ge-price-lab/internal/api"
	"ge-price-lab/internal/app"
	"ge-price-lab/internal/config"
	"ge-price-lab/internal/ingestion"
)

func main() {
	app.LoadDotEnv()

	shared := app.RegisterFlags(flag.CommandLine)
	addr := flag.String("addr", "", "HTTP listen address (overrides http.addr)")
	ingest := flag.Bool("ingest", true, "Run the ingestion loop in this process")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	cfg, err := shared.Resolve(flag.CommandLine)
	if err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}
	if *addr != "" {
		cfg.HTTP.Addr = *addr
	}
	if !*ingest && cfg.Storage.Items == config.BackendMemory {
		logger.Println("Warning: serving an in-memory store without ingestion; it will stay empty")
	}

	ctx, cancel := context.WithCancel(context.Background())

	stores, cleanup, err := app.OpenStores(ctx, cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	var runner *ingestion.Runner
	var status api.StatusProvider
	if *ingest {
		var closeRunner func()
		runner, closeRunner = app.NewRunner(cfg, stores, log.New(os.Stdout, "[ingest] ", log.LstdFlags|log.Lshortfile))
		defer closeRunner()
		status = api.StatusFunc(func() any { return runner.Status() })
	}

	handler := api.NewHandler(api.HandlerOptions{
		Items:     stores.Items,
		Snapshots: stores.Snapshots,
		Spike:     cfg.Spike.Detector(),
		Status:    status,
		Logger:    log.New(os.Stdout, "[api] ", log.LstdFlags|log.Lshortfile),
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.SetupRoutes(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to signal completion
	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	go func() {
		logger.Printf("Starting HTTP server on %s", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("HTTP server error: %v", err)
			cancel()
		}
	}()

	if runner != nil {
		err = runner.Run(ctx)
	} else {
		<-ctx.Done()
		err = ctx.Err()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		logger.Printf("HTTP shutdown: %v", serr)
	}
	shutdownCancel()

	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Printf("Server error: %v", err)
		return
	}
	logger.Println("Shutdown complete")
}
