package app

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ge-price-lab/internal/config"
	"ge-price-lab/internal/storage/memory"
)

func TestOpenStores_Memory(t *testing.T) {
	stores, cleanup, err := OpenStores(context.Background(), config.StorageConfig{
		Items:     config.BackendMemory,
		Snapshots: config.BackendMemory,
	})
	require.NoError(t, err)
	defer cleanup()

	assert.IsType(t, &memory.ItemStore{}, stores.Items)
	assert.IsType(t, &memory.SnapshotStore{}, stores.Snapshots)
}

func TestOpenStores_UnknownBackend(t *testing.T) {
	_, _, err := OpenStores(context.Background(), config.StorageConfig{
		Items:     "sqlite",
		Snapshots: config.BackendMemory,
	})
	assert.Error(t, err)

	_, _, err = OpenStores(context.Background(), config.StorageConfig{
		Items:     config.BackendMemory,
		Snapshots: "parquet",
	})
	assert.Error(t, err)
}

func TestNewRunner_FromDefaults(t *testing.T) {
	cfg := config.Default()
	cfg.Spike.Enabled = true
	cfg.Kafka.Brokers = []string{"localhost:9092"}

	stores, cleanupStores, err := OpenStores(context.Background(), cfg.Storage)
	require.NoError(t, err)
	defer cleanupStores()

	runner, cleanup := NewRunner(cfg, stores, log.New(io.Discard, "", 0))
	defer cleanup()

	require.NotNil(t, runner)
	assert.Zero(t, runner.Status().Cycles)
}
