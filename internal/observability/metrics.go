// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	CyclesTotal     *prometheus.CounterVec
	CycleDuration   prometheus.Histogram
	ItemsUpserted   prometheus.Gauge
	ItemsSkipped    prometheus.Gauge
	SnapshotsStored prometheus.Counter

	// Feed metrics
	FetchLatency *prometheus.HistogramVec
	FetchErrors  *prometheus.CounterVec

	// Spike metrics
	SpikesDetected  *prometheus.CounterVec
	SpikesPublished prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulIngestion prometheus.Gauge
	LastSnapshotBatch       prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "ge_price_lab"
	}

	return &Metrics{
		CyclesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "cycles_total",
			Help:      "Total number of ingestion cycles by status",
		}, []string{"status"}),
		CycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "cycle_duration_seconds",
			Help:      "Ingestion cycle duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
		ItemsUpserted: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "items_upserted",
			Help:      "Number of items upserted by the last successful cycle",
		}),
		ItemsSkipped: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "items_skipped",
			Help:      "Latest-price entries without a catalog entry in the last cycle",
		}),
		SnapshotsStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "snapshots_stored_total",
			Help:      "Total number of item snapshots stored",
		}),

		FetchLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "fetch_latency_seconds",
			Help:      "Upstream feed request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		FetchErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "fetch_errors_total",
			Help:      "Total number of failed feed requests",
		}, []string{"endpoint"}),

		SpikesDetected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "spike",
			Name:      "detected_total",
			Help:      "Total number of new spike events by tier",
		}, []string{"tier"}),
		SpikesPublished: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "spike",
			Name:      "published_total",
			Help:      "Total number of spike events published",
		}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"store", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"store", "operation"}),

		LastSuccessfulIngestion: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_ingestion_timestamp",
			Help:      "Unix timestamp of last successful ingestion cycle",
		}),
		LastSnapshotBatch: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_snapshot_batch_timestamp",
			Help:      "Unix timestamp of last stored snapshot batch",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordCycle records the outcome of one ingestion cycle.
func RecordCycle(status string, durationSeconds float64) {
	DefaultMetrics.CyclesTotal.WithLabelValues(status).Inc()
	DefaultMetrics.CycleDuration.Observe(durationSeconds)
}

// RecordReconcile updates the per-cycle item gauges.
func RecordReconcile(upserted, skipped int) {
	DefaultMetrics.ItemsUpserted.Set(float64(upserted))
	DefaultMetrics.ItemsSkipped.Set(float64(skipped))
}

// RecordSnapshots records a stored snapshot batch.
func RecordSnapshots(count int, batchUnix int64) {
	DefaultMetrics.SnapshotsStored.Add(float64(count))
	DefaultMetrics.LastSnapshotBatch.Set(float64(batchUnix))
}

// RecordFetch records an upstream request.
func RecordFetch(endpoint string, seconds float64, ok bool) {
	DefaultMetrics.FetchLatency.WithLabelValues(endpoint).Observe(seconds)
	if !ok {
		DefaultMetrics.FetchErrors.WithLabelValues(endpoint).Inc()
	}
}

// RecordSpike increments the spike counter for a tier.
func RecordSpike(tier float64) {
	DefaultMetrics.SpikesDetected.WithLabelValues(strconv.FormatFloat(tier, 'f', -1, 64)).Inc()
}

// RecordSpikesPublished increments the published counter.
func RecordSpikesPublished(n int) {
	DefaultMetrics.SpikesPublished.Add(float64(n))
}

// RecordSuccessfulIngestion stamps the health gauge.
func RecordSuccessfulIngestion(unix int64) {
	DefaultMetrics.LastSuccessfulIngestion.Set(float64(unix))
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(store, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(store, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(store, operation).Inc()
	}
}
