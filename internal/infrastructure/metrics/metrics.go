package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for both sync paths.
type Metrics struct {
	SyncAttempts    *prometheus.CounterVec
	SyncDuration    *prometheus.HistogramVec
	IngestBatchSize *prometheus.HistogramVec
}

// New registers the instruments on reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SyncAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "marketplace_sync_attempts_total",
			Help: "Sync attempts by provider, path (pull or push) and outcome.",
		}, []string{"provider", "path", "outcome"}),
		SyncDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "marketplace_sync_duration_seconds",
			Help:    "Wall time of one sync attempt.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"provider", "path"}),
		IngestBatchSize: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "marketplace_ingest_batch_size",
			Help:    "Rows per accepted ingest batch.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"provider", "kind"}),
	}
}
