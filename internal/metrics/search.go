package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Search and bulk Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchable",
			Name:      "search_requests_total",
			Help:      "Total number of search and count requests sent to the backend",
		},
		[]string{"op", "status"},
	)

	SearchRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "searchable",
			Name:      "search_request_duration_seconds",
			Help:      "Backend search and count duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"op"},
	)

	SearchDuplicateHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "searchable",
			Name:      "search_duplicate_hits_total",
			Help:      "Hits whose id was already seen in the same response",
		},
	)

	BulkPagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchable",
			Name:      "bulk_pages_total",
			Help:      "Bulk pages fetched and flushed",
		},
		[]string{"op", "type"},
	)

	BulkDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchable",
			Name:      "bulk_documents_total",
			Help:      "Documents enqueued for bulk transmission",
		},
		[]string{"op", "type"},
	)

	BulkSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchable",
			Name:      "bulk_skipped_total",
			Help:      "Types or instances skipped by the bulk batcher",
		},
		[]string{"op", "reason"},
	)
)

var registerOnce sync.Once

// Register registers every searchable metric with the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequestDuration)
		prometheus.MustRegister(httpRequestsTotal)
		prometheus.MustRegister(SearchRequestsTotal)
		prometheus.MustRegister(SearchRequestDuration)
		prometheus.MustRegister(SearchDuplicateHitsTotal)
		prometheus.MustRegister(BulkPagesTotal)
		prometheus.MustRegister(BulkDocumentsTotal)
		prometheus.MustRegister(BulkSkippedTotal)
	})
}

// ObserveSearch records one backend call.
func ObserveSearch(op string, err error, d time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	SearchRequestsTotal.WithLabelValues(op, status).Inc()
	SearchRequestDuration.WithLabelValues(op).Observe(d.Seconds())
}
