// Package metrics provides Prometheus metrics for the cardwatch catalog.
// Scrape these at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardwatch_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cardwatch_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Import metrics
	CardsImportedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cardwatch_cards_imported_total",
			Help: "Total number of card entries processed by imports",
		},
	)

	ImportEntriesSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cardwatch_import_entries_skipped_total",
			Help: "Total number of malformed import entries skipped",
		},
	)

	SnapshotUpsertsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cardwatch_snapshot_upserts_total",
			Help: "Total number of price snapshot upserts",
		},
	)

	ImportBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cardwatch_import_batch_duration_seconds",
			Help:    "Time taken to process an import batch",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	// Query metrics
	SearchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardwatch_search_requests_total",
			Help: "Total number of catalog search/lookup requests",
		},
		[]string{"operation", "outcome"},
	)

	// Vendor API metrics
	VendorRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardwatch_vendor_requests_total",
			Help: "Total number of vendor API requests made",
		},
		[]string{"source"},
	)

	VendorErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardwatch_vendor_errors_total",
			Help: "Total number of failed vendor API requests",
		},
		[]string{"source"},
	)

	// Refresh worker metrics
	RefreshedCardsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cardwatch_refreshed_cards_total",
			Help: "Total number of cards refreshed from vendor APIs",
		},
	)

	RefreshCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cardwatch_refresh_cycle_duration_seconds",
			Help:    "Time taken by one refresh worker cycle",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)
)
