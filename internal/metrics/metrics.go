package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics (debug endpoint)
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kbsync_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kbsync_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Source API metrics
	SourcePagesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kbsync_source_pages_fetched_total",
			Help: "Total number of help-center listing pages fetched",
		},
		[]string{"status"},
	)

	ArticlesFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kbsync_articles_fetched_total",
			Help: "Total number of articles returned by the source API",
		},
	)

	ArticlesRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kbsync_articles_rejected_total",
			Help: "Total number of source records dropped by validation",
		},
	)

	// Document store metrics
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kbsync_store_operations_total",
			Help: "Total number of document-store API operations",
		},
		[]string{"operation", "status"},
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kbsync_store_operation_duration_seconds",
			Help:    "Duration of document-store API operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Sync run metrics
	DocumentsSynced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kbsync_documents_synced_total",
			Help: "Total number of documents processed per classification",
		},
		[]string{"classification"},
	)

	SyncFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kbsync_sync_failures_total",
			Help: "Total number of per-document sync failures",
		},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kbsync_run_duration_seconds",
			Help:    "Duration of a full sync run in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	IndexSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kbsync_index_entries",
			Help: "Number of entries in the persisted sync index",
		},
	)
)
