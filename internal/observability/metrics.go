package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every custom metric for the api and the classifier worker
type Metrics struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Task Metrics
	TasksCreatedTotal      *prometheus.CounterVec
	TasksClaimedTotal      prometheus.Counter
	TasksProcessedTotal    *prometheus.CounterVec
	TasksFailedTotal       *prometheus.CounterVec
	TaskProcessingDuration prometheus.Histogram

	// Classification Metrics
	ClassificationsTotal *prometheus.CounterVec

	// Store Metrics
	StoreBackoffsTotal prometheus.Counter

	// Cache (Redis) Metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Queue (RabbitMQ) Metrics
	QueueEventsPublished *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		TasksCreatedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tasks_created_total",
				Help: "Total number of classification tasks created",
			},
			[]string{"extension"},
		),

		TasksClaimedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "tasks_claimed_total",
				Help: "Total number of pending tasks claimed by the worker",
			},
		),

		TasksProcessedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tasks_processed_total",
				Help: "Total number of tasks processed to a terminal status",
			},
			[]string{"status"}, // done, failed
		),

		TasksFailedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tasks_failed_total",
				Help: "Total number of tasks that failed processing",
			},
			[]string{"error_kind"}, // blob_fetch, decode, extraction, empty_catalog, store_write
		),

		TaskProcessingDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "task_processing_duration_seconds",
				Help:    "Duration of end-to-end task processing in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
		),

		ClassificationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "classifications_total",
				Help: "Total number of successful classifications by genre",
			},
			[]string{"label"},
		),

		StoreBackoffsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "store_backoffs_total",
				Help: "Total number of worker backoffs due to store errors",
			},
		),

		CacheHitsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"key_type"},
		),

		CacheMissesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"key_type"},
		),

		QueueEventsPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "queue_events_published_total",
				Help: "Total number of task lifecycle events published",
			},
			[]string{"queue_name"},
		),
	}
}

// GlobalMetrics is the process-wide metrics instance
var GlobalMetrics *Metrics

func InitMetrics() {
	if GlobalMetrics == nil {
		GlobalMetrics = NewMetrics()
	}
}
