package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)
	CacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
	)
	CacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
	)
	CacheOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_get_or_compute_total",
			Help: "getOrCompute calls by outcome",
		},
		[]string{"outcome"},
	)
	CacheCoalescedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_coalesced_computes_total",
			Help: "Compute calls that shared an in-flight computation",
		},
	)
	CacheOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cache_operation_duration_seconds",
			Help:    "Cache backend operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	CacheErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_errors_total",
			Help: "Total number of cache backend errors",
		},
		[]string{"operation"},
	)
	SourceRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "content_source_request_duration_seconds",
			Help:    "Content source request duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation"},
	)
	SourceErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_source_errors_total",
			Help: "Content source failures by kind",
		},
		[]string{"kind"},
	)
	SourceRecordsFetched = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "content_source_records_fetched_total",
			Help: "Records received from the content source",
		},
	)
)

var registerOnce sync.Once

// Init registers every collector with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			CacheHitsTotal,
			CacheMissesTotal,
			CacheOutcomesTotal,
			CacheCoalescedTotal,
			CacheOperationDuration,
			CacheErrorsTotal,
			SourceRequestDuration,
			SourceErrorsTotal,
			SourceRecordsFetched,
		)
	})
}
