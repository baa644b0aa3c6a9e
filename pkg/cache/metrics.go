package cache

import (
	"time"

	"escaperooms-directory/pkg/metrics"
)

// record the duration of a backend operation with the given label.
func RecordOperationDuration(label string, start time.Time) {
	metrics.CacheOperationDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
}

// increment the error counter for a backend operation with the given label.
func IncrementError(label string) {
	metrics.CacheErrorsTotal.WithLabelValues(label).Inc()
}

func recordOutcome(o Outcome) {
	metrics.CacheOutcomesTotal.WithLabelValues(o.String()).Inc()
	switch o {
	case Hit:
		metrics.CacheHitsTotal.Inc()
	case MissRecovered:
		metrics.CacheMissesTotal.Inc()
	}
}
