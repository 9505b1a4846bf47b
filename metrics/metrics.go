package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IngestionsTotal tracks playlist ingestions by result
	IngestionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iptv_guide_ingestions_total",
		Help: "Total number of playlist ingestions by result",
	}, []string{"result"})

	// ParseDuration tracks how long a document takes to parse per format
	ParseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "iptv_guide_parse_duration_seconds",
		Help:    "Time spent parsing a document",
		Buckets: prometheus.DefBuckets,
	}, []string{"format"})

	// ParseFailures tracks document-level parse failures by format and kind
	ParseFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iptv_guide_parse_failures_total",
		Help: "Total number of documents that could not be parsed",
	}, []string{"format", "kind"})

	// EntriesSkipped tracks malformed entries dropped by parsers
	EntriesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iptv_guide_entries_skipped_total",
		Help: "Total number of malformed entries skipped while parsing",
	}, []string{"format"})

	// RemoteCacheLookups tracks remote resource cache lookups by outcome
	// (hit, miss, fallback)
	RemoteCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iptv_guide_remote_cache_lookups_total",
		Help: "Total number of remote resource cache lookups by outcome",
	}, []string{"resource", "outcome"})

	// FetchErrors tracks failed outbound fetches by error type
	FetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iptv_guide_fetch_errors_total",
		Help: "Total number of failed outbound fetches",
	}, []string{"error_type"})

	// CircuitBreakerState tracks the current state of circuit breakers
	// 0=closed, 1=open, 2=half-open
	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "iptv_guide_circuit_breaker_state",
		Help: "Current state of circuit breaker (0=closed, 1=open, 2=half-open)",
	}, []string{"host"})

	// CircuitBreakerTrips tracks how many times a circuit breaker transitioned to OPEN
	CircuitBreakerTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iptv_guide_circuit_breaker_trips_total",
		Help: "Total number of times circuit breaker transitioned to OPEN state",
	}, []string{"host"})

	// HealthCheckFailures tracks health check failures
	HealthCheckFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "iptv_guide_health_check_failures_total",
		Help: "Total number of health check failures",
	})
)

// SetCircuitBreakerState updates the circuit breaker state metric
// state should be one of: "CLOSED" (0), "OPEN" (1), "HALF-OPEN" (2)
func SetCircuitBreakerState(host, state string) {
	var value float64
	switch state {
	case "CLOSED":
		value = 0
	case "OPEN":
		value = 1
	case "HALF-OPEN":
		value = 2
	}
	CircuitBreakerState.WithLabelValues(host).Set(value)
}

// RecordCircuitBreakerTrip increments the circuit breaker trip counter
func RecordCircuitBreakerTrip(host string) {
	CircuitBreakerTrips.WithLabelValues(host).Inc()
}

// RecordIngestion increments the ingestion counter for a result
// ("success", "parse_error", "fetch_error", "store_error")
func RecordIngestion(result string) {
	IngestionsTotal.WithLabelValues(result).Inc()
}

// RecordParse observes a successful parse and its skipped entries
func RecordParse(format string, elapsed time.Duration, skipped int) {
	ParseDuration.WithLabelValues(format).Observe(elapsed.Seconds())
	if skipped > 0 {
		EntriesSkipped.WithLabelValues(format).Add(float64(skipped))
	}
}

// RecordParseFailure increments the parse failure counter
func RecordParseFailure(format, kind string) {
	ParseFailures.WithLabelValues(format, kind).Inc()
}

// RecordRemoteCacheLookup increments the remote cache counter for an outcome
func RecordRemoteCacheLookup(resource, outcome string) {
	RemoteCacheLookups.WithLabelValues(resource, outcome).Inc()
}

// RecordFetchError increments the fetch error counter
func RecordFetchError(errorType string) {
	FetchErrors.WithLabelValues(errorType).Inc()
}

// RecordHealthCheckFailure increments the health check failure counter
func RecordHealthCheckFailure() {
	HealthCheckFailures.Inc()
}
