package logging

import (
	"io"
	"log/slog"
	"strings"
	"time"
)

// ParseLevel converts a string to a slog.Level. Unknown values map to INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a JSON logger writing to w at the given level.
func New(level slog.Level, w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops every record. Useful for tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// Event identifies a domain event worth a dedicated log shape
type Event string

// Event constants identify ingestion, cache and resilience events
const (
	EventEntriesSkipped       Event = "entries_skipped"        // EventEntriesSkipped indicates malformed entries were dropped by a parser
	EventCircuitBreakerChange Event = "circuit_breaker_change" // EventCircuitBreakerChange indicates circuit breaker state transition
	EventCacheFallback        Event = "cache_fallback"         // EventCacheFallback indicates stale or empty data was served after a failed refresh
	EventHealthCheckFailed    Event = "health_check_failed"    // EventHealthCheckFailed indicates health check failure
)

// LogEntriesSkipped logs the number of entries a parser dropped (WARN level)
func LogEntriesSkipped(logger *slog.Logger, format string, skipped int) {
	logger.Warn("Skipped malformed entries",
		"event", EventEntriesSkipped,
		"format", format,
		"skipped", skipped,
	)
}

// LogCircuitBreakerChange logs a circuit breaker state change (WARN level)
func LogCircuitBreakerChange(logger *slog.Logger, oldState, newState, host string) {
	args := []any{
		"event", EventCircuitBreakerChange,
		"oldState", oldState,
		"newState", newState,
		"timestamp", time.Now().Format(time.RFC3339),
	}
	if host != "" {
		args = append(args, "host", host)
	}
	logger.Warn("Circuit breaker state changed", args...)
}

// LogCacheFallback logs a degraded cache read after a refresh failure (WARN level)
func LogCacheFallback(logger *slog.Logger, resource string, stale bool, err error) {
	logger.Warn("Serving cached fallback",
		"event", EventCacheFallback,
		"resource", resource,
		"stale", stale,
		"error", err,
	)
}

// LogHealthCheckFailed logs a failed health check (WARN level)
func LogHealthCheckFailed(logger *slog.Logger, err error) {
	logger.Warn("Health check failed",
		"event", EventHealthCheckFailed,
		"error", err,
		"timestamp", time.Now().Format(time.RFC3339),
	)
}
