package application

import (
	"context"
	"log/slog"

	"github.com/alorle/iptv-guide/internal/port/driven"
	"github.com/alorle/iptv-guide/logging"
	"github.com/alorle/iptv-guide/metrics"
)

// Pinger is implemented by dependencies that can report their availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BreakerReporter reports the circuit breaker state per upstream host.
type BreakerReporter interface {
	BreakerStates() map[string]string
}

// HealthService orchestrates health checks for the application and its dependencies.
type HealthService struct {
	db       driven.PlaylistStore
	cache    Pinger
	breakers BreakerReporter
	logger   *slog.Logger
}

// NewHealthService creates a new health check service.
// cache and breakers may be nil when the deployment has nothing to report.
func NewHealthService(db driven.PlaylistStore, cache Pinger, breakers BreakerReporter, logger *slog.Logger) *HealthService {
	return &HealthService{
		db:       db,
		cache:    cache,
		breakers: breakers,
		logger:   logger,
	}
}

// ComponentHealth represents the health status of a single component.
type ComponentHealth struct {
	Status string // "ok" or "error"
	Error  string // empty if status is "ok", otherwise contains error message
}

// HealthStatus represents the overall health status of the application.
type HealthStatus struct {
	Status   string            // "ok" if all components are healthy, "degraded" otherwise
	DB       ComponentHealth   // database health
	Cache    ComponentHealth   // shared cache health, "ok" when the cache is local
	Upstream map[string]string // circuit breaker state per upstream host
}

// Check performs health checks on all dependencies.
// Returns the overall health status and individual component statuses.
// An open upstream breaker is reported but does not degrade the service,
// since stored playlists remain readable.
func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:   "ok",
		Upstream: map[string]string{},
	}

	status.DB = s.ping(ctx, s.db)
	if status.DB.Status != "ok" {
		status.Status = "degraded"
	}

	status.Cache = ComponentHealth{Status: "ok"}
	if s.cache != nil {
		status.Cache = s.ping(ctx, s.cache)
		if status.Cache.Status != "ok" {
			status.Status = "degraded"
		}
	}

	if s.breakers != nil {
		status.Upstream = s.breakers.BreakerStates()
	}

	return status
}

func (s *HealthService) ping(ctx context.Context, p Pinger) ComponentHealth {
	if err := p.Ping(ctx); err != nil {
		metrics.RecordHealthCheckFailure()
		logging.LogHealthCheckFailed(s.logger, err)
		return ComponentHealth{
			Status: "error",
			Error:  err.Error(),
		}
	}
	return ComponentHealth{
		Status: "ok",
	}
}
