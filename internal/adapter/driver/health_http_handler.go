package driver

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/alorle/iptv-guide/internal/application"
	"github.com/alorle/iptv-guide/logging"
)

// HealthHTTPHandler handles HTTP requests for health checks.
type HealthHTTPHandler struct {
	service *application.HealthService
	logger  *slog.Logger
}

// NewHealthHTTPHandler creates a new HTTP handler for health checks.
func NewHealthHTTPHandler(service *application.HealthService, logger *slog.Logger) *HealthHTTPHandler {
	return &HealthHTTPHandler{service: service, logger: logger}
}

// healthResponse represents the JSON response for health check endpoint.
type healthResponse struct {
	Status   string            `json:"status"`
	DB       string            `json:"db"`
	Cache    string            `json:"cache"`
	Upstream map[string]string `json:"upstream"`
}

// Register mounts GET /health.
func (h *HealthHTTPHandler) Register(r *mux.Router) {
	r.Handle("/health", h).Methods(http.MethodGet)
}

// ServeHTTP handles GET /health
func (h *HealthHTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Perform health check
	status := h.service.Check(r.Context())

	// Build response
	resp := healthResponse{
		Status:   status.Status,
		DB:       status.DB.Status,
		Cache:    status.Cache.Status,
		Upstream: status.Upstream,
	}

	// Determine HTTP status code
	httpStatus := http.StatusOK
	if status.Status != "ok" {
		httpStatus = http.StatusServiceUnavailable
	}

	logging.WriteJSONSuccess(w, h.logger, httpStatus, resp)
}
