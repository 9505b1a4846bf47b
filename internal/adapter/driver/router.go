package driver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alorle/iptv-guide/internal/application"
	"github.com/alorle/iptv-guide/internal/parser"
	"github.com/alorle/iptv-guide/internal/playlist"
	"github.com/alorle/iptv-guide/logging"
)

// Handler is implemented by every HTTP handler mounted under /api
type Handler interface {
	Register(r *mux.Router)
}

// NewRouter mounts the handlers under /api and exposes Prometheus metrics
// at /metrics. Responses are gzip-compressed for clients that accept it.
func NewRouter(logger *slog.Logger, handlers ...Handler) *mux.Router {
	router := mux.NewRouter()
	router.Use(compress, requestLogger(logger))

	api := router.PathPrefix("/api").Subrouter()
	for _, h := range handlers {
		h.Register(api)
	}

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.WriteJSONError(w, logger, "not found", http.StatusNotFound, "path", r.URL.Path)
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.WriteJSONError(w, logger, "method not allowed", http.StatusMethodNotAllowed, "path", r.URL.Path)
	})

	return router
}

func compress(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func requestLogger(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Debug("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(started),
			)
		})
	}
}

// writeServiceError maps application and domain errors to HTTP statuses
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, application.ErrInvalidRequest),
		errors.Is(err, playlist.ErrUnknownFormat):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, playlist.ErrPlaylistNotFound),
		errors.Is(err, playlist.ErrChannelNotFound),
		errors.Is(err, playlist.ErrNoSelection),
		errors.Is(err, application.ErrUnknownPromotion):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, parser.ErrUnrecognizedFormat),
		errors.Is(err, parser.ErrMalformedDocument),
		errors.Is(err, parser.ErrNoParser):
		status, message = http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, application.ErrFetchFailure):
		status, message = http.StatusBadGateway, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		status, message = http.StatusGatewayTimeout, "request timed out"
	}

	logging.WriteJSONError(w, logger, message, status, "error", err)
}
