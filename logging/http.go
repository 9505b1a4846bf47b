package logging

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// HTTPErrorResponse represents a standard JSON error response
type HTTPErrorResponse struct {
	Error string `json:"error"`
}

// WriteJSONError writes a JSON error response and logs it
func WriteJSONError(w http.ResponseWriter, logger *slog.Logger, message string, statusCode int, context ...any) {
	args := append([]any{"status_code", statusCode, "message", message}, context...)
	if statusCode >= http.StatusInternalServerError {
		logger.Error("HTTP error response", args...)
	} else {
		logger.Debug("HTTP error response", args...)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(HTTPErrorResponse{Error: message}); err != nil {
		logger.Warn("Failed to encode error response", "error", err)
	}
}

// WriteJSONSuccess writes a JSON success response with the given status
func WriteJSONSuccess(w http.ResponseWriter, logger *slog.Logger, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil && logger != nil {
		logger.Warn("Failed to encode success response", "error", err)
	}
}
