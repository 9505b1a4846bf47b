package driver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/alorle/iptv-guide/internal/application"
	"github.com/alorle/iptv-guide/logging"
)

// SelectionHTTPHandler exposes the current playlist selection slot.
type SelectionHTTPHandler struct {
	guide  *application.GuideService
	logger *slog.Logger
}

// NewSelectionHTTPHandler creates a new HTTP handler for the selection slot.
func NewSelectionHTTPHandler(guide *application.GuideService, logger *slog.Logger) *SelectionHTTPHandler {
	return &SelectionHTTPHandler{guide: guide, logger: logger}
}

type selectionBody struct {
	PlaylistID string `json:"playlist_id"`
}

// Register mounts the selection routes.
func (h *SelectionHTTPHandler) Register(r *mux.Router) {
	r.HandleFunc("/selection", h.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/selection", h.handlePut).Methods(http.MethodPut)
	r.HandleFunc("/selection", h.handleDelete).Methods(http.MethodDelete)
}

func (h *SelectionHTTPHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := h.guide.CurrentPlaylist(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	logging.WriteJSONSuccess(w, h.logger, http.StatusOK, selectionBody{PlaylistID: id})
}

func (h *SelectionHTTPHandler) handlePut(w http.ResponseWriter, r *http.Request) {
	var body selectionBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.PlaylistID == "" {
		logging.WriteJSONError(w, h.logger, "playlist_id is required", http.StatusBadRequest)
		return
	}

	if err := h.guide.Select(r.Context(), body.PlaylistID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	logging.WriteJSONSuccess(w, h.logger, http.StatusOK, body)
}

func (h *SelectionHTTPHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.guide.ClearSelection(r.Context()); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
