package driver

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/alorle/iptv-guide/internal/application"
	"github.com/alorle/iptv-guide/internal/playlist"
	"github.com/alorle/iptv-guide/logging"
)

// maxIngestBody bounds POST /playlists bodies carrying inline content
const maxIngestBody = 32 << 20

// PlaylistHTTPHandler handles HTTP requests for playlist ingestion, listing,
// channel guides and export.
type PlaylistHTTPHandler struct {
	ingest    *application.IngestService
	playlists *application.PlaylistService
	guide     *application.GuideService
	logger    *slog.Logger
}

// NewPlaylistHTTPHandler creates a new HTTP handler for playlists.
func NewPlaylistHTTPHandler(
	ingest *application.IngestService,
	playlists *application.PlaylistService,
	guide *application.GuideService,
	logger *slog.Logger,
) *PlaylistHTTPHandler {
	return &PlaylistHTTPHandler{
		ingest:    ingest,
		playlists: playlists,
		guide:     guide,
		logger:    logger,
	}
}

// ingestRequest represents the JSON body for ingesting a playlist.
type ingestRequest struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	URL     string `json:"url"`
	Content string `json:"content"`
	Format  string `json:"format"`
	EPGURL  string `json:"epg_url"`
}

// Register mounts the playlist routes.
func (h *PlaylistHTTPHandler) Register(r *mux.Router) {
	r.HandleFunc("/playlists", h.handleIngest).Methods(http.MethodPost)
	r.HandleFunc("/playlists", h.handleList).Methods(http.MethodGet)
	r.HandleFunc("/playlists/{id}", h.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/playlists/{id}", h.handleDelete).Methods(http.MethodDelete)
	r.HandleFunc("/playlists/{id}/channels", h.handleChannels).Methods(http.MethodGet)
	r.HandleFunc("/playlists/{id}/channels/{channelId}/now", h.handleNow).Methods(http.MethodGet)
	r.HandleFunc("/playlists/{id}/playlist.m3u", h.handleExport).Methods(http.MethodGet)
}

// handleIngest handles POST /playlists
func (h *PlaylistHTTPHandler) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxIngestBody)).Decode(&req); err != nil {
		logging.WriteJSONError(w, h.logger, "invalid request body", http.StatusBadRequest, "error", err)
		return
	}

	format := playlist.FormatUnknown
	if req.Format != "" {
		f, err := playlist.ParseFormat(req.Format)
		if err != nil {
			writeServiceError(w, h.logger, err)
			return
		}
		format = f
	}

	result, err := h.ingest.Ingest(r.Context(), application.IngestRequest{
		ID:      req.ID,
		Name:    req.Name,
		URL:     req.URL,
		Content: req.Content,
		Format:  format,
		EPGURL:  req.EPGURL,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	logging.WriteJSONSuccess(w, h.logger, http.StatusCreated, toIngestResponse(result))
}

// handleList handles GET /playlists
func (h *PlaylistHTTPHandler) handleList(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.playlists.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	resp := make([]summaryResponse, 0, len(summaries))
	for _, s := range summaries {
		resp = append(resp, toSummaryResponse(s))
	}
	logging.WriteJSONSuccess(w, h.logger, http.StatusOK, resp)
}

// handleGet handles GET /playlists/{id}
func (h *PlaylistHTTPHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	p, err := h.playlists.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	logging.WriteJSONSuccess(w, h.logger, http.StatusOK, toPlaylistResponse(id, p))
}

// handleDelete handles DELETE /playlists/{id}
func (h *PlaylistHTTPHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.playlists.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleChannels handles GET /playlists/{id}/channels
func (h *PlaylistHTTPHandler) handleChannels(w http.ResponseWriter, r *http.Request) {
	views, err := h.guide.Channels(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	resp := make([]channelWithCountResponse, 0, len(views))
	for _, v := range views {
		resp = append(resp, channelWithCountResponse{
			channelResponse: toChannelResponse(v.Channel),
			ProgramCount:    v.ProgramCount,
		})
	}
	logging.WriteJSONSuccess(w, h.logger, http.StatusOK, resp)
}

// handleNow handles GET /playlists/{id}/channels/{channelId}/now?at=RFC3339
func (h *PlaylistHTTPHandler) handleNow(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var at time.Time
	if raw := r.URL.Query().Get("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			logging.WriteJSONError(w, h.logger, fmt.Sprintf("invalid at parameter %q, expected RFC3339", raw), http.StatusBadRequest)
			return
		}
		at = parsed
	}

	p, ok, err := h.guide.NowPlaying(r.Context(), vars["id"], vars["channelId"], at)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if !ok {
		logging.WriteJSONSuccess(w, h.logger, http.StatusOK, nil)
		return
	}
	logging.WriteJSONSuccess(w, h.logger, http.StatusOK, toProgramResponse(p))
}

// handleExport handles GET /playlists/{id}/playlist.m3u
func (h *PlaylistHTTPHandler) handleExport(w http.ResponseWriter, r *http.Request) {
	out, err := h.playlists.GenerateM3U(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	// Write M3U response with proper content type
	w.Header().Set("Content-Type", "audio/mpegurl")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}
