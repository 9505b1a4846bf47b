package driver

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/alorle/iptv-guide/internal/application"
	"github.com/alorle/iptv-guide/logging"
)

// PromotionHTTPHandler serves cached promotional lists.
type PromotionHTTPHandler struct {
	service *application.PromotionService
	logger  *slog.Logger
}

// NewPromotionHTTPHandler creates a new HTTP handler for promotions.
func NewPromotionHTTPHandler(service *application.PromotionService, logger *slog.Logger) *PromotionHTTPHandler {
	return &PromotionHTTPHandler{service: service, logger: logger}
}

type promotionsResponse struct {
	Kind  string                  `json:"kind"`
	Cache string                  `json:"cache"`
	Data  []application.Promotion `json:"data"`
}

// Register mounts the promotion routes.
func (h *PromotionHTTPHandler) Register(r *mux.Router) {
	r.HandleFunc("/promotions/{kind}", h.handleList).Methods(http.MethodGet)
}

// handleList handles GET /promotions/{kind}. An unavailable list is served
// as an empty one.
func (h *PromotionHTTPHandler) handleList(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]

	promotions, outcome, err := h.service.List(r.Context(), kind)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	logging.WriteJSONSuccess(w, h.logger, http.StatusOK, promotionsResponse{
		Kind:  kind,
		Cache: outcome,
		Data:  promotions,
	})
}
