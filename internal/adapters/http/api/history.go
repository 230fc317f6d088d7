package api

import (
	"context"
	"net/http"

	"github.com/okian/podium/internal/domain/model"
)

// HistoryDependencies defines the interface for history reads.
type HistoryDependencies interface {
	History(ctx context.Context) ([]model.Placement, int, error)
}

// HistoryHandler handles history requests.
type HistoryHandler struct {
	deps HistoryDependencies
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(deps HistoryDependencies) *HistoryHandler {
	return &HistoryHandler{deps: deps}
}

type historyResponse struct {
	Seasons    int               `json:"seasons"`
	Placements []model.Placement `json:"placements"`
}

// HandleGetHistory handles GET /history requests.
func (h *HistoryHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_history"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	rows, seasons, err := h.deps.History(r.Context())
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{Seasons: seasons, Placements: rows})
}
