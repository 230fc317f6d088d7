package api

import (
	"context"
	"net/http"
)

// RefreshDependencies defines the interface for on-demand reloads.
type RefreshDependencies interface {
	Refresh(ctx context.Context) error
}

// RefreshHandler handles refresh requests.
type RefreshHandler struct {
	deps RefreshDependencies
}

// NewRefreshHandler creates a new refresh handler.
func NewRefreshHandler(deps RefreshDependencies) *RefreshHandler {
	return &RefreshHandler{deps: deps}
}

type refreshResponse struct {
	Status string `json:"status"`
}

// HandlePostRefresh handles POST /refresh. The reload runs synchronously so
// the response reflects its outcome.
func (h *RefreshHandler) HandlePostRefresh(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_refresh"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if err := h.deps.Refresh(r.Context()); err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{Status: "refreshed"})
}
