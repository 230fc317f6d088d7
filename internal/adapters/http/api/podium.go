package api

import (
	"context"
	"net/http"

	"github.com/okian/podium/internal/domain/model"
)

// PodiumDependencies defines the interface for podium reads.
type PodiumDependencies interface {
	Podium(ctx context.Context) ([]model.LeaderboardEntry, error)
}

// PodiumHandler handles podium requests.
type PodiumHandler struct {
	deps PodiumDependencies
}

// NewPodiumHandler creates a new podium handler.
func NewPodiumHandler(deps PodiumDependencies) *PodiumHandler {
	return &PodiumHandler{deps: deps}
}

// HandleGetPodium handles GET /podium requests.
func (h *PodiumHandler) HandleGetPodium(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_podium"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	entries, err := h.deps.Podium(r.Context())
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
