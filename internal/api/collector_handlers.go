package api

import (
	"net/http"

	"log/slog"

	"github.com/Dashikkkk/instagram-statistics/internal/auth"
	"github.com/Dashikkkk/instagram-statistics/internal/models"
)

// lastCollectsLimit caps how many recent runs the API returns per user.
const lastCollectsLimit = 14

// CollectorHandler exposes the run ledger query surface.
type CollectorHandler struct {
	runs   models.RunRepository
	logger *slog.Logger
}

// NewCollectorHandler creates a new collector query handler.
func NewCollectorHandler(runs models.RunRepository, logger *slog.Logger) *CollectorHandler {
	return &CollectorHandler{
		runs:   runs,
		logger: logger,
	}
}

// LastCollects handles GET /api/v1/collector/last (JWT protected). It
// returns the authenticated user's most recent collection runs, newest
// first, with the stored success flag and error detail verbatim.
func (h *CollectorHandler) LastCollects(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	runs, err := h.runs.RecentRuns(r.Context(), identity.UserID, lastCollectsLimit)
	if err != nil {
		h.logger.Error("failed to query recent runs", "user_id", identity.UserID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if runs == nil {
		runs = []models.CollectionRun{}
	}

	writeJSON(w, http.StatusOK, runs)
}
