package api

import (
	"context"
	"encoding/json"
	"net/http"

	"log/slog"

	"github.com/Dashikkkk/instagram-statistics/internal/auth"
)

// CollectionTrigger starts a collection batch outside the cron schedule.
type CollectionTrigger interface {
	TriggerCollection(ctx context.Context) error
}

// AdminHandler exposes password-protected operational endpoints.
type AdminHandler struct {
	trigger      CollectionTrigger
	passwordHash string
	logger       *slog.Logger
}

// NewAdminHandler creates an admin handler. passwordHash is a bcrypt hash
// of the admin password.
func NewAdminHandler(trigger CollectionTrigger, passwordHash string, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		trigger:      trigger,
		passwordHash: passwordHash,
		logger:       logger,
	}
}

// TriggerCollectRequest carries the admin credential.
type TriggerCollectRequest struct {
	Password string `json:"password"`
}

// TriggerCollect handles POST /api/v1/admin/collect. The batch runs in the
// background; the endpoint only confirms it was started.
func (h *AdminHandler) TriggerCollect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req TriggerCollectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if !auth.CheckPassword(req.Password, h.passwordHash) {
		h.logger.Warn("failed admin authentication", "ip", r.RemoteAddr)
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	go func() {
		if err := h.trigger.TriggerCollection(context.Background()); err != nil {
			h.logger.Error("manual collection failed", "error", err)
		}
	}()

	h.logger.Info("manual collection triggered", "ip", r.RemoteAddr)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}
