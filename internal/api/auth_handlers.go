package api

import (
	"encoding/json"
	"net/http"
	"time"

	"log/slog"

	"github.com/Dashikkkk/instagram-statistics/internal/auth"
	"github.com/Dashikkkk/instagram-statistics/internal/config"
	"github.com/Dashikkkk/instagram-statistics/internal/models"
)

// AuthHandler handles Instagram OAuth login and JWT lifecycle requests.
type AuthHandler struct {
	instagram *auth.InstagramClient
	users     models.UserRepository
	cfg       config.AuthConfig
	logger    *slog.Logger
}

// NewAuthHandler creates a new authentication handler.
func NewAuthHandler(instagram *auth.InstagramClient, users models.UserRepository, cfg config.AuthConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		instagram: instagram,
		users:     users,
		cfg:       cfg,
		logger:    logger,
	}
}

// AuthURLResponse carries the provider authorize URL.
type AuthURLResponse struct {
	URL string `json:"url"`
}

// LoginResponse is returned after a successful OAuth callback or refresh.
type LoginResponse struct {
	User      *models.User `json:"user"`
	JWT       string       `json:"jwt"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// InstagramURL handles GET /api/v1/auth/instagram/url.
func (h *AuthHandler) InstagramURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, AuthURLResponse{URL: h.instagram.AuthorizeURL()})
}

// InstagramCallback handles GET /api/v1/auth/instagram?code=...
// It exchanges the code, upserts the user row and returns a signed JWT.
func (h *AuthHandler) InstagramCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Missing code parameter", http.StatusBadRequest)
		return
	}

	token, err := h.instagram.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Warn("oauth code exchange failed", "error", err)
		http.Error(w, "Authorization failed", http.StatusUnauthorized)
		return
	}

	instagramID, err := token.InstagramUserID()
	if err != nil {
		h.logger.Error("oauth response carried bad user id", "error", err)
		http.Error(w, "Authorization failed", http.StatusUnauthorized)
		return
	}

	user, err := h.users.UpsertLogin(r.Context(), models.LoginData{
		InstagramID: instagramID,
		Name:        token.User.Username,
		FullName:    token.User.FullName,
		AccessToken: token.AccessToken,
		IP:          clientIP(r),
	})
	if err != nil {
		h.logger.Error("failed to store login", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeLogin(w, user)
}

// Check handles GET /api/v1/auth/check (JWT protected).
func (h *AuthHandler) Check(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": identity})
}

// Refresh handles GET /api/v1/auth/refresh (JWT protected). It bumps the
// user's last login and issues a fresh token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	existing, err := h.users.GetByInstagramID(r.Context(), identity.InstagramID)
	if err != nil {
		h.logger.Error("failed to load user for refresh", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if existing == nil {
		http.Error(w, "Unknown user", http.StatusUnauthorized)
		return
	}

	user, err := h.users.UpsertLogin(r.Context(), models.LoginData{
		InstagramID: existing.InstagramID,
		Name:        existing.Name,
		FullName:    existing.FullName,
		AccessToken: existing.AccessToken,
		IP:          clientIP(r),
	})
	if err != nil {
		h.logger.Error("failed to refresh login", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeLogin(w, user)
}

func (h *AuthHandler) writeLogin(w http.ResponseWriter, user *models.User) {
	token, err := auth.GenerateToken(auth.Identity{
		UserID:      user.ID,
		InstagramID: user.InstagramID,
		UserName:    user.Name,
	}, h.cfg.JWTSecret, h.cfg.TokenDuration)
	if err != nil {
		h.logger.Error("failed to generate token", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		User:      user,
		JWT:       token,
		ExpiresAt: time.Now().Add(h.cfg.TokenDuration),
	})
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	return r.RemoteAddr
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
