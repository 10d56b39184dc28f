package api

import (
	"net/http"

	"log/slog"

	"github.com/Dashikkkk/instagram-statistics/internal/auth"
	"github.com/Dashikkkk/instagram-statistics/internal/config"
	"github.com/Dashikkkk/instagram-statistics/internal/models"
)

// SetupRoutes configures all API routes.
func SetupRoutes(
	mux *http.ServeMux,
	instagram *auth.InstagramClient,
	users models.UserRepository,
	runs models.RunRepository,
	trigger CollectionTrigger,
	authCfg config.AuthConfig,
	logger *slog.Logger,
) error {
	authHandler := NewAuthHandler(instagram, users, authCfg, logger)
	collectorHandler := NewCollectorHandler(runs, logger)

	adminHash, err := auth.HashPassword(authCfg.AdminPassword)
	if err != nil {
		return err
	}
	adminHandler := NewAdminHandler(trigger, adminHash, logger)

	authMiddleware := auth.Middleware(authCfg)

	// Public OAuth entry points
	mux.HandleFunc("/api/v1/auth/instagram/url", authHandler.InstagramURL)
	mux.HandleFunc("/api/v1/auth/instagram", authHandler.InstagramCallback)

	// JWT protected
	mux.Handle("/api/v1/auth/check", authMiddleware(http.HandlerFunc(authHandler.Check)))
	mux.Handle("/api/v1/auth/refresh", authMiddleware(http.HandlerFunc(authHandler.Refresh)))
	mux.Handle("/api/v1/collector/last", authMiddleware(http.HandlerFunc(collectorHandler.LastCollects)))

	// Admin password protected
	mux.HandleFunc("/api/v1/admin/collect", adminHandler.TriggerCollect)

	return nil
}
