package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/opsdeck/authcore/internal/handlers"
	"github.com/opsdeck/authcore/internal/middleware"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, authHandler *handlers.AuthHandler) {
	// Login is the only endpoint worth brute-forcing; it gets its own limit
	loginLimit := middleware.DefaultLoginRateLimit()
	router.With(middleware.RateLimitByIP(loginLimit)).Post("/auth/login", authHandler.Login)

	router.Post("/auth/logout", authHandler.Logout)
	router.Post("/auth/refresh", authHandler.Refresh)
	router.Get("/auth/session", authHandler.Session)
	router.Get("/auth/lockout", authHandler.Lockout)
	router.Get("/auth/permissions/{permission}", authHandler.CheckPermission)
	router.Get("/auth/activity", authHandler.Activity)
}
