package api

import (
	"net/http"
	"time"

	"github.com/dom/auth-gateway/internal/api/handlers"
	"github.com/dom/auth-gateway/internal/api/middleware"
	"github.com/dom/auth-gateway/internal/config"
	"github.com/dom/auth-gateway/internal/service"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(services *service.Services, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.CORS(cfg.FrontendURL))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"auth-gateway","timestamp":"` +
			time.Now().UTC().Format(time.RFC3339) + `"}`))
	})

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.Auth, services.MagicLink, services.Federated, cfg)
	userHandler := handlers.NewUserHandler(services.Auth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Get("/config", authHandler.Config)

			r.Post("/login/email", authHandler.LoginEmail)
			r.Post("/register/email", authHandler.RegisterEmail)
			r.Post("/magic-link/request", authHandler.MagicLinkRequest)
			r.Post("/magic-link/verify", authHandler.MagicLinkVerify)
			r.Post("/google", authHandler.Google)
			r.Post("/apple", authHandler.Apple)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/logout", authHandler.Logout)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(services.Auth))

			r.Route("/users", func(r chi.Router) {
				r.Get("/me", userHandler.Me)
			})
		})
	})

	return r
}
