package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/speechflow/backend/internal/config"
	httphandler "github.com/speechflow/backend/internal/handler/http"
	"github.com/speechflow/backend/internal/middleware"
	"github.com/speechflow/backend/internal/service"
)

// HTTPServer represents the HTTP server.
type HTTPServer struct {
	server *http.Server
	log    zerolog.Logger
}

// NewHTTPServer creates a new HTTP server.
func NewHTTPServer(
	cfg *config.Config,
	log zerolog.Logger,
	healthHandler *httphandler.HealthHandler,
	authHandler *httphandler.AuthHandler,
	catalogHandler *httphandler.CatalogHandler,
	sessionHandler *httphandler.SessionHandler,
	recordingHandler *httphandler.RecordingHandler,
	profileHandler *httphandler.ProfileHandler,
	authService *service.AuthService,
) *HTTPServer {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(chimiddleware.Compress(5))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   cfg.CORSAllowedMethods,
		AllowedHeaders:   cfg.CORSAllowedHeaders,
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (public)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Get("/live", healthHandler.Live)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoints. Register accepts an optional guest token
		// so a guest account can be converted without losing its sessions.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(authService))
			r.Post("/auth/register", authHandler.Register)
		})
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/guest", authHandler.Guest)
		r.Post("/auth/forgot-password", authHandler.ForgotPassword)
		r.Post("/auth/reset-password", authHandler.ResetPassword)

		// Public catalog endpoints
		r.Get("/categories", catalogHandler.Categories)
		r.Get("/levels", catalogHandler.Levels)
		r.Get("/challenges", catalogHandler.Challenges)
		r.Get("/challenges/{id}", catalogHandler.Challenge)

		// Protected endpoints (require bearer token)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(authService))

			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/auth/me", authHandler.Me)

			r.Post("/practice-sessions", sessionHandler.Start)
			r.Get("/practice-sessions", sessionHandler.List)
			r.Get("/practice-sessions/{id}", sessionHandler.Get)

			r.Post("/recordings", recordingHandler.Store)

			r.Get("/profile", profileHandler.Show)
			r.Put("/profile", profileHandler.Update)
			r.Get("/profile/history", profileHandler.History)
			r.Post("/profile/share", profileHandler.Share)
			r.Delete("/profile", profileHandler.Delete)
		})
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddress(),
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &HTTPServer{
		server: server,
		log:    log,
	}
}

// Start starts the HTTP server.
func (s *HTTPServer) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
