package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/speechflow/backend/internal/client"
	"github.com/speechflow/backend/internal/config"
	"github.com/speechflow/backend/internal/handler/http"
	"github.com/speechflow/backend/internal/logger"
	"github.com/speechflow/backend/internal/repository"
	"github.com/speechflow/backend/internal/server"
	"github.com/speechflow/backend/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	log.Info().Str("env", cfg.Environment).Msg("Starting speechflow backend")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Postgres client
	postgresClient, err := client.NewPostgresClient(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Postgres client")
	}
	log.Info().Msg("Postgres client initialized")

	// Initialize Redis client (optional, catalog cache + reset tokens)
	var redisClient *client.RedisClient
	if cfg.RedisURL != "" {
		redisClient, err = client.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Error().Err(err).Msg("Failed to initialize Redis client")
			redisClient = nil
		} else {
			log.Info().Msg("Redis client initialized")
		}
	} else {
		log.Warn().Msg("REDIS_URL not set, catalog caching and password reset disabled")
	}

	// Initialize object storage client (optional, S3-compatible)
	var storageClient *client.StorageClient
	if cfg.StorageConfigured() {
		storageClient, err = client.NewStorageClient(ctx,
			cfg.StorageAccessKeyID,
			cfg.StorageSecretKey,
			cfg.StorageEndpoint,
			cfg.StorageBucketName,
			cfg.StoragePublicURL,
		)
		if err != nil {
			log.Error().Err(err).Msg("Failed to initialize storage client")
			storageClient = nil
		} else {
			log.Info().Msg("Storage client initialized")
		}
	} else {
		log.Warn().Msg("Storage configuration missing, uploads will not be archived")
	}

	// Initialize speech analysis client
	analysisClient := client.NewAnalysisClient(client.AnalysisConfig{
		BaseURL: cfg.SpeechAnalysisBaseURL,
		Timeout: cfg.SpeechAnalysisTimeout,
	})
	log.Info().Str("base_url", cfg.SpeechAnalysisBaseURL).Msg("Analysis client initialized")

	// Initialize repositories
	userRepo := repository.NewPostgresUserRepository(postgresClient)
	catalogRepo := repository.NewPostgresCatalogRepository(postgresClient)
	sessionRepo := repository.NewPostgresSessionRepository(postgresClient)

	// Initialize services
	authService := service.NewAuthService(userRepo, redisClient, cfg.JWTSecret, log)
	catalogService := service.NewCatalogService(catalogRepo, redisClient, log)
	sessionService := service.NewSessionService(sessionRepo, catalogRepo)
	recordingService := service.NewRecordingService(sessionRepo, catalogRepo, analysisClient, log)
	profileService := service.NewProfileService(userRepo, sessionRepo, storageClient, log)

	// Initialize handlers
	healthHandler := http.NewHealthHandler()
	authHandler := http.NewAuthHandler(log, authService)
	catalogHandler := http.NewCatalogHandler(log, catalogService)
	sessionHandler := http.NewSessionHandler(log, sessionService)
	recordingHandler := http.NewRecordingHandler(log, recordingService, storageClient)
	profileHandler := http.NewProfileHandler(log, profileService)

	// Initialize HTTP server
	httpServer := server.NewHTTPServer(cfg, log, healthHandler, authHandler, catalogHandler, sessionHandler, recordingHandler, profileHandler, authService)

	// Start server
	go func() {
		if err := httpServer.Start(); err != nil {
			log.Error().Err(err).Msg("HTTP server error")
			cancel()
		}
	}()

	log.Info().
		Str("http_addr", cfg.HTTPAddress()).
		Msg("Server started")

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info().Msg("Shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("Context cancelled")
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// Close clients
	if redisClient != nil {
		redisClient.Close()
	}
	postgresClient.Close()

	log.Info().Msg("Server stopped")
}
