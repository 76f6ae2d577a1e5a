package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Host     string `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	HTTPPort int    `envconfig:"SERVER_HTTP_PORT" default:"8080"`

	Environment string `envconfig:"SERVER_ENV" default:"development"`

	// Timeouts
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"180s"`
	IdleTimeout     time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	// Auth
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	// Speech analysis engine
	SpeechAnalysisBaseURL string        `envconfig:"SPEECH_ANALYSIS_BASE_URL" required:"true"`
	SpeechAnalysisTimeout time.Duration `envconfig:"SPEECH_ANALYSIS_TIMEOUT" default:"120s"`

	// Redis
	RedisURL string `envconfig:"REDIS_URL"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Object storage (S3-compatible, e.g. Cloudflare R2)
	StorageAccessKeyID string `envconfig:"STORAGE_ACCESS_KEY_ID"`
	StorageSecretKey   string `envconfig:"STORAGE_SECRET_ACCESS_KEY"`
	StorageEndpoint    string `envconfig:"STORAGE_ENDPOINT"`
	StoragePublicURL   string `envconfig:"STORAGE_PUBLIC_URL"`
	StorageBucketName  string `envconfig:"STORAGE_BUCKET_NAME"`

	// CORS
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	CORSAllowedMethods []string `envconfig:"CORS_ALLOWED_METHODS" default:"GET,POST,PUT,DELETE,OPTIONS"`
	CORSAllowedHeaders []string `envconfig:"CORS_ALLOWED_HEADERS" default:"Accept,Authorization,Content-Type,X-Request-ID"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	return &cfg, nil
}

// HTTPAddress returns the HTTP server address.
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// StorageConfigured reports whether object storage credentials are complete.
func (c *Config) StorageConfigured() bool {
	return c.StorageAccessKeyID != "" && c.StorageSecretKey != "" &&
		c.StorageEndpoint != "" && c.StorageBucketName != ""
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
