// Package config provides application configuration management.
// It loads settings from environment variables and provides defaults for
// model gateways, server timeouts, and data directories.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Default model endpoints and names. Overridable per environment.
const (
	DefaultGroqBaseURL  = "https://api.groq.com/openai/v1"
	DefaultChatModel    = "llama-3.3-70b-versatile"
	DefaultRouterModel  = "llama-3.1-8b-instant"
	DefaultEmbeddingURL = "https://router.huggingface.co/hf-inference/models/sentence-transformers/all-MiniLM-L6-v2/pipeline/feature-extraction"
)

// Config holds all application configuration
type Config struct {
	// LLM Configuration
	GroqAPIKey  string // Groq API key (OpenAI-compatible completions)
	GroqBaseURL string // Groq endpoint base URL
	ChatModel   string // Model for extraction and answer synthesis
	RouterModel string // Smaller model for the intent gate

	// Embedding Configuration
	HFAPIKey        string        // Hugging Face API key for feature extraction
	EmbeddingURL    string        // Feature-extraction endpoint URL
	EmbeddingRPM    float64       // Embedding calls allowed per minute
	LLMTimeout      time.Duration // Per-call completion timeout
	EmbedMaxRetries int           // Max retries for retryable embedding failures

	// Metrics Authentication
	MetricsUsername string // Username for /metrics endpoint Basic Auth (default: "prometheus")
	MetricsPassword string // Password for /metrics endpoint Basic Auth (empty = no auth)

	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Data Configuration
	DataDir      string // Data directory for SQLite database
	DocumentDir  string // Output directory for generated cover pages and marksheets
	HistoryTurns int    // Conversation turns loaded as model history
	SearchLimit  int    // Default page size for ranked retrieval

	// Sentry (Better Stack Errors) Configuration
	SentryToken       string
	SentryHost        string
	SentryEnvironment string
	SentrySampleRate  float64

	// Better Stack log shipping
	BetterStackToken    string
	BetterStackEndpoint string
}

// Load reads configuration from environment variables
// It attempts to load .env file first, then reads from env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		// LLM Configuration
		GroqAPIKey:  getEnv(EnvGroqAPIKey, ""),
		GroqBaseURL: getEnv(EnvGroqBaseURL, DefaultGroqBaseURL),
		ChatModel:   getEnv(EnvChatModel, DefaultChatModel),
		RouterModel: getEnv(EnvRouterModel, DefaultRouterModel),

		// Embedding Configuration
		HFAPIKey:        getEnv(EnvHFAPIKey, ""),
		EmbeddingURL:    getEnv(EnvEmbeddingURL, DefaultEmbeddingURL),
		EmbeddingRPM:    getFloatEnv(EnvEmbeddingRPM, 300),
		LLMTimeout:      getDurationEnv(EnvLLMTimeout, CompletionRequest),
		EmbedMaxRetries: getIntEnv(EnvEmbedMaxRetries, 5),

		// Metrics Authentication
		MetricsUsername: getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword: getEnv(EnvMetricsPassword, ""),

		// Server Configuration
		Port:            getEnv(EnvPort, "10000"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, GracefulShutdown),

		// Data Configuration
		DataDir:      getEnv(EnvDataDir, getDefaultDataDir()),
		DocumentDir:  getEnv(EnvDocumentDir, ""),
		HistoryTurns: getIntEnv(EnvHistoryTurns, 6),
		SearchLimit:  getIntEnv(EnvSearchLimit, 10),

		// Sentry Configuration
		SentryToken:       getEnv(EnvSentryToken, ""),
		SentryHost:        getEnv(EnvSentryHost, "errors.betterstack.com"),
		SentryEnvironment: getEnv(EnvSentryEnvironment, "production"),
		SentrySampleRate:  getFloatEnv(EnvSentrySampleRate, 1.0),

		// Better Stack log shipping
		BetterStackToken:    getEnv(EnvBetterStackToken, ""),
		BetterStackEndpoint: getEnv(EnvBetterStackEndpoint, ""),
	}

	if cfg.DocumentDir == "" {
		cfg.DocumentDir = filepath.Join(cfg.DataDir, "documents")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	var errs []error

	if c.GroqAPIKey == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvGroqAPIKey))
	}
	if c.HFAPIKey == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvHFAPIKey))
	}
	if c.Port == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvPort))
	}
	if c.DataDir == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvDataDir))
	}
	if c.EmbeddingRPM <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvEmbeddingRPM, c.EmbeddingRPM))
	}
	if c.LLMTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvLLMTimeout, c.LLMTimeout))
	}
	if c.EmbedMaxRetries < 0 {
		errs = append(errs, fmt.Errorf("%s cannot be negative, got %d", EnvEmbedMaxRetries, c.EmbedMaxRetries))
	}
	if c.HistoryTurns < 0 {
		errs = append(errs, fmt.Errorf("%s cannot be negative, got %d", EnvHistoryTurns, c.HistoryTurns))
	}
	if c.SearchLimit <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %d", EnvSearchLimit, c.SearchLimit))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getDefaultDataDir returns platform-specific default data directory
func getDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		return "./data"
	}
	return "/data"
}

// SQLitePath returns the full path to the SQLite database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "assistant.db")
}
