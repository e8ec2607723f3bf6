// Package config defines environment variable keys for configuration.
package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Core (Required)
	EnvGroqAPIKey = "ASSIST_GROQ_API_KEY"
	EnvHFAPIKey   = "ASSIST_HF_API_KEY"

	// LLM
	EnvGroqBaseURL     = "ASSIST_GROQ_BASE_URL"
	EnvChatModel       = "ASSIST_CHAT_MODEL"
	EnvRouterModel     = "ASSIST_ROUTER_MODEL"
	EnvEmbeddingURL    = "ASSIST_EMBEDDING_URL"
	EnvEmbeddingRPM    = "ASSIST_EMBEDDING_RPM"
	EnvLLMTimeout      = "ASSIST_LLM_TIMEOUT"
	EnvEmbedMaxRetries = "ASSIST_EMBED_MAX_RETRIES"

	// Server
	EnvPort            = "ASSIST_PORT"
	EnvLogLevel        = "ASSIST_LOG_LEVEL"
	EnvShutdownTimeout = "ASSIST_SHUTDOWN_TIMEOUT"

	// Data
	EnvDataDir      = "ASSIST_DATA_DIR"
	EnvDocumentDir  = "ASSIST_DOCUMENT_DIR"
	EnvHistoryTurns = "ASSIST_HISTORY_TURNS"
	EnvSearchLimit  = "ASSIST_SEARCH_LIMIT"

	// Sentry Feature
	EnvSentryToken       = "ASSIST_SENTRY_TOKEN"
	EnvSentryHost        = "ASSIST_SENTRY_HOST"
	EnvSentryEnvironment = "ASSIST_SENTRY_ENVIRONMENT"
	EnvSentrySampleRate  = "ASSIST_SENTRY_SAMPLE_RATE"

	// Better Stack Feature
	EnvBetterStackToken    = "ASSIST_BETTERSTACK_TOKEN"
	EnvBetterStackEndpoint = "ASSIST_BETTERSTACK_ENDPOINT"

	// Metrics Auth Feature
	EnvMetricsUsername = "ASSIST_METRICS_USERNAME"
	EnvMetricsPassword = "ASSIST_METRICS_PASSWORD"
)
