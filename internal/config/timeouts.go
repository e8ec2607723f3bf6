// Package config provides centralized timeout constants for the application.
//
// These values are tuned around three constraints:
//   - Groq completion latency (usually 1-3s, JSON mode can take longer)
//   - Hugging Face embedding latency, including model cold starts
//   - SQLite performance characteristics (WAL mode, busy timeout)
package config

import "time"

// Chat turn timeouts
const (
	// TurnProcessing is the timeout for processing a single chat turn.
	// A turn can involve up to four model calls (gate, type detection,
	// extraction, answer synthesis) plus retrieval and document generation.
	TurnProcessing = 60 * time.Second

	// ServerHTTPRead is the HTTP server read timeout for chat requests.
	ServerHTTPRead = 10 * time.Second

	// ServerHTTPWrite is the HTTP server write timeout.
	// Should accommodate TurnProcessing + response serialization.
	ServerHTTPWrite = 65 * time.Second

	// ServerHTTPIdle is the HTTP server idle timeout for keep-alive connections.
	ServerHTTPIdle = 120 * time.Second
)

// Model gateway timeouts
const (
	// CompletionRequest is the per-call timeout for a chat completion.
	// Completions are never retried, so this bounds one attempt.
	CompletionRequest = 30 * time.Second

	// EmbeddingRequest is the timeout for a single embedding HTTP request.
	// Hugging Face serverless endpoints can stall on cold starts.
	EmbeddingRequest = 30 * time.Second

	// EmbeddingRetryInitial is the initial delay before retrying a failed
	// embedding request. Uses full-jitter exponential backoff.
	EmbeddingRetryInitial = 1 * time.Second
)

// Database timeouts
const (
	// DatabaseBusyTimeout is SQLite busy_timeout pragma value.
	// Handles concurrent write contention between chat turns.
	DatabaseBusyTimeout = 30 * time.Second

	// DatabaseConnMaxLifetime is the maximum lifetime of database connections.
	DatabaseConnMaxLifetime = time.Hour
)

// Indexing
const (
	// IndexBuildTimeout bounds the startup pass that embeds notices and
	// materials into the vector index.
	IndexBuildTimeout = 5 * time.Minute
)

// Graceful shutdown
const (
	// GracefulShutdown is the timeout for graceful server shutdown.
	// Allows in-flight turns to complete before forceful termination.
	GracefulShutdown = 30 * time.Second
)
