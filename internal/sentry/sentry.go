// Package sentry wires the Sentry Go SDK to Better Stack's error
// collection backend. Initialization is optional; with no token the
// process runs without error tracking.
package sentry

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// Config holds the Better Stack error tracking settings.
type Config struct {
	// Token is the Better Stack Errors application token. Empty disables tracking.
	Token string

	// Host is the Better Stack ingesting host, e.g. "errors.betterstack.com".
	Host string

	// Environment tags events with the deployment environment.
	Environment string

	// Release tags events with the running build version.
	Release string

	// SampleRate is the fraction of errors to report. Zero means report all.
	SampleRate float64
}

// Initialize configures the global Sentry client. Better Stack accepts
// the standard Sentry DSN format; the trailing project ID is required by
// the SDK and ignored by the backend.
func Initialize(cfg Config) error {
	if cfg.Token == "" {
		return nil
	}
	if cfg.Host == "" {
		return fmt.Errorf("sentry host is required when token is provided")
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 1.0
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              fmt.Sprintf("https://%s@%s/1", cfg.Token, cfg.Host),
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       sampleRate,
		AttachStacktrace: true,
	})
}

// Flush drains buffered events, returning false if the timeout expired
// with events still pending. Called on shutdown.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// IsEnabled reports whether a client was initialized. The gin middleware
// is only installed when this is true.
func IsEnabled() bool {
	return sentry.CurrentHub().Client() != nil
}
