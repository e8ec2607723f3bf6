package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	chromem "github.com/philippgille/chromem-go"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/neuraruet/assistant-go/internal/errors"
	"github.com/neuraruet/assistant-go/internal/ratelimit"
)

const (
	// EmbeddingDimensions is the fixed output dimension all stored and query
	// vectors must match. A mismatch is a hard failure, never coerced.
	EmbeddingDimensions = 384

	// embedConcurrency bounds parallel requests in EmbedMany.
	embedConcurrency = 4

	// Retry configuration for transient errors (429/5xx only)
	defaultInitialDelay  = 1 * time.Second
	defaultBackoffFactor = 2.0
	defaultJitterFactor  = 0.25
)

// EmbeddingClient generates sentence embeddings via a Hugging Face
// feature-extraction endpoint.
type EmbeddingClient struct {
	apiKey      string
	endpoint    string
	maxRetries  int
	httpClient  *http.Client
	rateLimiter *ratelimit.Limiter
}

// NewEmbeddingClient creates an embedding client for the given endpoint.
// requestsPerMinute throttles outbound calls across all goroutines.
func NewEmbeddingClient(apiKey, endpoint string, requestsPerMinute float64, maxRetries int) *EmbeddingClient {
	return &EmbeddingClient{
		apiKey:     apiKey,
		endpoint:   endpoint,
		maxRetries: maxRetries,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		rateLimiter: ratelimit.NewPerMinute(requestsPerMinute),
	}
}

// Embed generates an embedding vector for the given text.
// Uses exponential backoff with jitter for transient errors (429, 500+).
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("embedding API key not configured")
	}

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty or whitespace-only text cannot be embedded")
	}

	var lastErr error
	delay := defaultInitialDelay

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		result, retryable, err := c.embedOnce(ctx, text)
		if err == nil {
			return result, nil
		}

		lastErr = err

		if !retryable {
			return nil, err
		}

		if attempt == c.maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(applyJitter(delay)):
		}

		delay = time.Duration(float64(delay) * defaultBackoffFactor)
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// EmbedMany embeds a batch of texts with bounded concurrency,
// preserving input order in the result.
func (c *EmbeddingClient) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)

	for i, text := range texts {
		g.Go(func() error {
			vec, err := c.Embed(gctx, text)
			if err != nil {
				return fmt.Errorf("embed text %d: %w", i, err)
			}
			vectors[i] = vec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

type embeddingRequest struct {
	Inputs []string `json:"inputs"`
}

// embedOnce performs a single embedding request.
// Returns (result, retryable, error) - error is last per Go convention.
func (c *EmbeddingClient) embedOnce(ctx context.Context, text string) ([]float32, bool, error) {
	jsonBody, err := json.Marshal(embeddingRequest{Inputs: []string{text}})
	if err != nil {
		return nil, false, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network errors are retryable
		return nil, true, apperrors.NewGatewayError("huggingface", 0, fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, true, apperrors.NewGatewayError("huggingface", resp.StatusCode,
			fmt.Errorf("server error or rate limited"))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, apperrors.NewGatewayError("huggingface", resp.StatusCode,
			fmt.Errorf("unexpected status"))
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, false, fmt.Errorf("decode response: %w", err)
	}

	vector, err := parseEmbedding(raw)
	if err != nil {
		return nil, false, err
	}

	if len(vector) != EmbeddingDimensions {
		return nil, false, fmt.Errorf("embedding dimension mismatch: got %d, want %d",
			len(vector), EmbeddingDimensions)
	}

	return vector, false, nil
}

// parseEmbedding handles the two shapes the feature-extraction pipeline
// returns: one pooled vector per input, or token-level vectors that still
// need mean pooling.
func parseEmbedding(raw json.RawMessage) ([]float32, error) {
	var pooled [][]float32
	if err := json.Unmarshal(raw, &pooled); err == nil && len(pooled) > 0 {
		return pooled[0], nil
	}

	var tokenLevel [][][]float32
	if err := json.Unmarshal(raw, &tokenLevel); err == nil && len(tokenLevel) > 0 && len(tokenLevel[0]) > 0 {
		return meanPool(tokenLevel[0]), nil
	}

	return nil, fmt.Errorf("unrecognized embedding response shape")
}

// meanPool averages token vectors into one sentence vector.
func meanPool(tokens [][]float32) []float32 {
	dim := len(tokens[0])
	out := make([]float32, dim)
	for _, tok := range tokens {
		for i := 0; i < dim && i < len(tok); i++ {
			out[i] += tok[i]
		}
	}
	n := float32(len(tokens))
	for i := range out {
		out[i] /= n
	}
	return out
}

// applyJitter adds random jitter to delay (±25%)
func applyJitter(delay time.Duration) time.Duration {
	jitter := float64(time.Now().UnixNano()%1000) / 1000.0 // 0.0 to 0.999
	jitter = (jitter - 0.5) * 2 * defaultJitterFactor      // -0.25 to +0.25
	return time.Duration(float64(delay) * (1 + jitter))
}

// NewEmbeddingFunc adapts the client to a chromem-go compatible EmbeddingFunc.
func (c *EmbeddingClient) NewEmbeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return c.Embed(ctx, text)
	}
}

// IsConfigured returns true if the API key is set
func (c *EmbeddingClient) IsConfigured() bool {
	return c.apiKey != ""
}
