package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	apperrors "github.com/neuraruet/assistant-go/internal/errors"
)

// GroqClient is a Completer backed by Groq's OpenAI-compatible endpoint.
// Completions are never retried automatically: a generative call is not
// idempotent and a retry could duplicate side effects downstream.
type GroqClient struct {
	client   openai.Client
	model    string
	provider string
	timeout  time.Duration
}

// NewGroqClient creates a completion client for the given model.
func NewGroqClient(apiKey, baseURL, model string, timeout time.Duration) (*GroqClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("groq API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &GroqClient{
		client:   client,
		model:    model,
		provider: "groq",
		timeout:  timeout,
	}, nil
}

// Complete executes one chat completion with a per-call timeout.
// Failures are returned as *errors.GatewayError.
func (c *GroqClient) Complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(req.MaxTokens)
	}
	if req.JSONMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	duration := time.Since(start)

	if err != nil {
		statusCode := 0
		var apierr *openai.Error
		if errors.As(err, &apierr) {
			statusCode = apierr.StatusCode
		}
		slog.WarnContext(ctx, "Chat completion failed",
			"provider", c.provider,
			"model", c.model,
			"json_mode", req.JSONMode,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return "", apperrors.NewGatewayError(c.provider, statusCode, err)
	}

	if len(resp.Choices) == 0 {
		return "", apperrors.NewGatewayError(c.provider, 0, fmt.Errorf("empty response from model"))
	}

	if resp.Usage.TotalTokens > 0 {
		slog.DebugContext(ctx, "Chat completion finished",
			"provider", c.provider,
			"model", c.model,
			"json_mode", req.JSONMode,
			"input_tokens", resp.Usage.PromptTokens,
			"output_tokens", resp.Usage.CompletionTokens,
			"total_tokens", resp.Usage.TotalTokens,
			"duration_ms", duration.Milliseconds())
	}

	return resp.Choices[0].Message.Content, nil
}
