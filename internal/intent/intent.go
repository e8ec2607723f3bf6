// Package intent classifies each incoming message before any tool runs.
// The model proposes a route; deterministic server-side rules override it
// for the cases where a wrong route leaks data or wastes a tool call.
package intent

import (
	"context"
	"log/slog"
	"strings"

	"github.com/neuraruet/assistant-go/internal/llm"
	"github.com/neuraruet/assistant-go/internal/prompts"
)

// Intent buckets.
const (
	IntentGeneralChat = "general_chat"
	IntentBlocked     = "blocked"
	IntentToolQuery   = "tool_query"
)

// RouteDecision is the gate's verdict for one message.
type RouteDecision struct {
	Intent     string  `json:"intent"`
	ToolName   string  `json:"tool_name"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// personalInfoPhrases force the blocked route regardless of what the
// model decided. Questions about the user's own stored profile are
// answered by the app UI, not by the assistant.
var personalInfoPhrases = []string{
	"my roll no",
	"my roll number",
	"what is my roll",
	"what's my roll",
	"who am i",
	"my dept",
	"my department",
	"my series",
	"my section",
	"my profile",
}

// Router runs the intent gate.
type Router struct {
	completer llm.Completer
	log       *slog.Logger
}

func NewRouter(completer llm.Completer, log *slog.Logger) *Router {
	return &Router{completer: completer, log: log}
}

// Classify routes one user message. History gives the model follow-up
// context but never bypasses the deterministic overrides. Failures
// degrade to tool_query so a transient parse problem does not block a
// legitimate request.
func (r *Router) Classify(ctx context.Context, text string, history []llm.Message) (RouteDecision, error) {
	if d, ok := overrideFor(text); ok {
		return d, nil
	}

	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: text})

	raw, err := r.completer.Complete(ctx, llm.Request{
		System:      prompts.IntentGate,
		Messages:    messages,
		JSONMode:    true,
		Temperature: 0,
		MaxTokens:   200,
	})
	if err != nil {
		return RouteDecision{}, err
	}

	var d RouteDecision
	if derr := llm.DecodeLoose(raw, &d); derr != nil {
		r.log.WarnContext(ctx, "intent gate output unparseable, degrading to tool routing",
			slog.String("error", derr.Error()))
		return RouteDecision{Intent: IntentToolQuery, Reason: "gate output unparseable"}, nil
	}

	switch d.Intent {
	case IntentGeneralChat, IntentBlocked, IntentToolQuery:
	default:
		d.Intent = IntentToolQuery
		d.Reason = "unknown intent bucket from gate"
	}
	if d.Intent != IntentToolQuery {
		d.ToolName = ""
	}
	return d, nil
}

// overrideFor applies the deterministic pre-gate rules.
func overrideFor(text string) (RouteDecision, bool) {
	lower := strings.ToLower(text)
	for _, phrase := range personalInfoPhrases {
		if strings.Contains(lower, phrase) {
			return RouteDecision{
				Intent:     IntentBlocked,
				Confidence: 1,
				Reason:     "personal profile question",
			}, true
		}
	}
	return RouteDecision{}, false
}
