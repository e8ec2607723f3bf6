// Package answer turns tool results into user-facing replies. Every
// renderer grounds the model on retrieved data passed in-message; the
// model never sees the database, only the JSON snapshot the pipeline
// hands it.
package answer

import (
	"context"
	"strings"

	"github.com/neuraruet/assistant-go/internal/llm"
	"github.com/neuraruet/assistant-go/internal/prompts"
)

// Synthesizer renders replies with the chat model.
type Synthesizer struct {
	chat llm.Completer
}

func NewSynthesizer(chat llm.Completer) *Synthesizer {
	return &Synthesizer{chat: chat}
}

// General answers small talk and capability questions.
func (s *Synthesizer) General(ctx context.Context, history []llm.Message, text string) (string, error) {
	return s.chat.Complete(ctx, llm.Request{
		System:      prompts.GeneralChat,
		Messages:    withUser(history, text),
		Temperature: 0.6,
		MaxTokens:   300,
	})
}

// Refusal renders the out-of-scope refusal. History is omitted so the
// refusal cannot be steered by earlier turns.
func (s *Synthesizer) Refusal(ctx context.Context, text string) (string, error) {
	return s.chat.Complete(ctx, llm.Request{
		System:      prompts.Blocked,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: text}},
		Temperature: 0.6,
		MaxTokens:   120,
	})
}

// Materials answers a material search from the retrieved rows.
func (s *Synthesizer) Materials(ctx context.Context, history []llm.Message, text, groundingJSON string) (string, error) {
	messages := withUser(history, text)
	messages = append(messages, llm.Message{
		Role:    llm.RoleUser,
		Content: "Retrieved materials (JSON):\n" + groundingJSON,
	})
	return s.chat.Complete(ctx, llm.Request{
		System:      prompts.MaterialsAnswer,
		Messages:    messages,
		Temperature: 0.4,
		MaxTokens:   500,
	})
}

// Notices answers a notice lookup from the retrieved notices.
func (s *Synthesizer) Notices(ctx context.Context, history []llm.Message, text, groundingJSON string) (string, error) {
	messages := withUser(history, text)
	messages = append(messages, llm.Message{
		Role:    llm.RoleUser,
		Content: "Retrieved notices (JSON):\n" + groundingJSON,
	})
	return s.chat.Complete(ctx, llm.Request{
		System:      prompts.NoticesAnswer,
		Messages:    messages,
		Temperature: 0.4,
		MaxTokens:   500,
	})
}

// Marks answers a marks lookup. Conversation history is deliberately
// excluded: the reply must come from the database row alone, so a
// stale number quoted earlier in the chat can never leak into it.
func (s *Synthesizer) Marks(ctx context.Context, text, groundingJSON string) (string, error) {
	return s.chat.Complete(ctx, llm.Request{
		System: prompts.CheckMarksAnswer,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: text},
			{Role: llm.RoleUser, Content: "Database result (JSON):\n" + groundingJSON},
		},
		Temperature: 0.3,
		MaxTokens:   150,
	})
}

// CoverMissing asks the student for exactly the missing cover fields.
func (s *Synthesizer) CoverMissing(ctx context.Context, text string, missing []string) (string, error) {
	return s.chat.Complete(ctx, llm.Request{
		System: prompts.CoverMissingFields,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: "Missing fields: " + strings.Join(missing, ", ")},
			{Role: llm.RoleUser, Content: text},
		},
		Temperature: 0.4,
		MaxTokens:   180,
	})
}

func withUser(history []llm.Message, text string) []llm.Message {
	out := make([]llm.Message, 0, len(history)+1)
	out = append(out, history...)
	out = append(out, llm.Message{Role: llm.RoleUser, Content: text})
	return out
}
