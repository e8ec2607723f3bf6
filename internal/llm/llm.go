// Package llm provides the model gateways used by the conversational core:
// an OpenAI-compatible completion client (Groq) and a Hugging Face embedding
// client, plus defensive decoding of model-produced JSON.
package llm

import "context"

// Role tags a message in model history.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of role-tagged history given to the model.
type Message struct {
	Role    Role
	Content string
}

// Request describes a single completion call.
type Request struct {
	System      string
	Messages    []Message
	JSONMode    bool
	Temperature float64
	MaxTokens   int64
}

// Completer abstracts "send messages + system prompt, get back text".
// In JSON mode the returned text is expected (not guaranteed) to be a single
// JSON object; callers must parse defensively via DecodeLoose.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Embedder produces fixed-dimension embedding vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
}
