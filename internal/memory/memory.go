// Package memory recalls recent room transcript turns and shapes them
// as chat messages for model calls. Storage keeps the full transcript;
// this layer only decides how much of it a prompt sees.
package memory

import (
	"context"

	"github.com/neuraruet/assistant-go/internal/llm"
	"github.com/neuraruet/assistant-go/internal/storage"
)

// MessageStore is the storage dependency.
type MessageStore interface {
	RecentMessages(ctx context.Context, roomID string, limit int) ([]storage.ChatMessage, error)
	SaveMessage(ctx context.Context, m *storage.ChatMessage) error
}

// Recaller loads bounded conversation history for a room.
type Recaller struct {
	store MessageStore
	turns int // user+assistant message pairs to recall
}

// NewRecaller creates a Recaller keeping the last `turns` exchanges.
func NewRecaller(store MessageStore, turns int) *Recaller {
	if turns <= 0 {
		turns = 6
	}
	return &Recaller{store: store, turns: turns}
}

// History returns the room's recent transcript in chronological order,
// ready to prepend to a model call.
func (r *Recaller) History(ctx context.Context, roomID string) ([]llm.Message, error) {
	rows, err := r.store.RecentMessages(ctx, roomID, r.turns*2)
	if err != nil {
		return nil, err
	}

	out := make([]llm.Message, 0, len(rows))
	for _, row := range rows {
		role := llm.RoleUser
		if row.Role == "assistant" {
			role = llm.RoleAssistant
		}
		out = append(out, llm.Message{Role: role, Content: row.Text})
	}
	return out, nil
}
