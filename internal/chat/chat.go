// Package chat orchestrates one conversational turn: recall history,
// gate the message, run the routed tool pipeline or a direct chat
// answer, persist both sides of the exchange.
package chat

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/neuraruet/assistant-go/internal/answer"
	"github.com/neuraruet/assistant-go/internal/config"
	"github.com/neuraruet/assistant-go/internal/intent"
	"github.com/neuraruet/assistant-go/internal/llm"
	"github.com/neuraruet/assistant-go/internal/logger"
	"github.com/neuraruet/assistant-go/internal/memory"
	"github.com/neuraruet/assistant-go/internal/metrics"
	"github.com/neuraruet/assistant-go/internal/profile"
	"github.com/neuraruet/assistant-go/internal/storage"
	"github.com/neuraruet/assistant-go/internal/tools"
)

// toolClarificationQuestion is the deterministic reply when the gate
// routes to a tool it cannot name.
const toolClarificationQuestion = "I can find course materials, show notices, check CT marks, or generate cover pages and marksheets. Which of these do you need?"

// Reply is the outward result of one turn.
type Reply struct {
	Text         string `json:"text"`
	Intent       string `json:"intent"`
	Tool         string `json:"tool,omitempty"`
	Mode         string `json:"mode,omitempty"`
	DocumentPath string `json:"-"`
	DocumentURL  string `json:"document_url,omitempty"`
}

// Orchestrator wires the gate, the tool registry and answer synthesis
// into the single entry point the HTTP layer calls.
type Orchestrator struct {
	gate     *intent.Router
	registry *tools.Registry
	recaller *memory.Recaller
	store    memory.MessageStore
	synth    *answer.Synthesizer
	metrics  *metrics.Metrics
	log      *logger.Logger
	now      func() time.Time
}

func NewOrchestrator(gate *intent.Router, registry *tools.Registry, recaller *memory.Recaller, store memory.MessageStore, synth *answer.Synthesizer, m *metrics.Metrics, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		gate:     gate,
		registry: registry,
		recaller: recaller,
		store:    store,
		synth:    synth,
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

// RunTurn processes one user message end to end. The whole turn shares
// a single deadline so one slow model call cannot stall the room.
func (o *Orchestrator) RunTurn(ctx context.Context, roomID string, actor profile.Actor, text string) (Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, config.TurnProcessing)
	defer cancel()

	start := o.now()
	log := o.log.WithRoom(roomID)

	history, err := o.recaller.History(ctx, roomID)
	if err != nil {
		return Reply{}, err
	}

	decision, err := o.gate.Classify(ctx, text, history)
	if err != nil {
		o.recordTurn("gate", "error", start)
		return Reply{}, err
	}
	if o.metrics != nil {
		o.metrics.RecordIntent(decision.Intent, decision.ToolName)
	}

	reply, err := o.respond(ctx, decision, actor, text, history)
	if err != nil {
		o.recordTurn(routeLabel(decision), "error", start)
		return Reply{}, err
	}

	if err := o.persistTurn(ctx, roomID, text, reply.Text); err != nil {
		// The user already has an answer; losing one transcript row is
		// recoverable, failing the turn for it is not.
		log.WithError(err).Error("failed to persist chat turn")
	}

	o.recordTurn(routeLabel(decision), outcomeLabel(decision, reply), start)
	return reply, nil
}

// respond produces the reply text for a gated message.
func (o *Orchestrator) respond(ctx context.Context, decision intent.RouteDecision, actor profile.Actor, text string, history []llm.Message) (Reply, error) {
	switch decision.Intent {
	case intent.IntentGeneralChat:
		answerText, err := o.synth.General(ctx, history, text)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Text: answerText, Intent: decision.Intent}, nil

	case intent.IntentBlocked:
		answerText, err := o.synth.Refusal(ctx, text)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Text: answerText, Intent: decision.Intent}, nil
	}

	name := tools.Name(decision.ToolName)
	if !name.Valid() {
		// The gate wanted a tool but could not name a real one, either
		// because its output was unparseable or because it invented a
		// label. A fixed clarification keeps the reply anchored to what
		// the assistant can actually do.
		o.log.WithField("tool", decision.ToolName).Warn("gate proposed no usable tool, asking for clarification")
		return Reply{Text: toolClarificationQuestion, Intent: decision.Intent, Mode: tools.ModeAsk}, nil
	}

	toolStart := o.now()
	res, err := o.registry.Dispatch(ctx, name, tools.Input{Actor: actor, Text: text, History: history})
	if o.metrics != nil {
		mode := res.Mode
		if err != nil {
			mode = "error"
		}
		o.metrics.RecordToolRun(string(name), mode, o.now().Sub(toolStart).Seconds())
	}
	if err != nil {
		return Reply{}, err
	}

	reply := Reply{Intent: decision.Intent, Tool: string(name), Mode: res.Mode}
	switch res.Mode {
	case tools.ModeAsk:
		reply.Text = res.Question
	default:
		reply.Text = res.Text
	}
	if res.DocumentPath != "" {
		reply.DocumentPath = res.DocumentPath
		reply.DocumentURL = tools.DocumentURL(res.DocumentPath)
	}
	return reply, nil
}

// persistTurn appends the user message and the assistant reply to the
// room transcript.
func (o *Orchestrator) persistTurn(ctx context.Context, roomID, userText, assistantText string) error {
	at := o.now().Unix()
	if err := o.store.SaveMessage(ctx, &storage.ChatMessage{
		ID: uuid.NewString(), RoomID: roomID, Role: "user", Text: userText, CreatedAt: at,
	}); err != nil {
		return err
	}
	return o.store.SaveMessage(ctx, &storage.ChatMessage{
		ID: uuid.NewString(), RoomID: roomID, Role: "assistant", Text: assistantText, CreatedAt: at,
	})
}

func (o *Orchestrator) recordTurn(route, outcome string, start time.Time) {
	if o.metrics == nil {
		return
	}
	o.metrics.RecordTurn(route, outcome, o.now().Sub(start).Seconds())
}

// routeLabel is the metrics label for a gate decision: the tool name
// for tool routes, the intent bucket otherwise.
func routeLabel(d intent.RouteDecision) string {
	if d.Intent == intent.IntentToolQuery && d.ToolName != "" {
		return d.ToolName
	}
	return d.Intent
}

func outcomeLabel(d intent.RouteDecision, r Reply) string {
	switch d.Intent {
	case intent.IntentGeneralChat:
		return "general"
	case intent.IntentBlocked:
		return "refusal"
	}
	switch r.Mode {
	case tools.ModeAsk:
		return "ask"
	case tools.ModeWrongTool, tools.ModeAnswer:
		return "answer"
	default:
		return "general"
	}
}
