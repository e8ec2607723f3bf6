package tools

import (
	"context"
	"strings"

	"github.com/neuraruet/assistant-go/internal/answer"
	"github.com/neuraruet/assistant-go/internal/docgen"
	"github.com/neuraruet/assistant-go/internal/llm"
	"github.com/neuraruet/assistant-go/internal/logger"
	"github.com/neuraruet/assistant-go/internal/metrics"
	"github.com/neuraruet/assistant-go/internal/prompts"
	"github.com/neuraruet/assistant-go/internal/schema"
)

// coverMenuQuestion is the fixed menu shown when the cover type cannot
// be decided from the message.
const coverMenuQuestion = "Which cover do you want?\n• Lab report (Experiment)\n• Assignment\n• Report\nReply with one of these."

// CoverTool runs the generate_cover_page pipeline: type detection,
// field extraction and normalization, profile merge, missing-field ask,
// then PNG rendering.
type CoverTool struct {
	router  llm.Completer
	gen     *docgen.CoverGenerator
	synth   *answer.Synthesizer
	metrics *metrics.Metrics
	log     *logger.Logger
}

func NewCoverTool(router llm.Completer, gen *docgen.CoverGenerator, synth *answer.Synthesizer, m *metrics.Metrics, log *logger.Logger) *CoverTool {
	return &CoverTool{router: router, gen: gen, synth: synth, metrics: m, log: log}
}

func (t *CoverTool) Name() Name { return GenerateCoverPage }

func (t *CoverTool) Run(ctx context.Context, in Input) (Result, error) {
	coverType, redirect, err := t.detectType(ctx, in)
	if err != nil {
		return Result{}, err
	}
	if redirect != "" {
		return Result{Mode: ModeWrongTool, Text: redirect}, nil
	}
	if coverType == "" {
		return Result{Mode: ModeAsk, Question: coverMenuQuestion}, nil
	}

	fields, err := t.extract(ctx, in, coverType)
	if err != nil {
		return Result{}, err
	}

	req := schema.CoverRequest{CoverType: coverType, Fields: fields}
	req.Normalize(in.Actor)
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	if missing := req.MissingFields(); len(missing) > 0 {
		question, err := t.synth.CoverMissing(ctx, in.Text, missing)
		if err != nil {
			return Result{}, err
		}
		return Result{Mode: ModeAsk, Question: question, MissingFields: missing}, nil
	}

	path, err := t.gen.Generate(ctx, req.CoverType, req.Fields)
	if err != nil {
		if t.metrics != nil {
			t.metrics.RecordDocument("cover", "error")
		}
		return Result{}, err
	}
	if t.metrics != nil {
		t.metrics.RecordDocument("cover", "success")
	}

	return Result{
		Mode:         ModeAnswer,
		Text:         "🎉 Cover page generated successfully.\nDownload: " + DocumentURL(path),
		DocumentPath: path,
	}, nil
}

// detectType classifies the cover type. The detection call runs without
// JSON mode because the prompt's wrong-tool guard answers with a plain
// redirect sentence; a sentence reply is returned as the redirect.
func (t *CoverTool) detectType(ctx context.Context, in Input) (coverType, redirect string, err error) {
	raw, err := t.router.Complete(ctx, llm.Request{
		System:      prompts.CoverTypeDetect,
		Messages:    append(append([]llm.Message{}, in.History...), llm.Message{Role: llm.RoleUser, Content: in.Text}),
		Temperature: 0,
		MaxTokens:   120,
	})
	if err != nil {
		return "", "", err
	}

	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "This is a ") {
		return "", trimmed, nil
	}

	var out struct {
		CoverType  string  `json:"cover_type"`
		Reason     string  `json:"reason"`
		Confidence float64 `json:"confidence"`
	}
	if err := llm.DecodeLoose(raw, &out); err != nil {
		t.log.WithError(err).Warn("cover type detection unparseable, asking")
		return "", "", nil
	}

	switch out.CoverType {
	case schema.CoverLabReport, schema.CoverAssignment, schema.CoverReport:
		return out.CoverType, "", nil
	default:
		return "", "", nil
	}
}

func (t *CoverTool) extract(ctx context.Context, in Input, coverType string) (schema.CoverFields, error) {
	raw, err := t.router.Complete(ctx, llm.Request{
		System:      prompts.CoverInfoExtract + "\n\nSystem context: cover_type=" + coverType,
		Messages:    append(append([]llm.Message{}, in.History...), llm.Message{Role: llm.RoleUser, Content: in.Text}),
		JSONMode:    true,
		Temperature: 0,
		MaxTokens:   250,
	})
	if err != nil {
		return schema.CoverFields{}, err
	}

	var fields schema.CoverFields
	if err := llm.DecodeLoose(raw, &fields); err != nil {
		// An unparseable extraction still proceeds: the profile merge
		// fills identity fields and the missing-field ask handles the rest.
		t.log.WithError(err).Warn("cover info extraction unparseable")
		return schema.CoverFields{}, nil
	}
	return fields, nil
}
