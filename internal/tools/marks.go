package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/neuraruet/assistant-go/internal/answer"
	apperrors "github.com/neuraruet/assistant-go/internal/errors"
	"github.com/neuraruet/assistant-go/internal/llm"
	"github.com/neuraruet/assistant-go/internal/logger"
	"github.com/neuraruet/assistant-go/internal/metrics"
	"github.com/neuraruet/assistant-go/internal/prompts"
	"github.com/neuraruet/assistant-go/internal/schema"
	"github.com/neuraruet/assistant-go/internal/storage"
)

const marksWrongToolText = "Sorry, this request does not fall under the check marks tool's scope."

// ResultStore is the storage dependency for marks lookups.
type ResultStore interface {
	FindResultSheet(ctx context.Context, scope storage.Scope, courseCode string, ctNo int) (*storage.ResultSheet, error)
	GetResultEntry(ctx context.Context, sheetID, rollNo string) (*storage.ResultEntry, error)
}

// MarksTool runs the check_marks pipeline: extract course and CT,
// look up the student's own entry, answer from the database row alone.
type MarksTool struct {
	router  llm.Completer
	store   ResultStore
	synth   *answer.Synthesizer
	metrics *metrics.Metrics
	log     *logger.Logger
}

func NewMarksTool(router llm.Completer, store ResultStore, synth *answer.Synthesizer, m *metrics.Metrics, log *logger.Logger) *MarksTool {
	return &MarksTool{router: router, store: store, synth: synth, metrics: m, log: log}
}

func (t *MarksTool) Name() Name { return CheckMarks }

func (t *MarksTool) Run(ctx context.Context, in Input) (Result, error) {
	q, err := t.extract(ctx, in)
	if err != nil {
		if errors.Is(err, apperrors.ErrExtractionParse) {
			return Result{
				Mode:          ModeAsk,
				Question:      "Which course code and CT number do you want marks for?",
				MissingFields: []string{"course_code", "ct_no"},
			}, nil
		}
		return Result{}, err
	}

	if q.Mode == schema.ModeWrongTool {
		return Result{Mode: ModeWrongTool, Text: marksWrongToolText}, nil
	}

	q.Normalize()
	if err := q.Validate(); err != nil {
		var verr *apperrors.ValidationError
		if errors.As(err, &verr) {
			if t.metrics != nil {
				t.metrics.RecordValidationFailure(string(CheckMarks), verr.Field)
			}
			return Result{
				Mode:          ModeAsk,
				Question:      "Please give me the course code (like CSE-1202) and the CT number.",
				MissingFields: []string{verr.Field},
			}, nil
		}
		return Result{}, err
	}

	if q.Mode == schema.ModeAsk {
		return Result{Mode: ModeAsk, Question: q.Question, MissingFields: q.MissingFields}, nil
	}

	grounding, err := t.lookup(ctx, in.Actor.Roll, actorScope(in.Actor), q)
	if err != nil {
		return Result{}, err
	}

	// History is deliberately not passed: the marks answer must come
	// from the database row alone.
	text, err := t.synth.Marks(ctx, in.Text, grounding)
	if err != nil {
		return Result{}, err
	}
	return Result{Mode: ModeAnswer, Text: text}, nil
}

func (t *MarksTool) extract(ctx context.Context, in Input) (schema.MarksQuery, error) {
	raw, err := t.router.Complete(ctx, llm.Request{
		System:      prompts.CheckMarksExtract,
		Messages:    append(append([]llm.Message{}, in.History...), llm.Message{Role: llm.RoleUser, Content: in.Text}),
		JSONMode:    true,
		Temperature: 0,
		MaxTokens:   250,
	})
	if err != nil {
		return schema.MarksQuery{}, err
	}

	var q schema.MarksQuery
	if err := llm.DecodeLoose(raw, &q); err != nil {
		return schema.MarksQuery{}, err
	}
	return q, nil
}

// groundedMarks is the JSON snapshot handed to answer synthesis.
type groundedMarks struct {
	Found       bool    `json:"found"`
	CourseCode  string  `json:"course_code"`
	CourseName  string  `json:"course_name,omitempty"`
	CTNo        int     `json:"ct_no"`
	RollNo      string  `json:"roll_no,omitempty"`
	Marks       float64 `json:"marks,omitempty"`
	PublishedBy string  `json:"published_by,omitempty"`
}

func (t *MarksTool) lookup(ctx context.Context, rollNo string, scope storage.Scope, q schema.MarksQuery) (string, error) {
	g := groundedMarks{CourseCode: q.CourseCode, CTNo: *q.CTNo}

	sheet, err := t.store.FindResultSheet(ctx, scope, q.CourseCode, *q.CTNo)
	if err != nil {
		return "", err
	}
	if sheet != nil {
		g.CourseName = sheet.CourseName
		g.PublishedBy = sheet.CreatedByName
		entry, err := t.store.GetResultEntry(ctx, sheet.ID, rollNo)
		if err != nil {
			return "", err
		}
		if entry != nil {
			g.Found = true
			g.RollNo = entry.RollNo
			g.Marks = entry.Marks
		}
	}

	b, err := json.Marshal(g)
	if err != nil {
		return "", fmt.Errorf("marshal marks grounding: %w", err)
	}
	return string(b), nil
}
