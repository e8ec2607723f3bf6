package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/neuraruet/assistant-go/internal/docgen"
	apperrors "github.com/neuraruet/assistant-go/internal/errors"
	"github.com/neuraruet/assistant-go/internal/llm"
	"github.com/neuraruet/assistant-go/internal/logger"
	"github.com/neuraruet/assistant-go/internal/metrics"
	"github.com/neuraruet/assistant-go/internal/prompts"
	"github.com/neuraruet/assistant-go/internal/schema"
	"github.com/neuraruet/assistant-go/internal/storage"
)

const (
	marksheetWrongToolText  = "Sorry, this request does not fall under the generate marksheet tool's scope."
	marksheetTeacherOnly    = "Sorry, only teachers can generate marksheets."
	marksheetNothingToBuild = "I could not find any marks you published for %s covering %s, so there is nothing to put in a marksheet."
)

// SheetStore is the storage dependency for marksheet builds.
type SheetStore interface {
	ListTeacherSheets(ctx context.Context, teacherID string, scope storage.Scope, courseCode string, ctNos []int) ([]storage.ResultSheet, error)
	GetSheetEntries(ctx context.Context, sheetID string) ([]storage.ResultEntry, error)
}

// MarksheetTool runs the teacher-only generate_marksheet pipeline:
// extract course and CT list, collect the teacher's own published
// sheets, render one XLSX workbook across the requested CTs.
type MarksheetTool struct {
	router  llm.Completer
	store   SheetStore
	gen     *docgen.MarksheetGenerator
	metrics *metrics.Metrics
	log     *logger.Logger
}

func NewMarksheetTool(router llm.Completer, store SheetStore, gen *docgen.MarksheetGenerator, m *metrics.Metrics, log *logger.Logger) *MarksheetTool {
	return &MarksheetTool{router: router, store: store, gen: gen, metrics: m, log: log}
}

func (t *MarksheetTool) Name() Name { return GenerateMarksheet }

func (t *MarksheetTool) Run(ctx context.Context, in Input) (Result, error) {
	if !in.Actor.IsTeacher() {
		return Result{Mode: ModeAnswer, Text: marksheetTeacherOnly}, nil
	}

	req, err := t.extract(ctx, in)
	if err != nil {
		if errors.Is(err, apperrors.ErrExtractionParse) {
			return Result{
				Mode:          ModeAsk,
				Question:      "Which course and which CT numbers should the marksheet cover?",
				MissingFields: []string{"course_code", "ct_no"},
			}, nil
		}
		return Result{}, err
	}

	if req.Mode == schema.ModeWrongTool {
		return Result{Mode: ModeWrongTool, Text: marksheetWrongToolText}, nil
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		var verr *apperrors.ValidationError
		if errors.As(err, &verr) {
			if t.metrics != nil {
				t.metrics.RecordValidationFailure(string(GenerateMarksheet), verr.Field)
			}
			return Result{
				Mode:          ModeAsk,
				Question:      "Please give me the course code and at least one CT number (like CSE-1202 CT-1 and CT-2).",
				MissingFields: []string{verr.Field},
			}, nil
		}
		return Result{}, err
	}

	if req.Mode == schema.ModeAsk {
		return Result{Mode: ModeAsk, Question: req.Question, MissingFields: req.MissingFields}, nil
	}

	scope := actorScope(in.Actor)
	sheets, err := t.store.ListTeacherSheets(ctx, in.Actor.ID, scope, req.CourseCode, req.CTNos)
	if err != nil {
		return Result{}, err
	}
	if len(sheets) == 0 {
		return Result{
			Mode: ModeAnswer,
			Text: fmt.Sprintf(marksheetNothingToBuild, req.CourseCode, ctListText(req.CTNos)),
		}, nil
	}

	data, err := t.collect(ctx, scope, req, sheets)
	if err != nil {
		return Result{}, err
	}

	path, err := t.gen.Generate(ctx, data)
	if err != nil {
		if t.metrics != nil {
			t.metrics.RecordDocument("marksheet", "error")
		}
		return Result{}, err
	}
	if t.metrics != nil {
		t.metrics.RecordDocument("marksheet", "success")
	}

	text := "🎉 Marksheet generated successfully.\nDownload: " + DocumentURL(path)
	if len(data.MissingCTs) > 0 {
		text += "\nNote: no marks published yet for " + ctListText(data.MissingCTs) + "."
	}
	return Result{Mode: ModeAnswer, Text: text, DocumentPath: path}, nil
}

func (t *MarksheetTool) extract(ctx context.Context, in Input) (schema.MarksheetRequest, error) {
	raw, err := t.router.Complete(ctx, llm.Request{
		System:      prompts.MarksheetExtract,
		Messages:    append(append([]llm.Message{}, in.History...), llm.Message{Role: llm.RoleUser, Content: in.Text}),
		JSONMode:    true,
		Temperature: 0,
		MaxTokens:   250,
	})
	if err != nil {
		return schema.MarksheetRequest{}, err
	}

	var req schema.MarksheetRequest
	if err := llm.DecodeLoose(raw, &req); err != nil {
		return schema.MarksheetRequest{}, err
	}
	return req, nil
}

// collect loads every sheet's entries and pivots them into the roll/CT
// grid, recording which requested CTs had no published sheet.
func (t *MarksheetTool) collect(ctx context.Context, scope storage.Scope, req schema.MarksheetRequest, sheets []storage.ResultSheet) (docgen.MarksheetData, error) {
	published := make(map[int]bool, len(sheets))
	marks := make(map[string]map[int]float64)

	for _, sheet := range sheets {
		published[sheet.CTNo] = true
		entries, err := t.store.GetSheetEntries(ctx, sheet.ID)
		if err != nil {
			return docgen.MarksheetData{}, err
		}
		for _, e := range entries {
			if marks[e.RollNo] == nil {
				marks[e.RollNo] = make(map[int]float64)
			}
			marks[e.RollNo][sheet.CTNo] = e.Marks
		}
	}

	var missing []int
	for _, ct := range req.CTNos {
		if !published[ct] {
			missing = append(missing, ct)
		}
	}

	return docgen.MarksheetData{
		CourseCode: req.CourseCode,
		Dept:       scope.Dept,
		Section:    scope.Section,
		Series:     scope.Series,
		CTNos:      req.CTNos,
		MissingCTs: missing,
		Marks:      marks,
	}, nil
}

func ctListText(cts []int) string {
	parts := make([]string, 0, len(cts))
	for _, ct := range cts {
		parts = append(parts, fmt.Sprintf("CT-%d", ct))
	}
	return strings.Join(parts, ", ")
}
