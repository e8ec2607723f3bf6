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
	"github.com/neuraruet/assistant-go/internal/rag"
	"github.com/neuraruet/assistant-go/internal/retrieval"
	"github.com/neuraruet/assistant-go/internal/schema"
	"github.com/neuraruet/assistant-go/internal/storage"
)

const materialsWrongToolText = "Sorry, this request does not fall under the find materials tool's scope."

// MaterialLoader is the storage dependency for hydrating semantic hits.
type MaterialLoader interface {
	GetMaterialsByIDs(ctx context.Context, ids []string) ([]storage.Material, error)
}

// MaterialsTool runs the find_materials pipeline: sub-type detection,
// filter extraction, validated two-phase search, grounded answer.
type MaterialsTool struct {
	router   llm.Completer
	store    MaterialLoader
	searcher *retrieval.Searcher
	vectors  *rag.VectorDB // nil disables the semantic fallback
	synth    *answer.Synthesizer
	metrics  *metrics.Metrics
	log      *logger.Logger
}

func NewMaterialsTool(router llm.Completer, store MaterialLoader, searcher *retrieval.Searcher, vectors *rag.VectorDB, synth *answer.Synthesizer, m *metrics.Metrics, log *logger.Logger) *MaterialsTool {
	return &MaterialsTool{
		router:   router,
		store:    store,
		searcher: searcher,
		vectors:  vectors,
		synth:    synth,
		metrics:  m,
		log:      log,
	}
}

func (t *MaterialsTool) Name() Name { return FindMaterials }

func (t *MaterialsTool) Run(ctx context.Context, in Input) (Result, error) {
	materialType := t.detectType(ctx, in)

	q, err := t.extract(ctx, in, materialType)
	if err != nil {
		if errors.Is(err, apperrors.ErrExtractionParse) {
			t.log.WithRoom(in.Actor.ID).WithError(err).Warn("material extraction unparseable")
			return Result{
				Mode:     ModeAsk,
				Question: "Could you say which course or topic you need materials for?",
			}, nil
		}
		return Result{}, err
	}

	if q.Mode == schema.ModeWrongTool {
		return Result{Mode: ModeWrongTool, Text: materialsWrongToolText}, nil
	}

	// The detected sub-type always wins over whatever extraction echoed.
	q.MaterialType = materialType
	q.Normalize(in.Actor)

	if err := q.Validate(); err != nil {
		var verr *apperrors.ValidationError
		if errors.As(err, &verr) {
			if t.metrics != nil {
				t.metrics.RecordValidationFailure(string(FindMaterials), verr.Field)
			}
			return Result{
				Mode:     ModeAsk,
				Question: fmt.Sprintf("I could not use that request as-is (%s). Could you rephrase it?", verr.Message),
			}, nil
		}
		return Result{}, err
	}

	if q.Mode == schema.ModeAsk {
		return Result{Mode: ModeAsk, Question: q.Question, MissingFields: q.MissingFields}, nil
	}

	materials, broadened, err := t.search(ctx, in, q)
	if err != nil {
		return Result{}, err
	}
	if t.metrics != nil {
		t.metrics.RecordSearch("material", len(materials), broadened)
	}

	grounding, err := marshalMaterials(materials)
	if err != nil {
		return Result{}, err
	}
	text, err := t.synth.Materials(ctx, in.History, in.Text, grounding)
	if err != nil {
		return Result{}, err
	}
	return Result{Mode: ModeAnswer, Text: text}, nil
}

// detectType narrows the request to one material sub-type. Unparseable
// output falls back to class_note, mirroring the prompt's own default.
func (t *MaterialsTool) detectType(ctx context.Context, in Input) string {
	raw, err := t.router.Complete(ctx, llm.Request{
		System:      prompts.MaterialTypeDetect,
		Messages:    append(append([]llm.Message{}, in.History...), llm.Message{Role: llm.RoleUser, Content: in.Text}),
		JSONMode:    true,
		Temperature: 0,
		MaxTokens:   120,
	})
	if err != nil {
		t.log.WithError(err).Warn("material type detection failed, defaulting to class_note")
		return string(storage.MaterialClassNote)
	}

	var out struct {
		MaterialType string  `json:"material_type"`
		Confidence   float64 `json:"confidence"`
	}
	if err := llm.DecodeLoose(raw, &out); err != nil || !storage.MaterialType(out.MaterialType).Valid() {
		return string(storage.MaterialClassNote)
	}
	return out.MaterialType
}

func (t *MaterialsTool) extract(ctx context.Context, in Input, materialType string) (schema.MaterialQuery, error) {
	raw, err := t.router.Complete(ctx, llm.Request{
		System:      prompts.FindMaterialsExtract + "\n\nSystem context: material_type=" + materialType,
		Messages:    append(append([]llm.Message{}, in.History...), llm.Message{Role: llm.RoleUser, Content: in.Text}),
		JSONMode:    true,
		Temperature: 0,
		MaxTokens:   250,
	})
	if err != nil {
		return schema.MaterialQuery{}, err
	}

	var q schema.MaterialQuery
	if err := llm.DecodeLoose(raw, &q); err != nil {
		return schema.MaterialQuery{}, err
	}
	return q, nil
}

// search runs the structured two-phase search, or the semantic fallback
// when the query carries no usable filter at all.
func (t *MaterialsTool) search(ctx context.Context, in Input, q schema.MaterialQuery) ([]retrieval.ScoredMaterial, bool, error) {
	if q.HasStructuredFilter() || t.vectors == nil {
		res, err := t.searcher.Search(ctx, q)
		if err != nil {
			return nil, false, err
		}
		return res.Materials, res.Broadened, nil
	}

	hits, err := t.vectors.SearchMaterials(ctx, in.Text, actorScope(in.Actor), q.Limit)
	if err != nil {
		return nil, false, err
	}
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.ID)
	}
	rows, err := t.store.GetMaterialsByIDs(ctx, ids)
	if err != nil {
		return nil, false, err
	}
	out := make([]retrieval.ScoredMaterial, 0, len(rows))
	for _, m := range rows {
		out = append(out, retrieval.ScoredMaterial{Material: m})
	}
	return out, false, nil
}

// groundedMaterial is the JSON shape handed to answer synthesis.
type groundedMaterial struct {
	MaterialType string `json:"material_type"`
	DriveURL     string `json:"drive_url"`
	CourseCode   string `json:"course_code"`
	CourseName   string `json:"course_name"`
	Dept         string `json:"dept"`
	Section      string `json:"section"`
	Series       string `json:"series"`
	WrittenBy    string `json:"written_by,omitempty"`
	Topic        string `json:"topic,omitempty"`
	CTNo         int    `json:"ct_no,omitempty"`
	Year         int    `json:"year,omitempty"`
	CreatedAt    int64  `json:"created_at"`
}

func marshalMaterials(materials []retrieval.ScoredMaterial) (string, error) {
	out := make([]groundedMaterial, 0, len(materials))
	for _, sm := range materials {
		m := sm.Material
		out = append(out, groundedMaterial{
			MaterialType: string(m.Type),
			DriveURL:     m.DriveURL,
			CourseCode:   m.CourseCode,
			CourseName:   m.CourseName,
			Dept:         m.Dept,
			Section:      m.Section,
			Series:       m.Series,
			WrittenBy:    m.WrittenBy,
			Topic:        m.Topic,
			CTNo:         m.CTNo,
			Year:         m.Year,
			CreatedAt:    m.CreatedAt,
		})
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("marshal materials grounding: %w", err)
	}
	return string(b), nil
}
