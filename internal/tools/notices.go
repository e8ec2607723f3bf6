package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/neuraruet/assistant-go/internal/answer"
	"github.com/neuraruet/assistant-go/internal/logger"
	"github.com/neuraruet/assistant-go/internal/metrics"
	"github.com/neuraruet/assistant-go/internal/rag"
	"github.com/neuraruet/assistant-go/internal/storage"
)

// noticeFetchLimit bounds how many ranked notices reach the answer call.
const noticeFetchLimit = 10

// NoticeStore is the storage dependency for hydrating ranked hits.
type NoticeStore interface {
	GetNoticesByIDs(ctx context.Context, ids []string) ([]storage.Notice, error)
	ListNotices(ctx context.Context, scope storage.Scope) ([]storage.Notice, error)
}

// NoticesTool runs the view_notices pipeline: hybrid ranked retrieval
// over the scoped notice corpus, then a grounded answer. There is no
// extraction stage; the raw message is the retrieval query and the
// answer prompt enforces relevance and wrong-tool redirects.
type NoticesTool struct {
	store    NoticeStore
	searcher *rag.HybridSearcher
	synth    *answer.Synthesizer
	metrics  *metrics.Metrics
	log      *logger.Logger
}

func NewNoticesTool(store NoticeStore, searcher *rag.HybridSearcher, synth *answer.Synthesizer, m *metrics.Metrics, log *logger.Logger) *NoticesTool {
	return &NoticesTool{
		store:    store,
		searcher: searcher,
		synth:    synth,
		metrics:  m,
		log:      log,
	}
}

func (t *NoticesTool) Name() Name { return ViewNotices }

func (t *NoticesTool) Run(ctx context.Context, in Input) (Result, error) {
	scope := actorScope(in.Actor)

	notices, err := t.retrieve(ctx, in.Text, scope)
	if err != nil {
		return Result{}, err
	}
	if t.metrics != nil {
		t.metrics.RecordSearch("notice", len(notices), false)
	}

	grounding, err := marshalNotices(notices)
	if err != nil {
		return Result{}, err
	}
	text, err := t.synth.Notices(ctx, in.History, in.Text, grounding)
	if err != nil {
		return Result{}, err
	}
	return Result{Mode: ModeAnswer, Text: text}, nil
}

// retrieve ranks notices with hybrid search, hydrating full rows from
// SQLite. When the indexes are unavailable it falls back to plain
// scoped recency so the tool still answers.
func (t *NoticesTool) retrieve(ctx context.Context, query string, scope storage.Scope) ([]storage.Notice, error) {
	if t.searcher.IsEnabled() {
		hits, err := t.searcher.Search(ctx, query, scope, noticeFetchLimit)
		if err != nil {
			t.log.WithError(err).Warn("hybrid notice search failed, falling back to recency")
		} else if len(hits) > 0 {
			ids := make([]string, 0, len(hits))
			for _, h := range hits {
				ids = append(ids, h.ID)
			}
			return t.store.GetNoticesByIDs(ctx, ids)
		}
	}

	notices, err := t.store.ListNotices(ctx, scope)
	if err != nil {
		return nil, err
	}
	if len(notices) > noticeFetchLimit {
		notices = notices[:noticeFetchLimit]
	}
	return notices, nil
}

// groundedNotice is the JSON shape handed to answer synthesis.
type groundedNotice struct {
	Title         string `json:"title"`
	Message       string `json:"message"`
	CreatedByRole string `json:"created_by_role"`
	CreatedByName string `json:"created_by_name"`
	Section       string `json:"section,omitempty"`
	Series        string `json:"series"`
	CreatedAt     string `json:"created_at"`
}

func marshalNotices(notices []storage.Notice) (string, error) {
	out := make([]groundedNotice, 0, len(notices))
	for _, n := range notices {
		out = append(out, groundedNotice{
			Title:         n.Title,
			Message:       n.Message,
			CreatedByRole: n.CreatedByRole,
			CreatedByName: n.CreatedByName,
			Section:       n.Section,
			Series:        n.Series,
			CreatedAt:     time.Unix(n.CreatedAt, 0).UTC().Format(time.RFC3339),
		})
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("marshal notices grounding: %w", err)
	}
	return string(b), nil
}
