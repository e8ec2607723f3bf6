package rag

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	bm25 "github.com/iwilltry42/bm25-go/bm25"

	"github.com/neuraruet/assistant-go/internal/logger"
	"github.com/neuraruet/assistant-go/internal/storage"
)

// BM25Result is one keyword hit over the notice corpus.
type BM25Result struct {
	ID    string
	Score float64 // BM25 score, higher is better
	Rank  int     // 1-indexed rank position
}

// noticeDoc is the indexed form of one notice. Scope rides along so
// search can enforce visibility after scoring.
type noticeDoc struct {
	id      string
	dept    string
	series  string
	section string
}

// BM25Index provides keyword search over notices. BM25 needs the full
// corpus for IDF, so additions rebuild the index; notice volume is
// small enough that rebuilds are cheap.
type BM25Index struct {
	bm25Okapi   *bm25.BM25Okapi
	corpus      []string
	docs        []noticeDoc
	logger      *logger.Logger
	mu          sync.RWMutex
	initialized bool
}

func NewBM25Index(log *logger.Logger) *BM25Index {
	return &BM25Index{logger: log}
}

// Initialize builds the index from all stored notices.
func (idx *BM25Index) Initialize(notices []*storage.Notice) error {
	if idx == nil {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.rebuild(notices)
}

// rebuild replaces the corpus and re-creates the Okapi scorer.
// Caller holds the write lock.
func (idx *BM25Index) rebuild(notices []*storage.Notice) error {
	idx.corpus = nil
	idx.docs = nil
	idx.bm25Okapi = nil

	for _, n := range notices {
		text := strings.TrimSpace(n.Title + " " + n.Message)
		if text == "" {
			continue
		}
		idx.corpus = append(idx.corpus, text)
		idx.docs = append(idx.docs, noticeDoc{
			id:      n.ID,
			dept:    n.Dept,
			series:  n.Series,
			section: n.Section,
		})
	}

	if len(idx.corpus) == 0 {
		idx.initialized = true
		return nil
	}

	// k1=1.5, b=0.75 are the standard Okapi parameters.
	okapi, err := bm25.NewBM25Okapi(idx.corpus, tokenize, 1.5, 0.75, nil)
	if err != nil {
		return fmt.Errorf("failed to create BM25 index: %w", err)
	}
	idx.bm25Okapi = okapi
	idx.initialized = true

	idx.logger.WithField("docs", len(idx.corpus)).Info("BM25 notice index initialized")
	return nil
}

// Add indexes one newly published notice. Context parameter is for API
// symmetry with the vector store.
func (idx *BM25Index) Add(_ context.Context, n *storage.Notice) error {
	if idx == nil || n == nil {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	notices := make([]*storage.Notice, 0, len(idx.docs)+1)
	for i, d := range idx.docs {
		notices = append(notices, &storage.Notice{
			ID: d.id, Title: idx.corpus[i],
			Dept: d.dept, Series: d.series, Section: d.section,
		})
	}
	notices = append(notices, n)
	return idx.rebuild(notices)
}

// Search scores the query against every notice visible to the scope.
// A sectioned scope sees its own section plus sectionless notices.
func (idx *BM25Index) Search(query string, scope storage.Scope, topN int) ([]BM25Result, error) {
	if idx == nil || strings.TrimSpace(query) == "" {
		return nil, nil
	}
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	// State checks belong under the lock: Add and Initialize replace
	// the scorer while holding the write side.
	if !idx.initialized || idx.bm25Okapi == nil {
		return nil, nil
	}

	scores, err := idx.bm25Okapi.GetScores(tokens)
	if err != nil {
		return nil, fmt.Errorf("BM25 scoring failed: %w", err)
	}

	var results []BM25Result
	for docID, score := range scores {
		if score <= 0 {
			continue
		}
		doc := idx.docs[docID]
		if !scopeVisible(doc, scope) {
			continue
		}
		results = append(results, BM25Result{ID: doc.id, Score: score})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	for i := range results {
		results[i].Rank = i + 1
	}
	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	return results, nil
}

func scopeVisible(doc noticeDoc, scope storage.Scope) bool {
	if doc.dept != scope.Dept || doc.series != scope.Series {
		return false
	}
	if scope.Section == "" {
		return true
	}
	return doc.section == "" || doc.section == scope.Section
}

// IsEnabled reports whether the index is built and searchable.
func (idx *BM25Index) IsEnabled() bool {
	if idx == nil {
		return false
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.initialized && idx.bm25Okapi != nil
}

// Count returns the number of indexed notices.
func (idx *BM25Index) Count() int {
	if idx == nil {
		return 0
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.corpus)
}

// tokenize lowercases and splits on anything that is not a letter or
// digit. Notice text is English with course codes mixed in, so plain
// word tokens are enough.
func tokenize(text string) []string {
	text = strings.ToLower(text)

	var tokens []string
	var word strings.Builder
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			word.WriteRune(r)
			continue
		}
		if word.Len() > 0 {
			tokens = append(tokens, word.String())
			word.Reset()
		}
	}
	if word.Len() > 0 {
		tokens = append(tokens, word.String())
	}
	return tokens
}
