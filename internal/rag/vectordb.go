// Package rag provides ranked retrieval over notices and materials:
// chromem-go vector search fused with BM25 keyword search.
package rag

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/neuraruet/assistant-go/internal/logger"
	"github.com/neuraruet/assistant-go/internal/storage"
)

const (
	// NoticeCollectionName is the chromem collection holding notices.
	NoticeCollectionName = "notices"

	// MaterialCollectionName is the chromem collection holding materials,
	// used for the semantic fallback when a material query carries no
	// structured filters.
	MaterialCollectionName = "materials"

	// DefaultSearchResults is the default result count for semantic search.
	DefaultSearchResults = 10

	// MaxSearchResults caps how many results semantic search returns.
	MaxSearchResults = 50

	// MinSimilarityThreshold drops results that are not relevant enough.
	// Cosine similarity, 0.0 to 1.0.
	MinSimilarityThreshold float32 = 0.3
)

// VectorResult is one semantic hit. The ID resolves to a notice or
// material row in SQLite; the vector store never carries the full record.
type VectorResult struct {
	ID         string
	Similarity float32
}

// VectorDB wraps chromem-go for scoped semantic search. A nil *VectorDB
// is valid and disabled, so callers never branch on configuration.
type VectorDB struct {
	db            *chromem.DB
	notices       *chromem.Collection
	materials     *chromem.Collection
	embeddingFunc chromem.EmbeddingFunc
	logger        *logger.Logger
	mu            sync.RWMutex
	initialized   bool
}

// NewVectorDB creates a persistent vector database under persistDir.
// Returns nil when embeddingFunc is nil (semantic search disabled).
func NewVectorDB(persistDir string, embeddingFunc chromem.EmbeddingFunc, log *logger.Logger) (*VectorDB, error) {
	if embeddingFunc == nil {
		log.Info("embedding endpoint not configured, semantic search disabled")
		return nil, nil
	}

	chromemPath := filepath.Join(persistDir, "chromem")
	db, err := chromem.NewPersistentDB(chromemPath, false)
	if err != nil {
		return nil, fmt.Errorf("failed to create chromem database: %w", err)
	}

	return &VectorDB{
		db:            db,
		embeddingFunc: embeddingFunc,
		logger:        log,
	}, nil
}

// Initialize opens both collections and indexes any rows not yet
// embedded. Persisted embeddings survive restarts, so a warm start only
// embeds rows published since the last run.
func (v *VectorDB) Initialize(ctx context.Context, notices []*storage.Notice, materials []*storage.Material) error {
	if v == nil {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	noticeCol, err := v.db.GetOrCreateCollection(NoticeCollectionName, nil, v.embeddingFunc)
	if err != nil {
		return fmt.Errorf("failed to open notice collection: %w", err)
	}
	v.notices = noticeCol

	materialCol, err := v.db.GetOrCreateCollection(MaterialCollectionName, nil, v.embeddingFunc)
	if err != nil {
		return fmt.Errorf("failed to open material collection: %w", err)
	}
	v.materials = materialCol

	noticeDocs := make([]chromem.Document, 0, len(notices))
	for _, n := range notices {
		noticeDocs = append(noticeDocs, noticeDocument(n))
	}
	added, err := syncCollection(ctx, noticeCol, noticeDocs)
	if err != nil {
		return fmt.Errorf("failed to index notices: %w", err)
	}
	if added > 0 {
		v.logger.WithField("count", added).Info("indexed new notices for semantic search")
	}

	materialDocs := make([]chromem.Document, 0, len(materials))
	for _, m := range materials {
		materialDocs = append(materialDocs, materialDocument(m))
	}
	added, err = syncCollection(ctx, materialCol, materialDocs)
	if err != nil {
		return fmt.Errorf("failed to index materials: %w", err)
	}
	if added > 0 {
		v.logger.WithField("count", added).Info("indexed new materials for semantic search")
	}

	v.initialized = true
	return nil
}

// syncCollection embeds the documents not yet in the collection. Rows
// created while the service was down are picked up here; rows created
// while it runs arrive through the ingest handlers.
func syncCollection(ctx context.Context, col *chromem.Collection, docs []chromem.Document) (int, error) {
	var missing []chromem.Document
	for _, doc := range docs {
		if _, err := col.GetByID(ctx, doc.ID); err == nil {
			continue
		}
		missing = append(missing, doc)
	}
	if len(missing) == 0 {
		return 0, nil
	}
	if err := col.AddDocuments(ctx, missing, 4); err != nil {
		return 0, err
	}
	return len(missing), nil
}

// AddNotice embeds one newly published notice.
func (v *VectorDB) AddNotice(ctx context.Context, n *storage.Notice) error {
	if v == nil || v.notices == nil {
		return nil
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.notices.AddDocuments(ctx, []chromem.Document{noticeDocument(n)}, 1); err != nil {
		return fmt.Errorf("failed to index notice %s: %w", n.ID, err)
	}
	return nil
}

// AddMaterial embeds one newly uploaded material.
func (v *VectorDB) AddMaterial(ctx context.Context, m *storage.Material) error {
	if v == nil || v.materials == nil {
		return nil
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.materials.AddDocuments(ctx, []chromem.Document{materialDocument(m)}, 1); err != nil {
		return fmt.Errorf("failed to index material %s: %w", m.ID, err)
	}
	return nil
}

func noticeDocument(n *storage.Notice) chromem.Document {
	return chromem.Document{
		ID:      n.ID,
		Content: n.Title + "\n" + n.Message,
		Metadata: map[string]string{
			"dept":    n.Dept,
			"series":  n.Series,
			"section": n.Section,
		},
	}
}

func materialDocument(m *storage.Material) chromem.Document {
	parts := []string{m.CourseCode, m.CourseName, m.Topic, m.WrittenBy}
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return chromem.Document{
		ID:      m.ID,
		Content: strings.Join(kept, "\n"),
		Metadata: map[string]string{
			"dept":    m.Dept,
			"series":  m.Series,
			"section": m.Section,
			"type":    string(m.Type),
		},
	}
}

// SearchNotices runs scoped semantic search over notices. A sectioned
// actor sees their own section's notices plus sectionless ones, so two
// filtered queries are merged; an unsectioned scope searches the whole
// dept/series.
func (v *VectorDB) SearchNotices(ctx context.Context, query string, scope storage.Scope, nResults int) ([]VectorResult, error) {
	return v.search(ctx, v.notices, query, scope, nResults)
}

// SearchMaterials runs scoped semantic search over materials.
func (v *VectorDB) SearchMaterials(ctx context.Context, query string, scope storage.Scope, nResults int) ([]VectorResult, error) {
	return v.search(ctx, v.materials, query, scope, nResults)
}

func (v *VectorDB) search(ctx context.Context, col *chromem.Collection, query string, scope storage.Scope, nResults int) ([]VectorResult, error) {
	if v == nil || col == nil || strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if nResults <= 0 {
		nResults = DefaultSearchResults
	}
	if nResults > MaxSearchResults {
		nResults = MaxSearchResults
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	if col.Count() == 0 {
		return nil, nil
	}

	filters := []map[string]string{{"dept": scope.Dept, "series": scope.Series}}
	if scope.Section != "" {
		filters = []map[string]string{
			{"dept": scope.Dept, "series": scope.Series, "section": scope.Section},
			{"dept": scope.Dept, "series": scope.Series, "section": ""},
		}
	}

	seen := make(map[string]VectorResult)
	for _, where := range filters {
		limit := nResults
		if limit > col.Count() {
			limit = col.Count()
		}
		results, err := col.Query(ctx, query, limit, where, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to query collection: %w", err)
		}
		for _, r := range results {
			if r.Similarity < MinSimilarityThreshold {
				continue
			}
			if best, ok := seen[r.ID]; !ok || r.Similarity > best.Similarity {
				seen[r.ID] = VectorResult{ID: r.ID, Similarity: r.Similarity}
			}
		}
	}

	out := make([]VectorResult, 0, len(seen))
	for _, r := range seen {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if len(out) > nResults {
		out = out[:nResults]
	}
	return out, nil
}

// NoticeCount returns the number of indexed notices.
func (v *VectorDB) NoticeCount() int {
	if v == nil || v.notices == nil {
		return 0
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.notices.Count()
}

// IsEnabled reports whether semantic search is ready to serve.
func (v *VectorDB) IsEnabled() bool {
	if v == nil {
		return false
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.initialized
}
