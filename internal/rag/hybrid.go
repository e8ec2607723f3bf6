package rag

import (
	"context"
	"sync"

	"github.com/neuraruet/assistant-go/internal/logger"
	"github.com/neuraruet/assistant-go/internal/storage"
)

// Hit is one ranked notice reference from hybrid search. The caller
// hydrates full rows from SQLite by ID.
type Hit struct {
	ID    string
	Score float32 // similarity when available, else rank-derived confidence
}

// HybridSearcher combines BM25 keyword search and vector semantic
// search over notices using Reciprocal Rank Fusion. Either source may
// be nil or disabled; the other then serves alone at full weight.
type HybridSearcher struct {
	vectorDB  *VectorDB
	bm25Index *BM25Index
	logger    *logger.Logger
}

func NewHybridSearcher(vectorDB *VectorDB, bm25Index *BM25Index, log *logger.Logger) *HybridSearcher {
	return &HybridSearcher{
		vectorDB:  vectorDB,
		bm25Index: bm25Index,
		logger:    log,
	}
}

// Search runs both sources in parallel and fuses their rankings.
// A source error degrades to the other source rather than failing the
// whole lookup.
func (h *HybridSearcher) Search(ctx context.Context, query string, scope storage.Scope, topN int) ([]Hit, error) {
	if h == nil {
		return nil, nil
	}

	vectorEnabled := h.vectorDB.IsEnabled()
	bm25Enabled := h.bm25Index.IsEnabled()
	if !vectorEnabled && !bm25Enabled {
		return nil, nil
	}

	// Overfetch so fusion has enough overlap to work with.
	fetchN := topN * 3
	if fetchN < 30 {
		fetchN = 30
	}

	var (
		bm25Results   []BM25Result
		vectorResults []VectorResult
		bm25Err       error
		vectorErr     error
		wg            sync.WaitGroup
	)

	if bm25Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bm25Results, bm25Err = h.bm25Index.Search(query, scope, fetchN)
		}()
	}
	if vectorEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vectorResults, vectorErr = h.vectorDB.SearchNotices(ctx, query, scope, fetchN)
		}()
	}
	wg.Wait()

	if bm25Err != nil {
		h.logger.WithError(bm25Err).Warn("BM25 search failed")
	}
	if vectorErr != nil {
		h.logger.WithError(vectorErr).Warn("vector search failed")
	}

	if len(bm25Results) == 0 {
		hits := make([]Hit, 0, min(len(vectorResults), topN))
		for _, r := range vectorResults {
			if len(hits) >= topN {
				break
			}
			hits = append(hits, Hit{ID: r.ID, Score: r.Similarity})
		}
		return hits, nil
	}

	if len(vectorResults) == 0 {
		hits := make([]Hit, 0, min(len(bm25Results), topN))
		for _, r := range bm25Results {
			if len(hits) >= topN {
				break
			}
			hits = append(hits, Hit{ID: r.ID, Score: rankConfidence(r.Rank)})
		}
		return hits, nil
	}

	fused := FuseRRFWithDefaults(bm25Results, vectorResults, topN)
	h.logger.WithFields(map[string]any{
		"bm25_count":   len(bm25Results),
		"vector_count": len(vectorResults),
		"fused_count":  len(fused),
	}).Debug("hybrid notice search completed")

	hits := make([]Hit, 0, len(fused))
	for _, r := range fused {
		score := r.VectorSim
		if score == 0 && fused[0].RRFScore > 0 {
			score = float32(r.RRFScore / fused[0].RRFScore)
		}
		hits = append(hits, Hit{ID: r.ID, Score: score})
	}
	return hits, nil
}

// rankConfidence maps a BM25 rank to a 0-1 confidence. BM25 scores are
// unbounded and query-dependent, so rank position is the honest proxy.
// rank 1 -> 0.95, rank 10 -> 0.67, rank 20 -> 0.50.
func rankConfidence(rank int) float32 {
	if rank <= 0 {
		return 0
	}
	return float32(1.0 / (1.0 + 0.05*float64(rank)))
}

// Initialize builds both indexes from the stored corpus.
func (h *HybridSearcher) Initialize(ctx context.Context, notices []*storage.Notice, materials []*storage.Material) error {
	if h == nil {
		return nil
	}
	if h.bm25Index != nil {
		if err := h.bm25Index.Initialize(notices); err != nil {
			return err
		}
	}
	if h.vectorDB != nil {
		if err := h.vectorDB.Initialize(ctx, notices, materials); err != nil {
			return err
		}
	}
	return nil
}

// AddNotice indexes one newly published notice in both sources.
func (h *HybridSearcher) AddNotice(ctx context.Context, n *storage.Notice) error {
	if h == nil {
		return nil
	}
	if err := h.bm25Index.Add(ctx, n); err != nil {
		return err
	}
	return h.vectorDB.AddNotice(ctx, n)
}

// AddMaterial indexes one newly uploaded material. Only the semantic
// tier holds materials; BM25 covers notices.
func (h *HybridSearcher) AddMaterial(ctx context.Context, m *storage.Material) error {
	if h == nil {
		return nil
	}
	return h.vectorDB.AddMaterial(ctx, m)
}

// IsEnabled reports whether at least one source can serve.
func (h *HybridSearcher) IsEnabled() bool {
	if h == nil {
		return false
	}
	return h.vectorDB.IsEnabled() || h.bm25Index.IsEnabled()
}

// VectorDB exposes the vector store for the material semantic fallback.
func (h *HybridSearcher) VectorDB() *VectorDB {
	if h == nil {
		return nil
	}
	return h.vectorDB
}
