package rag

import (
	"sort"
)

const (
	// RRFConstant is the k in the RRF formula 1 / (k + rank). The
	// standard value 60 balances top-rank weight against long-tail recall.
	RRFConstant = 60

	// DefaultBM25Weight gives keyword search 40% of the fused score;
	// vector search carries the remaining 60%.
	DefaultBM25Weight = 0.4
)

// HybridResult is one fused hit with its per-source provenance.
type HybridResult struct {
	ID         string
	BM25Score  float64 // raw BM25 score, 0 if keyword search missed it
	VectorSim  float32 // cosine similarity, 0 if vector search missed it
	RRFScore   float64
	BM25Rank   int // 0 if not in BM25 results
	VectorRank int // 0 if not in vector results
}

// FuseRRF combines keyword and vector results with Reciprocal Rank
// Fusion: score(d) = Σ w_i / (k + rank_i). Results are sorted by fused
// score descending and truncated to topN.
func FuseRRF(bm25Results []BM25Result, vectorResults []VectorResult, bm25Weight float64, topN int) []HybridResult {
	if bm25Weight < 0 {
		bm25Weight = 0
	}
	if bm25Weight > 1 {
		bm25Weight = 1
	}
	vectorWeight := 1.0 - bm25Weight

	resultMap := make(map[string]*HybridResult)

	for i, r := range bm25Results {
		rank := i + 1
		score := bm25Weight / float64(RRFConstant+rank)
		if existing, ok := resultMap[r.ID]; ok {
			existing.BM25Score = r.Score
			existing.BM25Rank = rank
			existing.RRFScore += score
		} else {
			resultMap[r.ID] = &HybridResult{
				ID:        r.ID,
				BM25Score: r.Score,
				BM25Rank:  rank,
				RRFScore:  score,
			}
		}
	}

	for i, r := range vectorResults {
		rank := i + 1
		score := vectorWeight / float64(RRFConstant+rank)
		if existing, ok := resultMap[r.ID]; ok {
			existing.VectorSim = r.Similarity
			existing.VectorRank = rank
			existing.RRFScore += score
		} else {
			resultMap[r.ID] = &HybridResult{
				ID:         r.ID,
				VectorSim:  r.Similarity,
				VectorRank: rank,
				RRFScore:   score,
			}
		}
	}

	results := make([]HybridResult, 0, len(resultMap))
	for _, r := range resultMap {
		results = append(results, *r)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].RRFScore != results[j].RRFScore {
			return results[i].RRFScore > results[j].RRFScore
		}
		return results[i].ID < results[j].ID
	})

	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	return results
}

// FuseRRFWithDefaults fuses with the standard 0.4 / 0.6 split.
func FuseRRFWithDefaults(bm25Results []BM25Result, vectorResults []VectorResult, topN int) []HybridResult {
	return FuseRRF(bm25Results, vectorResults, DefaultBM25Weight, topN)
}
