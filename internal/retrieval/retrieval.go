// Package retrieval runs the structured material search: a strict pass
// where every extracted filter must hold, then a broad pass that relaxes
// free-text filters to any-of when the strict pass finds nothing.
// Scope and numeric filters are hard in both passes. Results are ranked
// by weighted field-match score before pagination.
package retrieval

import (
	"context"
	"sort"
	"strings"

	"github.com/neuraruet/assistant-go/internal/schema"
	"github.com/neuraruet/assistant-go/internal/storage"
)

// Field-match weights. An exact course code is worth more than every
// free-text field combined, so a precise query cannot be outranked by
// fuzzy matches.
const (
	weightCourseCodeExact   = 100
	weightCourseCodePartial = 60
	weightCourseName        = 50
	weightTopic             = 40
	weightWrittenBy         = 20
	weightNumericBonus      = 20
)

// ScoredMaterial pairs a material with its ranking score.
type ScoredMaterial struct {
	Material storage.Material
	Score    int
}

// Result reports which pass produced the hits.
type Result struct {
	Materials []ScoredMaterial
	Broadened bool // true when the strict pass was empty and broad matching kicked in
	Total     int  // matches before pagination
}

// MaterialLister is the storage dependency: scoped rows of one sub-type.
type MaterialLister interface {
	ListMaterials(ctx context.Context, t storage.MaterialType, scope storage.Scope) ([]storage.Material, error)
}

// Searcher executes material queries against storage.
type Searcher struct {
	store MaterialLister
}

func NewSearcher(store MaterialLister) *Searcher {
	return &Searcher{store: store}
}

// Search runs the two-phase search for an already-validated query.
// Ranking is stable: equal scores keep recency order, equal timestamps
// keep insertion order.
func (s *Searcher) Search(ctx context.Context, q schema.MaterialQuery) (Result, error) {
	scope := storage.Scope{Dept: q.Dept, Series: q.Series, Section: q.Sec}
	rows, err := s.store.ListMaterials(ctx, storage.MaterialType(q.MaterialType), scope)
	if err != nil {
		return Result{}, err
	}

	matched := filterMaterials(rows, q, false)
	broadened := false
	if len(matched) == 0 && q.HasStructuredFilter() {
		matched = filterMaterials(rows, q, true)
		broadened = len(matched) > 0
	}

	scored := make([]ScoredMaterial, 0, len(matched))
	for _, m := range matched {
		scored = append(scored, ScoredMaterial{Material: m, Score: scoreMaterial(m, q)})
	}
	rank(scored, q.SortBy)

	total := len(scored)
	scored = paginate(scored, q.Offset, q.Limit)
	return Result{Materials: scored, Broadened: broadened, Total: total}, nil
}

// filterMaterials applies the filter predicate. In the strict pass every
// present filter must hold. In the broad pass free-text filters become
// any-of while numeric filters stay hard.
func filterMaterials(rows []storage.Material, q schema.MaterialQuery, broad bool) []storage.Material {
	var out []storage.Material
	for _, m := range rows {
		if q.CTNo != nil && m.CTNo != *q.CTNo {
			continue
		}
		if q.Year != nil && m.Year != *q.Year {
			continue
		}
		if broad {
			if matchesAnyText(m, q) {
				out = append(out, m)
			}
			continue
		}
		if matchesAllText(m, q) {
			out = append(out, m)
		}
	}
	return out
}

func matchesAllText(m storage.Material, q schema.MaterialQuery) bool {
	if q.CourseCode != "" && !courseCodeMatches(m.CourseCode, q) {
		return false
	}
	if q.CourseName != "" && !containsFold(m.CourseName, q.CourseName) {
		return false
	}
	if q.Topic != "" && !containsFold(m.Topic, q.Topic) {
		return false
	}
	if q.WrittenBy != "" && !containsFold(m.WrittenBy, q.WrittenBy) {
		return false
	}
	return true
}

func matchesAnyText(m storage.Material, q schema.MaterialQuery) bool {
	hasText := false
	if q.CourseCode != "" {
		hasText = true
		if courseCodeMatches(m.CourseCode, q) {
			return true
		}
	}
	if q.CourseName != "" {
		hasText = true
		if containsFold(m.CourseName, q.CourseName) {
			return true
		}
	}
	if q.Topic != "" {
		hasText = true
		if containsFold(m.Topic, q.Topic) {
			return true
		}
	}
	if q.WrittenBy != "" {
		hasText = true
		if containsFold(m.WrittenBy, q.WrittenBy) {
			return true
		}
	}
	// Numeric-only query: the hard numeric filters already passed.
	return !hasText
}

func courseCodeMatches(have string, q schema.MaterialQuery) bool {
	if q.MatchMode == schema.MatchExact {
		return strings.EqualFold(have, q.CourseCode)
	}
	return containsFold(have, q.CourseCode)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func scoreMaterial(m storage.Material, q schema.MaterialQuery) int {
	score := 0
	if q.CourseCode != "" {
		if strings.EqualFold(m.CourseCode, q.CourseCode) {
			score += weightCourseCodeExact
		} else if containsFold(m.CourseCode, q.CourseCode) {
			score += weightCourseCodePartial
		}
	}
	if q.CourseName != "" && containsFold(m.CourseName, q.CourseName) {
		score += weightCourseName
	}
	if q.Topic != "" && containsFold(m.Topic, q.Topic) {
		score += weightTopic
	}
	if q.WrittenBy != "" && containsFold(m.WrittenBy, q.WrittenBy) {
		score += weightWrittenBy
	}
	if q.CTNo != nil && m.CTNo == *q.CTNo {
		score += weightNumericBonus
	}
	if q.Year != nil && m.Year == *q.Year {
		score += weightNumericBonus
	}
	return score
}

// rank orders by score descending, then created_at in the requested
// direction. SliceStable preserves storage order for full ties.
func rank(scored []ScoredMaterial, sortBy string) {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if sortBy == schema.SortOldest {
			return scored[i].Material.CreatedAt < scored[j].Material.CreatedAt
		}
		return scored[i].Material.CreatedAt > scored[j].Material.CreatedAt
	})
}

func paginate(scored []ScoredMaterial, offset, limit int) []ScoredMaterial {
	if offset >= len(scored) {
		return nil
	}
	scored = scored[offset:]
	if limit > 0 && limit < len(scored) {
		scored = scored[:limit]
	}
	return scored
}
