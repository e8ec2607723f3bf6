package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuraruet/assistant-go/internal/schema"
	"github.com/neuraruet/assistant-go/internal/storage"
)

type memLister struct {
	rows []storage.Material
}

func (m *memLister) ListMaterials(_ context.Context, t storage.MaterialType, _ storage.Scope) ([]storage.Material, error) {
	var out []storage.Material
	for _, r := range m.rows {
		if r.Type == t {
			out = append(out, r)
		}
	}
	return out, nil
}

func intPtr(n int) *int { return &n }

func baseQuery(mt string) schema.MaterialQuery {
	return schema.MaterialQuery{
		Mode:         schema.ModeQuery,
		MaterialType: mt,
		Dept:         "CSE",
		Series:       "21",
		MatchMode:    schema.MatchContains,
		SortBy:       schema.SortNewest,
		Limit:        10,
	}
}

func TestSearch_StrictAllFiltersMustHold(t *testing.T) {
	t.Parallel()

	lister := &memLister{rows: []storage.Material{
		{ID: "a", Type: storage.MaterialClassNote, CourseCode: "CSE-2100", CourseName: "Algorithms", WrittenBy: "Karim", CreatedAt: 1},
		{ID: "b", Type: storage.MaterialClassNote, CourseCode: "CSE-2100", CourseName: "Algorithms", WrittenBy: "Rahim", CreatedAt: 2},
	}}
	s := NewSearcher(lister)

	q := baseQuery("class_note")
	q.CourseCode = "CSE-2100"
	q.WrittenBy = "karim"

	res, err := s.Search(context.Background(), q)
	require.NoError(t, err)
	assert.False(t, res.Broadened)
	require.Len(t, res.Materials, 1)
	assert.Equal(t, "a", res.Materials[0].Material.ID)
}

func TestSearch_BroadensOnlyWhenStrictEmpty(t *testing.T) {
	t.Parallel()

	lister := &memLister{rows: []storage.Material{
		{ID: "a", Type: storage.MaterialLectureSlide, CourseCode: "CSE-2100", Topic: "dynamic programming", CreatedAt: 1},
	}}
	s := NewSearcher(lister)

	// Strict requires both; course name never matches, topic does.
	q := baseQuery("lecture_slide")
	q.CourseName = "quantum basket weaving"
	q.Topic = "dynamic"

	res, err := s.Search(context.Background(), q)
	require.NoError(t, err)
	assert.True(t, res.Broadened)
	require.Len(t, res.Materials, 1)
	assert.Equal(t, "a", res.Materials[0].Material.ID)
}

func TestSearch_NumericFiltersStayHardInBroadPass(t *testing.T) {
	t.Parallel()

	lister := &memLister{rows: []storage.Material{
		{ID: "ct1", Type: storage.MaterialCTQuestion, CourseCode: "CSE-2100", CTNo: 1, CreatedAt: 1},
		{ID: "ct2", Type: storage.MaterialCTQuestion, CourseCode: "CSE-2100", CTNo: 2, CreatedAt: 2},
	}}
	s := NewSearcher(lister)

	q := baseQuery("ct_question")
	q.CourseCode = "EEE-9999" // forces broadening
	q.CTNo = intPtr(2)

	res, err := s.Search(context.Background(), q)
	require.NoError(t, err)
	assert.Empty(t, res.Materials, "broad pass must not relax ct_no")
}

func TestSearch_ExactCodeOutranksFuzzyMatches(t *testing.T) {
	t.Parallel()

	lister := &memLister{rows: []storage.Material{
		{ID: "fuzzy", Type: storage.MaterialClassNote, CourseCode: "CSE-2101", CourseName: "algo", WrittenBy: "algo fan", CreatedAt: 100},
		{ID: "exact", Type: storage.MaterialClassNote, CourseCode: "CSE-2100", CreatedAt: 1},
	}}
	s := NewSearcher(lister)

	q := baseQuery("class_note")
	q.CourseCode = "CSE-210" // partial hit on both; nothing exact
	res, err := s.Search(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, res.Materials, 2)

	q2 := baseQuery("class_note")
	q2.CourseCode = "CSE-2100"
	q2.MatchMode = schema.MatchExact
	res2, err := s.Search(context.Background(), q2)
	require.NoError(t, err)
	require.Len(t, res2.Materials, 1)
	assert.Equal(t, "exact", res2.Materials[0].Material.ID)
	assert.Equal(t, 100, res2.Materials[0].Score)
}

func TestSearch_RankingStableAndDirectional(t *testing.T) {
	t.Parallel()

	lister := &memLister{rows: []storage.Material{
		{ID: "old", Type: storage.MaterialSemesterQuestion, CourseCode: "CSE-2100", Year: 2022, CreatedAt: 10},
		{ID: "new", Type: storage.MaterialSemesterQuestion, CourseCode: "CSE-2100", Year: 2022, CreatedAt: 20},
		{ID: "tie1", Type: storage.MaterialSemesterQuestion, CourseCode: "CSE-2100", Year: 2022, CreatedAt: 15},
		{ID: "tie2", Type: storage.MaterialSemesterQuestion, CourseCode: "CSE-2100", Year: 2022, CreatedAt: 15},
	}}
	s := NewSearcher(lister)

	q := baseQuery("semester_question")
	q.CourseCode = "CSE-2100"
	q.Year = intPtr(2022)

	res, err := s.Search(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, res.Materials, 4)
	assert.Equal(t, "new", res.Materials[0].Material.ID)
	// Full tie keeps storage order.
	assert.Equal(t, "tie1", res.Materials[1].Material.ID)
	assert.Equal(t, "tie2", res.Materials[2].Material.ID)
	assert.Equal(t, "old", res.Materials[3].Material.ID)

	q.SortBy = schema.SortOldest
	res, err = s.Search(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, "old", res.Materials[0].Material.ID)
}

func TestSearch_PaginationAfterRanking(t *testing.T) {
	t.Parallel()

	rows := make([]storage.Material, 0, 5)
	for i := 1; i <= 5; i++ {
		rows = append(rows, storage.Material{
			ID: string(rune('a' + i - 1)), Type: storage.MaterialClassNote,
			CourseCode: "CSE-2100", CreatedAt: int64(i),
		})
	}
	s := NewSearcher(&memLister{rows: rows})

	q := baseQuery("class_note")
	q.CourseCode = "CSE-2100"
	q.Limit = 2
	q.Offset = 2

	res, err := s.Search(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Total)
	require.Len(t, res.Materials, 2)
	// Newest first: e(5) d(4) | c(3) b(2) | a(1)
	assert.Equal(t, "c", res.Materials[0].Material.ID)
	assert.Equal(t, "b", res.Materials[1].Material.ID)

	q.Offset = 99
	res, err = s.Search(context.Background(), q)
	require.NoError(t, err)
	assert.Empty(t, res.Materials)
}

func TestSearch_NoFiltersReturnsScopedRecency(t *testing.T) {
	t.Parallel()

	lister := &memLister{rows: []storage.Material{
		{ID: "a", Type: storage.MaterialClassNote, CourseCode: "CSE-1101", CreatedAt: 1},
		{ID: "b", Type: storage.MaterialClassNote, CourseCode: "CSE-1102", CreatedAt: 2},
	}}
	s := NewSearcher(lister)

	res, err := s.Search(context.Background(), baseQuery("class_note"))
	require.NoError(t, err)
	assert.False(t, res.Broadened)
	require.Len(t, res.Materials, 2)
	assert.Equal(t, "b", res.Materials[0].Material.ID)
}
