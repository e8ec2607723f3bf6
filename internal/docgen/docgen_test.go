package docgen

import (
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/neuraruet/assistant-go/internal/schema"
)

func fixedNow() time.Time {
	return time.Date(2025, 8, 23, 14, 25, 1, 0, time.UTC)
}

func coverFields() schema.CoverFields {
	return schema.CoverFields{
		CoverTypeNo:        "3",
		CoverTypeTitle:     "Implementation of binary search trees",
		CourseCode:         "CSE-2102",
		CourseTitle:        "Data Structures Sessional",
		DateOfExp:          "23 July, 2025",
		DateOfSubmission:   "30 July, 2025",
		Session:            "2024-25",
		TeacherName:        "Dr. Rahman",
		TeacherDesignation: "Professor",
		TeacherDept:        "Department of Computer Science & Engineering",
		FullName:           "Nadia Islam",
		RollNo:             "2103087",
		Dept:               "Department of Computer Science & Engineering",
		Section:            "B",
		Series:             "Series 21",
	}
}

func TestCoverGenerator_WritesDecodablePNG(t *testing.T) {
	t.Parallel()

	g, err := NewCoverGenerator(t.TempDir())
	require.NoError(t, err)
	g.now = fixedNow

	path, err := g.Generate(context.Background(), schema.CoverLabReport, coverFields())
	require.NoError(t, err)

	assert.Equal(t, "CSE-2102_Exp-03_Roll-2103087_20250823_142501.png", filepath.Base(path))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	img, err := png.Decode(file)
	require.NoError(t, err, "written file must be a valid PNG")
	assert.Equal(t, coverWidth, img.Bounds().Dx())
	assert.Equal(t, coverHeight, img.Bounds().Dy())
}

func TestCoverGenerator_FilenameTagsPerType(t *testing.T) {
	t.Parallel()

	g, err := NewCoverGenerator(t.TempDir())
	require.NoError(t, err)
	g.now = fixedNow

	f := coverFields()
	f.DateOfExp = ""

	path, err := g.Generate(context.Background(), schema.CoverAssignment, f)
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(path), "_Ass-03_")

	path, err = g.Generate(context.Background(), schema.CoverReport, f)
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(path), "_Report-03_")

	_, err = g.Generate(context.Background(), "poster", f)
	assert.Error(t, err)
}

func TestCoverGenerator_SanitizesHostileValues(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	g, err := NewCoverGenerator(dir)
	require.NoError(t, err)
	g.now = fixedNow

	f := coverFields()
	f.CourseCode = "../../etc/passwd"
	f.RollNo = "21/03#087"

	path, err := g.Generate(context.Background(), schema.CoverLabReport, f)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.NotContains(t, filepath.Base(path), "/")
	assert.NotContains(t, filepath.Base(path), "..")
}

func TestMarksheetGenerator_WritesWorkbook(t *testing.T) {
	t.Parallel()

	g, err := NewMarksheetGenerator(t.TempDir())
	require.NoError(t, err)
	g.now = fixedNow

	data := MarksheetData{
		CourseCode: "CSE-1202",
		Dept:       "CSE",
		Section:    "B",
		Series:     "21",
		CTNos:      []int{1, 2},
		MissingCTs: []int{3},
		Marks: map[string]map[int]float64{
			"2103142": {1: 12, 2: 15.5},
			"2103141": {1: 17.5}, // never sat CT-2
		},
	}

	path, err := g.Generate(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, "CSE-1202_Marksheet_CT-1-2_20250823_142501.xlsx", filepath.Base(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	get := func(cell string) string {
		v, err := f.GetCellValue(marksheetSheetName, cell)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "CT Marks - CSE-1202", get("A1"))
	assert.Equal(t, "Roll", get("A4"))
	assert.Equal(t, "CT-1", get("B4"))
	assert.Equal(t, "CT-2", get("C4"))

	// Rolls come out sorted.
	assert.Equal(t, "2103141", get("A5"))
	assert.Equal(t, "17.5", get("B5"))
	assert.Empty(t, get("C5"), "missing CT leaves an empty cell")
	assert.Equal(t, "2103142", get("A6"))
	assert.Equal(t, "15.5", get("C6"))

	rows, err := f.GetRows(marksheetSheetName)
	require.NoError(t, err)
	joined := ""
	for _, row := range rows {
		joined += strings.Join(row, " ") + "\n"
	}
	assert.Contains(t, joined, "Not published: CT-3")
}

func TestMarksheetGenerator_RequiresCTs(t *testing.T) {
	t.Parallel()

	g, err := NewMarksheetGenerator(t.TempDir())
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), MarksheetData{CourseCode: "CSE-1202"})
	assert.Error(t, err)
}

func TestSafeFilename(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "CSE-2102", safeFilename("CSE-2102"))
	assert.Equal(t, "a_b", safeFilename("a b"))
	assert.Equal(t, "etc_passwd", safeFilename("../etc/passwd"))
	assert.Equal(t, "untitled", safeFilename("///"))
	assert.Equal(t, "03", padNo("3"))
	assert.Equal(t, "12", padNo("12"))
}
