package docgen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// MarksheetData is everything a marksheet render needs, already scoped
// and hydrated by the caller. Marks maps roll number to CT number to
// marks; rolls missing a CT get an empty cell, CTs the teacher never
// published are listed in MissingCTs.
type MarksheetData struct {
	CourseCode string
	Dept       string
	Section    string
	Series     string
	CTNos      []int
	MissingCTs []int
	Marks      map[string]map[int]float64
}

const marksheetSheetName = "Marksheet"

// MarksheetGenerator renders CT marksheets as XLSX workbooks.
type MarksheetGenerator struct {
	outputDir string
	now       func() time.Time
}

func NewMarksheetGenerator(outputDir string) (*MarksheetGenerator, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create document directory: %w", err)
	}
	return &MarksheetGenerator{outputDir: outputDir, now: time.Now}, nil
}

// Generate writes one marksheet workbook and returns its path.
func (g *MarksheetGenerator) Generate(ctx context.Context, data MarksheetData) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data.CTNos) == 0 {
		return "", fmt.Errorf("marksheet needs at least one CT")
	}

	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", marksheetSheetName)

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return "", fmt.Errorf("failed to create header style: %w", err)
	}

	// Title rows.
	title := fmt.Sprintf("CT Marks - %s", data.CourseCode)
	scopeLine := fmt.Sprintf("%s, Series %s", data.Dept, data.Series)
	if data.Section != "" {
		scopeLine += ", Section " + data.Section
	}
	if err := f.SetCellValue(marksheetSheetName, "A1", title); err != nil {
		return "", err
	}
	if err := f.SetCellValue(marksheetSheetName, "A2", scopeLine); err != nil {
		return "", err
	}
	if err := f.SetCellStyle(marksheetSheetName, "A1", "A1", bold); err != nil {
		return "", err
	}

	// Column header row.
	const headerRow = 4
	if err := f.SetCellValue(marksheetSheetName, cell(1, headerRow), "Roll"); err != nil {
		return "", err
	}
	for i, ct := range data.CTNos {
		if err := f.SetCellValue(marksheetSheetName, cell(i+2, headerRow), ctColumnName(ct)); err != nil {
			return "", err
		}
	}
	endHeader := cell(len(data.CTNos)+1, headerRow)
	if err := f.SetCellStyle(marksheetSheetName, cell(1, headerRow), endHeader, bold); err != nil {
		return "", err
	}

	rolls := make([]string, 0, len(data.Marks))
	for roll := range data.Marks {
		rolls = append(rolls, roll)
	}
	sort.Strings(rolls)

	for i, roll := range rolls {
		row := headerRow + 1 + i
		if err := f.SetCellValue(marksheetSheetName, cell(1, row), roll); err != nil {
			return "", err
		}
		for j, ct := range data.CTNos {
			marks, ok := data.Marks[roll][ct]
			if !ok {
				continue
			}
			if err := f.SetCellValue(marksheetSheetName, cell(j+2, row), marks); err != nil {
				return "", err
			}
		}
	}

	// Note unpublished CTs below the table so the sheet is honest about
	// what it could not include.
	if len(data.MissingCTs) > 0 {
		names := make([]string, 0, len(data.MissingCTs))
		for _, ct := range data.MissingCTs {
			names = append(names, ctColumnName(ct))
		}
		noteRow := headerRow + len(rolls) + 3
		note := "Not published: " + strings.Join(names, ", ")
		if err := f.SetCellValue(marksheetSheetName, cell(1, noteRow), note); err != nil {
			return "", err
		}
	}

	filename := fmt.Sprintf("%s_Marksheet_%s_%s.xlsx",
		safeFilename(data.CourseCode),
		ctFileTag(data.CTNos),
		timestampSuffix(g.now()),
	)
	path := filepath.Join(g.outputDir, filename)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to write marksheet: %w", err)
	}
	return path, nil
}

func ctFileTag(cts []int) string {
	parts := make([]string, 0, len(cts))
	for _, ct := range cts {
		parts = append(parts, fmt.Sprintf("%d", ct))
	}
	return "CT-" + strings.Join(parts, "-")
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
