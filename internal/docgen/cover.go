package docgen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/neuraruet/assistant-go/internal/schema"
)

// A4 at 150 dpi.
const (
	coverWidth  = 1240
	coverHeight = 1754

	universityName = "Rajshahi University of Engineering & Technology"
)

// coverTypeLabels maps cover types to the label printed on the page.
var coverTypeLabels = map[string]string{
	schema.CoverLabReport:  "Experiment",
	schema.CoverAssignment: "Assignment",
	schema.CoverReport:     "Report",
}

// coverFileTags maps cover types to the short tag used in filenames.
var coverFileTags = map[string]string{
	schema.CoverLabReport:  "Exp",
	schema.CoverAssignment: "Ass",
	schema.CoverReport:     "Report",
}

// CoverGenerator renders cover pages as PNG images.
type CoverGenerator struct {
	outputDir string
	regular   *truetype.Font
	bold      *truetype.Font
	now       func() time.Time
}

// NewCoverGenerator parses the bundled fonts once and ensures the
// output directory exists.
func NewCoverGenerator(outputDir string) (*CoverGenerator, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create document directory: %w", err)
	}
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bold font: %w", err)
	}
	return &CoverGenerator{
		outputDir: outputDir,
		regular:   regular,
		bold:      bold,
		now:       time.Now,
	}, nil
}

func (g *CoverGenerator) face(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{Size: size})
}

// Generate renders one cover page and returns the written file path.
// The caller must have filled and validated every required field.
func (g *CoverGenerator) Generate(ctx context.Context, coverType string, f schema.CoverFields) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	label, ok := coverTypeLabels[coverType]
	if !ok {
		return "", fmt.Errorf("unknown cover type %q", coverType)
	}

	dc := gg.NewContext(coverWidth, coverHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0, 0, 0)

	centerX := float64(coverWidth) / 2

	// Header block.
	dc.SetFontFace(g.face(g.bold, 40))
	dc.DrawStringAnchored(universityName, centerX, 170, 0.5, 0.5)
	dc.SetFontFace(g.face(g.regular, 30))
	dc.DrawStringAnchored(f.Dept, centerX, 230, 0.5, 0.5)

	dc.SetLineWidth(3)
	dc.DrawLine(140, 280, coverWidth-140, 280)
	dc.Stroke()

	// Cover type block.
	dc.SetFontFace(g.face(g.bold, 34))
	dc.DrawStringAnchored(fmt.Sprintf("%s No: %s", label, padNo(f.CoverTypeNo)), centerX, 400, 0.5, 0.5)
	if f.CoverTypeTitle != "" {
		dc.SetFontFace(g.face(g.regular, 30))
		dc.DrawStringWrapped(f.CoverTypeTitle, centerX, 460, 0.5, 0.5, float64(coverWidth)-300, 1.4, gg.AlignCenter)
	}

	// Course block.
	dc.SetFontFace(g.face(g.bold, 30))
	dc.DrawStringAnchored("Course No: "+f.CourseCode, centerX, 580, 0.5, 0.5)
	dc.SetFontFace(g.face(g.regular, 28))
	dc.DrawStringAnchored("Course Title: "+f.CourseTitle, centerX, 630, 0.5, 0.5)

	// Submitted by / submitted to columns.
	leftX, rightX := 200.0, centerX+80
	y := 860.0
	lineGap := 46.0

	dc.SetFontFace(g.face(g.bold, 28))
	dc.DrawString("Submitted by:", leftX, y)
	dc.DrawString("Submitted to:", rightX, y)

	dc.SetFontFace(g.face(g.regular, 26))
	left := []string{
		f.FullName,
		"Roll: " + f.RollNo,
		"Section: " + f.Section,
		f.Series,
		f.Dept,
	}
	right := []string{
		f.TeacherName,
		f.TeacherDesignation,
		f.TeacherDept,
	}
	for i, s := range left {
		dc.DrawString(s, leftX, y+lineGap*float64(i+1))
	}
	for i, s := range right {
		dc.DrawString(s, rightX, y+lineGap*float64(i+1))
	}

	// Dates and session at the bottom.
	y = 1420
	dc.SetFontFace(g.face(g.regular, 26))
	if f.DateOfExp != "" {
		dc.DrawStringAnchored("Date of Experiment: "+f.DateOfExp, centerX, y, 0.5, 0.5)
		y += lineGap
	}
	dc.DrawStringAnchored("Date of Submission: "+f.DateOfSubmission, centerX, y, 0.5, 0.5)
	dc.DrawStringAnchored("Session: "+f.Session, centerX, y+lineGap, 0.5, 0.5)

	filename := fmt.Sprintf("%s_%s-%s_Roll-%s_%s.png",
		safeFilename(f.CourseCode),
		coverFileTags[coverType],
		padNo(f.CoverTypeNo),
		safeFilename(f.RollNo),
		timestampSuffix(g.now()),
	)
	path := filepath.Join(g.outputDir, filename)
	if err := dc.SavePNG(path); err != nil {
		return "", fmt.Errorf("failed to write cover page: %w", err)
	}
	return path, nil
}
