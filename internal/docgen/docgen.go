// Package docgen renders downloadable documents: cover pages as PNG and
// marksheets as XLSX. Files are fully written to the document directory
// before their path is returned, so a returned path is always servable.
package docgen

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// safeFilename collapses anything outside [A-Za-z0-9_-] so user-derived
// values can never escape the document directory or break URLs.
func safeFilename(s string) string {
	s = strings.TrimSpace(s)
	s = unsafeFilenameChars.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "untitled"
	}
	return s
}

// timestampSuffix returns the filename timestamp, e.g. 20250823_142501.
func timestampSuffix(now time.Time) string {
	return now.Format("20060102_150405")
}

// padNo zero-pads a numeric field to two digits ("3" -> "03").
func padNo(no string) string {
	no = strings.TrimSpace(no)
	if len(no) == 1 {
		return "0" + no
	}
	return no
}

// ctColumnName returns the marksheet column header for a CT number.
func ctColumnName(ct int) string {
	return fmt.Sprintf("CT-%d", ct)
}
