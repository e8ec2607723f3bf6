// Package normalize repairs extracted field values server-side, independent
// of what the model emitted. Unparseable input collapses to the empty value,
// never to a guess.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var courseCodeRe = regexp.MustCompile(`^([A-Za-z]{2,4})[\s_-]*([0-9]{4})$`)

// CourseCode normalizes a course code to AAAA-NNNN uppercase hyphenated form.
// Accepts "cse1102", "cse 1102", "cse_1102", "CSE-1102" and mixed case.
// Idempotent: normalizing an already-normalized code is a no-op.
// Input that does not look like a course code is returned trimmed, unchanged.
func CourseCode(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	m := courseCodeRe.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	return strings.ToUpper(m[1]) + "-" + m[2]
}

// deptNames maps canonical department codes to their full names.
// Used for cover-page rendering and dept free-text repair.
var deptNames = map[string]string{
	"CSE":  "Department of Computer Science & Engineering",
	"EEE":  "Department of Electrical & Electronic Engineering",
	"ECE":  "Department of Electrical & Computer Engineering",
	"ETE":  "Department of Electronics & Telecommunication Engineering",
	"ME":   "Department of Mechanical Engineering",
	"CE":   "Department of Civil Engineering",
	"IPE":  "Department of Industrial & Production Engineering",
	"GCE":  "Department of Glass & Ceramic Engineering",
	"MTE":  "Department of Mechatronics Engineering",
	"MSE":  "Department of Materials Science & Engineering",
	"CFPE": "Department of Chemical & Food Process Engineering",
	"BECM": "Department of Building Engineering & Construction Management",
	"URP":  "Department of Urban & Regional Planning",
	"ARCH": "Department of Architecture",
}

// deptAliases maps common free-text spellings to canonical codes.
var deptAliases = map[string]string{
	"computer science":                     "CSE",
	"computer science and engineering":     "CSE",
	"computer science & engineering":       "CSE",
	"electrical and electronic":            "EEE",
	"electrical & electronic engineering":  "EEE",
	"electrical and computer":              "ECE",
	"electronics and telecommunication":    "ETE",
	"mechanical":                           "ME",
	"mechanical engineering":               "ME",
	"civil":                                "CE",
	"civil engineering":                    "CE",
	"industrial and production":            "IPE",
	"glass and ceramic":                    "GCE",
	"mechatronics":                         "MTE",
	"materials science":                    "MSE",
	"chemical and food process":            "CFPE",
	"building engineering":                 "BECM",
	"urban and regional planning":          "URP",
	"architecture":                         "ARCH",
}

// Dept maps free text to a canonical department code.
// Unmappable input becomes empty, never guessed.
func Dept(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	upper := strings.ToUpper(s)
	if _, ok := deptNames[upper]; ok {
		return upper
	}
	lower := strings.ToLower(s)
	lower = strings.ReplaceAll(lower, "&", "and")
	lower = strings.Join(strings.Fields(lower), " ")
	lower = strings.TrimPrefix(lower, "department of ")
	lower = strings.TrimSuffix(lower, " department")
	if code, ok := deptAliases[lower]; ok {
		return code
	}
	// "engineering" suffix is optional in casual phrasing
	if code, ok := deptAliases[strings.TrimSuffix(lower, " engineering")]; ok {
		return code
	}
	return ""
}

// DeptFullName returns the full department name for a canonical code,
// or empty when the code is unknown.
func DeptFullName(code string) string {
	return deptNames[strings.ToUpper(strings.TrimSpace(code))]
}

// Section normalizes a section to one of A, B, C.
// "none", "null" and empty collapse to the empty string (no section).
func Section(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	switch s {
	case "A", "B", "C":
		return s
	case "", "NONE", "NULL":
		return ""
	default:
		return ""
	}
}

// dateLayouts are the input shapes Date accepts, tried in order.
var dateLayouts = []string{
	"2 January, 2006",
	"2 January 2006",
	"January 2, 2006",
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"2 Jan, 2006",
}

// Date normalizes a date to "D Month, YYYY" with the full month name.
// Unparseable dates become empty rather than guessed.
func Date(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2 January, 2006")
		}
	}
	return ""
}

// Int coerces a numeric field from string to int when safely parseable.
// Accepts bare digits and "ct-2"/"ct 2" style prefixed forms. Returns
// (0, false) when no safe integer can be read, which triggers a re-ask
// upstream rather than a guessed value.
func Int(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	// Tolerate a single trailing number in forms like "ct 2" or "CT-2".
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	})
	if len(fields) == 2 {
		if n, err := strconv.Atoi(fields[1]); err == nil {
			return n, true
		}
	}
	return 0, false
}
