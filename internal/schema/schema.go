// Package schema defines the typed outputs of the per-tool extraction
// calls, plus the validation and normalization applied before any tool
// acts on them. Extraction output is untrusted: every value passes
// through Validate, and the actor's dept/series always overwrite
// whatever the model produced.
package schema

import (
	"encoding/json"
	"math"
	"sort"
	"strings"

	apperrors "github.com/neuraruet/assistant-go/internal/errors"
	"github.com/neuraruet/assistant-go/internal/normalize"
	"github.com/neuraruet/assistant-go/internal/profile"
	"github.com/neuraruet/assistant-go/internal/storage"
)

// Extraction modes shared across tools.
const (
	ModeQuery     = "query"
	ModeOK        = "ok"
	ModeAsk       = "ask"
	ModeWrongTool = "wrong_tool"
)

// Sort orders for material search.
const (
	SortNewest = "newest"
	SortOldest = "oldest"
)

// Match modes for free-text material filters.
const (
	MatchExact    = "exact"
	MatchContains = "contains"
)

// MaterialQuery is the extracted find_materials request.
type MaterialQuery struct {
	Mode          string   `json:"mode"`
	Question      string   `json:"question"`
	MissingFields []string `json:"missing_fields"`

	MaterialType string `json:"material_type"`
	CourseCode   string `json:"course_code"`
	CourseName   string `json:"course_name"`
	Dept         string `json:"dept"`
	Sec          string `json:"sec"`
	Series       string `json:"series"`
	Topic        string `json:"topic"`
	WrittenBy    string `json:"written_by"`
	CTNo         *int   `json:"ct_no"`
	Year         *int   `json:"year"`

	MatchMode  string  `json:"match_mode"`
	Limit      int     `json:"limit"`
	Offset     int     `json:"offset"`
	SortBy     string  `json:"sort_by"`
	Confidence float64 `json:"confidence"`
}

const (
	defaultLimit = 10
	maxLimit     = 50
)

// UnmarshalJSON tolerates numeric fields arriving as strings. Models
// emit "ct_no":"2" or even "CT-2" often enough that rejecting the whole
// object would turn an answerable request into a re-ask.
func (q *MaterialQuery) UnmarshalJSON(data []byte) error {
	type plain MaterialQuery
	aux := struct {
		*plain
		CTNo json.RawMessage `json:"ct_no"`
		Year json.RawMessage `json:"year"`
	}{plain: (*plain)(q)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	q.CTNo = looseInt(aux.CTNo)
	q.Year = looseInt(aux.Year)
	return nil
}

// looseInt reads a numeric extraction field. Safely parseable string
// forms are coerced through normalize.Int; anything else counts as
// absent, so validation asks for the field instead of the whole decode
// failing.
func looseInt(raw json.RawMessage) *int {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if f != math.Trunc(f) {
			return nil
		}
		n := int(f)
		return &n
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, ok := normalize.Int(s); ok {
			return &n
		}
	}
	return nil
}

// looseIntList reads a list-valued numeric field, tolerating string
// elements and a bare scalar for a single value.
func looseIntList(raw json.RawMessage) []int {
	if len(raw) == 0 {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		if n := looseInt(raw); n != nil {
			return []int{*n}
		}
		return nil
	}

	var out []int
	for _, item := range items {
		if n := looseInt(item); n != nil {
			out = append(out, *n)
		}
	}
	return out
}

// Normalize canonicalizes free-form values and clamps paging. The
// actor's dept and series always replace the extracted ones; section
// is taken from the actor when the model left it empty.
func (q *MaterialQuery) Normalize(actor profile.Actor) {
	q.CourseCode = normalize.CourseCode(q.CourseCode)
	q.Dept = actor.Dept
	q.Series = actor.Series
	if sec := normalize.Section(q.Sec); sec != "" {
		q.Sec = sec
	} else {
		q.Sec = actor.Section
	}

	if q.MatchMode != MatchExact {
		q.MatchMode = MatchContains
	}
	if q.SortBy != SortOldest {
		q.SortBy = SortNewest
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
}

// Validate enforces the mode contract and sub-type field exclusivity.
// A field belonging to a different sub-type is a validation failure,
// not something to silently drop.
func (q *MaterialQuery) Validate() error {
	switch q.Mode {
	case ModeWrongTool:
		return nil
	case ModeAsk:
		if strings.TrimSpace(q.Question) == "" {
			return &apperrors.ValidationError{Field: "question", Message: "ask mode requires a question"}
		}
		return nil
	case ModeQuery:
	default:
		return &apperrors.ValidationError{Field: "mode", Message: "unknown mode " + q.Mode}
	}

	mt := storage.MaterialType(q.MaterialType)
	if !mt.Valid() {
		return &apperrors.ValidationError{Field: "material_type", Message: "unknown material type " + q.MaterialType}
	}

	if q.WrittenBy != "" && mt != storage.MaterialClassNote {
		return &apperrors.ValidationError{Field: "written_by", Message: "written_by applies only to class notes"}
	}
	if q.Topic != "" && mt != storage.MaterialLectureSlide {
		return &apperrors.ValidationError{Field: "topic", Message: "topic applies only to lecture slides"}
	}
	if q.CTNo != nil && mt != storage.MaterialCTQuestion {
		return &apperrors.ValidationError{Field: "ct_no", Message: "ct_no applies only to CT questions"}
	}
	if q.Year != nil && mt != storage.MaterialSemesterQuestion {
		return &apperrors.ValidationError{Field: "year", Message: "year applies only to semester questions"}
	}
	return nil
}

// HasStructuredFilter reports whether any searchable field beyond
// scope was extracted. Without one, retrieval falls back to semantic
// search over the raw message.
func (q *MaterialQuery) HasStructuredFilter() bool {
	return q.CourseCode != "" || q.CourseName != "" || q.Topic != "" ||
		q.WrittenBy != "" || q.CTNo != nil || q.Year != nil
}

// MarksQuery is the extracted check_marks request.
type MarksQuery struct {
	Mode          string   `json:"mode"`
	Question      string   `json:"question"`
	MissingFields []string `json:"missing_fields"`
	CourseCode    string   `json:"course_code"`
	CTNo          *int     `json:"ct_no"`
}

// UnmarshalJSON coerces a string ct_no the same way MaterialQuery does.
func (q *MarksQuery) UnmarshalJSON(data []byte) error {
	type plain MarksQuery
	aux := struct {
		*plain
		CTNo json.RawMessage `json:"ct_no"`
	}{plain: (*plain)(q)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	q.CTNo = looseInt(aux.CTNo)
	return nil
}

func (q *MarksQuery) Normalize() {
	q.CourseCode = normalize.CourseCode(q.CourseCode)
}

func (q *MarksQuery) Validate() error {
	switch q.Mode {
	case ModeWrongTool:
		return nil
	case ModeAsk:
		if strings.TrimSpace(q.Question) == "" {
			return &apperrors.ValidationError{Field: "question", Message: "ask mode requires a question"}
		}
		return nil
	case ModeOK:
		if q.CourseCode == "" {
			return &apperrors.ValidationError{Field: "course_code", Message: "course code is required"}
		}
		if q.CTNo == nil || *q.CTNo <= 0 {
			return &apperrors.ValidationError{Field: "ct_no", Message: "a positive CT number is required"}
		}
		return nil
	default:
		return &apperrors.ValidationError{Field: "mode", Message: "unknown mode " + q.Mode}
	}
}

// Cover types.
const (
	CoverLabReport  = "lab_report"
	CoverAssignment = "assignment"
	CoverReport     = "report"
)

// CoverFields is the full set of fields a cover page renders, both
// extracted (course, teacher, dates) and server-truth ones merged from
// the actor profile (name, roll, dept, section, series).
type CoverFields struct {
	CoverTypeNo        string `json:"cover_type_no"`
	CoverTypeTitle     string `json:"cover_type_title"`
	CourseCode         string `json:"course_code"`
	CourseTitle        string `json:"course_title"`
	DateOfExp          string `json:"date_of_exp"`
	DateOfSubmission   string `json:"date_of_submission"`
	Session            string `json:"session"`
	TeacherName        string `json:"teacher_name"`
	TeacherDesignation string `json:"teacher_designation"`
	TeacherDept        string `json:"teacher_dept"`

	FullName string `json:"full_name"`
	RollNo   string `json:"roll_no"`
	Dept     string `json:"dept"`
	Section  string `json:"section"`
	Series   string `json:"series"`
}

// CoverRequest pairs a detected cover type with its fields.
type CoverRequest struct {
	CoverType string
	Fields    CoverFields
}

// Normalize canonicalizes extracted values and merges the profile
// fields. Profile values are server truth and always win.
func (r *CoverRequest) Normalize(actor profile.Actor) {
	f := &r.Fields
	f.CourseCode = normalize.CourseCode(f.CourseCode)
	f.DateOfExp = normalize.Date(f.DateOfExp)
	f.DateOfSubmission = normalize.Date(f.DateOfSubmission)
	if full := normalize.DeptFullName(f.TeacherDept); full != "" {
		f.TeacherDept = full
	}
	if r.CoverType != CoverLabReport {
		f.DateOfExp = ""
	}

	f.FullName = actor.DisplayName
	f.RollNo = actor.Roll
	f.Dept = normalize.DeptFullName(actor.Dept)
	if f.Dept == "" {
		f.Dept = actor.Dept
	}
	f.Section = actor.Section
	if actor.Series != "" {
		f.Series = "Series " + actor.Series
	}
}

// coverCommonRequired lists the fields every cover type needs, in the
// order they are reported back when missing.
var coverCommonRequired = []string{
	"cover_type_no", "course_code", "course_title", "date_of_submission",
	"session", "teacher_name", "teacher_designation", "teacher_dept",
	"full_name", "roll_no", "dept", "series",
}

// MissingFields returns the required fields still empty after
// normalization and profile merge. Lab reports additionally require
// the experiment date.
func (r *CoverRequest) MissingFields() []string {
	values := map[string]string{
		"cover_type_no":       r.Fields.CoverTypeNo,
		"course_code":         r.Fields.CourseCode,
		"course_title":        r.Fields.CourseTitle,
		"date_of_exp":         r.Fields.DateOfExp,
		"date_of_submission":  r.Fields.DateOfSubmission,
		"session":             r.Fields.Session,
		"teacher_name":        r.Fields.TeacherName,
		"teacher_designation": r.Fields.TeacherDesignation,
		"teacher_dept":        r.Fields.TeacherDept,
		"full_name":           r.Fields.FullName,
		"roll_no":             r.Fields.RollNo,
		"dept":                r.Fields.Dept,
		"series":              r.Fields.Series,
	}

	required := coverCommonRequired
	if r.CoverType == CoverLabReport {
		required = append(append([]string{}, coverCommonRequired...), "date_of_exp")
	}

	var missing []string
	for _, name := range required {
		if strings.TrimSpace(values[name]) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

func (r *CoverRequest) Validate() error {
	switch r.CoverType {
	case CoverLabReport, CoverAssignment, CoverReport:
		return nil
	}
	return &apperrors.ValidationError{Field: "cover_type", Message: "unknown cover type " + r.CoverType}
}

// MarksheetRequest is the extracted generate_marksheet request. The
// scope comes from the teacher's own profile, never from extraction.
type MarksheetRequest struct {
	Mode          string   `json:"mode"`
	Question      string   `json:"question"`
	MissingFields []string `json:"missing_fields"`
	CourseCode    string   `json:"course_code"`
	CTNos         []int    `json:"ct_no"`
}

// UnmarshalJSON coerces string CT numbers inside the list, and accepts
// a bare scalar when the model collapsed a single CT to one value.
func (r *MarksheetRequest) UnmarshalJSON(data []byte) error {
	type plain MarksheetRequest
	aux := struct {
		*plain
		CTNos json.RawMessage `json:"ct_no"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.CTNos = looseIntList(aux.CTNos)
	return nil
}

func (r *MarksheetRequest) Normalize() {
	r.CourseCode = normalize.CourseCode(r.CourseCode)
	sort.Ints(r.CTNos)
}

func (r *MarksheetRequest) Validate() error {
	switch r.Mode {
	case ModeWrongTool:
		return nil
	case ModeAsk:
		if strings.TrimSpace(r.Question) == "" {
			return &apperrors.ValidationError{Field: "question", Message: "ask mode requires a question"}
		}
		return nil
	case ModeOK:
		if r.CourseCode == "" {
			return &apperrors.ValidationError{Field: "course_code", Message: "course code is required"}
		}
		if len(r.CTNos) == 0 {
			return &apperrors.ValidationError{Field: "ct_no", Message: "at least one CT number is required"}
		}
		for _, n := range r.CTNos {
			if n <= 0 {
				return &apperrors.ValidationError{Field: "ct_no", Message: "CT numbers must be positive"}
			}
		}
		return nil
	default:
		return &apperrors.ValidationError{Field: "mode", Message: "unknown mode " + r.Mode}
	}
}
