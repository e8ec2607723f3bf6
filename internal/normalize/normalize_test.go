package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCourseCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "compact lowercase", input: "cse1202", want: "CSE-1202"},
		{name: "spaced", input: "cse 1202", want: "CSE-1202"},
		{name: "underscored", input: "cse_1202", want: "CSE-1202"},
		{name: "already normalized", input: "CSE-1202", want: "CSE-1202"},
		{name: "mixed case hyphen", input: "CsE-1202", want: "CSE-1202"},
		{name: "surrounding whitespace", input: "  eee 2100 ", want: "EEE-2100"},
		{name: "two letter dept", input: "me2204", want: "ME-2204"},
		{name: "empty", input: "", want: ""},
		{name: "not a course code", input: "data structures", want: "data structures"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CourseCode(tt.input))
		})
	}
}

func TestCourseCode_Idempotent(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"cse1202", "CSE-1202", "cse_1202", "cse 1202"} {
		once := CourseCode(input)
		assert.Equal(t, "CSE-1202", once)
		assert.Equal(t, once, CourseCode(once), "normalization must be idempotent for %q", input)
	}
}

func TestDept(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "canonical code", input: "CSE", want: "CSE"},
		{name: "lowercase code", input: "cse", want: "CSE"},
		{name: "full name", input: "Computer Science and Engineering", want: "CSE"},
		{name: "ampersand form", input: "computer science & engineering", want: "CSE"},
		{name: "department-of prefix", input: "Department of Civil Engineering", want: "CE"},
		{name: "casual short form", input: "mechanical", want: "ME"},
		{name: "unmappable becomes empty", input: "underwater basket weaving", want: ""},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Dept(tt.input))
		})
	}
}

func TestDeptFullName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Department of Computer Science & Engineering", DeptFullName("CSE"))
	assert.Equal(t, "Department of Computer Science & Engineering", DeptFullName(" cse "))
	assert.Empty(t, DeptFullName("XYZ"))
}

func TestSection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{input: "A", want: "A"},
		{input: "b", want: "B"},
		{input: " c ", want: "C"},
		{input: "none", want: ""},
		{input: "NULL", want: ""},
		{input: "", want: ""},
		{input: "D", want: ""},
		{input: "section A", want: ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Section(tt.input), "Section(%q)", tt.input)
	}
}

func TestDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "already normalized", input: "2 January, 2006", want: "2 January, 2006"},
		{name: "iso", input: "2024-03-15", want: "15 March, 2024"},
		{name: "slashed", input: "15/03/2024", want: "15 March, 2024"},
		{name: "us style", input: "March 15, 2024", want: "15 March, 2024"},
		{name: "short month", input: "15 Mar 2024", want: "15 March, 2024"},
		{name: "unparseable becomes empty", input: "next tuesday", want: ""},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Date(tt.input))
		})
	}
}

func TestInt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input  string
		want   int
		wantOK bool
	}{
		{input: "2", want: 2, wantOK: true},
		{input: " 13 ", want: 13, wantOK: true},
		{input: "ct 2", want: 2, wantOK: true},
		{input: "CT-3", want: 3, wantOK: true},
		{input: "two", wantOK: false},
		{input: "", wantOK: false},
		{input: "2.5", wantOK: false},
	}

	for _, tt := range tests {
		got, ok := Int(tt.input)
		assert.Equal(t, tt.wantOK, ok, "Int(%q) ok", tt.input)
		if tt.wantOK {
			assert.Equal(t, tt.want, got, "Int(%q)", tt.input)
		}
	}
}
