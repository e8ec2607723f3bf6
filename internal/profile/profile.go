// Package profile defines the actor profile attached to every chat turn.
// The profile is the ground truth for scope enforcement: department, series
// and section always come from here, never from conversational text.
package profile

// Role identifies what kind of campus user the actor is.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleCR      Role = "cr"
)

// Actor describes the authenticated user behind a chat turn.
type Actor struct {
	ID          string // stable user identifier
	DisplayName string
	Role        Role
	Dept        string // department code, e.g. "CSE"
	Series      string // admission series, e.g. "21"
	Section     string // "A", "B", "C", or "" when not sectioned
	Roll        string // roll number, students only
}

// IsTeacher reports whether the actor can use teacher-only tools.
func (a Actor) IsTeacher() bool {
	return a.Role == RoleTeacher
}

// IsStudent reports whether the actor is a student or class representative.
func (a Actor) IsStudent() bool {
	return a.Role == RoleStudent || a.Role == RoleCR
}
