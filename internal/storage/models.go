package storage

// MaterialType identifies which of the four material tables a record
// belongs to. Each sub-type carries exactly one type-specific field.
type MaterialType string

const (
	MaterialClassNote        MaterialType = "class_note"
	MaterialLectureSlide     MaterialType = "lecture_slide"
	MaterialCTQuestion       MaterialType = "ct_question"
	MaterialSemesterQuestion MaterialType = "semester_question"
)

// Valid reports whether t is one of the four known sub-types.
func (t MaterialType) Valid() bool {
	switch t {
	case MaterialClassNote, MaterialLectureSlide, MaterialCTQuestion, MaterialSemesterQuestion:
		return true
	}
	return false
}

// TableName returns the SQLite table backing the sub-type.
func (t MaterialType) TableName() string {
	switch t {
	case MaterialClassNote:
		return "class_notes"
	case MaterialLectureSlide:
		return "lecture_slides"
	case MaterialCTQuestion:
		return "ct_questions"
	case MaterialSemesterQuestion:
		return "semester_questions"
	}
	return ""
}

// Material is one uploaded study material. Section is empty when the
// material applies to every section of the dept/series. Exactly one of
// WrittenBy/Topic/CTNo/Year is meaningful, per Type.
type Material struct {
	ID         string
	Type       MaterialType
	DriveURL   string
	CourseCode string
	CourseName string
	Dept       string
	Section    string
	Series     string
	WrittenBy  string // class_note
	Topic      string // lecture_slide
	CTNo       int    // ct_question
	Year       int    // semester_question
	CreatedAt  int64
}

// Notice is one published announcement. Section empty means the notice
// applies to all sections in its dept/series.
type Notice struct {
	ID            string
	Title         string
	Message       string
	CreatedByRole string
	CreatedByName string
	Dept          string
	Section       string
	Series        string
	CreatedAt     int64
}

// ResultSheet is one CT's uploaded marks for a class.
type ResultSheet struct {
	ID            string
	Dept          string
	Section       string
	Series        string
	CourseCode    string
	CourseName    string
	CTNo          int
	CreatedBy     string // uploading teacher's actor ID
	CreatedByName string // display name, answers quote it as the publisher
	CreatedAt     int64
}

// ResultEntry is one roll number's marks inside a sheet.
type ResultEntry struct {
	SheetID string
	RollNo  string
	Marks   float64
}

// ChatMessage is one persisted turn of a room's transcript.
type ChatMessage struct {
	ID        string
	RoomID    string
	Role      string // "user" or "assistant"
	Text      string
	CreatedAt int64
}
