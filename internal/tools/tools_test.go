package tools

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuraruet/assistant-go/internal/answer"
	"github.com/neuraruet/assistant-go/internal/docgen"
	apperrors "github.com/neuraruet/assistant-go/internal/errors"
	"github.com/neuraruet/assistant-go/internal/llm"
	"github.com/neuraruet/assistant-go/internal/logger"
	"github.com/neuraruet/assistant-go/internal/profile"
	"github.com/neuraruet/assistant-go/internal/rag"
	"github.com/neuraruet/assistant-go/internal/retrieval"
	"github.com/neuraruet/assistant-go/internal/storage"
)

// scriptCompleter replays canned model replies in order and records
// every request for assertions.
type scriptCompleter struct {
	t        *testing.T
	replies  []string
	requests []llm.Request
}

func (c *scriptCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	c.requests = append(c.requests, req)
	if len(c.replies) == 0 {
		c.t.Fatalf("unexpected completion call, system prompt starts: %.60q", req.System)
	}
	reply := c.replies[0]
	c.replies = c.replies[1:]
	return reply, nil
}

func (c *scriptCompleter) lastRequest() llm.Request {
	require.NotEmpty(c.t, c.requests)
	return c.requests[len(c.requests)-1]
}

func testLogger() *logger.Logger {
	return logger.NewWithWriter("error", io.Discard)
}

func newToolsDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.NewTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func studentActor() profile.Actor {
	return profile.Actor{
		ID:          "u-student-1",
		DisplayName: "Arif Hasan",
		Role:        profile.RoleStudent,
		Dept:        "CSE",
		Series:      "21",
		Section:     "A",
		Roll:        "2103045",
	}
}

func teacherActor() profile.Actor {
	return profile.Actor{
		ID:          "u-teacher-1",
		DisplayName: "Dr. Salma Khatun",
		Role:        profile.RoleTeacher,
		Dept:        "CSE",
		Series:      "21",
		Section:     "A",
	}
}

func TestRegistryDispatchUnknownTool(t *testing.T) {
	r := NewRegistry(nil, nil, nil, nil, nil)
	_, err := r.Dispatch(context.Background(), Name("delete_everything"), Input{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnknownTool))
}

func TestMaterialsToolAnswersFromScopedSearch(t *testing.T) {
	db := newToolsDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveMaterial(ctx, &storage.Material{
		ID: "m-1", Type: storage.MaterialClassNote, DriveURL: "https://drive.example/dp-notes",
		CourseCode: "CSE-1202", CourseName: "Data Structures", Dept: "CSE", Section: "A", Series: "21",
		WrittenBy: "Rahim", CreatedAt: 100,
	}))
	require.NoError(t, db.SaveMaterial(ctx, &storage.Material{
		ID: "m-2", Type: storage.MaterialClassNote, DriveURL: "https://drive.example/other",
		CourseCode: "CSE-2101", CourseName: "Algorithms", Dept: "CSE", Section: "A", Series: "21",
		CreatedAt: 200,
	}))

	chat := &scriptCompleter{t: t, replies: []string{
		`{"material_type":"class_note","confidence":0.9}`,
		`{"mode":"query","course_code":"cse-1202"}`,
		"Here are the CSE-1202 notes.",
	}}
	tool := NewMaterialsTool(chat, db, retrieval.NewSearcher(db), nil, answer.NewSynthesizer(chat), nil, testLogger())

	res, err := tool.Run(ctx, Input{Actor: studentActor(), Text: "notes for cse 1202?"})
	require.NoError(t, err)
	assert.Equal(t, ModeAnswer, res.Mode)
	assert.Equal(t, "Here are the CSE-1202 notes.", res.Text)

	// The synthesis call gets only the matching material as grounding.
	grounding := chat.lastRequest().Messages
	require.NotEmpty(t, grounding)
	payload := grounding[len(grounding)-1].Content
	assert.Contains(t, payload, "https://drive.example/dp-notes")
	assert.NotContains(t, payload, "https://drive.example/other")
}

func TestMaterialsToolWrongToolText(t *testing.T) {
	chat := &scriptCompleter{t: t, replies: []string{
		`{"material_type":"class_note","confidence":0.4}`,
		`{"mode":"wrong_tool"}`,
	}}
	db := newToolsDB(t)
	tool := NewMaterialsTool(chat, db, retrieval.NewSearcher(db), nil, answer.NewSynthesizer(chat), nil, testLogger())

	res, err := tool.Run(context.Background(), Input{Actor: studentActor(), Text: "any exam notice?"})
	require.NoError(t, err)
	assert.Equal(t, ModeWrongTool, res.Mode)
	assert.Equal(t, materialsWrongToolText, res.Text)
}

func TestMaterialsToolValidationFailureAsks(t *testing.T) {
	// topic on a class_note query violates sub-type exclusivity.
	chat := &scriptCompleter{t: t, replies: []string{
		`{"material_type":"class_note","confidence":0.9}`,
		`{"mode":"query","topic":"recursion"}`,
	}}
	db := newToolsDB(t)
	tool := NewMaterialsTool(chat, db, retrieval.NewSearcher(db), nil, answer.NewSynthesizer(chat), nil, testLogger())

	res, err := tool.Run(context.Background(), Input{Actor: studentActor(), Text: "notes on recursion"})
	require.NoError(t, err)
	assert.Equal(t, ModeAsk, res.Mode)
	assert.NotEmpty(t, res.Question)
}

func TestMaterialsToolUnparseableExtractionAsks(t *testing.T) {
	chat := &scriptCompleter{t: t, replies: []string{
		`{"material_type":"class_note","confidence":0.9}`,
		`I would love to help with that!`,
	}}
	db := newToolsDB(t)
	tool := NewMaterialsTool(chat, db, retrieval.NewSearcher(db), nil, answer.NewSynthesizer(chat), nil, testLogger())

	res, err := tool.Run(context.Background(), Input{Actor: studentActor(), Text: "materials pls"})
	require.NoError(t, err)
	assert.Equal(t, ModeAsk, res.Mode)
	assert.Contains(t, res.Question, "course or topic")
}

func TestNoticesToolFallsBackToScopedRecency(t *testing.T) {
	db := newToolsDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveNotice(ctx, &storage.Notice{
		ID: "n-1", Title: "CT-2 rescheduled", Message: "CT-2 of CSE-1202 moves to Sunday.",
		CreatedByRole: "cr", CreatedByName: "Karim", Dept: "CSE", Section: "A", Series: "21", CreatedAt: 100,
	}))
	require.NoError(t, db.SaveNotice(ctx, &storage.Notice{
		ID: "n-2", Title: "EEE seminar", Message: "Seminar for EEE students.",
		CreatedByRole: "teacher", CreatedByName: "Dr. Alam", Dept: "EEE", Section: "A", Series: "21", CreatedAt: 200,
	}))

	chat := &scriptCompleter{t: t, replies: []string{"CT-2 moved to Sunday."}}
	tool := NewNoticesTool(db, nil, answer.NewSynthesizer(chat), nil, testLogger())

	res, err := tool.Run(ctx, Input{Actor: studentActor(), Text: "anything about ct 2?"})
	require.NoError(t, err)
	assert.Equal(t, ModeAnswer, res.Mode)
	assert.Equal(t, "CT-2 moved to Sunday.", res.Text)

	msgs := chat.lastRequest().Messages
	payload := msgs[len(msgs)-1].Content
	assert.Contains(t, payload, "CT-2 rescheduled")
	assert.NotContains(t, payload, "EEE seminar")
}

func TestNoticesToolUsesHybridRanking(t *testing.T) {
	db := newToolsDB(t)
	ctx := context.Background()

	notices := []*storage.Notice{
		{ID: "n-1", Title: "Library closed", Message: "The central library stays closed on Friday.",
			CreatedByRole: "teacher", CreatedByName: "Admin", Dept: "CSE", Section: "A", Series: "21", CreatedAt: 100},
		{ID: "n-2", Title: "Holiday notice", Message: "Campus holiday on Monday.",
			CreatedByRole: "teacher", CreatedByName: "Admin", Dept: "CSE", Section: "A", Series: "21", CreatedAt: 200},
	}
	for _, n := range notices {
		require.NoError(t, db.SaveNotice(ctx, n))
	}

	index := rag.NewBM25Index(testLogger())
	require.NoError(t, index.Initialize(notices))
	searcher := rag.NewHybridSearcher(nil, index, testLogger())

	chat := &scriptCompleter{t: t, replies: []string{"The library is closed Friday."}}
	tool := NewNoticesTool(db, searcher, answer.NewSynthesizer(chat), nil, testLogger())

	res, err := tool.Run(ctx, Input{Actor: studentActor(), Text: "is the library open?"})
	require.NoError(t, err)
	assert.Equal(t, ModeAnswer, res.Mode)

	msgs := chat.lastRequest().Messages
	payload := msgs[len(msgs)-1].Content
	assert.Contains(t, payload, "Library closed")
}

func TestMarksToolAnswersOwnEntryOnly(t *testing.T) {
	db := newToolsDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveResultSheet(ctx, &storage.ResultSheet{
		ID: "s-1", Dept: "CSE", Section: "A", Series: "21",
		CourseCode: "CSE-1202", CourseName: "Data Structures", CTNo: 2,
		CreatedBy: "u-teacher-1", CreatedByName: "Dr. Salma Khatun", CreatedAt: 100,
	}))
	require.NoError(t, db.SaveResultEntries(ctx, []storage.ResultEntry{
		{SheetID: "s-1", RollNo: "2103045", Marks: 17.5},
		{SheetID: "s-1", RollNo: "2103046", Marks: 19},
	}))

	chat := &scriptCompleter{t: t, replies: []string{
		`{"mode":"ok","course_code":"CSE-1202","ct_no":2}`,
		"You got 17.5 in CT-2.",
	}}
	tool := NewMarksTool(chat, db, answer.NewSynthesizer(chat), nil, testLogger())

	history := []llm.Message{{Role: llm.RoleUser, Content: "hello"}, {Role: llm.RoleAssistant, Content: "hi"}}
	res, err := tool.Run(ctx, Input{Actor: studentActor(), Text: "my ct2 marks for cse1202?", History: history})
	require.NoError(t, err)
	assert.Equal(t, ModeAnswer, res.Mode)
	assert.Equal(t, "You got 17.5 in CT-2.", res.Text)

	// The answer call sees only the question and the database row, never
	// chat history.
	synthReq := chat.lastRequest()
	require.Len(t, synthReq.Messages, 2)
	payload := synthReq.Messages[1].Content
	assert.Contains(t, payload, `"marks":17.5`)
	assert.Contains(t, payload, "Dr. Salma Khatun")
	assert.NotContains(t, payload, "2103046")
}

func TestMarksToolCoercesStringCT(t *testing.T) {
	db := newToolsDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveResultSheet(ctx, &storage.ResultSheet{
		ID: "s-1", Dept: "CSE", Section: "A", Series: "21",
		CourseCode: "CSE-1202", CourseName: "Data Structures", CTNo: 2,
		CreatedBy: "u-teacher-1", CreatedByName: "Dr. Salma Khatun", CreatedAt: 100,
	}))
	require.NoError(t, db.SaveResultEntries(ctx, []storage.ResultEntry{
		{SheetID: "s-1", RollNo: "2103045", Marks: 17.5},
	}))

	// The extraction model quoted the CT number; the coerced value must
	// still reach the lookup instead of degrading to a re-ask.
	chat := &scriptCompleter{t: t, replies: []string{
		`{"mode":"ok","course_code":"cse 1202","ct_no":"2"}`,
		"You got 17.5 in CT-2.",
	}}
	tool := NewMarksTool(chat, db, answer.NewSynthesizer(chat), nil, testLogger())

	res, err := tool.Run(ctx, Input{Actor: studentActor(), Text: "my ct 2 marks for cse 1202?"})
	require.NoError(t, err)
	assert.Equal(t, ModeAnswer, res.Mode)

	synthReq := chat.lastRequest()
	payload := synthReq.Messages[len(synthReq.Messages)-1].Content
	assert.Contains(t, payload, `"marks":17.5`)
}

func TestMarksToolNoSheetReportsNotFound(t *testing.T) {
	chat := &scriptCompleter{t: t, replies: []string{
		`{"mode":"ok","course_code":"CSE-1202","ct_no":3}`,
		"CT-3 marks are not published yet.",
	}}
	tool := NewMarksTool(chat, newToolsDB(t), answer.NewSynthesizer(chat), nil, testLogger())

	res, err := tool.Run(context.Background(), Input{Actor: studentActor(), Text: "ct3 marks?"})
	require.NoError(t, err)
	assert.Equal(t, ModeAnswer, res.Mode)

	synthReq := chat.lastRequest()
	payload := synthReq.Messages[len(synthReq.Messages)-1].Content
	assert.Contains(t, payload, `"found":false`)
}

func TestMarksToolMissingCTAsks(t *testing.T) {
	chat := &scriptCompleter{t: t, replies: []string{
		`{"mode":"ok","course_code":"CSE-1202"}`,
	}}
	tool := NewMarksTool(chat, newToolsDB(t), answer.NewSynthesizer(chat), nil, testLogger())

	res, err := tool.Run(context.Background(), Input{Actor: studentActor(), Text: "marks for cse1202"})
	require.NoError(t, err)
	assert.Equal(t, ModeAsk, res.Mode)
	assert.Contains(t, res.MissingFields, "ct_no")
}

func TestCoverToolGeneratesLabReport(t *testing.T) {
	gen, err := docgen.NewCoverGenerator(t.TempDir())
	require.NoError(t, err)

	chat := &scriptCompleter{t: t, replies: []string{
		`{"cover_type":"lab_report","confidence":0.95}`,
		`{"cover_type_no":"3","cover_type_title":"Implementing stacks",
		  "course_code":"cse-1202","course_title":"Data Structures Sessional",
		  "date_of_exp":"2026-02-10","date_of_submission":"2026-02-17","session":"2024-25",
		  "teacher_name":"Dr. Salma Khatun","teacher_designation":"Professor","teacher_dept":"CSE"}`,
	}}
	tool := NewCoverTool(chat, gen, answer.NewSynthesizer(chat), nil, testLogger())

	res, err := tool.Run(context.Background(), Input{Actor: studentActor(), Text: "make a lab report cover for exp 3"})
	require.NoError(t, err)
	assert.Equal(t, ModeAnswer, res.Mode)
	assert.Contains(t, res.Text, "🎉 Cover page generated successfully.")
	assert.Contains(t, res.Text, "/documents/")
	require.NotEmpty(t, res.DocumentPath)

	_, statErr := os.Stat(res.DocumentPath)
	assert.NoError(t, statErr)
}

func TestCoverToolMissingFieldsAsk(t *testing.T) {
	gen, err := docgen.NewCoverGenerator(t.TempDir())
	require.NoError(t, err)

	chat := &scriptCompleter{t: t, replies: []string{
		`{"cover_type":"assignment","confidence":0.9}`,
		`{"course_code":"cse-1202"}`,
		"Which assignment number and which teacher is it for?",
	}}
	tool := NewCoverTool(chat, gen, answer.NewSynthesizer(chat), nil, testLogger())

	res, err := tool.Run(context.Background(), Input{Actor: studentActor(), Text: "assignment cover for cse1202"})
	require.NoError(t, err)
	assert.Equal(t, ModeAsk, res.Mode)
	assert.Equal(t, "Which assignment number and which teacher is it for?", res.Question)
	assert.Contains(t, res.MissingFields, "cover_type_no")
	assert.Contains(t, res.MissingFields, "teacher_name")
	// Assignments never need an experiment date.
	assert.NotContains(t, res.MissingFields, "date_of_exp")
	// Profile fills identity fields, so they are never asked for.
	assert.NotContains(t, res.MissingFields, "full_name")
	assert.NotContains(t, res.MissingFields, "roll_no")
}

func TestCoverToolRedirectsOtherRequests(t *testing.T) {
	gen, err := docgen.NewCoverGenerator(t.TempDir())
	require.NoError(t, err)

	redirect := "This is a study materials request, please use the find materials tool."
	chat := &scriptCompleter{t: t, replies: []string{redirect}}
	tool := NewCoverTool(chat, gen, answer.NewSynthesizer(chat), nil, testLogger())

	res, err := tool.Run(context.Background(), Input{Actor: studentActor(), Text: "send me dp notes"})
	require.NoError(t, err)
	assert.Equal(t, ModeWrongTool, res.Mode)
	assert.Equal(t, redirect, res.Text)
}

func TestCoverToolAmbiguousTypeShowsMenu(t *testing.T) {
	gen, err := docgen.NewCoverGenerator(t.TempDir())
	require.NoError(t, err)

	chat := &scriptCompleter{t: t, replies: []string{`{"cover_type":"ask","confidence":0.3}`}}
	tool := NewCoverTool(chat, gen, answer.NewSynthesizer(chat), nil, testLogger())

	res, err := tool.Run(context.Background(), Input{Actor: studentActor(), Text: "i need a cover"})
	require.NoError(t, err)
	assert.Equal(t, ModeAsk, res.Mode)
	assert.Equal(t, coverMenuQuestion, res.Question)
}

func TestMarksheetToolTeacherOnly(t *testing.T) {
	tool := NewMarksheetTool(nil, nil, nil, nil, testLogger())

	res, err := tool.Run(context.Background(), Input{Actor: studentActor(), Text: "make a marksheet"})
	require.NoError(t, err)
	assert.Equal(t, ModeAnswer, res.Mode)
	assert.Equal(t, marksheetTeacherOnly, res.Text)
}

func TestMarksheetToolBuildsWorkbookAndNotesMissingCT(t *testing.T) {
	db := newToolsDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveResultSheet(ctx, &storage.ResultSheet{
		ID: "s-1", Dept: "CSE", Section: "A", Series: "21",
		CourseCode: "CSE-1202", CourseName: "Data Structures", CTNo: 1,
		CreatedBy: "u-teacher-1", CreatedByName: "Dr. Salma Khatun", CreatedAt: 100,
	}))
	require.NoError(t, db.SaveResultEntries(ctx, []storage.ResultEntry{
		{SheetID: "s-1", RollNo: "2103045", Marks: 18},
		{SheetID: "s-1", RollNo: "2103046", Marks: 12.5},
	}))

	gen, err := docgen.NewMarksheetGenerator(t.TempDir())
	require.NoError(t, err)

	chat := &scriptCompleter{t: t, replies: []string{
		`{"mode":"ok","course_code":"CSE-1202","ct_no":[1,2]}`,
	}}
	tool := NewMarksheetTool(chat, db, gen, nil, testLogger())

	res, err := tool.Run(ctx, Input{Actor: teacherActor(), Text: "marksheet for cse1202 ct1 and ct2"})
	require.NoError(t, err)
	assert.Equal(t, ModeAnswer, res.Mode)
	assert.Contains(t, res.Text, "Marksheet generated successfully")
	assert.Contains(t, res.Text, "CT-2")
	require.NotEmpty(t, res.DocumentPath)

	_, statErr := os.Stat(res.DocumentPath)
	assert.NoError(t, statErr)
}

func TestMarksheetToolNothingPublished(t *testing.T) {
	db := newToolsDB(t)
	gen, err := docgen.NewMarksheetGenerator(t.TempDir())
	require.NoError(t, err)

	chat := &scriptCompleter{t: t, replies: []string{
		`{"mode":"ok","course_code":"CSE-1202","ct_no":[1]}`,
	}}
	tool := NewMarksheetTool(chat, db, gen, nil, testLogger())

	res, err := tool.Run(context.Background(), Input{Actor: teacherActor(), Text: "marksheet for cse1202 ct1"})
	require.NoError(t, err)
	assert.Equal(t, ModeAnswer, res.Mode)
	assert.Contains(t, res.Text, "nothing to put in a marksheet")
}

func TestMarksheetToolOtherTeachersSheetsExcluded(t *testing.T) {
	db := newToolsDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveResultSheet(ctx, &storage.ResultSheet{
		ID: "s-other", Dept: "CSE", Section: "A", Series: "21",
		CourseCode: "CSE-1202", CourseName: "Data Structures", CTNo: 1,
		CreatedBy: "u-teacher-2", CreatedByName: "Someone Else", CreatedAt: 100,
	}))

	gen, err := docgen.NewMarksheetGenerator(t.TempDir())
	require.NoError(t, err)

	chat := &scriptCompleter{t: t, replies: []string{
		`{"mode":"ok","course_code":"CSE-1202","ct_no":[1]}`,
	}}
	tool := NewMarksheetTool(chat, db, gen, nil, testLogger())

	res, err := tool.Run(ctx, Input{Actor: teacherActor(), Text: "marksheet for cse1202 ct1"})
	require.NoError(t, err)
	assert.Contains(t, res.Text, "nothing to put in a marksheet")
}
