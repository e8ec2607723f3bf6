package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Scope is the (dept, series, section) triple that bounds which records an
// actor may see. It is always sourced from the actor's own profile.
type Scope struct {
	Dept    string
	Series  string
	Section string // empty when the actor has no section
}

// warnSlow logs queries that exceed the slow-query threshold (>100ms).
func warnSlow(ctx context.Context, op string, start time.Time) {
	if duration := time.Since(start); duration > 100*time.Millisecond {
		slog.WarnContext(ctx, "slow database operation",
			"operation", op,
			"duration_ms", duration.Milliseconds())
	}
}

// ownColumn returns the type-specific column name for a material sub-type.
func ownColumn(t MaterialType) string {
	switch t {
	case MaterialClassNote:
		return "written_by"
	case MaterialLectureSlide:
		return "topic"
	case MaterialCTQuestion:
		return "ct_no"
	case MaterialSemesterQuestion:
		return "year"
	}
	return ""
}

// SaveMaterial inserts or updates one material record in its sub-type table.
func (db *DB) SaveMaterial(ctx context.Context, m *Material) error {
	if !m.Type.Valid() {
		return fmt.Errorf("invalid material type: %q", m.Type)
	}

	var own any
	switch m.Type {
	case MaterialClassNote:
		own = m.WrittenBy
	case MaterialLectureSlide:
		own = m.Topic
	case MaterialCTQuestion:
		own = m.CTNo
	case MaterialSemesterQuestion:
		own = m.Year
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, drive_url, course_code, course_name, dept, section, series, %s, created_at)
		VALUES (?, ?, ?, ?, ?, NULLIF(?, ''), ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			drive_url = excluded.drive_url,
			course_code = excluded.course_code,
			course_name = excluded.course_name,
			%s = excluded.%s
	`, m.Type.TableName(), ownColumn(m.Type), ownColumn(m.Type), ownColumn(m.Type))

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, query,
		m.ID, m.DriveURL, m.CourseCode, m.CourseName, m.Dept, m.Section, m.Series, own, m.CreatedAt)
	if err != nil {
		slog.ErrorContext(ctx, "failed to save material",
			"material_id", m.ID,
			"material_type", m.Type,
			"error", err)
		return fmt.Errorf("failed to save material: %w", err)
	}
	warnSlow(ctx, "SaveMaterial", start)
	return nil
}

// ListMaterials returns every material of one sub-type visible to the scope.
// Dept and series are always hard filters; when the scope has a section,
// rows with no section remain visible (they apply to all sections).
// Rows come back in insertion order (created_at, then id) so downstream
// ranking has a stable base order.
func (db *DB) ListMaterials(ctx context.Context, t MaterialType, scope Scope) ([]Material, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid material type: %q", t)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `SELECT id, drive_url, course_code, course_name, dept, section, series, %s, created_at FROM %s WHERE dept = ? AND series = ?`,
		ownColumn(t), t.TableName())
	args := []any{scope.Dept, scope.Series}
	if scope.Section != "" {
		sb.WriteString(` AND (section = ? OR section IS NULL)`)
		args = append(args, scope.Section)
	}
	sb.WriteString(` ORDER BY created_at ASC, id ASC`)

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		slog.ErrorContext(ctx, "failed to query materials",
			"material_type", t,
			"error", err)
		return nil, fmt.Errorf("query materials: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Material
	for rows.Next() {
		m := Material{Type: t}
		var section sql.NullString
		var own any
		switch t {
		case MaterialClassNote:
			own = &m.WrittenBy
		case MaterialLectureSlide:
			own = &m.Topic
		case MaterialCTQuestion:
			own = &m.CTNo
		case MaterialSemesterQuestion:
			own = &m.Year
		}
		if err := rows.Scan(&m.ID, &m.DriveURL, &m.CourseCode, &m.CourseName, &m.Dept, &section, &m.Series, own, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		m.Section = section.String
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate materials: %w", err)
	}
	warnSlow(ctx, "ListMaterials", start)
	return out, nil
}

// GetMaterialsByIDs loads materials by ID across all four sub-type
// tables, preserving the given order. Unknown IDs are skipped.
func (db *DB) GetMaterialsByIDs(ctx context.Context, ids []string) ([]Material, error) {
	byID := make(map[string]Material, len(ids))
	types := []MaterialType{MaterialClassNote, MaterialLectureSlide, MaterialCTQuestion, MaterialSemesterQuestion}

	for _, id := range ids {
		for _, t := range types {
			m := Material{Type: t}
			var section sql.NullString
			var own any
			switch t {
			case MaterialClassNote:
				own = &m.WrittenBy
			case MaterialLectureSlide:
				own = &m.Topic
			case MaterialCTQuestion:
				own = &m.CTNo
			case MaterialSemesterQuestion:
				own = &m.Year
			}
			query := fmt.Sprintf(`SELECT id, drive_url, course_code, course_name, dept, section, series, %s, created_at FROM %s WHERE id = ?`,
				ownColumn(t), t.TableName())
			err := db.conn.QueryRowContext(ctx, query, id).Scan(
				&m.ID, &m.DriveURL, &m.CourseCode, &m.CourseName, &m.Dept, &section, &m.Series, own, &m.CreatedAt)
			if err == sql.ErrNoRows {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("query material %s: %w", id, err)
			}
			m.Section = section.String
			byID[m.ID] = m
			break
		}
	}

	out := make([]Material, 0, len(byID))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

// SaveNotice inserts or updates a notice record.
func (db *DB) SaveNotice(ctx context.Context, n *Notice) error {
	query := `
		INSERT INTO notices (id, title, message, created_by_role, created_by_name, dept, section, series, created_at)
		VALUES (?, ?, ?, ?, ?, ?, NULLIF(?, ''), ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			message = excluded.message
	`
	start := time.Now()
	_, err := db.conn.ExecContext(ctx, query,
		n.ID, n.Title, n.Message, n.CreatedByRole, n.CreatedByName, n.Dept, n.Section, n.Series, n.CreatedAt)
	if err != nil {
		slog.ErrorContext(ctx, "failed to save notice",
			"notice_id", n.ID,
			"error", err)
		return fmt.Errorf("failed to save notice: %w", err)
	}
	warnSlow(ctx, "SaveNotice", start)
	return nil
}

// ListNotices returns every notice visible to the scope, newest first.
// Notices with no section are visible to every section in the dept/series.
func (db *DB) ListNotices(ctx context.Context, scope Scope) ([]Notice, error) {
	query := `SELECT id, title, message, created_by_role, created_by_name, dept, section, series, created_at
		FROM notices WHERE dept = ? AND series = ?`
	args := []any{scope.Dept, scope.Series}
	if scope.Section != "" {
		query += ` AND (section = ? OR section IS NULL)`
		args = append(args, scope.Section)
	}
	query += ` ORDER BY created_at DESC`

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		slog.ErrorContext(ctx, "failed to query notices", "error", err)
		return nil, fmt.Errorf("query notices: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Notice
	for rows.Next() {
		var n Notice
		var section sql.NullString
		if err := rows.Scan(&n.ID, &n.Title, &n.Message, &n.CreatedByRole, &n.CreatedByName, &n.Dept, &section, &n.Series, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notice: %w", err)
		}
		n.Section = section.String
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notices: %w", err)
	}
	warnSlow(ctx, "ListNotices", start)
	return out, nil
}

// GetNoticesByIDs loads notices by ID, preserving the given order.
// Unknown IDs are skipped.
func (db *DB) GetNoticesByIDs(ctx context.Context, ids []string) ([]Notice, error) {
	byID := make(map[string]Notice, len(ids))
	for _, id := range ids {
		var n Notice
		var section sql.NullString
		err := db.conn.QueryRowContext(ctx,
			`SELECT id, title, message, created_by_role, created_by_name, dept, section, series, created_at FROM notices WHERE id = ?`,
			id).Scan(&n.ID, &n.Title, &n.Message, &n.CreatedByRole, &n.CreatedByName, &n.Dept, &section, &n.Series, &n.CreatedAt)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("query notice %s: %w", id, err)
		}
		n.Section = section.String
		byID[n.ID] = n
	}

	out := make([]Notice, 0, len(byID))
	for _, id := range ids {
		if n, ok := byID[id]; ok {
			out = append(out, n)
		}
	}
	return out, nil
}

// SaveResultSheet inserts a result sheet header.
func (db *DB) SaveResultSheet(ctx context.Context, s *ResultSheet) error {
	query := `
		INSERT INTO result_sheets (id, dept, section, series, course_code, course_name, ct_no, created_by, created_by_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`
	_, err := db.conn.ExecContext(ctx, query,
		s.ID, s.Dept, s.Section, s.Series, s.CourseCode, s.CourseName, s.CTNo, s.CreatedBy, s.CreatedByName, s.CreatedAt)
	if err != nil {
		slog.ErrorContext(ctx, "failed to save result sheet",
			"sheet_id", s.ID,
			"error", err)
		return fmt.Errorf("failed to save result sheet: %w", err)
	}
	return nil
}

// SaveResultEntries inserts a sheet's entries in a single transaction.
func (db *DB) SaveResultEntries(ctx context.Context, entries []ResultEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO result_entries (sheet_id, roll_no, marks) VALUES (?, ?, ?)
		 ON CONFLICT(sheet_id, roll_no) DO UPDATE SET marks = excluded.marks`)
	if err != nil {
		return fmt.Errorf("prepare entries insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.SheetID, e.RollNo, e.Marks); err != nil {
			return fmt.Errorf("failed to save entry %s/%s: %w", e.SheetID, e.RollNo, err)
		}
	}

	return tx.Commit()
}

// FindResultSheet locates the sheet for (scope, course_code, ct_no).
// When the scope has no section, any section's sheet for the dept/series
// matches; the most recent one wins. Returns (nil, nil) when no sheet exists.
func (db *DB) FindResultSheet(ctx context.Context, scope Scope, courseCode string, ctNo int) (*ResultSheet, error) {
	query := `SELECT id, dept, section, series, course_code, COALESCE(course_name, ''), ct_no, created_by, created_by_name, created_at
		FROM result_sheets WHERE dept = ? AND series = ? AND course_code = ? AND ct_no = ?`
	args := []any{scope.Dept, scope.Series, courseCode, ctNo}
	if scope.Section != "" {
		query += ` AND section = ?`
		args = append(args, scope.Section)
	}
	query += ` ORDER BY created_at DESC LIMIT 1`

	var s ResultSheet
	err := db.conn.QueryRowContext(ctx, query, args...).Scan(
		&s.ID, &s.Dept, &s.Section, &s.Series, &s.CourseCode, &s.CourseName, &s.CTNo, &s.CreatedBy, &s.CreatedByName, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to query result sheet",
			"course_code", courseCode,
			"ct_no", ctNo,
			"error", err)
		return nil, fmt.Errorf("query result sheet: %w", err)
	}
	return &s, nil
}

// GetResultEntry returns one roll number's entry in a sheet,
// or (nil, nil) when the roll has no published mark.
func (db *DB) GetResultEntry(ctx context.Context, sheetID, rollNo string) (*ResultEntry, error) {
	var e ResultEntry
	err := db.conn.QueryRowContext(ctx,
		`SELECT sheet_id, roll_no, marks FROM result_entries WHERE sheet_id = ? AND roll_no = ?`,
		sheetID, rollNo).Scan(&e.SheetID, &e.RollNo, &e.Marks)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to query result entry",
			"sheet_id", sheetID,
			"error", err)
		return nil, fmt.Errorf("query result entry: %w", err)
	}
	return &e, nil
}

// ListTeacherSheets returns the sheets a teacher created for one course in
// one scope, restricted to the given CT numbers. Sheets by other teachers
// are never returned.
func (db *DB) ListTeacherSheets(ctx context.Context, teacherID string, scope Scope, courseCode string, ctNos []int) ([]ResultSheet, error) {
	if len(ctNos) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ctNos)), ",")
	query := fmt.Sprintf(`SELECT id, dept, section, series, course_code, COALESCE(course_name, ''), ct_no, created_by, created_by_name, created_at
		FROM result_sheets
		WHERE created_by = ? AND dept = ? AND series = ? AND section = ? AND course_code = ? AND ct_no IN (%s)
		ORDER BY ct_no ASC`, placeholders)

	args := []any{teacherID, scope.Dept, scope.Series, scope.Section, courseCode}
	for _, n := range ctNos {
		args = append(args, n)
	}

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		slog.ErrorContext(ctx, "failed to query teacher sheets",
			"course_code", courseCode,
			"error", err)
		return nil, fmt.Errorf("query teacher sheets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []ResultSheet
	for rows.Next() {
		var s ResultSheet
		if err := rows.Scan(&s.ID, &s.Dept, &s.Section, &s.Series, &s.CourseCode, &s.CourseName, &s.CTNo, &s.CreatedBy, &s.CreatedByName, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan result sheet: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate result sheets: %w", err)
	}
	warnSlow(ctx, "ListTeacherSheets", start)
	return out, nil
}

// GetSheetEntries returns every entry of a sheet ordered by roll number.
func (db *DB) GetSheetEntries(ctx context.Context, sheetID string) ([]ResultEntry, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT sheet_id, roll_no, marks FROM result_entries WHERE sheet_id = ? ORDER BY roll_no ASC`,
		sheetID)
	if err != nil {
		return nil, fmt.Errorf("query sheet entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []ResultEntry
	for rows.Next() {
		var e ResultEntry
		if err := rows.Scan(&e.SheetID, &e.RollNo, &e.Marks); err != nil {
			return nil, fmt.Errorf("scan sheet entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sheet entries: %w", err)
	}
	return out, nil
}

// SaveMessage appends one turn to a room's transcript.
func (db *DB) SaveMessage(ctx context.Context, m *ChatMessage) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO messages (id, room_id, role, text, created_at) VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.RoomID, m.Role, m.Text, m.CreatedAt)
	if err != nil {
		slog.ErrorContext(ctx, "failed to save message",
			"room_id", m.RoomID,
			"error", err)
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

// RecentMessages returns the last n messages of a room in chronological
// order. Insertion order breaks timestamp ties, so a user turn and its
// reply saved in the same second stay in sequence.
func (db *DB) RecentMessages(ctx context.Context, roomID string, n int) ([]ChatMessage, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, room_id, role, text, created_at FROM messages
		 WHERE room_id = ? ORDER BY rowid DESC LIMIT ?`,
		roomID, n)
	if err != nil {
		slog.ErrorContext(ctx, "failed to query messages",
			"room_id", roomID,
			"error", err)
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.RoomID, &m.Role, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	// Reverse newest-first into chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// AllNotices returns every notice across all scopes. Used to build the
// retrieval indexes at startup; scope is enforced at query time instead.
func (db *DB) AllNotices(ctx context.Context) ([]*Notice, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, title, message, created_by_role, created_by_name, dept, section, series, created_at
		 FROM notices ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("query all notices: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Notice
	for rows.Next() {
		var n Notice
		var section sql.NullString
		if err := rows.Scan(&n.ID, &n.Title, &n.Message, &n.CreatedByRole, &n.CreatedByName, &n.Dept, &section, &n.Series, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notice: %w", err)
		}
		n.Section = section.String
		out = append(out, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notices: %w", err)
	}
	return out, nil
}

// AllMaterials returns every material across all sub-type tables and
// scopes, for the startup index build.
func (db *DB) AllMaterials(ctx context.Context) ([]*Material, error) {
	var out []*Material
	for _, t := range []MaterialType{MaterialClassNote, MaterialLectureSlide, MaterialCTQuestion, MaterialSemesterQuestion} {
		rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(
			`SELECT id, drive_url, course_code, course_name, dept, section, series, %s, created_at FROM %s ORDER BY created_at ASC`,
			ownColumn(t), t.TableName()))
		if err != nil {
			return nil, fmt.Errorf("query all %s: %w", t.TableName(), err)
		}

		for rows.Next() {
			m := Material{Type: t}
			var section sql.NullString
			var own any
			switch t {
			case MaterialClassNote:
				own = &m.WrittenBy
			case MaterialLectureSlide:
				own = &m.Topic
			case MaterialCTQuestion:
				own = &m.CTNo
			case MaterialSemesterQuestion:
				own = &m.Year
			}
			if err := rows.Scan(&m.ID, &m.DriveURL, &m.CourseCode, &m.CourseName, &m.Dept, &section, &m.Series, own, &m.CreatedAt); err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("scan material: %w", err)
			}
			m.Section = section.String
			out = append(out, &m)
		}
		if err := rows.Err(); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("iterate %s: %w", t.TableName(), err)
		}
		_ = rows.Close()
	}
	return out, nil
}
