package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
// Note: WAL mode and pragmas are configured in db.go.
func InitSchema(db *sql.DB) error {
	if err := createMaterialTables(db); err != nil {
		return err
	}
	if err := createNoticesTable(db); err != nil {
		return err
	}
	if err := createResultTables(db); err != nil {
		return err
	}
	return createMessagesTable(db)
}

// createMaterialTables creates the four material tables. They share a common
// column set plus one type-specific column each.
func createMaterialTables(db *sql.DB) error {
	tables := []struct {
		name     string
		ownField string
	}{
		{name: "class_notes", ownField: "written_by TEXT"},
		{name: "lecture_slides", ownField: "topic TEXT"},
		{name: "ct_questions", ownField: "ct_no INTEGER"},
		{name: "semester_questions", ownField: "year INTEGER"},
	}

	for _, t := range tables {
		query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			id TEXT PRIMARY KEY,
			drive_url TEXT NOT NULL,
			course_code TEXT NOT NULL,
			course_name TEXT,
			dept TEXT NOT NULL,
			section TEXT,
			series TEXT NOT NULL,
			%[2]s,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%[1]s_scope ON %[1]s(dept, series, section);
		CREATE INDEX IF NOT EXISTS idx_%[1]s_course ON %[1]s(course_code);
		`, t.name, t.ownField)

		if _, err := db.ExecContext(context.Background(), query); err != nil {
			return fmt.Errorf("failed to create %s table: %w", t.name, err)
		}
	}
	return nil
}

func createNoticesTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS notices (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		created_by_role TEXT NOT NULL,
		created_by_name TEXT NOT NULL,
		dept TEXT NOT NULL,
		section TEXT,
		series TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_notices_scope ON notices(dept, series, section);
	CREATE INDEX IF NOT EXISTS idx_notices_created_at ON notices(created_at);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create notices table: %w", err)
	}
	return nil
}

func createResultTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS result_sheets (
		id TEXT PRIMARY KEY,
		dept TEXT NOT NULL,
		section TEXT NOT NULL,
		series TEXT NOT NULL,
		course_code TEXT NOT NULL,
		course_name TEXT,
		ct_no INTEGER NOT NULL,
		created_by TEXT NOT NULL,
		created_by_name TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_result_sheets_scope ON result_sheets(dept, series, section, course_code, ct_no);
	CREATE INDEX IF NOT EXISTS idx_result_sheets_created_by ON result_sheets(created_by);

	CREATE TABLE IF NOT EXISTS result_entries (
		sheet_id TEXT NOT NULL REFERENCES result_sheets(id) ON DELETE CASCADE,
		roll_no TEXT NOT NULL,
		marks REAL NOT NULL,
		PRIMARY KEY (sheet_id, roll_no)
	);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create result tables: %w", err)
	}
	return nil
}

func createMessagesTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		room_id TEXT NOT NULL,
		role TEXT CHECK(role IN ('user', 'assistant')) NOT NULL,
		text TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_room ON messages(room_id, created_at);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create messages table: %w", err)
	}
	return nil
}
