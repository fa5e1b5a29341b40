package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/matsen/attacktree/internal/assessment"
	"github.com/matsen/attacktree/internal/score"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// selectAssessmentFields contains the standard field list for SELECT queries.
const selectAssessmentFields = `id, model, source, output, mode,
	total, rating, level, nodes, leaves, created_at`

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS assessments (
			id TEXT PRIMARY KEY,
			model TEXT NOT NULL,
			source TEXT,
			output TEXT,
			mode TEXT NOT NULL,
			total REAL NOT NULL,
			rating REAL NOT NULL,
			level TEXT NOT NULL,
			nodes INTEGER NOT NULL,
			leaves INTEGER NOT NULL,
			created_at TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_assessments_model ON assessments(model);
		CREATE INDEX IF NOT EXISTS idx_assessments_created ON assessments(created_at);
	`

	if _, err := db.Exec(schema); err != nil {
		return err
	}
	return createSnapshotSchema(db)
}

// RebuildAssessmentsFromJSONL clears the assessments table and rebuilds it from a JSONL file.
func (d *DB) RebuildAssessmentsFromJSONL(jsonlPath string) (int, error) {
	records, err := ReadAllAssessments(jsonlPath)
	if err != nil {
		return 0, fmt.Errorf("reading JSONL: %w", err)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM assessments"); err != nil {
		return 0, fmt.Errorf("clearing assessments table: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO assessments (` + selectAssessmentFields + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing assessments insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(assessmentArgs(r)...); err != nil {
			return 0, fmt.Errorf("inserting assessment %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing rebuild: %w", err)
	}
	return len(records), nil
}

// InsertAssessment inserts a single record into the database.
func (d *DB) InsertAssessment(r assessment.Record) error {
	_, err := d.db.Exec(`
		INSERT OR REPLACE INTO assessments (`+selectAssessmentFields+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, assessmentArgs(r)...)
	return err
}

// ListAssessments returns the most recent records first. A limit of 0 or
// less returns every record.
func (d *DB) ListAssessments(limit int) ([]assessment.Record, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := d.db.Query(`
		SELECT `+selectAssessmentFields+`
		FROM assessments
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing assessments: %w", err)
	}
	defer rows.Close()

	return scanAssessments(rows)
}

// ListAssessmentsForModel returns the records for one model, most recent first.
func (d *DB) ListAssessmentsForModel(model string) ([]assessment.Record, error) {
	rows, err := d.db.Query(`
		SELECT `+selectAssessmentFields+`
		FROM assessments
		WHERE model = ?
		ORDER BY created_at DESC, rowid DESC
	`, model)
	if err != nil {
		return nil, fmt.Errorf("listing assessments for %s: %w", model, err)
	}
	defer rows.Close()

	return scanAssessments(rows)
}

// GetAssessment retrieves a record by ID. Returns
// assessment.ErrAssessmentNotFound if there is none.
func (d *DB) GetAssessment(id string) (*assessment.Record, error) {
	row := d.db.QueryRow(`SELECT `+selectAssessmentFields+` FROM assessments WHERE id = ?`, id)
	r, err := scanAssessment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", assessment.ErrAssessmentNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// CountAssessments returns the number of records in the database.
func (d *DB) CountAssessments() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM assessments").Scan(&count)
	return count, err
}

func assessmentArgs(r assessment.Record) []any {
	return []any{
		r.ID, r.Model, nullableString(r.Source), nullableString(r.Output), string(r.Mode),
		r.Total, r.Rating, string(r.Level), r.Nodes, r.Leaves, nullableString(r.CreatedAt),
	}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAssessment(s scanner) (*assessment.Record, error) {
	var r assessment.Record
	var source, output, createdAt sql.NullString
	var mode, level string
	err := s.Scan(&r.ID, &r.Model, &source, &output, &mode,
		&r.Total, &r.Rating, &level, &r.Nodes, &r.Leaves, &createdAt)
	if err != nil {
		return nil, err
	}
	r.Source = source.String
	r.Output = output.String
	r.CreatedAt = createdAt.String
	r.Mode = score.Mode(mode)
	r.Level = score.Level(level)
	return &r, nil
}

func scanAssessments(rows *sql.Rows) ([]assessment.Record, error) {
	var records []assessment.Record
	for rows.Next() {
		r, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

// nullableString stores empty strings as NULL.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
