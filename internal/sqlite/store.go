// Package sqlite persists form documents in a SQLite database using the pure
// Go modernc driver. Field lists and answers are stored as JSON columns.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/goliatone/go-formbuilder/pkg/document"
	"github.com/goliatone/go-formbuilder/pkg/model"
)

//go:embed schema.sql
var schemaSQL string

const timeLayout = time.RFC3339Nano

// Store implements document.Store on SQLite.
type Store struct {
	db *sql.DB
}

var _ document.Store = (*Store)(nil)

// Open creates the parent directory if needed, opens the database at path
// and applies the schema. The schema is idempotent so existing databases are
// reused.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite: database path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	// A single connection keeps writes serialised and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context, id string) (model.Form, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT form_id, name, description, fields, version, created_at, updated_at FROM forms WHERE form_id = ?`,
		strings.TrimSpace(id))
	form, err := scanForm(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Form{}, document.ErrFormNotFound
	}
	return form, err
}

func (s *Store) Save(ctx context.Context, form model.Form) error {
	form.ID = strings.TrimSpace(form.ID)
	if form.ID == "" {
		return document.ErrInvalidForm
	}
	fieldsJSON, err := json.Marshal(nonNilFields(form.Fields))
	if err != nil {
		return fmt.Errorf("sqlite: encode fields: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO forms (form_id, name, description, fields, version, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (form_id) DO UPDATE SET
    name = excluded.name,
    description = excluded.description,
    fields = excluded.fields,
    version = excluded.version,
    updated_at = excluded.updated_at`,
		form.ID, form.Name, form.Description, string(fieldsJSON), form.Version,
		form.CreatedAt.UTC().Format(timeLayout), form.UpdatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("sqlite: save form %q: %w", form.ID, err)
	}
	return nil
}

// Delete removes the form and its submissions in one transaction.
func (s *Store) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM forms WHERE form_id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete form %q: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return document.ErrFormNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM submissions WHERE form_id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: delete submissions of %q: %w", id, err)
	}
	return tx.Commit()
}

func (s *Store) List(ctx context.Context) ([]model.Form, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT form_id, name, description, fields, version, created_at, updated_at FROM forms`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list forms: %w", err)
	}
	defer rows.Close()

	var out []model.Form
	for rows.Next() {
		form, err := scanForm(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, form)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Timestamps are text; order in Go so ties break the same way as the
	// memory store.
	document.SortForms(out)
	return out, nil
}

func (s *Store) SaveSubmission(ctx context.Context, submission document.Submission) error {
	submission.FormID = strings.TrimSpace(submission.FormID)
	if err := s.exists(ctx, submission.FormID); err != nil {
		return err
	}
	answers := submission.Answers
	if answers == nil {
		answers = map[string]any{}
	}
	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("sqlite: encode answers: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO submissions (submission_id, form_id, form_version, answers, submitter, created_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		submission.ID, submission.FormID, submission.FormVersion, string(answersJSON),
		submission.Submitter, submission.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("sqlite: save submission: %w", err)
	}
	return nil
}

func (s *Store) ListSubmissions(ctx context.Context, formID string) ([]document.Submission, error) {
	formID = strings.TrimSpace(formID)
	if err := s.exists(ctx, formID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT submission_id, form_id, form_version, answers, submitter, created_at
FROM submissions WHERE form_id = ? ORDER BY created_at, rowid`, formID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list submissions: %w", err)
	}
	defer rows.Close()

	out := []document.Submission{}
	for rows.Next() {
		var (
			record    document.Submission
			answers   string
			createdAt string
		)
		if err := rows.Scan(&record.ID, &record.FormID, &record.FormVersion, &answers, &record.Submitter, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(answers), &record.Answers); err != nil {
			return nil, fmt.Errorf("sqlite: decode answers of %q: %w", record.ID, err)
		}
		if record.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func (s *Store) exists(ctx context.Context, formID string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM forms WHERE form_id = ?`, strings.TrimSpace(formID)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return document.ErrFormNotFound
	}
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanForm(row scanner) (model.Form, error) {
	var (
		form       model.Form
		fieldsJSON string
		createdAt  string
		updatedAt  string
	)
	if err := row.Scan(&form.ID, &form.Name, &form.Description, &fieldsJSON, &form.Version, &createdAt, &updatedAt); err != nil {
		return model.Form{}, err
	}
	if err := json.Unmarshal([]byte(fieldsJSON), &form.Fields); err != nil {
		return model.Form{}, fmt.Errorf("sqlite: decode fields of %q: %w", form.ID, err)
	}
	var err error
	if form.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return model.Form{}, err
	}
	if form.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return model.Form{}, err
	}
	return form, nil
}

func nonNilFields(fields []model.Field) []model.Field {
	if fields == nil {
		return []model.Field{}
	}
	return fields
}
