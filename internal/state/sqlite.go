package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/stitchql/stitchql/internal/notebook"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) a SQLite store at the given path and runs
// pending migrations. Use ":memory:" for an in-memory store.
func Open(path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.Migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an existing connection without running migrations.
// Intended for tests.
func NewWithDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// --- Notebook operations ---

// SaveNotebook inserts or replaces a notebook. The notebook is stored in
// its persisted JSON form; CreatedAt is preserved on update and UpdatedAt
// is refreshed.
func (s *SQLiteStore) SaveNotebook(n *notebook.Notebook) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now

	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notebook %s: %w", n.ID, err)
	}

	_, err = s.db.Exec(
		`INSERT INTO notebooks (id, data, created_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		n.ID, string(data), n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save notebook %s: %w", n.ID, err)
	}
	return nil
}

// GetNotebook loads a notebook by id.
func (s *SQLiteStore) GetNotebook(id string) (*notebook.Notebook, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM notebooks WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("notebook %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load notebook %s: %w", id, err)
	}

	var n notebook.Notebook
	if err := json.Unmarshal([]byte(data), &n); err != nil {
		return nil, fmt.Errorf("failed to decode notebook %s: %w", id, err)
	}
	return &n, nil
}

// ListNotebooks returns summaries of all stored notebooks, most recently
// updated first.
func (s *SQLiteStore) ListNotebooks() ([]NotebookSummary, error) {
	rows, err := s.db.Query(`SELECT id, data, updated_at FROM notebooks ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list notebooks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []NotebookSummary
	for rows.Next() {
		var id, data string
		var updatedAt time.Time
		if err := rows.Scan(&id, &data, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notebook row: %w", err)
		}

		var n notebook.Notebook
		if err := json.Unmarshal([]byte(data), &n); err != nil {
			return nil, fmt.Errorf("failed to decode notebook %s: %w", id, err)
		}
		out = append(out, NotebookSummary{
			ID:        id,
			CellCount: len(n.Cells),
			UpdatedAt: updatedAt,
		})
	}
	return out, rows.Err()
}

// DeleteNotebook removes a notebook by id.
func (s *SQLiteStore) DeleteNotebook(id string) error {
	res, err := s.db.Exec(`DELETE FROM notebooks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete notebook %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("notebook %s: %w", id, ErrNotFound)
	}
	return nil
}

// --- Compile history ---

// RecordCompile stores one compile outcome. Missing ids and timestamps
// are filled in.
func (s *SQLiteStore) RecordCompile(run *CompileRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO compile_runs (id, kind, target, status, sql_text, error, warnings, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Kind, run.Target, run.Status, run.SQL, run.Error, run.Warnings, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record compile run: %w", err)
	}
	return nil
}

// ListCompiles returns the most recent compile runs, newest first.
func (s *SQLiteStore) ListCompiles(limit int) ([]*CompileRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, kind, target, status, sql_text, error, warnings, created_at
		 FROM compile_runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list compile runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*CompileRun
	for rows.Next() {
		run := &CompileRun{}
		if err := rows.Scan(&run.ID, &run.Kind, &run.Target, &run.Status, &run.SQL, &run.Error, &run.Warnings, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan compile run: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
