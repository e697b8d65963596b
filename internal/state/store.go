// Package state provides persistence for notebooks and compile history
// using SQLite.
package state

import (
	"errors"
	"time"

	"github.com/stitchql/stitchql/internal/notebook"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// CompileKind distinguishes what was compiled.
type CompileKind string

// Compile kinds.
const (
	CompilePlan     CompileKind = "plan"
	CompileNotebook CompileKind = "notebook"
)

// CompileStatus records the outcome of a compile.
type CompileStatus string

// Compile statuses.
const (
	CompileSucceeded CompileStatus = "succeeded"
	CompileFailed    CompileStatus = "failed"
)

// CompileRun is one recorded compilation.
type CompileRun struct {
	ID        string
	Kind      CompileKind
	Target    string // base table or notebook id
	Status    CompileStatus
	SQL       string
	Error     string
	Warnings  int
	CreatedAt time.Time
}

// NotebookSummary is a listing row for stored notebooks.
type NotebookSummary struct {
	ID        string
	CellCount int
	UpdatedAt time.Time
}

// Store is the persistence interface used by the engine.
type Store interface {
	SaveNotebook(n *notebook.Notebook) error
	GetNotebook(id string) (*notebook.Notebook, error)
	ListNotebooks() ([]NotebookSummary, error)
	DeleteNotebook(id string) error

	RecordCompile(run *CompileRun) error
	ListCompiles(limit int) ([]*CompileRun, error)

	Close() error
}
