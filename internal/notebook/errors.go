package notebook

import "fmt"

// MissingCellError indicates an empty notebook or a target cell that does
// not exist.
type MissingCellError struct {
	NotebookID string
	CellID     string // empty when the notebook itself has no cells
}

func (e *MissingCellError) Error() string {
	if e.CellID == "" {
		return fmt.Sprintf("notebook %s has no cells", e.NotebookID)
	}
	return fmt.Sprintf("cell %s not found in notebook %s", e.CellID, e.NotebookID)
}

// UnknownRefError indicates a %%ref directive naming a cell that does not
// exist among the cells being compiled.
type UnknownRefError struct {
	CellID string // the cell containing the bad directive
	RefID  string // the referenced cell id that was not found
}

func (e *UnknownRefError) Error() string {
	return fmt.Sprintf("cell %s references unknown cell %s", e.CellID, e.RefID)
}

// AliasConflictError indicates one alias bound to two different source
// cells within a single compiled unit.
type AliasConflictError struct {
	Alias       string
	FirstCellID string
	OtherCellID string
}

func (e *AliasConflictError) Error() string {
	return fmt.Sprintf("alias %q is bound to both cell %s and cell %s; each alias may map to only one cell",
		e.Alias, e.FirstCellID, e.OtherCellID)
}

// DirectiveError indicates a malformed reference directive. Example
// carries the corrected form for known typo patterns.
type DirectiveError struct {
	CellID  string
	Line    string
	Reason  string
	Example string
}

func (e *DirectiveError) Error() string {
	msg := fmt.Sprintf("cell %s: malformed directive %q: %s", e.CellID, e.Line, e.Reason)
	if e.Example != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Example)
	}
	return msg
}

// StatementError indicates a cell body that is not a plain SELECT: either
// a mutating statement or no SELECT at all.
type StatementError struct {
	CellID  string
	Keyword string // offending keyword, empty when SELECT is missing
}

func (e *StatementError) Error() string {
	if e.Keyword == "" {
		return fmt.Sprintf("cell %s contains no SELECT statement; only SELECT cells can be compiled", e.CellID)
	}
	return fmt.Sprintf("cell %s contains %s; mutating statements cannot be compiled", e.CellID, e.Keyword)
}

// EmptyCellError indicates a cell with no SQL body after stripping
// directive lines.
type EmptyCellError struct {
	CellID string
}

func (e *EmptyCellError) Error() string {
	return fmt.Sprintf("cell %s is empty", e.CellID)
}

// CycleError indicates a reference cycle between cells.
type CycleError struct {
	Path []string // cell ids along the cycle, first repeated last
}

func (e *CycleError) Error() string {
	out := "reference cycle detected: "
	for i, id := range e.Path {
		if i > 0 {
			out += " -> "
		}
		out += id
	}
	return out
}
