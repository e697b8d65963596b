// Package notebook provides SQL notebook cells and their compilation into
// a single statement. Cells are independently authored SELECT statements
// that may reference each other through %%ref directives; the compiler
// stitches them together with common table expressions so internal cell
// identifiers never leak into the emitted SQL.
package notebook

import (
	"encoding/json"
	"time"
)

// Cell is one SQL cell in a notebook. Status, Error and Result are owned
// by whatever executes the compiled SQL; the compiler only reads SQL.
type Cell struct {
	ID     string          `json:"id"`
	SQL    string          `json:"sql"`
	Status string          `json:"status,omitempty"`
	Error  string          `json:"error,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

// Notebook is an ordered list of cells plus metadata. This is also the
// persisted JSON form.
type Notebook struct {
	ID        string         `json:"id"`
	Cells     []Cell         `json:"cells"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Cell returns the cell with the given id.
func (n *Notebook) Cell(id string) (*Cell, bool) {
	for i := range n.Cells {
		if n.Cells[i].ID == id {
			return &n.Cells[i], true
		}
	}
	return nil, false
}

// LastCell returns the final cell, the default compilation target.
func (n *Notebook) LastCell() (*Cell, bool) {
	if len(n.Cells) == 0 {
		return nil, false
	}
	return &n.Cells[len(n.Cells)-1], true
}
