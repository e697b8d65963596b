package output

// JSON output shapes shared by commands and the HTTP API.

// CompileOutput is the result of compiling a query plan or a notebook.
type CompileOutput struct {
	SQL      string   `json:"sql"`
	Warnings []string `json:"warnings,omitempty"`
}

// PathStep is one hop of a join path.
type PathStep struct {
	From string `json:"from"`
	To   string `json:"to"`
	On   string `json:"on,omitempty"`
	Type string `json:"type,omitempty"`
}

// PathOutput is the result of a join-path lookup.
type PathOutput struct {
	From  string     `json:"from"`
	To    string     `json:"to"`
	Found bool       `json:"found"`
	Steps []PathStep `json:"steps"`
}

// TableInfo describes one table in the join graph.
type TableInfo struct {
	Name    string   `json:"name"`
	Related []string `json:"related"`
}

// TablesOutput lists the join graph contents.
type TablesOutput struct {
	Tables     []TableInfo `json:"tables"`
	TableCount int         `json:"table_count"`
	EdgeCount  int         `json:"edge_count"`
}

// NotebookListOutput lists stored notebooks.
type NotebookListOutput struct {
	Notebooks []NotebookInfo `json:"notebooks"`
	Total     int            `json:"total"`
}

// NotebookInfo summarizes one stored notebook.
type NotebookInfo struct {
	ID        string `json:"id"`
	CellCount int    `json:"cell_count"`
	UpdatedAt string `json:"updated_at"`
}
