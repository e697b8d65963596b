package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stitchql/stitchql/internal/cli/output"
	"github.com/stitchql/stitchql/internal/notebook"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCompile compiles a query plan document into SQL.
func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	res, err := s.engine.CompileQueryJSON(body)
	if err != nil {
		s.writeError(w, r, httpStatusFromError(err), err)
		return
	}

	out := output.CompileOutput{SQL: res.SQL}
	for _, warn := range res.Warnings {
		out.Warnings = append(out.Warnings, warn.Message)
	}
	writeJSON(w, http.StatusOK, out)
}

// handleJoinPath answers shortest-path queries against the join graph.
func (s *Server) handleJoinPath(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "from and to query parameters are required"})
		return
	}

	graph := s.engine.Graph()
	path, found := graph.FindJoinPath(from, to)

	out := output.PathOutput{From: from, To: to, Found: found, Steps: []output.PathStep{}}
	for _, edge := range path {
		step := output.PathStep{From: edge.From, To: edge.To}
		if cond, ok := graph.JoinCondition(edge.From, edge.To); ok {
			step.On = cond.On
			step.Type = string(cond.Type)
		}
		out.Steps = append(out.Steps, step)
	}

	status := http.StatusOK
	if !found {
		status = http.StatusNotFound
	}
	writeJSON(w, status, out)
}

func (s *Server) handleTables(w http.ResponseWriter, _ *http.Request) {
	graph := s.engine.Graph()

	out := output.TablesOutput{
		Tables:     []output.TableInfo{},
		TableCount: graph.TableCount(),
		EdgeCount:  graph.EdgeCount(),
	}
	for _, t := range graph.Tables() {
		out.Tables = append(out.Tables, output.TableInfo{Name: t, Related: graph.RelatedTables(t)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListNotebooks(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.engine.Store().ListNotebooks()
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	out := output.NotebookListOutput{Notebooks: []output.NotebookInfo{}, Total: len(summaries)}
	for _, sum := range summaries {
		out.Notebooks = append(out.Notebooks, output.NotebookInfo{
			ID:        sum.ID,
			CellCount: sum.CellCount,
			UpdatedAt: sum.UpdatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSaveNotebook(w http.ResponseWriter, r *http.Request) {
	n, ok := s.decodeNotebook(w, r)
	if !ok {
		return
	}

	if err := s.engine.Store().SaveNotebook(n); err != nil {
		s.writeError(w, r, httpStatusFromError(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": n.ID})
}

func (s *Server) handleGetNotebook(w http.ResponseWriter, r *http.Request) {
	n, err := s.engine.Store().GetNotebook(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, httpStatusFromError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) handleDeleteNotebook(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Store().DeleteNotebook(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, httpStatusFromError(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCompileNotebook compiles a stored notebook down to a target cell.
func (s *Server) handleCompileNotebook(w http.ResponseWriter, r *http.Request) {
	sql, err := s.engine.CompileNotebook(chi.URLParam(r, "id"), r.URL.Query().Get("cell"))
	if err != nil {
		s.writeError(w, r, httpStatusFromError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, output.CompileOutput{SQL: sql})
}

// handleCompileNotebookInline compiles a notebook sent in the request body
// without storing it.
func (s *Server) handleCompileNotebookInline(w http.ResponseWriter, r *http.Request) {
	n, ok := s.decodeNotebook(w, r)
	if !ok {
		return
	}

	sql, err := s.engine.CompileNotebookValue(n, r.URL.Query().Get("cell"))
	if err != nil {
		s.writeError(w, r, httpStatusFromError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, output.CompileOutput{SQL: sql})
}

func (s *Server) decodeNotebook(w http.ResponseWriter, r *http.Request) (*notebook.Notebook, bool) {
	var n notebook.Notebook
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(&n); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid notebook document: " + err.Error()})
		return nil, false
	}
	return &n, true
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Code: errorCode(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
