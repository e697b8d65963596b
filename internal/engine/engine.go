// Package engine ties the query compilation pieces together. It holds
// the join graph, the notebook store, and the SQL builder as one explicit
// context object passed into every compile call; there is no hidden
// module-level state.
package engine

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/stitchql/stitchql/internal/joingraph"
	"github.com/stitchql/stitchql/internal/notebook"
	"github.com/stitchql/stitchql/internal/plan"
	"github.com/stitchql/stitchql/internal/sqlbuilder"
	"github.com/stitchql/stitchql/internal/state"
)

// Config holds engine configuration.
type Config struct {
	// LineagePath is an optional join metadata file loaded at startup.
	LineagePath string
	// Graph is an optional pre-populated join graph; a fresh one is
	// created when nil.
	Graph *joingraph.Graph
	// Store is the optional notebook/compile-history store. Without a
	// store, notebook compilation by id is unavailable and compile
	// history is not recorded.
	Store state.Store
	// Builder configures SQL generation.
	Builder sqlbuilder.Options
	// Logger is the structured logger (discard if nil).
	Logger *slog.Logger
}

// Engine orchestrates deterministic query compilation.
type Engine struct {
	mu          sync.RWMutex
	graph       *joingraph.Graph
	builder     *sqlbuilder.Builder
	store       state.Store
	builderOpts sqlbuilder.Options
	lineagePath string
	logger      *slog.Logger
}

// New creates an engine. The lineage file, when configured, is loaded
// before the engine is returned so callers start with a usable graph.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	graph := cfg.Graph
	if graph == nil {
		graph = joingraph.New()
	}
	if cfg.LineagePath != "" {
		if err := graph.LoadFile(cfg.LineagePath); err != nil {
			return nil, err
		}
		logger.Debug("loaded lineage file",
			"path", cfg.LineagePath,
			"tables", graph.TableCount(),
			"edges", graph.EdgeCount())
	}

	return &Engine{
		graph:       graph,
		builder:     sqlbuilder.New(graph, cfg.Builder),
		store:       cfg.Store,
		builderOpts: cfg.Builder,
		lineagePath: cfg.LineagePath,
		logger:      logger,
	}, nil
}

// ReloadLineage re-reads the lineage file and swaps in the fresh graph.
// In-flight compiles finish against the old graph.
func (e *Engine) ReloadLineage() error {
	if e.lineagePath == "" {
		return fmt.Errorf("no lineage file configured")
	}

	graph := joingraph.New()
	if err := graph.LoadFile(e.lineagePath); err != nil {
		return err
	}

	e.mu.Lock()
	e.graph = graph
	e.builder = sqlbuilder.New(graph, e.builderOpts)
	e.mu.Unlock()

	e.logger.Info("reloaded lineage file",
		"path", e.lineagePath,
		"tables", graph.TableCount(),
		"edges", graph.EdgeCount())
	return nil
}

// LineagePath returns the configured lineage file path, if any.
func (e *Engine) LineagePath() string {
	return e.lineagePath
}

// Close releases the engine's store, if any.
func (e *Engine) Close() error {
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}

// Graph returns the join graph for read-only inspection.
func (e *Engine) Graph() *joingraph.Graph {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.graph
}

// Store returns the configured store, or nil.
func (e *Engine) Store() state.Store {
	return e.store
}

// JoinPath returns the shortest join path between two tables.
func (e *Engine) JoinPath(from, to string) ([]joingraph.Edge, bool) {
	return e.Graph().FindJoinPath(from, to)
}

// CompileQuery builds SQL for a plan. Plans without a resolved join path
// get one: first from their explicit join list, else from the join
// graph's shortest path between base table and join targets.
func (e *Engine) CompileQuery(p *plan.QueryPlan) (*sqlbuilder.Result, error) {
	if p != nil && len(p.JoinPath) == 0 && len(p.Joins) > 0 {
		p = withDerivedPath(p)
	}

	e.mu.RLock()
	builder := e.builder
	e.mu.RUnlock()

	res, err := builder.Build(p)
	e.recordPlanCompile(p, res, err)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("compiled query plan",
		"base_table", p.BaseTable,
		"joins", len(p.JoinPath),
		"warnings", len(res.Warnings))
	return res, nil
}

// CompileQueryJSON decodes a plan document and compiles it.
func (e *Engine) CompileQueryJSON(data []byte) (*sqlbuilder.Result, error) {
	p, err := plan.ParseJSON(data)
	if err != nil {
		return nil, err
	}
	return e.CompileQuery(p)
}

// CompileNotebook loads a stored notebook and compiles it down to the
// target cell (empty for the last cell).
func (e *Engine) CompileNotebook(notebookID, targetCell string) (string, error) {
	if e.store == nil {
		return "", fmt.Errorf("no notebook store configured")
	}
	n, err := e.store.GetNotebook(notebookID)
	if err != nil {
		return "", err
	}
	return e.CompileNotebookValue(n, targetCell)
}

// CompileNotebookValue compiles an in-memory notebook.
func (e *Engine) CompileNotebookValue(n *notebook.Notebook, targetCell string) (string, error) {
	sql, err := notebook.Compile(n, targetCell)
	e.recordNotebookCompile(n, targetCell, sql, err)
	if err != nil {
		return "", err
	}

	e.logger.Debug("compiled notebook",
		"notebook", n.ID,
		"target_cell", targetCell,
		"cells", len(n.Cells))
	return sql, nil
}

// withDerivedPath returns a copy of the plan whose join path follows the
// explicit join list in order. A join without a from table continues
// from the previous step's target.
func withDerivedPath(p *plan.QueryPlan) *plan.QueryPlan {
	derived := *p
	prev := p.BaseTable
	for _, j := range p.Joins {
		from := j.From
		if from == "" {
			from = prev
		}
		derived.JoinPath = append(derived.JoinPath, joingraph.Edge{From: from, To: j.To})
		prev = j.To
	}
	return &derived
}

func (e *Engine) recordPlanCompile(p *plan.QueryPlan, res *sqlbuilder.Result, buildErr error) {
	if e.store == nil {
		return
	}

	run := &state.CompileRun{Kind: state.CompilePlan}
	if p != nil {
		run.Target = p.BaseTable
	}
	if buildErr != nil {
		run.Status = state.CompileFailed
		run.Error = buildErr.Error()
	} else {
		run.Status = state.CompileSucceeded
		run.SQL = res.SQL
		run.Warnings = len(res.Warnings)
	}

	if err := e.store.RecordCompile(run); err != nil {
		e.logger.Warn("failed to record compile run", "error", err)
	}
}

func (e *Engine) recordNotebookCompile(n *notebook.Notebook, targetCell, sql string, compileErr error) {
	if e.store == nil {
		return
	}

	target := n.ID
	if targetCell != "" {
		target = fmt.Sprintf("%s/%s", n.ID, targetCell)
	}
	run := &state.CompileRun{Kind: state.CompileNotebook, Target: target}
	if compileErr != nil {
		run.Status = state.CompileFailed
		run.Error = compileErr.Error()
	} else {
		run.Status = state.CompileSucceeded
		run.SQL = sql
	}

	if err := e.store.RecordCompile(run); err != nil {
		e.logger.Warn("failed to record compile run", "error", err)
	}
}
