package sqlbuilder

import "fmt"

// MissingBaseTableError indicates a plan with no base table; nothing can
// be generated from it. Callers treat any Build error as "generation
// failed" and fall back to an alternative generator.
type MissingBaseTableError struct{}

func (e *MissingBaseTableError) Error() string {
	return "query plan has no base table"
}

// UnresolvedJoinError is returned in strict mode when no join condition
// could be resolved for a path step from either the plan or the join
// graph.
type UnresolvedJoinError struct {
	From string
	To   string
}

func (e *UnresolvedJoinError) Error() string {
	return fmt.Sprintf("no join condition known for %s -> %s", e.From, e.To)
}

// WarningKind classifies a build warning.
type WarningKind string

// Warning kinds.
const (
	// WarnHeuristicJoin means no condition was found and a naming
	// convention guess was emitted instead.
	WarnHeuristicJoin WarningKind = "heuristic_join"
	// WarnAmbiguousScoping means the ON condition's operand order could
	// not be verified against the bound table.
	WarnAmbiguousScoping WarningKind = "ambiguous_scoping"
)

// Warning flags a correctness risk in generated SQL that did not stop
// generation.
type Warning struct {
	Kind    WarningKind
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Kind, w.Message)
}
