// Package sqlbuilder turns a normalized query plan plus a resolved join
// path into literal SQL text without any model call. The generated SQL
// satisfies engines that require the already-bound table to appear on the
// left side of each JOIN ... ON condition.
package sqlbuilder

import (
	"fmt"
	"strings"

	"github.com/stitchql/stitchql/internal/joingraph"
	"github.com/stitchql/stitchql/internal/plan"
)

// Default qualification applied to bare table names.
const (
	DefaultCatalog = "hive"
	DefaultSchema  = "default"
)

// Options configures a Builder.
type Options struct {
	// Catalog and Schema qualify table names that carry no dot.
	Catalog string
	Schema  string
	// StrictJoins turns the naming-convention condition fallback into a
	// hard error instead of a warning.
	StrictJoins bool
}

// Builder assembles SQL from query plans. It is a pure transformation;
// one Builder may be shared by concurrent callers as long as the graph is
// not mutated mid-call.
type Builder struct {
	graph *joingraph.Graph
	opts  Options
}

// Result is the outcome of a successful build.
type Result struct {
	SQL      string
	Warnings []Warning
}

// New creates a builder over a join graph. A nil graph is allowed; all
// condition lookups then fall through to the plan and the heuristic.
func New(graph *joingraph.Graph, opts Options) *Builder {
	if opts.Catalog == "" {
		opts.Catalog = DefaultCatalog
	}
	if opts.Schema == "" {
		opts.Schema = DefaultSchema
	}
	return &Builder{graph: graph, opts: opts}
}

// Build generates SQL for a plan. The output is deterministic: identical
// plan and graph inputs produce byte-identical SQL.
func (b *Builder) Build(p *plan.QueryPlan) (*Result, error) {
	if p == nil || p.BaseTable == "" {
		return nil, &MissingBaseTableError{}
	}

	res := &Result{}
	aliases := newAliasAllocator()

	// Replacement map shared by every clause; grows as tables join in.
	replacements := make(map[string]string)
	bind := func(table string) string {
		alias := aliases.Allocate(table)
		replacements[table] = alias
		if short := joingraph.ShortName(table); short != table {
			replacements[short] = alias
		}
		return alias
	}

	baseAlias := bind(p.BaseTable)
	fromClause := fmt.Sprintf("FROM %s %s", b.qualify(p.BaseTable), baseAlias)

	var joinClauses []string
	for _, step := range p.JoinPath {
		clause, err := b.buildJoin(p, step, aliases, bind, replacements, res)
		if err != nil {
			return nil, err
		}
		joinClauses = append(joinClauses, clause)
	}

	selectClause := b.buildSelect(p, replacements)
	whereClause := b.buildWhere(p, replacements)
	groupByClause := b.buildGroupBy(p, replacements)

	blocks := []string{selectClause, fromClause}
	blocks = append(blocks, joinClauses...)
	if whereClause != "" {
		blocks = append(blocks, whereClause)
	}
	if groupByClause != "" {
		blocks = append(blocks, groupByClause)
	}

	res.SQL = strings.Join(blocks, "\n")
	return res, nil
}

// buildJoin emits one JOIN clause for a path step.
func (b *Builder) buildJoin(p *plan.QueryPlan, step joingraph.Edge, aliases *aliasAllocator, bind func(string) string, replacements map[string]string, res *Result) (string, error) {
	boundAlias, ok := aliases.Lookup(step.From)
	if !ok {
		// A malformed path can step from a table that never entered
		// scope; bind it anyway so the clause stays well-formed.
		boundAlias = bind(step.From)
	}
	joinAlias := bind(step.To)

	condition, joinType, resolved := b.resolveCondition(p, step)
	if !resolved {
		if b.opts.StrictJoins {
			return "", &UnresolvedJoinError{From: step.From, To: step.To}
		}
		short := joingraph.ShortName(step.From)
		condition = fmt.Sprintf("%s.%s_id = %s.%s_id", boundAlias, short, joinAlias, short)
		joinType = joingraph.JoinLeft
		res.Warnings = append(res.Warnings, Warning{
			Kind:    WarnHeuristicJoin,
			Message: fmt.Sprintf("no condition known for %s -> %s; guessed %q from naming convention", step.From, step.To, condition),
		})
	} else {
		condition = rewriteIdentifiers(condition, replacements)
		condition = b.enforceScoping(condition, boundAlias, joinAlias, step, res)
	}

	return fmt.Sprintf("%s JOIN %s %s ON %s", joinType, b.qualify(step.To), joinAlias, condition), nil
}

// resolveCondition finds the ON text and join type for a path step.
// Plan joins win over the graph; matching ignores catalog/schema
// qualification. The short legacy join shape names only the joined table.
func (b *Builder) resolveCondition(p *plan.QueryPlan, step joingraph.Edge) (string, joingraph.JoinType, bool) {
	for _, j := range p.Joins {
		if !sameTable(j.To, step.To) {
			continue
		}
		if j.From != "" && !sameTable(j.From, step.From) {
			continue
		}
		if j.Condition == "" {
			continue
		}
		joinType := j.Type
		if joinType == "" {
			joinType = joingraph.JoinLeft
		}
		return j.Condition, joinType, true
	}

	if b.graph != nil {
		if cond, ok := b.graph.JoinCondition(step.From, step.To); ok {
			return cond.On, cond.Type, true
		}
	}

	return "", "", false
}

// enforceScoping rewrites "unbound = bound" conditions to "bound =
// unbound" so the left operand always refers to the table already in
// scope. Conditions that do not split cleanly on a single comparison, or
// whose sides reference neither alias unambiguously, are left alone and
// flagged.
func (b *Builder) enforceScoping(condition, boundAlias, joinAlias string, step joingraph.Edge, res *Result) string {
	left, right, ok := splitComparison(condition)
	if !ok {
		res.Warnings = append(res.Warnings, Warning{
			Kind:    WarnAmbiguousScoping,
			Message: fmt.Sprintf("condition for %s -> %s is not a single equality; operand order not verified: %q", step.From, step.To, condition),
		})
		return condition
	}

	leftBound := referencesAlias(left, boundAlias)
	leftJoin := referencesAlias(left, joinAlias)
	rightBound := referencesAlias(right, boundAlias)
	rightJoin := referencesAlias(right, joinAlias)

	switch {
	case leftJoin && !leftBound && rightBound && !rightJoin:
		return right + " = " + left
	case leftBound && !leftJoin && rightJoin && !rightBound:
		return condition
	default:
		res.Warnings = append(res.Warnings, Warning{
			Kind:    WarnAmbiguousScoping,
			Message: fmt.Sprintf("could not attribute operands of %q to %s/%s; order not verified", condition, boundAlias, joinAlias),
		})
		return condition
	}
}

// buildSelect emits the SELECT clause: re-qualified group-by columns
// followed by the metric expression.
func (b *Builder) buildSelect(p *plan.QueryPlan, replacements map[string]string) string {
	var items []string
	for _, col := range p.GroupBy {
		items = append(items, rewriteIdentifiers(col, replacements))
	}
	if p.MetricSQL != "" {
		items = append(items, rewriteIdentifiers(p.MetricSQL, replacements))
	}
	if len(items) == 0 {
		items = []string{"*"}
	}
	return "SELECT " + strings.Join(items, ", ")
}

// buildWhere emits the WHERE clause from plan filters and the time
// filter, or "" when there are none.
func (b *Builder) buildWhere(p *plan.QueryPlan, replacements map[string]string) string {
	var conds []string
	for _, f := range p.Filters {
		if f != "" {
			conds = append(conds, rewriteIdentifiers(f, replacements))
		}
	}
	if p.TimeFilter != "" {
		conds = append(conds, rewriteIdentifiers(p.TimeFilter, replacements))
	}
	if len(conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(conds, "\n  AND ")
}

// buildGroupBy mirrors the non-aggregate SELECT columns, or "" when the
// plan has no grouping.
func (b *Builder) buildGroupBy(p *plan.QueryPlan, replacements map[string]string) string {
	if len(p.GroupBy) == 0 {
		return ""
	}
	items := make([]string, 0, len(p.GroupBy))
	for _, col := range p.GroupBy {
		items = append(items, rewriteIdentifiers(col, replacements))
	}
	return "GROUP BY " + strings.Join(items, ", ")
}

// qualify prefixes a bare table name with the default catalog and schema.
func (b *Builder) qualify(table string) string {
	if strings.Contains(table, ".") {
		return table
	}
	return fmt.Sprintf("%s.%s.%s", b.opts.Catalog, b.opts.Schema, table)
}

// sameTable compares two table names ignoring qualification.
func sameTable(a, b string) bool {
	return a == b || joingraph.ShortName(a) == joingraph.ShortName(b)
}

// splitComparison splits a condition into the two sides of a single "="
// that sits outside quotes and parentheses. Returns false when there is
// not exactly one such comparison.
func splitComparison(condition string) (string, string, bool) {
	depth := 0
	idx := -1
	i := 0
	for i < len(condition) {
		ch := condition[i]
		switch {
		case ch == '\'' || ch == '"' || ch == '`':
			i = skipQuoted(condition, i, ch)
			continue
		case ch == '(':
			depth++
		case ch == ')':
			depth--
		case ch == '=' && depth == 0:
			// Skip composite operators (<=, >=, !=, <>).
			if i > 0 && (condition[i-1] == '<' || condition[i-1] == '>' || condition[i-1] == '!') {
				break
			}
			if idx >= 0 {
				return "", "", false
			}
			idx = i
		}
		i++
	}
	if idx < 0 {
		return "", "", false
	}
	left := strings.TrimSpace(condition[:idx])
	right := strings.TrimSpace(condition[idx+1:])
	if left == "" || right == "" {
		return "", "", false
	}
	return left, right, true
}

// referencesAlias reports whether an operand references a table alias as
// a qualifier ("a." at an identifier boundary).
func referencesAlias(operand, alias string) bool {
	for i := 0; i+len(alias) < len(operand); i++ {
		if operand[i:i+len(alias)] != alias {
			continue
		}
		if operand[i+len(alias)] != '.' {
			continue
		}
		if !boundaryBefore(operand, i) {
			continue
		}
		return true
	}
	return false
}
