// Package joingraph provides an undirected graph of table join relationships.
// It supports shortest-path queries between tables for automatic join
// resolution and symmetric join-condition lookup.
package joingraph

import (
	"sort"
	"strings"
)

// JoinType is the SQL join type attached to a relationship.
type JoinType string

// Supported join types.
const (
	JoinLeft  JoinType = "LEFT"
	JoinInner JoinType = "INNER"
	JoinRight JoinType = "RIGHT"
	JoinFull  JoinType = "FULL"
)

// Condition describes how two tables join.
type Condition struct {
	// On is the literal condition text, e.g. "a.col = b.col".
	// It is stored exactly as registered, regardless of lookup direction.
	On string
	// Type is the join type to use when the condition is applied.
	Type JoinType
}

// Edge is one step of a join path. From is the table already in scope,
// To is the table being joined in.
type Edge struct {
	From string
	To   string
}

// Graph is an undirected graph of table names with a join condition on
// each edge. It has no internal locking; populate it once at startup and
// treat it as read-only afterwards.
type Graph struct {
	adjacency  map[string][]string
	conditions map[[2]string]Condition
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		adjacency:  make(map[string][]string),
		conditions: make(map[[2]string]Condition),
	}
}

// AddTable adds a table node. Adding an existing table is a no-op.
func (g *Graph) AddTable(name string) {
	if _, exists := g.adjacency[name]; !exists {
		g.adjacency[name] = []string{}
	}
}

// AddJoin registers an undirected join relationship between two tables.
// Missing tables are inserted. The condition text is stored under both
// orientations unchanged; it is never textually flipped, so a lookup from
// either side returns the same text.
func (g *Graph) AddJoin(t1, t2, on string, joinType JoinType) {
	if joinType == "" {
		joinType = JoinLeft
	}
	g.AddTable(t1)
	g.AddTable(t2)

	if !contains(g.adjacency[t1], t2) {
		g.adjacency[t1] = append(g.adjacency[t1], t2)
	}
	if !contains(g.adjacency[t2], t1) {
		g.adjacency[t2] = append(g.adjacency[t2], t1)
	}

	cond := Condition{On: on, Type: joinType}
	g.conditions[[2]string{t1, t2}] = cond
	g.conditions[[2]string{t2, t1}] = cond
}

// HasTable reports whether a table is known to the graph.
func (g *Graph) HasTable(name string) bool {
	_, exists := g.adjacency[name]
	return exists
}

// JoinCondition returns the condition registered between two tables.
// Lookup is symmetric: both orientations return the identical condition.
// Unknown pairs return false rather than an error.
func (g *Graph) JoinCondition(t1, t2 string) (Condition, bool) {
	cond, ok := g.conditions[[2]string{t1, t2}]
	return cond, ok
}

// RelatedTables returns the direct neighbors of a table, sorted.
// An unknown table yields an empty slice.
func (g *Graph) RelatedTables(name string) []string {
	neighbors := g.adjacency[name]
	out := make([]string, len(neighbors))
	copy(out, neighbors)
	sort.Strings(out)
	return out
}

// Tables returns all table names in the graph, sorted.
func (g *Graph) Tables() []string {
	names := make([]string, 0, len(g.adjacency))
	for name := range g.adjacency {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TableCount returns the number of tables in the graph.
func (g *Graph) TableCount() int {
	return len(g.adjacency)
}

// EdgeCount returns the number of distinct join relationships.
func (g *Graph) EdgeCount() int {
	return len(g.conditions) / 2
}

// FindJoinPath returns the shortest join path between two tables as an
// ordered edge sequence, found by breadth-first search on the unweighted
// graph. Neighbors are expanded in sorted order so that equal-length paths
// resolve the same way for identical graphs. Returns false when either
// table is unknown or no path exists.
func (g *Graph) FindJoinPath(from, to string) ([]Edge, bool) {
	if !g.HasTable(from) || !g.HasTable(to) {
		return nil, false
	}
	if from == to {
		return []Edge{}, true
	}

	visited := map[string]bool{from: true}
	parent := make(map[string]string)
	queue := []string{from}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, next := range g.RelatedTables(current) {
			if visited[next] {
				continue
			}
			visited[next] = true
			parent[next] = current

			if next == to {
				return reconstructPath(parent, from, to), true
			}
			queue = append(queue, next)
		}
	}

	return nil, false
}

// reconstructPath walks the BFS parent pointers back from the target.
func reconstructPath(parent map[string]string, from, to string) []Edge {
	var reversed []string
	for current := to; current != from; current = parent[current] {
		reversed = append(reversed, current)
	}
	reversed = append(reversed, from)

	path := make([]Edge, 0, len(reversed)-1)
	for i := len(reversed) - 1; i > 0; i-- {
		path = append(path, Edge{From: reversed[i], To: reversed[i-1]})
	}
	return path
}

// ShortName returns the table name after the last dot, or the name itself
// when it carries no qualification.
func ShortName(table string) string {
	if idx := strings.LastIndex(table, "."); idx >= 0 {
		return table[idx+1:]
	}
	return table
}

// contains checks if a slice contains a string.
func contains(slice []string, str string) bool {
	for _, s := range slice {
		if s == str {
			return true
		}
	}
	return false
}
