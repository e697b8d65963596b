package joingraph

// loader.go - join metadata import from lineage files

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// EdgeSpec is one relationship entry in a lineage file.
type EdgeSpec struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
	On   string `json:"on" yaml:"on"`
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
}

// LineageFile is the persisted form of the join metadata.
type LineageFile struct {
	Edges []EdgeSpec `json:"edges" yaml:"edges"`
}

// LoadFile reads join metadata from a JSON or YAML lineage file and
// registers every edge in the graph. The format is chosen by extension;
// anything that is not .yaml/.yml is parsed as JSON. Edges without an
// explicit type default to LEFT.
func (g *Graph) LoadFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read lineage file: %w", err)
	}

	var lf LineageFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, &lf); err != nil {
			return fmt.Errorf("failed to parse lineage yaml %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(content, &lf); err != nil {
			return fmt.Errorf("failed to parse lineage json %s: %w", path, err)
		}
	}

	return g.LoadEdges(lf.Edges)
}

// LoadEdges registers a batch of edge specs.
func (g *Graph) LoadEdges(edges []EdgeSpec) error {
	for i, e := range edges {
		if e.From == "" || e.To == "" {
			return fmt.Errorf("lineage edge %d: both from and to are required", i)
		}
		if e.On == "" {
			return fmt.Errorf("lineage edge %d (%s -> %s): on condition is required", i, e.From, e.To)
		}
		joinType, err := parseJoinType(e.Type)
		if err != nil {
			return fmt.Errorf("lineage edge %d (%s -> %s): %w", i, e.From, e.To, err)
		}
		g.AddJoin(e.From, e.To, e.On, joinType)
	}
	return nil
}

// parseJoinType maps a lineage file type string to a JoinType.
// Empty defaults to LEFT.
func parseJoinType(s string) (JoinType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return JoinLeft, nil
	case "LEFT":
		return JoinLeft, nil
	case "INNER":
		return JoinInner, nil
	case "RIGHT":
		return JoinRight, nil
	case "FULL":
		return JoinFull, nil
	default:
		return "", fmt.Errorf("unknown join type %q", s)
	}
}
