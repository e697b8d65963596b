// Package plan defines the normalized query plan consumed by the SQL
// builder. Plans arrive as JSON from an external planner in two historical
// join-list shapes; both are normalized into one tagged structure here, at
// the input boundary, so downstream code never branches on shape.
package plan

import (
	"encoding/json"
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/stitchql/stitchql/internal/joingraph"
)

// Join is one explicit join instruction in a plan.
type Join struct {
	// From is the table already in scope. Empty when the plan used the
	// short join shape, which names only the joined table.
	From string
	// To is the table being joined in.
	To string
	// Condition is the literal ON text.
	Condition string
	// Type is the join type; empty means LEFT.
	Type joingraph.JoinType
}

// QueryPlan is the normalized query plan.
type QueryPlan struct {
	BaseTable  string
	Joins      []Join
	JoinPath   []joingraph.Edge
	MetricSQL  string
	GroupBy    []string
	Filters    []string
	TimeFilter string
}

// fullJoin is the long persisted join shape.
type fullJoin struct {
	FromTable string `mapstructure:"from_table"`
	ToTable   string `mapstructure:"to_table"`
	Condition string `mapstructure:"condition"`
	Type      string `mapstructure:"type"`
}

// shortJoin is the legacy persisted join shape.
type shortJoin struct {
	Table string `mapstructure:"table"`
	On    string `mapstructure:"on"`
	Type  string `mapstructure:"type"`
}

// rawPlan mirrors the persisted JSON document.
type rawPlan struct {
	BaseTable  string           `json:"base_table"`
	Joins      []map[string]any `json:"joins"`
	JoinPath   [][]string       `json:"join_path"`
	MetricSQL  string           `json:"metric_sql"`
	GroupBy    []string         `json:"group_by"`
	Filters    []string         `json:"filters"`
	TimeFilter string           `json:"time_filter"`
}

// ParseError reports a malformed plan document.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid plan: %s", e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseJSON decodes a plan document and normalizes it.
func ParseJSON(data []byte) (*QueryPlan, error) {
	var raw rawPlan
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Reason: "failed to parse plan JSON", Err: err}
	}
	p, err := normalize(&raw)
	if err != nil {
		return nil, &ParseError{Reason: err.Error(), Err: err}
	}
	return p, nil
}

// normalize converts the raw document into the tagged QueryPlan.
func normalize(raw *rawPlan) (*QueryPlan, error) {
	p := &QueryPlan{
		BaseTable:  raw.BaseTable,
		MetricSQL:  raw.MetricSQL,
		GroupBy:    raw.GroupBy,
		Filters:    raw.Filters,
		TimeFilter: raw.TimeFilter,
	}

	for i, entry := range raw.Joins {
		join, err := normalizeJoin(entry)
		if err != nil {
			return nil, fmt.Errorf("join %d: %w", i, err)
		}
		p.Joins = append(p.Joins, join)
	}

	for i, pair := range raw.JoinPath {
		if len(pair) != 2 {
			return nil, fmt.Errorf("join_path step %d: expected [from, to], got %d elements", i, len(pair))
		}
		p.JoinPath = append(p.JoinPath, joingraph.Edge{From: pair[0], To: pair[1]})
	}

	return p, nil
}

// normalizeJoin decodes one join map, accepting both persisted shapes.
// The long shape wins when both marker keys are present.
func normalizeJoin(entry map[string]any) (Join, error) {
	if _, hasTo := entry["to_table"]; hasTo {
		var fj fullJoin
		if err := mapstructure.Decode(entry, &fj); err != nil {
			return Join{}, fmt.Errorf("failed to decode join: %w", err)
		}
		if fj.ToTable == "" {
			return Join{}, fmt.Errorf("to_table is required")
		}
		return Join{
			From:      fj.FromTable,
			To:        fj.ToTable,
			Condition: fj.Condition,
			Type:      normalizeType(fj.Type),
		}, nil
	}

	if _, hasTable := entry["table"]; hasTable {
		var sj shortJoin
		if err := mapstructure.Decode(entry, &sj); err != nil {
			return Join{}, fmt.Errorf("failed to decode join: %w", err)
		}
		if sj.Table == "" {
			return Join{}, fmt.Errorf("table is required")
		}
		return Join{
			To:        sj.Table,
			Condition: sj.On,
			Type:      normalizeType(sj.Type),
		}, nil
	}

	return Join{}, fmt.Errorf("unrecognized join shape: need to_table or table key")
}

// normalizeType maps a persisted type string to a JoinType, defaulting to LEFT.
func normalizeType(s string) joingraph.JoinType {
	switch s {
	case "INNER", "inner":
		return joingraph.JoinInner
	case "RIGHT", "right":
		return joingraph.JoinRight
	case "FULL", "full":
		return joingraph.JoinFull
	default:
		return joingraph.JoinLeft
	}
}
