package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitchql/stitchql/internal/joingraph"
)

func TestParseJSON_FullJoinShape(t *testing.T) {
	doc := `{
		"base_table": "customer",
		"joins": [
			{"from_table": "customer", "to_table": "orders", "condition": "orders.o_custkey = customer.c_custkey", "type": "INNER"}
		],
		"join_path": [["customer", "orders"]],
		"metric_sql": "SUM(orders.o_totalprice) AS revenue",
		"group_by": ["customer.c_mktsegment"],
		"filters": ["orders.o_orderstatus = 'F'"],
		"time_filter": "orders.o_orderdate >= DATE '1995-01-01'"
	}`

	p, err := ParseJSON([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, "customer", p.BaseTable)
	require.Len(t, p.Joins, 1)
	assert.Equal(t, Join{
		From:      "customer",
		To:        "orders",
		Condition: "orders.o_custkey = customer.c_custkey",
		Type:      joingraph.JoinInner,
	}, p.Joins[0])
	require.Len(t, p.JoinPath, 1)
	assert.Equal(t, joingraph.Edge{From: "customer", To: "orders"}, p.JoinPath[0])
	assert.Equal(t, "SUM(orders.o_totalprice) AS revenue", p.MetricSQL)
	assert.Equal(t, []string{"customer.c_mktsegment"}, p.GroupBy)
	assert.Equal(t, []string{"orders.o_orderstatus = 'F'"}, p.Filters)
	assert.Equal(t, "orders.o_orderdate >= DATE '1995-01-01'", p.TimeFilter)
}

func TestParseJSON_ShortJoinShape(t *testing.T) {
	doc := `{
		"base_table": "customer",
		"joins": [
			{"table": "orders", "on": "orders.o_custkey = customer.c_custkey"}
		],
		"metric_sql": "COUNT(*) AS n"
	}`

	p, err := ParseJSON([]byte(doc))
	require.NoError(t, err)

	require.Len(t, p.Joins, 1)
	assert.Empty(t, p.Joins[0].From, "short shape carries no from table")
	assert.Equal(t, "orders", p.Joins[0].To)
	assert.Equal(t, "orders.o_custkey = customer.c_custkey", p.Joins[0].Condition)
	assert.Equal(t, joingraph.JoinLeft, p.Joins[0].Type, "missing type defaults to LEFT")
}

func TestParseJSON_MixedJoinShapes(t *testing.T) {
	doc := `{
		"base_table": "a",
		"joins": [
			{"from_table": "a", "to_table": "b", "condition": "a.id = b.a_id"},
			{"table": "c", "on": "b.id = c.b_id", "type": "FULL"}
		]
	}`

	p, err := ParseJSON([]byte(doc))
	require.NoError(t, err)
	require.Len(t, p.Joins, 2)
	assert.Equal(t, "b", p.Joins[0].To)
	assert.Equal(t, joingraph.JoinLeft, p.Joins[0].Type)
	assert.Equal(t, "c", p.Joins[1].To)
	assert.Equal(t, joingraph.JoinFull, p.Joins[1].Type)
}

func TestParseJSON_BadJoinShape(t *testing.T) {
	doc := `{"base_table": "a", "joins": [{"nonsense": true}]}`

	_, err := ParseJSON([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "join 0")
}

func TestParseJSON_BadJoinPathStep(t *testing.T) {
	doc := `{"base_table": "a", "join_path": [["only_one"]]}`

	_, err := ParseJSON([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "join_path step 0")
}

func TestParseJSON_InvalidJSON(t *testing.T) {
	_, err := ParseJSON([]byte("{nope"))
	require.Error(t, err)
}
