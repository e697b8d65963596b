package notebook

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nb(cells ...Cell) *Notebook {
	return &Notebook{ID: "nb1", Cells: cells}
}

func TestCompile_SingleRef(t *testing.T) {
	n := nb(
		Cell{ID: "A", SQL: "SELECT 1 AS x"},
		Cell{ID: "B", SQL: "%%ref A AS base\nSELECT * FROM base"},
	)

	sql, err := Compile(n, "")
	require.NoError(t, err)

	want := "WITH\n  base AS (\n  SELECT *\n  FROM (\n    SELECT 1 AS x\n  ) base_subq\n)\nSELECT * FROM base"
	assert.Equal(t, want, sql)
}

func TestCompile_NoRefsPassesBodyThrough(t *testing.T) {
	n := nb(Cell{ID: "A", SQL: "SELECT 1 AS x"})

	sql, err := Compile(n, "")
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1 AS x", sql)
}

func TestCompile_ChainedRefs(t *testing.T) {
	n := nb(
		Cell{ID: "A", SQL: "SELECT 1 AS x"},
		Cell{ID: "B", SQL: "%%ref A AS base\nSELECT x + 1 AS y FROM base"},
		Cell{ID: "C", SQL: "%%ref B AS step\nSELECT y FROM step"},
	)

	sql, err := Compile(n, "")
	require.NoError(t, err)

	// B's CTE must be emitted after its own dependency A.
	baseIdx := indexOf(t, sql, "base AS (")
	stepIdx := indexOf(t, sql, "step AS (")
	assert.Less(t, baseIdx, stepIdx, "dependency CTE must come first")
	assert.Contains(t, sql, "SELECT y FROM step")
	assert.NotContains(t, sql, "\nB\n", "cell ids must not leak")
}

func TestCompile_RawCellIDRewritten(t *testing.T) {
	n := nb(
		Cell{ID: "stats", SQL: "SELECT 1 AS x"},
		// The body references the dependency by cell id, not alias.
		Cell{ID: "B", SQL: "%%ref stats AS s\nSELECT * FROM stats"},
	)

	sql, err := Compile(n, "")
	require.NoError(t, err)
	assert.Contains(t, sql, "SELECT * FROM s")
	assert.NotContains(t, sql, "FROM stats")
}

func TestCompile_TargetCellPrefix(t *testing.T) {
	n := nb(
		Cell{ID: "A", SQL: "SELECT 1 AS x"},
		Cell{ID: "B", SQL: "%%ref A AS base\nSELECT * FROM base"},
		Cell{ID: "C", SQL: "DROP TABLE x"},
	)

	// Compiling B ignores the invalid later cell entirely.
	sql, err := Compile(n, "B")
	require.NoError(t, err)
	assert.Contains(t, sql, "WITH\n  base AS (")
}

func TestCompile_RefToLaterCellIsUnknown(t *testing.T) {
	n := nb(
		Cell{ID: "A", SQL: "%%ref C AS future\nSELECT * FROM future"},
		Cell{ID: "B", SQL: "SELECT 1"},
		Cell{ID: "C", SQL: "SELECT 2"},
	)

	_, err := Compile(n, "A")
	require.Error(t, err)
	var unknown *UnknownRefError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "A", unknown.CellID)
	assert.Equal(t, "C", unknown.RefID)
}

func TestCompile_UnknownRef(t *testing.T) {
	n := nb(Cell{ID: "A", SQL: "%%ref nope AS x\nSELECT * FROM x"})

	_, err := Compile(n, "")
	require.Error(t, err)
	var unknown *UnknownRefError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "nope", unknown.RefID)
}

func TestCompile_AliasConflictNamesBothCells(t *testing.T) {
	n := nb(
		Cell{ID: "A", SQL: "SELECT 1"},
		Cell{ID: "B", SQL: "SELECT 2"},
		Cell{ID: "C", SQL: "%%ref A AS x\n%%ref B AS x\nSELECT * FROM x"},
	)

	_, err := Compile(n, "")
	require.Error(t, err)
	var conflict *AliasConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "x", conflict.Alias)
	assert.Contains(t, err.Error(), "A")
	assert.Contains(t, err.Error(), "B")
}

func TestCompile_AliasConflictAcrossClosure(t *testing.T) {
	n := nb(
		Cell{ID: "A", SQL: "SELECT 1"},
		Cell{ID: "B", SQL: "SELECT 2"},
		Cell{ID: "C", SQL: "%%ref A AS x\nSELECT * FROM x"},
		Cell{ID: "D", SQL: "%%ref C AS mid\n%%ref B AS x\nSELECT * FROM mid JOIN x ON mid.id = x.id"},
	)

	_, err := Compile(n, "")
	require.Error(t, err)
	var conflict *AliasConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "x", conflict.Alias)
}

func TestCompile_SameRefTwiceIsNotAConflict(t *testing.T) {
	n := nb(
		Cell{ID: "A", SQL: "SELECT 1 AS x"},
		Cell{ID: "B", SQL: "%%ref A AS base\nSELECT * FROM base"},
		Cell{ID: "C", SQL: "%%ref A AS base\n%%ref B AS b\nSELECT * FROM base JOIN b ON base.x = b.x"},
	)

	sql, err := Compile(n, "")
	require.NoError(t, err)
	// The shared alias resolves once; only one base CTE appears.
	assert.Equal(t, 1, strings.Count(sql, "base AS ("))
}

func TestCompile_CycleDetected(t *testing.T) {
	n := nb(
		Cell{ID: "A", SQL: "%%ref B AS b\nSELECT * FROM b"},
		Cell{ID: "B", SQL: "%%ref A AS a\nSELECT * FROM a"},
	)

	_, err := Compile(n, "B")
	require.Error(t, err)
	var cycle *CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Contains(t, err.Error(), "A")
	assert.Contains(t, err.Error(), "B")
}

func TestCompile_SelfReferenceIsACycle(t *testing.T) {
	n := nb(Cell{ID: "A", SQL: "%%ref A AS me\nSELECT * FROM me"})

	_, err := Compile(n, "")
	require.Error(t, err)
	var cycle *CycleError
	require.ErrorAs(t, err, &cycle)
}

func TestCompile_EmptyNotebook(t *testing.T) {
	_, err := Compile(nb(), "")
	require.Error(t, err)
	var missing *MissingCellError
	require.ErrorAs(t, err, &missing)

	_, err = Compile(nil, "")
	require.Error(t, err)
}

func TestCompile_MissingTargetCell(t *testing.T) {
	n := nb(Cell{ID: "A", SQL: "SELECT 1"})

	_, err := Compile(n, "missing")
	require.Error(t, err)
	var missing *MissingCellError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "missing", missing.CellID)
}

func TestCompile_MutatingStatementRejected(t *testing.T) {
	for _, stmt := range []string{
		"DROP TABLE x",
		"drop table x",
		"DELETE FROM t WHERE 1=1",
		"INSERT INTO t SELECT 1",
		"TRUNCATE t",
	} {
		n := nb(Cell{ID: "A", SQL: stmt})
		_, err := Compile(n, "")
		require.Error(t, err, "statement %q must be rejected", stmt)
		var se *StatementError
		require.ErrorAs(t, err, &se, "statement %q", stmt)
	}
}

func TestCompile_MutatingReferencedCellRejected(t *testing.T) {
	n := nb(
		Cell{ID: "A", SQL: "UPDATE t SET x = 1"},
		Cell{ID: "B", SQL: "%%ref A AS base\nSELECT * FROM base"},
	)

	_, err := Compile(n, "")
	require.Error(t, err)
	var se *StatementError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "A", se.CellID)
}

func TestCompile_EmptyCellRejected(t *testing.T) {
	n := nb(Cell{ID: "A", SQL: "   \n  "})

	_, err := Compile(n, "")
	require.Error(t, err)
	var empty *EmptyCellError
	require.ErrorAs(t, err, &empty)
}

func indexOf(t *testing.T, s, sub string) int {
	t.Helper()
	idx := strings.Index(s, sub)
	require.GreaterOrEqual(t, idx, 0, "expected %q in output:\n%s", sub, s)
	return idx
}
