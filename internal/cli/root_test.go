package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLineage = `edges:
  - from: customer
    to: orders
    on: customer.c_custkey = orders.o_custkey
  - from: orders
    to: lineitem
    on: orders.o_orderkey = lineitem.l_orderkey
`

// runCommand executes the CLI with a temp lineage file and state database.
func runCommand(t *testing.T, extraArgs ...string) (string, error) {
	t.Helper()

	dir := t.TempDir()
	lineagePath := filepath.Join(dir, "lineage.yaml")
	require.NoError(t, os.WriteFile(lineagePath, []byte(testLineage), 0600))

	args := append(extraArgs,
		"--lineage", lineagePath,
		"--state", filepath.Join(dir, "state.db"),
	)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCmd_Help(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())
	out := buf.String()
	for _, sub := range []string{"compile", "notebook", "path", "graph", "serve", "version"} {
		assert.Contains(t, out, sub)
	}
}

func TestCompileCommand(t *testing.T) {
	dir := t.TempDir()
	planPath := filepath.Join(dir, "plan.json")
	planDoc := `{
		"base_table": "customer",
		"join_path": [["customer", "orders"]],
		"metric_sql": "COUNT(*) AS orders",
		"group_by": ["customer.c_mktsegment"]
	}`
	require.NoError(t, os.WriteFile(planPath, []byte(planDoc), 0600))

	out, err := runCommand(t, "compile", planPath, "--output", "json")
	require.NoError(t, err, out)

	var res struct {
		SQL string `json:"sql"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Contains(t, res.SQL, "FROM hive.default.customer c")
	assert.Contains(t, res.SQL, "LEFT JOIN hive.default.orders o ON c.c_custkey = o.o_custkey")
	assert.Contains(t, res.SQL, "GROUP BY c.c_mktsegment")
}

func TestCompileCommand_MissingFile(t *testing.T) {
	_, err := runCommand(t, "compile", "does-not-exist.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read plan file")
}

func TestPathCommand(t *testing.T) {
	out, err := runCommand(t, "path", "customer", "lineitem", "--output", "json")
	require.NoError(t, err, out)

	var res struct {
		Found bool `json:"found"`
		Steps []struct {
			From string `json:"from"`
			To   string `json:"to"`
		} `json:"steps"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Found)
	require.Len(t, res.Steps, 2)
	assert.Equal(t, "orders", res.Steps[0].To)
	assert.Equal(t, "lineitem", res.Steps[1].To)
}

func TestPathCommand_NoRoute(t *testing.T) {
	_, err := runCommand(t, "path", "customer", "nation")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no join path")
}

func TestGraphCommand(t *testing.T) {
	out, err := runCommand(t, "graph", "--output", "json")
	require.NoError(t, err, out)

	var res struct {
		TableCount int `json:"table_count"`
		EdgeCount  int `json:"edge_count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 3, res.TableCount)
	assert.Equal(t, 2, res.EdgeCount)
}

func TestNotebookCompileCommand_File(t *testing.T) {
	dir := t.TempDir()
	nbPath := filepath.Join(dir, "notebook.json")
	nbDoc := `{
		"id": "nb-1",
		"cells": [
			{"id": "A", "sql": "SELECT 1 AS x"},
			{"id": "B", "sql": "%%ref A AS base\nSELECT * FROM base"}
		]
	}`
	require.NoError(t, os.WriteFile(nbPath, []byte(nbDoc), 0600))

	out, err := runCommand(t, "notebook", "compile", nbPath, "--output", "json")
	require.NoError(t, err, out)

	var res struct {
		SQL string `json:"sql"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Contains(t, res.SQL, "WITH\n  base AS (")
	assert.Contains(t, res.SQL, "SELECT * FROM base")
}

func TestNotebookCompileCommand_Unknown(t *testing.T) {
	_, err := runCommand(t, "notebook", "compile", "no-such-notebook")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no notebook file or stored notebook")
}

func TestVersionFlag(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "stitchql")
}
