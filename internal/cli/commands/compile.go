package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/stitchql/stitchql/internal/cli/output"
)

// NewCompileCommand creates the compile command.
func NewCompileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile <plan.json>",
		Short: "Compile a query plan into SQL",
		Long: `Compile a structured query plan document into a single SQL statement.

The plan names a base table, the joins to reach related tables, the metric
expression, and optional grouping and filters. Join conditions come from the
plan itself or from the lineage graph; when neither knows the join a
heuristic condition is emitted with a warning (or an error with
--strict-joins).

Output adapts to environment:
  - Terminal: Plain SQL (suitable for syntax highlighting)
  - Piped/Scripted: Markdown with code block`,
		Example: `  # Compile a plan file
  stitchql compile plan.json

  # Read the plan from stdin
  cat plan.json | stitchql compile -

  # Compile as JSON with warnings included
  stitchql compile plan.json --output json

  # Refuse heuristic join guesses
  stitchql compile plan.json --strict-joins`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, args[0])
		},
	}

	return cmd
}

func runCompile(cmd *cobra.Command, planPath string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	data, err := readPlanFile(cmd, planPath)
	if err != nil {
		return err
	}

	res, err := cmdCtx.Engine.CompileQueryJSON(data)
	if err != nil {
		return fmt.Errorf("failed to compile plan: %w", err)
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		out := output.CompileOutput{SQL: res.SQL}
		for _, w := range res.Warnings {
			out.Warnings = append(out.Warnings, w.Message)
		}
		return r.JSON(out)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Compiled SQL"))
		r.Println("")
		r.Println(output.FormatCodeBlock("sql", res.SQL))
		for _, w := range res.Warnings {
			r.Println("")
			r.Println(fmt.Sprintf("> **Warning:** %s", w.Message))
		}
	default:
		for _, w := range res.Warnings {
			r.Errorln(r.Styles().Warning.Render("warning: " + w.Message))
		}
		r.Println(res.SQL)
	}

	return nil
}

func readPlanFile(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read plan from stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	return data, nil
}
