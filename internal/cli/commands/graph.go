package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/stitchql/stitchql/internal/cli/output"
)

// NewGraphCommand creates the graph command.
func NewGraphCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Show the join graph loaded from the lineage file",
		Long: `List every table in the join graph together with its directly joinable
neighbors.`,
		Example: `  # Show the graph
  stitchql graph

  # Machine-readable
  stitchql graph --output json`,
		Args: cobra.NoArgs,
		RunE: runGraph,
	}

	return cmd
}

func runGraph(cmd *cobra.Command, _ []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	graph := cmdCtx.Engine.Graph()
	tables := graph.Tables()

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		out := output.TablesOutput{
			Tables:     []output.TableInfo{},
			TableCount: graph.TableCount(),
			EdgeCount:  graph.EdgeCount(),
		}
		for _, t := range tables {
			out.Tables = append(out.Tables, output.TableInfo{
				Name:    t,
				Related: graph.RelatedTables(t),
			})
		}
		return r.JSON(out)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, fmt.Sprintf("Join Graph (%d tables, %d edges)", graph.TableCount(), graph.EdgeCount())))
		r.Println("")
		for _, t := range tables {
			r.Println(output.FormatKeyValue(t, strings.Join(graph.RelatedTables(t), ", ")))
		}
	default:
		if len(tables) == 0 {
			r.Println("Join graph is empty. Configure a lineage file with --lineage or stitchql.yaml.")
			return nil
		}
		rows := make([][]string, 0, len(tables))
		for _, t := range tables {
			rows = append(rows, []string{t, strings.Join(graph.RelatedTables(t), ", ")})
		}
		output.RenderTable(r, []string{"Table", "Joins To"}, rows)
	}

	return nil
}
