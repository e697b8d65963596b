package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stitchql/stitchql/internal/cli/output"
)

// NewPathCommand creates the path command.
func NewPathCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path <from-table> <to-table>",
		Short: "Find the shortest join path between two tables",
		Long: `Find the shortest join path between two tables in the lineage graph.

The path is deterministic: ties between equally short routes always resolve
the same way for the same lineage file.`,
		Example: `  # How do I get from customer to lineitem?
  stitchql path customer lineitem

  # Machine-readable
  stitchql path customer lineitem --output json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPath(cmd, args[0], args[1])
		},
	}

	return cmd
}

func runPath(cmd *cobra.Command, from, to string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	graph := cmdCtx.Engine.Graph()
	path, found := graph.FindJoinPath(from, to)

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		out := output.PathOutput{From: from, To: to, Found: found, Steps: []output.PathStep{}}
		for _, edge := range path {
			step := output.PathStep{From: edge.From, To: edge.To}
			if cond, ok := graph.JoinCondition(edge.From, edge.To); ok {
				step.On = cond.On
				step.Type = string(cond.Type)
			}
			out.Steps = append(out.Steps, step)
		}
		return r.JSON(out)
	}

	if !found {
		return fmt.Errorf("no join path between %s and %s", from, to)
	}
	if len(path) == 0 {
		r.Printf("%s and %s are the same table\n", from, to)
		return nil
	}

	rows := make([][]string, 0, len(path))
	for _, edge := range path {
		on, joinType := "", ""
		if cond, ok := graph.JoinCondition(edge.From, edge.To); ok {
			on = cond.On
			joinType = string(cond.Type)
		}
		rows = append(rows, []string{edge.From, edge.To, joinType, on})
	}
	output.RenderTable(r, []string{"From", "To", "Type", "On"}, rows)
	return nil
}
