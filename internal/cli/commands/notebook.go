package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/stitchql/stitchql/internal/cli/output"
	"github.com/stitchql/stitchql/internal/notebook"
	"github.com/stitchql/stitchql/internal/state"
)

// NewNotebookCommand creates the notebook command group.
func NewNotebookCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notebook",
		Short: "Compile and manage SQL notebooks",
		Long: `Work with SQL notebooks: ordered cells that reference each other through
%%ref directives and compile into a single CTE-composed statement.`,
	}

	cmd.AddCommand(newNotebookCompileCommand())
	cmd.AddCommand(newNotebookSaveCommand())
	cmd.AddCommand(newNotebookListCommand())
	cmd.AddCommand(newNotebookDeleteCommand())

	return cmd
}

func newNotebookCompileCommand() *cobra.Command {
	var cellID string

	cmd := &cobra.Command{
		Use:   "compile <notebook.json | notebook-id>",
		Short: "Compile a notebook into a single SQL statement",
		Long: `Compile a notebook down to a target cell. Each referenced cell becomes a
CTE; the target cell's body, with references rewritten to their aliases,
forms the final SELECT.

The argument is a notebook file when it exists on disk, otherwise the id of
a stored notebook.`,
		Example: `  # Compile the last cell of a notebook file
  stitchql notebook compile analysis.json

  # Compile a specific cell of a stored notebook
  stitchql notebook compile 7f3b... --cell cell-3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNotebookCompile(cmd, args[0], cellID)
		},
	}

	cmd.Flags().StringVar(&cellID, "cell", "", "Target cell id (default: last cell)")

	return cmd
}

func runNotebookCompile(cmd *cobra.Command, ref, cellID string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	var sql string
	if _, statErr := os.Stat(ref); statErr == nil {
		n, err := loadNotebookFile(ref)
		if err != nil {
			return err
		}
		sql, err = cmdCtx.Engine.CompileNotebookValue(n, cellID)
		if err != nil {
			return fmt.Errorf("failed to compile notebook: %w", err)
		}
	} else {
		sql, err = cmdCtx.Engine.CompileNotebook(ref, cellID)
		if errors.Is(err, state.ErrNotFound) {
			return fmt.Errorf("no notebook file or stored notebook named %q", ref)
		}
		if err != nil {
			return fmt.Errorf("failed to compile notebook: %w", err)
		}
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(output.CompileOutput{SQL: sql})
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Compiled SQL"))
		r.Println("")
		r.Println(output.FormatCodeBlock("sql", sql))
	default:
		r.Println(sql)
	}

	return nil
}

func newNotebookSaveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save <notebook.json>",
		Short: "Save a notebook file to the state store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			n, err := loadNotebookFile(args[0])
			if err != nil {
				return err
			}
			if err := cmdCtx.Engine.Store().SaveNotebook(n); err != nil {
				return fmt.Errorf("failed to save notebook: %w", err)
			}

			cmdCtx.Renderer.Printf("Saved notebook %s (%d cells)\n", n.ID, len(n.Cells))
			return nil
		},
	}

	return cmd
}

func newNotebookListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored notebooks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			summaries, err := cmdCtx.Engine.Store().ListNotebooks()
			if err != nil {
				return fmt.Errorf("failed to list notebooks: %w", err)
			}

			r := cmdCtx.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				out := output.NotebookListOutput{Notebooks: []output.NotebookInfo{}, Total: len(summaries)}
				for _, s := range summaries {
					out.Notebooks = append(out.Notebooks, output.NotebookInfo{
						ID:        s.ID,
						CellCount: s.CellCount,
						UpdatedAt: s.UpdatedAt.Format("2006-01-02 15:04:05"),
					})
				}
				return r.JSON(out)
			}

			if len(summaries) == 0 {
				r.Println("No notebooks stored.")
				return nil
			}
			rows := make([][]string, 0, len(summaries))
			for _, s := range summaries {
				rows = append(rows, []string{
					s.ID,
					fmt.Sprintf("%d", s.CellCount),
					s.UpdatedAt.Format("2006-01-02 15:04:05"),
				})
			}
			output.RenderTable(r, []string{"ID", "Cells", "Updated"}, rows)
			return nil
		},
	}

	return cmd
}

func newNotebookDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <notebook-id>",
		Short: "Delete a stored notebook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := cmdCtx.Engine.Store().DeleteNotebook(args[0]); err != nil {
				if errors.Is(err, state.ErrNotFound) {
					return fmt.Errorf("notebook %q not found", args[0])
				}
				return fmt.Errorf("failed to delete notebook: %w", err)
			}

			cmdCtx.Renderer.Printf("Deleted notebook %s\n", args[0])
			return nil
		},
	}

	return cmd
}

func loadNotebookFile(path string) (*notebook.Notebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read notebook file: %w", err)
	}
	var n notebook.Notebook
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("failed to parse notebook file: %w", err)
	}
	return &n, nil
}
