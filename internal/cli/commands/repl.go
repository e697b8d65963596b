package commands

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"github.com/stitchql/stitchql/internal/notebook"
)

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Build a notebook interactively",
		Long: `Start an interactive session where each SQL statement becomes a notebook
cell. Cells can reference earlier cells with %%ref directives and the whole
notebook compiles into a single statement with .compile.`,
		Example: `  stitchql repl

  stitchql> SELECT * FROM orders WHERE o_orderstatus = 'F';
  stitchql> %%ref cell-1 AS open_orders
      ...> SELECT COUNT(*) FROM open_orders;
  stitchql> .compile`,
		Args: cobra.NoArgs,
		RunE: runREPL,
	}

	return cmd
}

func runREPL(cmd *cobra.Command, _ []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	historyFile := filepath.Join(filepath.Dir(cmdCtx.Cfg.StatePath), "repl_history")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "stitchql> ",
		HistoryFile:     historyFile,
		AutoComplete:    newREPLCompleter(cmdCtx),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, "StitchQL Notebook REPL")
	_, _ = fmt.Fprintln(out, "Each statement ending in ; becomes a cell. Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(out)

	n := &notebook.Notebook{}

	var buffer strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buffer.Reset()
			rl.SetPrompt("stitchql> ")
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if buffer.Len() == 0 && strings.HasPrefix(trimmed, ".") {
			if quit := handleREPLCommand(cmd, cmdCtx, n, trimmed); quit {
				break
			}
			continue
		}

		// Accumulate until a line ends in a semicolon. Directive lines
		// keep their own line so the parser sees them at line starts.
		buffer.WriteString(line)
		if !strings.HasSuffix(trimmed, ";") {
			buffer.WriteString("\n")
			rl.SetPrompt("    ...> ")
			continue
		}
		rl.SetPrompt("stitchql> ")

		body := strings.TrimSuffix(strings.TrimSpace(buffer.String()), ";")
		buffer.Reset()

		cell := notebook.Cell{
			ID:  fmt.Sprintf("cell-%d", len(n.Cells)+1),
			SQL: body,
		}
		n.Cells = append(n.Cells, cell)
		_, _ = fmt.Fprintf(out, "Added %s\n\n", cell.ID)
	}

	return nil
}

// handleREPLCommand runs a dot-command and reports whether to exit.
func handleREPLCommand(cmd *cobra.Command, cmdCtx *CommandContext, n *notebook.Notebook, line string) bool {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	parts := strings.Fields(line)

	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(out)

	case ".cells":
		if len(n.Cells) == 0 {
			_, _ = fmt.Fprintln(out, "No cells yet.")
			break
		}
		for _, c := range n.Cells {
			first := c.SQL
			if i := strings.IndexByte(first, '\n'); i >= 0 {
				first = first[:i]
			}
			_, _ = fmt.Fprintf(out, "%-10s %s\n", c.ID, first)
		}

	case ".drop":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(errOut, "Usage: .drop <cell-id>")
			break
		}
		kept := n.Cells[:0]
		dropped := false
		for _, c := range n.Cells {
			if c.ID == parts[1] {
				dropped = true
				continue
			}
			kept = append(kept, c)
		}
		n.Cells = kept
		if !dropped {
			_, _ = fmt.Fprintf(errOut, "No cell named %s\n", parts[1])
		}

	case ".compile":
		target := ""
		if len(parts) > 1 {
			target = parts[1]
		}
		sql, err := cmdCtx.Engine.CompileNotebookValue(n, target)
		if err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
			break
		}
		_, _ = fmt.Fprintln(out, sql)

	case ".save":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(errOut, "Usage: .save <notebook-id>")
			break
		}
		n.ID = parts[1]
		if err := cmdCtx.Engine.Store().SaveNotebook(n); err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
			break
		}
		_, _ = fmt.Fprintf(out, "Saved notebook %s (%d cells)\n", n.ID, len(n.Cells))

	case ".tables":
		for _, t := range cmdCtx.Engine.Graph().Tables() {
			_, _ = fmt.Fprintln(out, t)
		}

	case ".path":
		if len(parts) < 3 {
			_, _ = fmt.Fprintln(errOut, "Usage: .path <from> <to>")
			break
		}
		path, found := cmdCtx.Engine.JoinPath(parts[1], parts[2])
		if !found {
			_, _ = fmt.Fprintf(errOut, "No join path between %s and %s\n", parts[1], parts[2])
			break
		}
		for _, edge := range path {
			_, _ = fmt.Fprintf(out, "%s -> %s\n", edge.From, edge.To)
		}

	case ".clear":
		fmt.Print("\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(errOut, "Unknown command: %s (type .help for commands)\n", parts[0])
	}

	return false
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help               Show this help message
  .cells              List notebook cells
  .drop <cell-id>     Remove a cell
  .compile [cell-id]  Compile the notebook (default: last cell)
  .save <id>          Save the notebook to the state store
  .tables             List tables in the join graph
  .path <from> <to>   Show the join path between two tables
  .clear              Clear the screen
  .quit / .exit       Exit the REPL

Tips:
  - SQL statements must end with a semicolon (;)
  - Reference earlier cells with %%ref <cell-id> AS <alias>
  - Use arrow keys to navigate history
`
	_, _ = fmt.Fprintln(w, help)
}

// newREPLCompleter completes dot-commands and known table names.
func newREPLCompleter(cmdCtx *CommandContext) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, t := range cmdCtx.Engine.Graph().Tables() {
		items = append(items, readline.PcItem(t))
	}
	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".cells"),
		readline.PcItem(".drop"),
		readline.PcItem(".compile"),
		readline.PcItem(".save"),
		readline.PcItem(".tables"),
		readline.PcItem(".path"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
	return readline.NewPrefixCompleter(items...)
}
