package notebook

// compiler.go - CTE composition of interdependent cells
//
// Compilation turns the target cell plus the transitive closure of its
// references into one statement: every referenced cell becomes a CTE
// named by its alias, emitted in dependency order so a CTE may use an
// earlier one. Cell identifiers never appear in the output.

import (
	"fmt"
	"sort"
	"strings"
)

// Compile compiles a notebook into a single SQL statement. When targetID
// is empty the last cell is compiled; otherwise only the prefix of cells
// up to and including the named cell participates, so references can only
// point backwards.
func Compile(n *Notebook, targetID string) (string, error) {
	if n == nil || len(n.Cells) == 0 {
		id := ""
		if n != nil {
			id = n.ID
		}
		return "", &MissingCellError{NotebookID: id}
	}

	cells := n.Cells
	var target *Cell
	if targetID == "" {
		target = &cells[len(cells)-1]
	} else {
		idx := -1
		for i := range cells {
			if cells[i].ID == targetID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return "", &MissingCellError{NotebookID: n.ID, CellID: targetID}
		}
		cells = cells[:idx+1]
		target = &cells[idx]
	}

	c := &compilation{
		byID:        make(map[string]*Cell, len(cells)),
		aliasToCell: make(map[string]string),
		emitted:     make(map[string]bool),
		resolving:   make(map[string]bool),
	}
	for i := range cells {
		c.byID[cells[i].ID] = &cells[i]
	}

	refs, body, err := parseDirectives(target)
	if err != nil {
		return "", err
	}
	if err := validateBody(target.ID, body); err != nil {
		return "", err
	}

	depAliases := make(map[string]string, len(refs))
	for _, ref := range refs {
		if err := c.bindAlias(ref); err != nil {
			return "", err
		}
		if err := c.resolve(ref, target.ID); err != nil {
			return "", err
		}
		depAliases[ref.CellID] = ref.Alias
	}

	rewritten := rewriteCellRefs(body, depAliases)
	if len(c.ctes) == 0 {
		return rewritten, nil
	}
	return "WITH\n  " + strings.Join(c.ctes, ",\n  ") + "\n" + rewritten, nil
}

// compilation is the per-call state of one compile.
type compilation struct {
	byID        map[string]*Cell
	aliasToCell map[string]string // alias -> source cell id
	emitted     map[string]bool   // aliases whose CTE is already written
	resolving   map[string]bool   // cells on the current resolution stack
	stack       []string          // resolution stack, for cycle reporting
	ctes        []string
}

// bindAlias records an alias binding, failing when the alias is already
// bound to a different cell anywhere in the compiled unit.
func (c *compilation) bindAlias(ref Ref) error {
	if existing, ok := c.aliasToCell[ref.Alias]; ok && existing != ref.CellID {
		return &AliasConflictError{
			Alias:       ref.Alias,
			FirstCellID: existing,
			OtherCellID: ref.CellID,
		}
	}
	c.aliasToCell[ref.Alias] = ref.CellID
	return nil
}

// resolve emits the CTE for a referenced cell, depth-first so the cell's
// own references are emitted before it.
func (c *compilation) resolve(ref Ref, fromCellID string) error {
	cell, ok := c.byID[ref.CellID]
	if !ok {
		return &UnknownRefError{CellID: fromCellID, RefID: ref.CellID}
	}
	if c.emitted[ref.Alias] {
		return nil
	}
	if c.resolving[ref.CellID] {
		return &CycleError{Path: append(append([]string{}, c.stack...), ref.CellID)}
	}

	c.resolving[ref.CellID] = true
	c.stack = append(c.stack, ref.CellID)
	defer func() {
		c.resolving[ref.CellID] = false
		c.stack = c.stack[:len(c.stack)-1]
	}()

	refs, body, err := parseDirectives(cell)
	if err != nil {
		return err
	}
	if err := validateBody(cell.ID, body); err != nil {
		return err
	}

	depAliases := make(map[string]string, len(refs))
	for _, r := range refs {
		if err := c.bindAlias(r); err != nil {
			return err
		}
		if err := c.resolve(r, cell.ID); err != nil {
			return err
		}
		depAliases[r.CellID] = r.Alias
	}

	rewritten := rewriteCellRefs(body, depAliases)
	c.ctes = append(c.ctes, fmt.Sprintf("%s AS (\n  SELECT *\n  FROM (\n    %s\n  ) %s_subq\n)", ref.Alias, rewritten, ref.Alias))
	c.emitted[ref.Alias] = true
	return nil
}

// rewriteCellRefs replaces raw whole-word occurrences of dependency cell
// ids with their aliases, leaving quoted regions untouched. Longer ids
// are tried first so overlapping ids cannot shadow each other.
func rewriteCellRefs(sqlText string, aliases map[string]string) string {
	if len(aliases) == 0 {
		return sqlText
	}

	ids := make([]string, 0, len(aliases))
	for id := range aliases {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if len(ids[i]) != len(ids[j]) {
			return len(ids[i]) > len(ids[j])
		}
		return ids[i] < ids[j]
	})

	var out []byte
	i := 0
	for i < len(sqlText) {
		ch := sqlText[i]

		if ch == '\'' || ch == '"' || ch == '`' {
			end := skipQuoted(sqlText, i, ch)
			out = append(out, sqlText[i:end]...)
			i = end
			continue
		}

		if matched := matchCellID(sqlText, i, ids); matched != "" {
			out = append(out, aliases[matched]...)
			i += len(matched)
			continue
		}

		out = append(out, ch)
		i++
	}

	return string(out)
}

// matchCellID tries each id at position i, requiring word boundaries on
// both sides.
func matchCellID(sqlText string, i int, ids []string) string {
	if i > 0 && isWordChar(sqlText[i-1]) {
		return ""
	}
	for _, id := range ids {
		end := i + len(id)
		if end > len(sqlText) || sqlText[i:end] != id {
			continue
		}
		if end < len(sqlText) && isWordChar(sqlText[end]) {
			continue
		}
		return id
	}
	return ""
}

// skipQuoted returns the index just past a quoted region starting at i,
// honoring doubled-quote escapes.
func skipQuoted(sqlText string, i int, quote byte) int {
	j := i + 1
	for j < len(sqlText) {
		if sqlText[j] == quote {
			if j+1 < len(sqlText) && sqlText[j+1] == quote {
				j += 2
				continue
			}
			return j + 1
		}
		j++
	}
	return j
}

func isWordChar(ch byte) bool {
	return ch == '_' ||
		(ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9')
}
