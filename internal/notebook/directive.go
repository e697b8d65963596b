package notebook

// directive.go - %%ref directive parsing
//
// The only directive is the reference form:
//
//	%%ref <cell_id> AS <alias>
//
// Two known typo patterns are rejected with a corrective message instead
// of being silently tolerated: the hyphenated legacy form ("%%ref-a AS x")
// and the missing-%% form ("ref a AS x").

import (
	"regexp"
	"strings"
)

// Ref is one parsed reference directive.
type Ref struct {
	CellID string
	Alias  string
}

var (
	// %%ref <cell_id> AS <alias>
	refPattern = regexp.MustCompile(`^%%ref\s+(\S+)\s+AS\s+(\S+)\s*$`)
	// Legacy hyphenated form, rejected: %%ref-<cell_id> AS <alias>
	legacyRefPattern = regexp.MustCompile(`^%%ref-(\S+)\s+AS\s+(\S+)\s*$`)
	// Missing %% form, rejected: ref <cell_id> AS <alias>
	bareRefPattern = regexp.MustCompile(`^ref\s+(\S+)\s+AS\s+(\S+)\s*$`)

	identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// parseDirectives splits a cell's raw SQL into its reference directives
// (in order of appearance) and the remaining SQL body.
func parseDirectives(cell *Cell) ([]Ref, string, error) {
	var refs []Ref
	var bodyLines []string

	for _, line := range strings.Split(cell.SQL, "\n") {
		trimmed := strings.TrimSpace(line)

		if m := refPattern.FindStringSubmatch(trimmed); m != nil {
			alias := m[2]
			if !identPattern.MatchString(alias) {
				return nil, "", &DirectiveError{
					CellID:  cell.ID,
					Line:    trimmed,
					Reason:  "alias must be a plain identifier",
					Example: "%%ref " + m[1] + " AS my_alias",
				}
			}
			refs = append(refs, Ref{CellID: m[1], Alias: alias})
			continue
		}

		if m := legacyRefPattern.FindStringSubmatch(trimmed); m != nil {
			return nil, "", &DirectiveError{
				CellID:  cell.ID,
				Line:    trimmed,
				Reason:  "hyphenated ref form is not supported",
				Example: "%%ref " + m[1] + " AS " + m[2],
			}
		}

		if m := bareRefPattern.FindStringSubmatch(trimmed); m != nil {
			return nil, "", &DirectiveError{
				CellID:  cell.ID,
				Line:    trimmed,
				Reason:  "directives start with %%",
				Example: "%%ref " + m[1] + " AS " + m[2],
			}
		}

		if strings.HasPrefix(trimmed, "%%") {
			return nil, "", &DirectiveError{
				CellID: cell.ID,
				Line:   trimmed,
				Reason: "unrecognized directive; expected %%ref <cell_id> AS <alias>",
			}
		}

		bodyLines = append(bodyLines, line)
	}

	body := strings.TrimSpace(strings.Join(bodyLines, "\n"))
	return refs, body, nil
}
