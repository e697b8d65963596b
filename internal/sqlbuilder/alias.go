package sqlbuilder

// alias.go - per-compilation table alias allocation

import (
	"fmt"
	"strings"

	"github.com/stitchql/stitchql/internal/joingraph"
)

// aliasAllocator hands out short table aliases scoped to one Build call.
// The first table to claim a letter keeps it; later collisions get a
// numeric suffix so two tables never share an alias.
type aliasAllocator struct {
	byTable map[string]string
	taken   map[string]bool
}

func newAliasAllocator() *aliasAllocator {
	return &aliasAllocator{
		byTable: make(map[string]string),
		taken:   make(map[string]bool),
	}
}

// Allocate returns the alias for a table, assigning one on first use.
// The preferred alias is the first letter of the short table name,
// lower-cased; "t" is used for names that do not start with a letter.
func (a *aliasAllocator) Allocate(table string) string {
	if alias, ok := a.byTable[table]; ok {
		return alias
	}

	base := firstLetter(joingraph.ShortName(table))
	alias := base
	for n := 2; a.taken[alias]; n++ {
		alias = fmt.Sprintf("%s%d", base, n)
	}

	a.byTable[table] = alias
	a.taken[alias] = true
	return alias
}

// Lookup returns the alias previously assigned to a table.
func (a *aliasAllocator) Lookup(table string) (string, bool) {
	alias, ok := a.byTable[table]
	return alias, ok
}

func firstLetter(name string) string {
	for _, r := range name {
		if r >= 'a' && r <= 'z' {
			return string(r)
		}
		if r >= 'A' && r <= 'Z' {
			return strings.ToLower(string(r))
		}
		break
	}
	return "t"
}
