package sqlbuilder

// rewrite.go - identifier-aware alias substitution
//
// Table names inside condition and expression text are replaced with their
// assigned aliases by scanning the text rather than by blind string
// replacement, so nothing inside string literals or quoted identifiers is
// ever touched.

import "sort"

// rewriteIdentifiers replaces qualified table references in sqlText with
// their aliases. A replacement key matches only when it appears as a whole
// identifier sequence immediately followed by a dot, i.e. the position a
// table qualifier occupies. Keys may themselves be dotted
// ("hive.default.orders"); longer keys are tried first so a full name wins
// over its own short name.
func rewriteIdentifiers(sqlText string, replacements map[string]string) string {
	if len(replacements) == 0 {
		return sqlText
	}

	keys := make([]string, 0, len(replacements))
	for k := range replacements {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	var out []byte
	i := 0
	for i < len(sqlText) {
		ch := sqlText[i]

		// Skip string literals and quoted identifiers wholesale.
		if ch == '\'' || ch == '"' || ch == '`' {
			end := skipQuoted(sqlText, i, ch)
			out = append(out, sqlText[i:end]...)
			i = end
			continue
		}

		if isIdentStart(ch) && boundaryBefore(sqlText, i) {
			if key, ok := matchKey(sqlText, i, keys); ok {
				out = append(out, replacements[key]...)
				i += len(key)
				continue
			}
		}

		out = append(out, ch)
		i++
	}

	return string(out)
}

// matchKey tries each key at position i. A key matches when the text
// continues with the key followed by a dot and the key's final segment
// ends at an identifier boundary.
func matchKey(sqlText string, i int, keys []string) (string, bool) {
	for _, key := range keys {
		end := i + len(key)
		if end >= len(sqlText) {
			continue
		}
		if sqlText[i:end] != key {
			continue
		}
		// Qualifier position: the name must be followed by a dot.
		if sqlText[end] != '.' {
			continue
		}
		return key, true
	}
	return "", false
}

// boundaryBefore reports whether position i starts a fresh identifier:
// the preceding character must not be part of an identifier or a dot.
func boundaryBefore(sqlText string, i int) bool {
	if i == 0 {
		return true
	}
	prev := sqlText[i-1]
	return !isIdentPart(prev) && prev != '.'
}

// skipQuoted returns the index just past a quoted region starting at i.
// Doubled quote characters are treated as escapes.
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

func isIdentStart(ch byte) bool {
	return ch == '_' ||
		(ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}
