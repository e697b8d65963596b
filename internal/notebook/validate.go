package notebook

// validate.go - cell body validation
//
// A compilable cell body must be a plain SELECT. Mutating statements are
// rejected outright; the compiled unit is read-only by construction.

import "regexp"

// mutatingPatterns are whole-word, case-insensitive statement markers
// that disqualify a cell body.
var mutatingPatterns = []struct {
	keyword string
	pattern *regexp.Regexp
}{
	{"CREATE TABLE", regexp.MustCompile(`(?i)\bCREATE\s+TABLE\b`)},
	{"DROP TABLE", regexp.MustCompile(`(?i)\bDROP\s+TABLE\b`)},
	{"ALTER TABLE", regexp.MustCompile(`(?i)\bALTER\s+TABLE\b`)},
	{"INSERT INTO", regexp.MustCompile(`(?i)\bINSERT\s+INTO\b`)},
	{"UPDATE", regexp.MustCompile(`(?i)\bUPDATE\b`)},
	{"DELETE FROM", regexp.MustCompile(`(?i)\bDELETE\s+FROM\b`)},
	{"TRUNCATE", regexp.MustCompile(`(?i)\bTRUNCATE\b`)},
}

var selectPattern = regexp.MustCompile(`(?i)\bSELECT\b`)

// validateBody checks a cell's SQL body after directive stripping.
func validateBody(cellID, body string) error {
	if body == "" {
		return &EmptyCellError{CellID: cellID}
	}

	for _, mp := range mutatingPatterns {
		if mp.pattern.MatchString(body) {
			return &StatementError{CellID: cellID, Keyword: mp.keyword}
		}
	}

	if !selectPattern.MatchString(body) {
		return &StatementError{CellID: cellID}
	}

	return nil
}
