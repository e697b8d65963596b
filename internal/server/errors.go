package server

import (
	"errors"
	"net/http"

	"github.com/stitchql/stitchql/internal/notebook"
	"github.com/stitchql/stitchql/internal/plan"
	"github.com/stitchql/stitchql/internal/sqlbuilder"
	"github.com/stitchql/stitchql/internal/state"
)

// errorResponse is the JSON body for failed requests.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// httpStatusFromError maps compilation and storage errors to HTTP status
// codes. Malformed input is a 400, unknown references a 404, everything
// unexpected a 500.
func httpStatusFromError(err error) int {
	var planErr *plan.ParseError
	var missingBase *sqlbuilder.MissingBaseTableError
	var unresolved *sqlbuilder.UnresolvedJoinError
	var missingCell *notebook.MissingCellError
	var unknownRef *notebook.UnknownRefError
	var aliasConflict *notebook.AliasConflictError
	var directive *notebook.DirectiveError
	var statement *notebook.StatementError
	var emptyCell *notebook.EmptyCellError
	var cycle *notebook.CycleError

	switch {
	case errors.Is(err, state.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &missingCell):
		return http.StatusNotFound
	case errors.As(err, &planErr),
		errors.As(err, &missingBase),
		errors.As(err, &unresolved),
		errors.As(err, &unknownRef),
		errors.As(err, &aliasConflict),
		errors.As(err, &directive),
		errors.As(err, &statement),
		errors.As(err, &emptyCell),
		errors.As(err, &cycle):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// errorCode gives machine-readable codes for the compilation error family.
func errorCode(err error) string {
	var missingBase *sqlbuilder.MissingBaseTableError
	var unresolved *sqlbuilder.UnresolvedJoinError
	var missingCell *notebook.MissingCellError
	var unknownRef *notebook.UnknownRefError
	var aliasConflict *notebook.AliasConflictError
	var directive *notebook.DirectiveError
	var statement *notebook.StatementError
	var cycle *notebook.CycleError

	switch {
	case errors.Is(err, state.ErrNotFound):
		return "not_found"
	case errors.As(err, &missingBase):
		return "missing_base_table"
	case errors.As(err, &unresolved):
		return "unresolved_join"
	case errors.As(err, &missingCell):
		return "missing_cell"
	case errors.As(err, &unknownRef):
		return "unknown_ref"
	case errors.As(err, &aliasConflict):
		return "alias_conflict"
	case errors.As(err, &directive):
		return "bad_directive"
	case errors.As(err, &statement):
		return "disallowed_statement"
	case errors.As(err, &cycle):
		return "ref_cycle"
	default:
		return ""
	}
}
