package store

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/Vovarama1992/hr-assistant/internal/query"
)

// classify maps a driver error onto the execution error taxonomy.
func classify(err error) query.ErrorKind {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "23":
			return query.ErrConstraint
		case "42":
			return query.ErrSchema
		}
		return query.ErrExecution
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		if liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
			return query.ErrConstraint
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "constraint failed"):
		return query.ErrConstraint
	case strings.Contains(msg, "no such column"),
		strings.Contains(msg, "no such table"),
		strings.Contains(msg, "has no column named"),
		strings.Contains(msg, "syntax error"):
		return query.ErrSchema
	}
	return query.ErrExecution
}

// failure builds the ERROR result for a statement the store attempted.
func failure(stmt query.Statement, err error) query.ExecutionResult {
	kind := classify(err)

	var msg string
	switch kind {
	case query.ErrConstraint:
		msg = "Database constraint violation: " + err.Error()
	case query.ErrSchema:
		msg = "Database error: " + err.Error()
	default:
		msg = "Execution error: " + err.Error()
	}

	res := query.Failure(kind, msg, query.Suggestion(kind))
	res.Statement = stmt.Text
	return res
}
