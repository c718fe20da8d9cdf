package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/Vovarama1992/hr-assistant/internal/query"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want query.ErrorKind
	}{
		{"pq unique violation", &pq.Error{Code: "23505"}, query.ErrConstraint},
		{"pq not null", fmt.Errorf("exec: %w", &pq.Error{Code: "23502"}), query.ErrConstraint},
		{"pq undefined column", &pq.Error{Code: "42703"}, query.ErrSchema},
		{"pq syntax", &pq.Error{Code: "42601"}, query.ErrSchema},
		{"pq other", &pq.Error{Code: "57014"}, query.ErrExecution},
		{"sqlite unique text", errors.New("constraint failed: UNIQUE constraint failed: employees.employee_id (2067)"), query.ErrConstraint},
		{"sqlite no column", errors.New("SQL logic error: no such column: salary (1)"), query.ErrSchema},
		{"sqlite no table", errors.New("SQL logic error: no such table: staff (1)"), query.ErrSchema},
		{"sqlite syntax", errors.New(`SQL logic error: near "FORM": syntax error (1)`), query.ErrSchema},
		{"other", errors.New("connection refused"), query.ErrExecution},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err))
		})
	}
}

func TestFailure(t *testing.T) {
	stmt := query.Statement{Text: "INSERT INTO employees (employee_id) VALUES ('E001')", Kind: query.KindCreate}
	res := failure(stmt, &pq.Error{Code: "23505", Message: "duplicate key"})

	assert.True(t, res.Failed())
	assert.Equal(t, query.ErrConstraint, res.ErrorKind)
	assert.Contains(t, res.Message, "Database constraint violation")
	assert.Equal(t, query.Suggestion(query.ErrConstraint), res.Suggestion)
	assert.Equal(t, stmt.Text, res.Statement)
}
