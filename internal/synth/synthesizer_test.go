package synth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Vovarama1992/hr-assistant/internal/ai"
	"github.com/Vovarama1992/hr-assistant/internal/query"
)

var testSchema = query.Schema{
	Table:    "employees",
	IDColumn: "employee_id",
	Columns: []query.Column{
		{Name: "employee_id", Type: "TEXT"},
		{Name: "name", Type: "TEXT"},
		{Name: "department", Type: "TEXT"},
		{Name: "monthly_income", Type: "NUMERIC"},
		{Name: "location", Type: "TEXT"},
	},
}

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "SELECT name FROM employees", "SELECT name FROM employees"},
		{"trailing semicolon", "DELETE FROM employees WHERE employee_id = 'E001';", "DELETE FROM employees WHERE employee_id = 'E001'"},
		{"label", "SQL: UPDATE employees SET name = 'x' WHERE employee_id = 'E1'", "UPDATE employees SET name = 'x' WHERE employee_id = 'E1'"},
		{"commentary around", "Sure! Here you go:\nSELECT * FROM employees\nThis returns everything.", "SELECT * FROM employees"},
		{"fenced multi-line", "```sql\nSELECT name,\n  department\nFROM employees\nWHERE department = 'Sales';\n```\nDone.", "SELECT name, department FROM employees WHERE department = 'Sales'"},
		{"fenced single line", "```SELECT 1```", "SELECT 1"},
		{"lowercase", "select name from employees", "select name from employees"},
		{"no statement", "I cannot help with that.", query.Unparseable},
		{"keyword prefix only", "Selection criteria unclear", query.Unparseable},
		{"empty", "", query.Unparseable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clean(tt.raw))
		})
	}
}

func TestMatchHints(t *testing.T) {
	table := compileHints(DefaultHints)

	got := matchHints(table, "What is my salary and my address?", testSchema)
	assert.Equal(t, []Hint{{"address", "location"}, {"salary", "monthly_income"}}, got)

	// Columns absent from the schema are never hinted.
	got = matchHints(table, "what is my gender", testSchema)
	assert.Empty(t, got)

	// "paying" is not "pay".
	got = matchHints(table, "who is paying", testSchema)
	assert.Empty(t, got)
}

func TestNewSynthesizer_CompilesHintsOnce(t *testing.T) {
	s := NewSynthesizer(nil, []Hint{{"Pay Grade", "monthly_income"}}, zap.NewNop())
	require.Len(t, s.hints, 1)
	require.NotNil(t, s.hints[0].re)

	got := matchHints(s.hints, "what is my pay grade", testSchema)
	assert.Equal(t, []Hint{{"Pay Grade", "monthly_income"}}, got)
}

func TestPrompt_ReadForEmployeeCarriesCallerRule(t *testing.T) {
	s := NewSynthesizer(nil, nil, zap.NewNop())

	p, err := s.Prompt(Request{
		Query:  query.Query{Text: "what is my salary", CallerID: "E007", Role: query.RoleEmployee},
		Kind:   query.KindRead,
		Schema: testSchema,
	})
	require.NoError(t, err)
	assert.Contains(t, p, "employees table columns:")
	assert.Contains(t, p, "- monthly_income (NUMERIC)")
	assert.Contains(t, p, "'salary' -> column 'monthly_income'")
	assert.Contains(t, p, "This query is from employee ID 'E007'")
	assert.Contains(t, p, "WHERE employee_id = 'E007'")
	assert.Contains(t, p, "USER QUERY: what is my salary")
}

func TestPrompt_ReadForHRHasNoCallerRule(t *testing.T) {
	s := NewSynthesizer(nil, nil, zap.NewNop())

	p, err := s.Prompt(Request{
		Query:  query.Query{Text: "average salary by department", CallerID: "H1", Role: query.RoleHR},
		Kind:   query.KindRead,
		Schema: testSchema,
	})
	require.NoError(t, err)
	assert.NotContains(t, p, "CRITICAL SECURITY RULE")
}

func TestPrompt_PerKindTemplates(t *testing.T) {
	s := NewSynthesizer(nil, nil, zap.NewNop())
	for kind, marker := range map[query.Kind]string{
		query.KindCreate: "Generate an INSERT statement",
		query.KindUpdate: "Generate an UPDATE statement",
		query.KindDelete: "MUST include a WHERE clause",
	} {
		p, err := s.Prompt(Request{Query: query.Query{Text: "x", Role: query.RoleHR}, Kind: kind, Schema: testSchema})
		require.NoError(t, err)
		assert.Contains(t, p, marker)
		assert.Contains(t, p, "employees table columns:")
	}

	_, err := s.Prompt(Request{Kind: query.Kind("DROP"), Schema: testSchema})
	assert.Error(t, err)
}

func TestSynthesize(t *testing.T) {
	var calls int
	s := NewSynthesizer(ai.ModelFunc(func(ctx context.Context, prompt string) (string, error) {
		calls++
		return "```sql\nDELETE FROM employees WHERE employee_id = 'E001';\n```", nil
	}), nil, zap.NewNop())

	q := query.Query{Text: "delete employee id E001", Role: query.RoleHR}
	stmt, err := s.Synthesize(context.Background(), Request{Query: q, Kind: query.KindDelete, Schema: testSchema})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "DELETE FROM employees WHERE employee_id = 'E001'", stmt.Text)
	assert.Equal(t, query.KindDelete, stmt.Kind)
	assert.Equal(t, q, stmt.Origin)
}

func TestSynthesize_UnparseableIsNotAnError(t *testing.T) {
	s := NewSynthesizer(ai.ModelFunc(func(ctx context.Context, prompt string) (string, error) {
		return "Sorry, I can't do that.", nil
	}), nil, zap.NewNop())

	stmt, err := s.Synthesize(context.Background(), Request{Query: query.Query{Text: "x", Role: query.RoleHR}, Kind: query.KindRead, Schema: testSchema})
	require.NoError(t, err)
	assert.Equal(t, query.Unparseable, stmt.Text)
}

func TestSynthesize_ModelFailureIsGenerationError(t *testing.T) {
	s := NewSynthesizer(ai.ModelFunc(func(ctx context.Context, prompt string) (string, error) {
		return "", ai.ErrTimeout
	}), nil, zap.NewNop())

	stmt, err := s.Synthesize(context.Background(), Request{Query: query.Query{Text: "x", Role: query.RoleHR}, Kind: query.KindUpdate, Schema: testSchema})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGeneration))
	assert.Empty(t, stmt.Text)
	assert.Equal(t, query.KindUpdate, stmt.Kind)
}
