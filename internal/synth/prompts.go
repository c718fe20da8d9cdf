package synth

import (
	"text/template"

	"github.com/Vovarama1992/hr-assistant/internal/query"
)

type promptData struct {
	Schema   string
	Table    string
	IDColumn string
	Hints    []Hint
	CallerID string
	Question string
}

const selectPrompt = `You are an expert SQL query generator.

DATABASE SCHEMA:
{{.Schema}}
{{- if .Hints}}
Column Mappings:
{{- range .Hints}}
  - '{{.Phrase}}' -> column '{{.Column}}'
{{- end}}
{{- end}}
{{if .CallerID}}
CRITICAL SECURITY RULE: This query is from employee ID '{{.CallerID}}'.
You MUST add: WHERE {{.IDColumn}} = '{{.CallerID}}'
{{end}}
USER QUERY: {{.Question}}

INSTRUCTIONS:
1. Generate ONLY a valid SELECT statement on one line
2. Use proper column names from the schema
3. Add WHERE, ORDER BY, LIMIT as needed
4. Use LIKE for partial text matching
5. Handle aggregations (COUNT, AVG, SUM, MAX, MIN)
6. NO explanations, markdown, or semicolons

EXAMPLES:
Query: "What is my salary?"
SQL: SELECT monthly_income FROM {{.Table}} WHERE {{.IDColumn}} = '{{if .CallerID}}{{.CallerID}}{{else}}E001{{end}}'

Query: "Show all employees in Sales"
SQL: SELECT name, job_role, monthly_income FROM {{.Table}} WHERE department = 'Sales'

Query: "Average salary by department"
SQL: SELECT department, AVG(monthly_income) AS avg_salary FROM {{.Table}} GROUP BY department

Now generate SQL:
`

const insertPrompt = `You are a SQL expert. Generate an INSERT statement.

DATABASE SCHEMA:
{{.Schema}}
USER QUERY: {{.Question}}

INSTRUCTIONS:
1. Generate ONLY the INSERT statement on one line
2. Include all mentioned fields
3. Always provide {{.IDColumn}}; if the user gave none, use 'E' followed by three digits
4. Leave unmentioned columns out
5. No explanations, no markdown, no semicolons

EXAMPLES:
Query: "add new employee named Alice with email alice@company.com in Sales department"
SQL: INSERT INTO {{.Table}} ({{.IDColumn}}, name, email, department) VALUES ('E501', 'Alice', 'alice@company.com', 'Sales')

Query: "hire new employee ID E999 named Bob in IT department"
SQL: INSERT INTO {{.Table}} ({{.IDColumn}}, name, department) VALUES ('E999', 'Bob', 'IT')

Now generate SQL:
`

const updatePrompt = `You are a SQL expert. Generate an UPDATE statement.

DATABASE SCHEMA:
{{.Schema}}
{{- if .Hints}}
Column Mappings:
{{- range .Hints}}
  - '{{.Phrase}}' -> column '{{.Column}}'
{{- end}}
{{- end}}

USER QUERY: {{.Question}}

INSTRUCTIONS:
1. Generate ONLY the UPDATE statement on one line
2. Use proper column names from the schema
3. Include a WHERE clause to target specific employee(s)
4. No explanations, no markdown, no semicolons
5. Format: UPDATE {{.Table}} SET column = value WHERE condition

EXAMPLES:
Query: "change the name of employee id E001 to Saghil"
SQL: UPDATE {{.Table}} SET name = 'Saghil' WHERE {{.IDColumn}} = 'E001'

Query: "update salary of employee E001 to 50000"
SQL: UPDATE {{.Table}} SET monthly_income = 50000 WHERE {{.IDColumn}} = 'E001'

Query: "set overtime to Yes for all in IT department"
SQL: UPDATE {{.Table}} SET over_time = 'Yes' WHERE department = 'IT'

Now generate SQL:
`

const deletePrompt = `You are a SQL expert. Generate a DELETE statement.

DATABASE SCHEMA:
{{.Schema}}
USER QUERY: {{.Question}}

INSTRUCTIONS:
1. Generate ONLY the DELETE statement on one line
2. MUST include a WHERE clause (never delete all records)
3. Be specific with conditions
4. No explanations, no markdown, no semicolons

EXAMPLES:
Query: "delete employee id E001"
SQL: DELETE FROM {{.Table}} WHERE {{.IDColumn}} = 'E001'

Query: "remove employee named John"
SQL: DELETE FROM {{.Table}} WHERE name LIKE '%John%'

Now generate SQL:
`

var templates = map[query.Kind]*template.Template{
	query.KindRead:   template.Must(template.New("select").Parse(selectPrompt)),
	query.KindCreate: template.Must(template.New("insert").Parse(insertPrompt)),
	query.KindUpdate: template.Must(template.New("update").Parse(updatePrompt)),
	query.KindDelete: template.Must(template.New("delete").Parse(deletePrompt)),
}
