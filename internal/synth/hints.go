package synth

import (
	"regexp"
	"strings"

	"github.com/Vovarama1992/hr-assistant/internal/query"
)

// Hint ties a phrase callers use to the column it most likely means.
type Hint struct {
	Phrase string
	Column string
}

var DefaultHints = []Hint{
	{"location", "location"},
	{"address", "location"},
	{"job role", "job_role"},
	{"role", "job_role"},
	{"position", "job_role"},
	{"name", "name"},
	{"employee name", "name"},
	{"email", "email"},
	{"salary", "monthly_income"},
	{"income", "monthly_income"},
	{"pay", "monthly_income"},
	{"department", "department"},
	{"dept", "department"},
	{"age", "age"},
	{"experience", "total_working_years"},
	{"years", "total_working_years"},
	{"overtime", "over_time"},
	{"education", "education"},
	{"qualification", "education"},
	{"marital status", "marital_status"},
	{"gender", "gender"},
	{"distance", "distance_from_home"},
	{"satisfaction", "job_satisfaction"},
	{"performance", "performance_rating"},
}

type compiledHint struct {
	Hint
	re *regexp.Regexp
}

func compileHints(table []Hint) []compiledHint {
	out := make([]compiledHint, 0, len(table))
	for _, h := range table {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(h.Phrase)) + `\b`)
		out = append(out, compiledHint{Hint: h, re: re})
	}
	return out
}

// matchHints returns the hints whose phrase occurs in text as whole words and
// whose column exists in the schema, in table order.
func matchHints(table []compiledHint, text string, schema query.Schema) []Hint {
	lower := strings.ToLower(text)
	var out []Hint
	for _, h := range table {
		if len(schema.Columns) > 0 && !schema.HasColumn(h.Column) {
			continue
		}
		if h.re.MatchString(lower) {
			out = append(out, h.Hint)
		}
	}
	return out
}
