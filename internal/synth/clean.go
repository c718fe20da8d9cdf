package synth

import (
	"strings"

	"github.com/Vovarama1992/hr-assistant/internal/query"
)

var statementKeywords = []string{"SELECT", "INSERT", "UPDATE", "DELETE"}

// clean extracts the first statement from a model reply. Commentary, labels and
// markdown fences are dropped. When nothing looks like a statement it returns
// query.Unparseable.
func clean(raw string) string {
	body, fenced := unfence(raw)
	lines := strings.Split(body, "\n")

	for i, line := range lines {
		line = stripLabel(strings.TrimSpace(line))
		if !startsWithKeyword(line) {
			continue
		}

		stmt := line
		if fenced {
			// A fenced block may carry one statement over several lines.
			for _, next := range lines[i+1:] {
				next = strings.TrimSpace(next)
				if next == "" || startsWithKeyword(next) {
					break
				}
				stmt += " " + next
			}
		}

		return strings.TrimRight(strings.TrimSpace(stmt), "; \t")
	}
	return query.Unparseable
}

func unfence(raw string) (string, bool) {
	start := strings.Index(raw, "```")
	if start < 0 {
		return raw, false
	}
	rest := raw[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		// drop the language tag, e.g. ```sql
		if tag := strings.TrimSpace(rest[:nl]); !strings.ContainsAny(tag, " \t") {
			rest = rest[nl+1:]
		}
	}
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return rest, true
}

func stripLabel(line string) string {
	upper := strings.ToUpper(line)
	for _, label := range []string{"SQL:", "QUERY:", "STATEMENT:"} {
		if strings.HasPrefix(upper, label) {
			return strings.TrimSpace(line[len(label):])
		}
	}
	return line
}

func startsWithKeyword(line string) bool {
	upper := strings.ToUpper(line)
	for _, kw := range statementKeywords {
		if strings.HasPrefix(upper, kw) {
			if len(upper) == len(kw) {
				return true
			}
			c := upper[len(kw)]
			if c == ' ' || c == '\t' || c == '(' || c == '*' {
				return true
			}
		}
	}
	return false
}
