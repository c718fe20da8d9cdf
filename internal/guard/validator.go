package guard

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Vovarama1992/hr-assistant/internal/query"
)

// Words that end a WHERE body or a FROM list at the top level.
var clauseEnders = map[string]bool{
	"GROUP": true, "ORDER": true, "LIMIT": true, "HAVING": true, "WINDOW": true,
	"OFFSET": true, "RETURNING": true, "FETCH": true, "FOR": true,
}

var setOperators = map[string]bool{"UNION": true, "INTERSECT": true, "EXCEPT": true}

// Words that can appear in a predicate without naming a column.
var predicateWords = map[string]bool{
	"AND": true, "OR": true, "NOT": true, "NULL": true, "TRUE": true, "FALSE": true,
	"IS": true, "IN": true, "LIKE": true, "ILIKE": true, "BETWEEN": true, "ESCAPE": true,
}

// Validator is the allow-list gate between model output and the data store.
// It is pure: it only reads the statement and never touches storage.
type Validator struct {
	schema query.Schema
	log    *zap.Logger
}

func NewValidator(schema query.Schema, log *zap.Logger) *Validator {
	return &Validator{schema: schema, log: log}
}

// Validate runs the checks in order and stops at the first failure. An accepted
// READ for a non-privileged caller may come back rewritten so that it can only
// see the caller's own row.
func (v *Validator) Validate(stmt query.Statement, in query.Intent) query.Verdict {
	verdict := v.validate(stmt, in)
	if !verdict.Accepted {
		v.log.Info("statement rejected",
			zap.String("kind", string(in.Kind)),
			zap.String("failure", string(verdict.Failure)),
			zap.String("reason", verdict.Reason),
			zap.String("statement", stmt.Text),
		)
	} else if verdict.Rewritten {
		v.log.Debug("statement restricted to caller",
			zap.String("before", stmt.Text),
			zap.String("after", verdict.Statement.Text),
		)
	}
	return verdict
}

func (v *Validator) validate(stmt query.Statement, in query.Intent) query.Verdict {
	if strings.TrimSpace(stmt.Text) == "" || stmt.Text == query.Unparseable {
		return query.Reject(stmt, query.ErrGeneration, "model output contained no recognizable statement")
	}

	toks, err := lex(stmt.Text)
	if err != nil {
		return query.Reject(stmt, query.ErrRejected, "malformed statement: "+err.Error())
	}
	if len(toks) == 0 {
		return query.Reject(stmt, query.ErrGeneration, "model output contained no recognizable statement")
	}
	for _, t := range toks {
		if t.isSymbol(";") {
			return query.Reject(stmt, query.ErrRejected, "only a single statement is allowed")
		}
		if t.kind == tokWord && setOperators[t.value] {
			return query.Reject(stmt, query.ErrRejected, "set operations ("+t.value+") are not allowed")
		}
	}

	// 1. The leading keyword must match the requested kind; the synthesizer's
	// own label is not trusted on its own.
	want := in.Kind.Keyword()
	if stmt.Kind != in.Kind || !toks[0].isWord(want) {
		return query.Reject(stmt, query.ErrRejected,
			fmt.Sprintf("expected a %s statement, got one starting with %q", want, toks[0].text))
	}

	// 2. Mutations must name the employee table, and UPDATE/DELETE must select rows.
	if in.Kind.Mutating() {
		if !v.targetsTable(toks, in.Kind) {
			return query.Reject(stmt, query.ErrRejected,
				fmt.Sprintf("%s statement must target the %s table", want, v.schema.Table))
		}
	}
	if in.Kind == query.KindUpdate || in.Kind == query.KindDelete {
		body, ok := whereBody(toks)
		if !ok {
			return query.Reject(stmt, query.ErrRejected,
				fmt.Sprintf("%s statement must include a WHERE clause selecting specific rows", want))
		}
		if !referencesColumn(body) {
			return query.Reject(stmt, query.ErrRejected, "WHERE clause must select rows by a column value")
		}
	}

	// 3. Non-privileged reads only ever see the caller's own row.
	if in.Kind == query.KindRead && !query.MayMutate(stmt.Origin.Role) {
		return v.restrictToCaller(stmt, toks)
	}

	// 4. Role permission, independent of everything above.
	if in.Kind.Mutating() && !query.MayMutate(stmt.Origin.Role) {
		return query.Reject(stmt, query.ErrPermission, "only HR may modify employee data")
	}

	return query.Accept(stmt)
}

func (v *Validator) restrictToCaller(stmt query.Statement, toks []token) query.Verdict {
	caller := stmt.Origin.CallerID
	if caller == "" {
		return query.Reject(stmt, query.ErrRejected, "caller identity is required to read employee records")
	}
	if v.schema.IDColumn == "" {
		return query.Reject(stmt, query.ErrRejected, "no identity column is configured for row-level restriction")
	}

	for _, t := range toks[1:] {
		if t.isWord("SELECT") {
			return query.Reject(stmt, query.ErrRejected, "subqueries are not allowed for this caller")
		}
	}

	from := indexAtTop(toks, 0, "FROM")
	if from < 0 {
		return query.Reject(stmt, query.ErrRejected,
			fmt.Sprintf("READ statement must select from the %s table", v.schema.Table))
	}
	fromEnd := len(toks)
	for i := from + 1; i < len(toks); i++ {
		if toks[i].depth == 0 && toks[i].kind == tokWord && (toks[i].value == "WHERE" || clauseEnders[toks[i].value]) {
			fromEnd = i
			break
		}
	}
	sources := toks[from+1 : fromEnd]
	if len(sources) == 0 {
		return query.Reject(stmt, query.ErrRejected, "READ statement has an empty FROM clause")
	}
	for _, t := range sources {
		if t.isWord("JOIN") || t.isSymbol(",") {
			return query.Reject(stmt, query.ErrRejected, "reading more than one table is not allowed for this caller")
		}
	}
	if name, _ := tableName(sources); v.schema.Table != "" && !strings.EqualFold(name, v.schema.Table) {
		return query.Reject(stmt, query.ErrRejected,
			fmt.Sprintf("READ statement must select from the %s table", v.schema.Table))
	}

	cond := v.schema.IDColumn + " = " + quoteLiteral(caller)
	text := stmt.Text

	if where := indexAtTop(toks, from, "WHERE"); where >= 0 {
		body, _ := whereBody(toks)
		if len(body) == 0 {
			return query.Reject(stmt, query.ErrRejected, "empty WHERE clause")
		}
		if body[0].isWord("NOT") {
			return query.Reject(stmt, query.ErrRejected, "negated selection cannot be safely restricted to the caller")
		}
		for _, t := range body {
			if t.depth == 0 && t.isWord("OR") {
				return query.Reject(stmt, query.ErrRejected, "top-level OR in selection cannot be safely restricted to the caller")
			}
		}
		if hasCallerConjunct(body, v.schema.IDColumn, caller) {
			return query.Accept(stmt)
		}

		first, last := body[0].start, body[len(body)-1].end
		text = text[:first] + "(" + text[first:last] + ") AND " + cond + text[last:]
	} else {
		insertAt := len(text)
		if fromEnd < len(toks) {
			insertAt = toks[fromEnd].start
		}
		head := strings.TrimRight(text[:insertAt], " \t\r\n")
		tail := text[insertAt:]
		text = head + " WHERE " + cond
		if tail != "" {
			text += " " + tail
		}
	}

	out := stmt
	out.Text = text
	verdict := query.Accept(out)
	verdict.Rewritten = true
	return verdict
}

// targetsTable checks the table named right after UPDATE, DELETE FROM or INSERT INTO.
func (v *Validator) targetsTable(toks []token, kind query.Kind) bool {
	if v.schema.Table == "" {
		return true
	}
	at := 1
	switch kind {
	case query.KindDelete:
		if len(toks) < 2 || !toks[1].isWord("FROM") {
			return false
		}
		at = 2
	case query.KindCreate:
		if len(toks) < 2 || !toks[1].isWord("INTO") {
			return false
		}
		at = 2
	}
	if at >= len(toks) {
		return false
	}
	name, ok := tableName(toks[at:])
	return ok && strings.EqualFold(name, v.schema.Table)
}

// tableName reads a possibly schema-qualified name and returns its last part.
func tableName(toks []token) (string, bool) {
	name, ok := "", false
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.kind != tokWord && t.kind != tokQuotedIdent {
			break
		}
		name, ok = identValue(t), true
		if i+1 < len(toks) && toks[i+1].isSymbol(".") {
			i++
			continue
		}
		break
	}
	return name, ok
}

func identValue(t token) string {
	if t.kind == tokQuotedIdent {
		return t.value
	}
	return t.text
}

// indexAtTop finds the first top-level word kw at or after from.
func indexAtTop(toks []token, from int, kw string) int {
	for i := from; i < len(toks); i++ {
		if toks[i].depth == 0 && toks[i].isWord(kw) {
			return i
		}
	}
	return -1
}

// whereBody returns the tokens between the top-level WHERE and the next clause.
func whereBody(toks []token) ([]token, bool) {
	where := indexAtTop(toks, 0, "WHERE")
	if where < 0 {
		return nil, false
	}
	end := len(toks)
	for i := where + 1; i < len(toks); i++ {
		if toks[i].depth == 0 && toks[i].kind == tokWord && clauseEnders[toks[i].value] {
			end = i
			break
		}
	}
	return toks[where+1 : end], end > where+1
}

func referencesColumn(body []token) bool {
	for _, t := range body {
		switch t.kind {
		case tokQuotedIdent:
			return true
		case tokWord:
			if !predicateWords[t.value] {
				return true
			}
		}
	}
	return false
}

// hasCallerConjunct reports whether body, split on top-level AND, contains
// "<idColumn> = <caller>" in either order.
func hasCallerConjunct(body []token, idColumn, caller string) bool {
	var (
		conj      []token
		inBetween bool
		conjuncts [][]token
	)
	for _, t := range body {
		if t.depth == 0 && t.isWord("BETWEEN") {
			inBetween = true
		}
		if t.depth == 0 && t.isWord("AND") {
			if inBetween {
				inBetween = false
				conj = append(conj, t)
				continue
			}
			conjuncts = append(conjuncts, conj)
			conj = nil
			continue
		}
		conj = append(conj, t)
	}
	conjuncts = append(conjuncts, conj)

	for _, c := range conjuncts {
		eq := -1
		for i, t := range c {
			if t.isSymbol("=") {
				eq = i
				break
			}
		}
		if eq < 0 {
			continue
		}
		left, right := c[:eq], c[eq+1:]
		if isColumn(left, idColumn) && isLiteral(right, caller) ||
			isColumn(right, idColumn) && isLiteral(left, caller) {
			return true
		}
	}
	return false
}

func isColumn(toks []token, column string) bool {
	switch len(toks) {
	case 1:
	case 3:
		if !toks[1].isSymbol(".") {
			return false
		}
	default:
		return false
	}
	last := toks[len(toks)-1]
	if last.kind != tokWord && last.kind != tokQuotedIdent {
		return false
	}
	return strings.EqualFold(identValue(last), column)
}

func isLiteral(toks []token, value string) bool {
	if len(toks) != 1 {
		return false
	}
	switch toks[0].kind {
	case tokString:
		return toks[0].value == value
	case tokNumber:
		return toks[0].text == value
	}
	return false
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
