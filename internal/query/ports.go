package query

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleEmployee Role = "EMPLOYEE"
	RoleHR       Role = "HR"
)

// ParseRole accepts the role names used by callers ("employee", "hr") in any case.
func ParseRole(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(RoleEmployee):
		return RoleEmployee, nil
	case string(RoleHR):
		return RoleHR, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// MayMutate is the only capability check for data-changing statements.
// Classifier, validator and executor all ask it the same question.
func MayMutate(role Role) bool {
	return role == RoleHR
}

// Query: one inbound request. CallerID is empty when the caller is anonymous.
type Query struct {
	Text     string `json:"text"`
	CallerID string `json:"caller_id,omitempty"`
	Role     Role   `json:"role"`
}

type Kind string

const (
	KindRead   Kind = "READ"
	KindCreate Kind = "CREATE"
	KindUpdate Kind = "UPDATE"
	KindDelete Kind = "DELETE"
)

// Keyword returns the leading SQL keyword a statement of this kind must start with.
func (k Kind) Keyword() string {
	switch k {
	case KindCreate:
		return "INSERT"
	case KindUpdate:
		return "UPDATE"
	case KindDelete:
		return "DELETE"
	default:
		return "SELECT"
	}
}

func (k Kind) Mutating() bool {
	return k == KindCreate || k == KindUpdate || k == KindDelete
}

type Capability string

const (
	CapData      Capability = "DATA"
	CapKnowledge Capability = "KNOWLEDGE"
)

type Intent struct {
	Capabilities []Capability `json:"capabilities"`
	Kind         Kind         `json:"kind"`
	Fusion       bool         `json:"fusion"`
}

func (i Intent) Needs(c Capability) bool {
	for _, have := range i.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// Unparseable is the statement text the synthesizer emits when the model reply
// holds nothing that looks like a statement. The validator always rejects it.
const Unparseable = "<unparseable>"

// Statement: model-generated text plus the kind it was requested as.
// Built per request and never reused.
type Statement struct {
	Text   string `json:"text"`
	Kind   Kind   `json:"kind"`
	Origin Query  `json:"-"`
}

type ErrorKind string

const (
	ErrGeneration       ErrorKind = "GENERATION_ERROR"
	ErrRejected         ErrorKind = "VALIDATION_REJECTED"
	ErrPermission       ErrorKind = "PERMISSION_DENIED"
	ErrConstraint       ErrorKind = "CONSTRAINT_VIOLATION"
	ErrSchema           ErrorKind = "SCHEMA_ERROR"
	ErrExecution        ErrorKind = "GENERIC_EXECUTION_ERROR"
	ErrRetrievalOffline ErrorKind = "RETRIEVAL_UNAVAILABLE"
)

// Verdict is the validator's tagged ACCEPTED / REJECTED result.
type Verdict struct {
	Accepted  bool      `json:"accepted"`
	Statement Statement `json:"statement"`
	Reason    string    `json:"reason,omitempty"`
	Failure   ErrorKind `json:"failure,omitempty"`
	Rewritten bool      `json:"rewritten,omitempty"`
}

func Accept(stmt Statement) Verdict {
	return Verdict{Accepted: true, Statement: stmt}
}

func Reject(stmt Statement, kind ErrorKind, reason string) Verdict {
	return Verdict{Statement: stmt, Reason: reason, Failure: kind}
}

type Outcome string

const (
	OutcomeRows     Outcome = "ROWS"
	OutcomeMutation Outcome = "MUTATION"
	OutcomeError    Outcome = "ERROR"
)

type Record map[string]any

type ExecutionResult struct {
	Outcome       Outcome   `json:"outcome"`
	Columns       []string  `json:"columns,omitempty"`
	Rows          []Record  `json:"rows,omitempty"`
	RowCount      int       `json:"row_count"`
	AffectedCount int64     `json:"affected_count"`
	ErrorKind     ErrorKind `json:"error_kind,omitempty"`
	Message       string    `json:"message"`
	Suggestion    string    `json:"suggestion,omitempty"`
	Statement     string    `json:"statement,omitempty"`
}

func (r ExecutionResult) Failed() bool {
	return r.Outcome == OutcomeError
}

// Failure builds an ERROR result that never touched storage.
func Failure(kind ErrorKind, message, suggestion string) ExecutionResult {
	return ExecutionResult{
		Outcome:    OutcomeError,
		ErrorKind:  kind,
		Message:    message,
		Suggestion: suggestion,
	}
}

var suggestions = map[ErrorKind]string{
	ErrGeneration:       "Try rephrasing the request",
	ErrRejected:         "Rephrase the request so it names specific employee records",
	ErrPermission:       "Only HR can modify employee data",
	ErrConstraint:       "Check if the employee ID already exists or required fields are missing",
	ErrSchema:           "Check column names and table structure",
	ErrExecution:        "Try rephrasing the request",
	ErrRetrievalOffline: "Policy search is unavailable, try again later",
}

// Suggestion is the hint reported next to a failure of the given kind.
func Suggestion(kind ErrorKind) string {
	return suggestions[kind]
}

// Refused reports a rejected verdict as an ERROR result.
func Refused(v Verdict) ExecutionResult {
	res := Failure(v.Failure, v.Reason, Suggestion(v.Failure))
	res.Statement = v.Statement.Text
	return res
}

type Source string

const (
	SourceDataStore     Source = "DATA_STORE"
	SourceKnowledgeBase Source = "KNOWLEDGE_BASE"
)

type Warning struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

type FusedAnswer struct {
	Narrative string    `json:"narrative"`
	Sources   []Source  `json:"sources"`
	Warnings  []Warning `json:"warnings,omitempty"`
}

func (a FusedAnswer) HasSource(s Source) bool {
	for _, have := range a.Sources {
		if have == s {
			return true
		}
	}
	return false
}

type Route string

const (
	RouteData      Route = "DATA_ONLY"
	RouteKnowledge Route = "KNOWLEDGE_ONLY"
	RouteFusion    Route = "FUSION"
)

// RouteFor maps a classified intent onto one of the three request paths.
func RouteFor(i Intent) Route {
	data, knowledge := i.Needs(CapData), i.Needs(CapKnowledge)
	switch {
	case i.Fusion || (data && knowledge):
		return RouteFusion
	case knowledge:
		return RouteKnowledge
	default:
		return RouteData
	}
}

// Response: what the core hands back upward. Exactly one of Answer or Execution is set.
type Response struct {
	Route     Route            `json:"route"`
	Answer    *FusedAnswer     `json:"answer,omitempty"`
	Execution *ExecutionResult `json:"execution,omitempty"`
}

type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Schema describes the employee table as the synthesizer and validator see it.
type Schema struct {
	Table    string   `json:"table"`
	IDColumn string   `json:"id_column"`
	Columns  []Column `json:"columns"`
}

func (s Schema) HasColumn(name string) bool {
	for _, c := range s.Columns {
		if strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

// Describe renders the schema the way it is embedded into prompts.
func (s Schema) Describe() string {
	var b strings.Builder
	b.WriteString(s.Table + " table columns:\n")
	for _, c := range s.Columns {
		fmt.Fprintf(&b, "- %s (%s)\n", c.Name, c.Type)
	}
	return b.String()
}
