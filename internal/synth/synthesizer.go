package synth

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Vovarama1992/hr-assistant/internal/ai"
	"github.com/Vovarama1992/hr-assistant/internal/query"
)

// ErrGeneration marks a failed model call. Callers turn it into a rejected verdict.
var ErrGeneration = errors.New("generation error")

type Request struct {
	Query  query.Query
	Kind   query.Kind
	Schema query.Schema
}

type Synthesizer struct {
	model ai.Model
	hints []compiledHint
	log   *zap.Logger
}

// NewSynthesizer uses DefaultHints when hints is nil.
func NewSynthesizer(model ai.Model, hints []Hint, log *zap.Logger) *Synthesizer {
	if hints == nil {
		hints = DefaultHints
	}
	return &Synthesizer{model: model, hints: compileHints(hints), log: log}
}

// Synthesize asks the model once for a statement of req.Kind. A reply without
// a recognizable statement is not an error: the returned Statement carries
// query.Unparseable and the validator rejects it.
func (s *Synthesizer) Synthesize(ctx context.Context, req Request) (query.Statement, error) {
	stmt := query.Statement{Kind: req.Kind, Origin: req.Query}

	prompt, err := s.Prompt(req)
	if err != nil {
		return stmt, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	raw, err := s.model.Invoke(ctx, prompt)
	if err != nil {
		return stmt, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	stmt.Text = clean(raw)
	s.log.Debug("statement synthesized",
		zap.String("kind", string(req.Kind)),
		zap.String("statement", stmt.Text),
	)
	return stmt, nil
}

// Prompt renders the kind-specific instruction template for req.
func (s *Synthesizer) Prompt(req Request) (string, error) {
	tmpl, ok := templates[req.Kind]
	if !ok {
		return "", fmt.Errorf("no template for kind %q", req.Kind)
	}

	data := promptData{
		Schema:   req.Schema.Describe(),
		Table:    req.Schema.Table,
		IDColumn: req.Schema.IDColumn,
		Question: req.Query.Text,
	}
	if req.Kind == query.KindRead || req.Kind == query.KindUpdate {
		data.Hints = matchHints(s.hints, req.Query.Text, req.Schema)
	}
	if req.Kind == query.KindRead && !query.MayMutate(req.Query.Role) {
		data.CallerID = req.Query.CallerID
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
