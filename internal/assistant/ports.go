package assistant

import (
	"context"

	"github.com/Vovarama1992/hr-assistant/internal/knowledge"
	"github.com/Vovarama1992/hr-assistant/internal/query"
	"github.com/Vovarama1992/hr-assistant/internal/synth"
)

// Service: the single entry point above the pipeline
type Service interface {
	Handle(ctx context.Context, q query.Query) query.Response
	Status(ctx context.Context) Status
}

type Classifier interface {
	Classify(ctx context.Context, q query.Query) query.Intent
}

type Synthesizer interface {
	Synthesize(ctx context.Context, req synth.Request) (query.Statement, error)
}

type Validator interface {
	Validate(stmt query.Statement, in query.Intent) query.Verdict
}

type Executor interface {
	Execute(ctx context.Context, v query.Verdict, role query.Role) query.ExecutionResult
}

// KnowledgeBase: policy retrieval
type KnowledgeBase interface {
	Answer(ctx context.Context, question string) (knowledge.Answer, error)
	Retrieve(ctx context.Context, question string) ([]string, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Status struct {
	Database string `json:"database"`
	Table    string `json:"table"`
	IDColumn string `json:"id_column"`
	Columns  int    `json:"columns"`
}
