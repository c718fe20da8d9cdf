package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Vovarama1992/hr-assistant/internal/ai"
	"github.com/Vovarama1992/hr-assistant/internal/query"
)

const defaultBranchTimeout = 30 * time.Second

type Deps struct {
	Classifier  Classifier
	Synthesizer Synthesizer
	Validator   Validator
	Executor    Executor
	Knowledge   KnowledgeBase
	Model       ai.Model // narrative and fusion calls
	Schema      query.Schema
	DB          Pinger // optional, only for Status

	BranchTimeout time.Duration
}

type service struct {
	classifier    Classifier
	synth         Synthesizer
	validator     Validator
	executor      Executor
	knowledge     KnowledgeBase
	model         ai.Model
	schema        query.Schema
	db            Pinger
	branchTimeout time.Duration
	log           *zap.Logger
}

func NewService(d Deps, log *zap.Logger) Service {
	if d.BranchTimeout <= 0 {
		d.BranchTimeout = defaultBranchTimeout
	}
	return &service{
		classifier:    d.Classifier,
		synth:         d.Synthesizer,
		validator:     d.Validator,
		executor:      d.Executor,
		knowledge:     d.Knowledge,
		model:         d.Model,
		schema:        d.Schema,
		db:            d.DB,
		branchTimeout: d.BranchTimeout,
		log:           log,
	}
}

// Handle never fails: every failure along the way ends up as an ERROR
// ExecutionResult or as a warning on the answer.
func (s *service) Handle(ctx context.Context, q query.Query) (resp query.Response) {
	log := s.log.With(
		zap.String("request_id", uuid.NewString()),
		zap.String("role", string(q.Role)),
	)

	route := query.RouteData
	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline panic", zap.Any("panic", r), zap.Stack("stack"))
			res := panicked(r)
			resp = query.Response{Route: route, Execution: &res}
		}
	}()

	in := s.classifier.Classify(ctx, q)
	route = query.RouteFor(in)
	log.Info("request classified",
		zap.String("route", string(route)),
		zap.String("kind", string(in.Kind)),
		zap.String("question", q.Text),
	)

	switch route {
	case query.RouteKnowledge:
		return s.knowledgeOnly(ctx, log, q)
	case query.RouteFusion:
		return s.fusion(ctx, log, q)
	default:
		return s.dataOnly(ctx, log, q, in)
	}
}

// ------------------------------------------------------------

func (s *service) dataOnly(ctx context.Context, log *zap.Logger, q query.Query, in query.Intent) query.Response {
	resp := query.Response{Route: query.RouteData}

	res := s.runData(ctx, log, q, in)
	if res.Outcome != query.OutcomeRows {
		// mutations and failures go back verbatim
		resp.Execution = &res
		return resp
	}

	narrative, err := s.narrate(ctx, q, res)
	if err != nil {
		log.Warn("narrative failed", zap.Error(err))
		res.Message = res.Message + " (narrative unavailable: " + err.Error() + ")"
		resp.Execution = &res
		return resp
	}

	resp.Answer = &query.FusedAnswer{
		Narrative: narrative + "\n\n---\n" + dataFooter,
		Sources:   []query.Source{query.SourceDataStore},
	}
	return resp
}

func (s *service) knowledgeOnly(ctx context.Context, log *zap.Logger, q query.Query) query.Response {
	ans, err := s.knowledge.Answer(ctx, q.Text)
	if err != nil {
		log.Warn("knowledge unavailable", zap.Error(err))
		return query.Response{
			Route: query.RouteKnowledge,
			Answer: &query.FusedAnswer{
				Narrative: ans.Text,
				Warnings:  []query.Warning{{Kind: query.ErrRetrievalOffline, Message: err.Error()}},
			},
		}
	}

	out := &query.FusedAnswer{Narrative: ans.Text, Warnings: ans.Warnings}
	if len(ans.Snippets) > 0 {
		out.Sources = []query.Source{query.SourceKnowledgeBase}

		var b strings.Builder
		b.WriteString(ans.Text)
		b.WriteString("\n\n---\n" + knowledgeFooter)
		if len(ans.Sections) > 0 {
			b.WriteString("\nReferenced Sections:")
			for i, sec := range ans.Sections {
				fmt.Fprintf(&b, "\n  %d. %s", i+1, sec)
			}
		}
		out.Narrative = b.String()
	}
	return query.Response{Route: query.RouteKnowledge, Answer: out}
}

// fusion runs the data and knowledge branches side by side, each under its
// own timeout, then asks the model for one combined answer.
func (s *service) fusion(ctx context.Context, log *zap.Logger, q query.Query) query.Response {
	var (
		g        errgroup.Group
		res      query.ExecutionResult
		snippets []string
		kerr     error
	)

	// recover() in Handle does not reach these goroutines
	g.Go(func() error {
		defer func() {
			if r := recover(); r != nil {
				log.Error("data branch panic", zap.Any("panic", r), zap.Stack("stack"))
				res = panicked(r)
			}
		}()
		bctx, cancel := context.WithTimeout(ctx, s.branchTimeout)
		defer cancel()
		// the data side of a fused answer only ever reads
		in := query.Intent{Capabilities: []query.Capability{query.CapData}, Kind: query.KindRead}
		res = s.runData(bctx, log, q, in)
		return nil
	})
	g.Go(func() error {
		defer func() {
			if r := recover(); r != nil {
				log.Error("knowledge branch panic", zap.Any("panic", r), zap.Stack("stack"))
				snippets, kerr = nil, fmt.Errorf("retrieval failed: internal error: %v", r)
			}
		}()
		bctx, cancel := context.WithTimeout(ctx, s.branchTimeout)
		defer cancel()
		snippets, kerr = s.knowledge.Retrieve(bctx, q.Text)
		return nil
	})
	_ = g.Wait()

	out := &query.FusedAnswer{}
	var footers []string

	data := "unavailable"
	if res.Failed() {
		out.Warnings = append(out.Warnings, query.Warning{Kind: res.ErrorKind, Message: "employee data unavailable: " + res.Message})
	} else {
		out.Sources = append(out.Sources, query.SourceDataStore)
		footers = append(footers, "Employee Database")
		data = describeRows(res)
	}

	policy := "unavailable"
	switch {
	case kerr != nil:
		out.Warnings = append(out.Warnings, query.Warning{Kind: query.ErrRetrievalOffline, Message: kerr.Error()})
	case len(snippets) > 0:
		out.Sources = append(out.Sources, query.SourceKnowledgeBase)
		footers = append(footers, "Company Policy Documents")
		policy = strings.Join(snippets, "\n\n")
	default:
		policy = "No relevant policy information found."
	}

	log.Info("fusion branches joined",
		zap.Bool("data_ok", !res.Failed()),
		zap.Int("snippets", len(snippets)),
		zap.NamedError("retrieval_error", kerr),
	)

	narrative, err := s.combine(ctx, q, data, policy)
	if err != nil {
		log.Warn("fusion answer degraded to raw outputs", zap.Error(err))
		out.Warnings = append(out.Warnings, query.Warning{Kind: query.ErrGeneration, Message: "combined answer unavailable: " + err.Error()})
		narrative = "EMPLOYEE DATA:\n" + data + "\n\nPOLICY INFORMATION:\n" + policy
	}

	if len(footers) > 0 {
		narrative += "\n\n---\nSources: " + strings.Join(footers, ", ")
	}
	out.Narrative = narrative
	return query.Response{Route: query.RouteFusion, Answer: out}
}

// ------------------------------------------------------------

func (s *service) narrate(ctx context.Context, q query.Query, res query.ExecutionResult) (string, error) {
	rows := res.Rows
	if rows == nil {
		rows = []query.Record{}
	}
	b, err := json.Marshal(map[string]any{
		"question":  q.Text,
		"statement": res.Statement,
		"rows":      rows,
	})
	if err != nil {
		return "", err
	}
	return s.invoke(ctx, NarrativePrompt, b)
}

func (s *service) combine(ctx context.Context, q query.Query, data, policy string) (string, error) {
	b, err := json.Marshal(map[string]any{
		"question":           q.Text,
		"employee_data":      data,
		"policy_information": policy,
	})
	if err != nil {
		return "", err
	}
	return s.invoke(ctx, FusionPrompt, b)
}

func (s *service) invoke(ctx context.Context, prompt string, input []byte) (string, error) {
	raw, err := s.model.Invoke(ctx, strings.TrimSpace(prompt)+"\n\nINPUT:\n"+string(input))
	if err != nil {
		return "", err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ai.ErrEmptyReply
	}
	return raw, nil
}

func panicked(r any) query.ExecutionResult {
	return query.Failure(query.ErrExecution, fmt.Sprintf("internal error: %v", r), query.Suggestion(query.ErrExecution))
}

func describeRows(res query.ExecutionResult) string {
	if res.RowCount == 0 {
		return "No matching employee records."
	}
	b, err := json.Marshal(res.Rows)
	if err != nil {
		return res.Message
	}
	return string(b)
}

// ------------------------------------------------------------

func (s *service) Status(ctx context.Context) Status {
	st := Status{
		Database: "ok",
		Table:    s.schema.Table,
		IDColumn: s.schema.IDColumn,
		Columns:  len(s.schema.Columns),
	}
	if s.db == nil {
		st.Database = "not configured"
		return st
	}
	if err := s.db.Ping(ctx); err != nil {
		st.Database = "unreachable: " + err.Error()
	}
	return st
}
