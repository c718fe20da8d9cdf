package assistant

import (
	"context"

	"go.uber.org/zap"

	"github.com/Vovarama1992/hr-assistant/internal/query"
	"github.com/Vovarama1992/hr-assistant/internal/synth"
)

// runData is the data path: synthesize, validate, execute. A rejected
// statement is reported without reaching the executor.
func (s *service) runData(ctx context.Context, log *zap.Logger, q query.Query, in query.Intent) query.ExecutionResult {
	stmt, err := s.synth.Synthesize(ctx, synth.Request{Query: q, Kind: in.Kind, Schema: s.schema})
	if err != nil {
		log.Warn("synthesis failed", zap.Error(err))
		return query.Refused(query.Reject(stmt, query.ErrGeneration, err.Error()))
	}

	v := s.validator.Validate(stmt, in)
	if !v.Accepted {
		log.Info("statement refused",
			zap.String("failure", string(v.Failure)),
			zap.String("reason", v.Reason),
		)
		return query.Refused(v)
	}
	if v.Rewritten {
		log.Debug("statement restricted", zap.String("statement", v.Statement.Text))
	}

	return s.executor.Execute(ctx, v, q.Role)
}
