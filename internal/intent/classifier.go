package intent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Vovarama1992/hr-assistant/internal/ai"
	"github.com/Vovarama1992/hr-assistant/internal/query"
)

const routingPrompt = `You are an intent classifier for an HR system. Decide which sources are needed
to answer the user question:
- DATA: the employee records database (salaries, departments, roles, personal records)
- KNOWLEDGE: the company policy documents (leave, benefits, conduct, eligibility rules)
- both, when the answer needs the caller's records judged against a policy

User role: %s
User question: %s

Examples:
- "What is my salary?" -> SOURCES: [DATA] FUSION: false
- "What is the leave policy?" -> SOURCES: [KNOWLEDGE] FUSION: false
- "Am I eligible for leave based on policy?" -> SOURCES: [DATA, KNOWLEDGE] FUSION: true
- "Can I get promotion based on company policy?" -> SOURCES: [DATA, KNOWLEDGE] FUSION: true

Respond in this EXACT format:
SOURCES: [list of sources]
FUSION: true/false
`

// Classifier turns a Query into an Intent. It never fails: anything it cannot
// make sense of becomes a READ against the data store.
type Classifier struct {
	model ai.Model
	log   *zap.Logger
}

// NewClassifier accepts a nil model; routing then stays purely lexical.
func NewClassifier(model ai.Model, log *zap.Logger) *Classifier {
	return &Classifier{model: model, log: log}
}

func (c *Classifier) Classify(ctx context.Context, q query.Query) query.Intent {
	kind := ClassifyKind(q.Text, q.Role)
	if kind.Mutating() {
		// Mutation confirmations are returned verbatim, so they never go through fusion.
		return query.Intent{Capabilities: []query.Capability{query.CapData}, Kind: kind}
	}

	caps, fusion := c.route(ctx, q)
	if fusion || len(caps) > 1 {
		return query.Intent{
			Capabilities: []query.Capability{query.CapData, query.CapKnowledge},
			Kind:         query.KindRead,
			Fusion:       true,
		}
	}
	return query.Intent{Capabilities: caps, Kind: query.KindRead}
}

func (c *Classifier) route(ctx context.Context, q query.Query) ([]query.Capability, bool) {
	if c.model == nil {
		return lexicalRoute(q.Text)
	}

	raw, err := c.model.Invoke(ctx, fmt.Sprintf(routingPrompt, q.Role, q.Text))
	if err != nil {
		c.log.Warn("routing model failed, using lexical router", zap.Error(err))
		return lexicalRoute(q.Text)
	}

	caps, fusion, ok := parseRouting(raw)
	if !ok {
		c.log.Debug("routing reply unparseable, using lexical router", zap.String("reply", raw))
		return lexicalRoute(q.Text)
	}
	return caps, fusion
}

// parseRouting reads the SOURCES/FUSION lines. ok is false when no source was named.
func parseRouting(raw string) (caps []query.Capability, fusion bool, ok bool) {
	var data, knowledge bool
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, "SOURCES:"):
			list := strings.TrimPrefix(upper, "SOURCES:")
			data = data || strings.Contains(list, "DATA")
			knowledge = knowledge || strings.Contains(list, "KNOWLEDGE")
		case strings.HasPrefix(upper, "FUSION:"):
			fusion = strings.Contains(upper, "TRUE")
		}
	}
	if data {
		caps = append(caps, query.CapData)
	}
	if knowledge {
		caps = append(caps, query.CapKnowledge)
	}
	return caps, fusion, len(caps) > 0
}
