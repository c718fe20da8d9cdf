package knowledge

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Vovarama1992/hr-assistant/internal/ai"
	"github.com/Vovarama1992/hr-assistant/internal/query"
)

const DefaultTopK = 6

const bulletPrompt = `You are an HR policy assistant. The user asked: "%s"

Relevant snippets from the company's policy documents:
%s

Write ONLY clear, concise bullet points for the user:
- 3 to 6 bullets total.
- No sources, no URLs, no headings, no citations.
- Try to cover: eligibility, duration, carry-forward/encashment, documentation, and exceptions when relevant.
- If information is missing, write exactly: "%s"
- Each bullet must begin with "• " and be at most 22 words.

Output must be ONLY bullet lines that start with "• ". No extra text.`

// Answer is a policy answer plus what it was built from. Snippets is empty
// when nothing relevant was found.
type Answer struct {
	Text     string          `json:"text"`
	Snippets []string        `json:"-"`
	Sections []string        `json:"sections,omitempty"`
	Warnings []query.Warning `json:"warnings,omitempty"`
}

type Answerer struct {
	retriever Retriever
	model     ai.Model
	k         int
	log       *zap.Logger
}

func NewAnswerer(r Retriever, model ai.Model, k int, log *zap.Logger) *Answerer {
	if k <= 0 {
		k = DefaultTopK
	}
	return &Answerer{retriever: r, model: model, k: k, log: log}
}

// Retrieve returns the raw snippets for question.
func (a *Answerer) Retrieve(ctx context.Context, question string) ([]string, error) {
	snippets, err := a.retriever.Retrieve(ctx, question, a.k)
	if err != nil {
		a.log.Warn("retrieval failed", zap.Error(err))
		return nil, err
	}
	return snippets, nil
}

// Answer retrieves snippets and turns them into short bullets. Only a
// retrieval failure is returned as an error; a model failure degrades to
// bullets cut from the snippets themselves.
func (a *Answerer) Answer(ctx context.Context, question string) (Answer, error) {
	snippets, err := a.Retrieve(ctx, question)
	if err != nil {
		return Answer{Text: "• " + NotFound}, err
	}
	if len(snippets) == 0 {
		return Answer{Text: "• " + NotFound}, nil
	}

	ans := Answer{Snippets: snippets, Sections: sections(snippets)}

	raw, err := a.model.Invoke(ctx, fmt.Sprintf(bulletPrompt, question, policyContext(snippets), NotFound))
	if err != nil {
		a.log.Warn("policy answer degraded to snippets", zap.Error(err))
		ans.Text = formatBullets(strings.Join(snippets, "\n"))
		ans.Warnings = append(ans.Warnings, query.Warning{
			Kind:    query.ErrGeneration,
			Message: "policy summary unavailable, showing retrieved excerpts: " + err.Error(),
		})
		return ans, nil
	}

	ans.Text = formatBullets(cleanText(raw))
	return ans, nil
}
