package intent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/Vovarama1992/hr-assistant/internal/ai"
	"github.com/Vovarama1992/hr-assistant/internal/query"
)

func TestClassifyKind(t *testing.T) {
	tests := []struct {
		text string
		role query.Role
		want query.Kind
	}{
		{"what is my salary", query.RoleHR, query.KindRead},
		{"change the name of employee id 1 to saghil", query.RoleHR, query.KindUpdate},
		{"set overtime to Yes for all in IT", query.RoleHR, query.KindUpdate},
		{"add new employee named Alice", query.RoleHR, query.KindCreate},
		{"hire Bob in IT department", query.RoleHR, query.KindCreate},
		{"delete employee id E001", query.RoleHR, query.KindDelete},
		{"terminate E042", query.RoleHR, query.KindDelete},
		{"what is the address of E001", query.RoleHR, query.KindRead},
		{"show the offset of payroll", query.RoleHR, query.KindRead},
		{"", query.RoleHR, query.KindRead},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyKind(tt.text, tt.role))
		})
	}
}

func TestClassifyKind_EmployeeAlwaysCollapsesToRead(t *testing.T) {
	for _, text := range []string{
		"update my salary to 100000",
		"delete employee id E001",
		"add new employee named Mallory",
		"remove all employees in Sales",
		"set my department to HR",
	} {
		assert.Equal(t, query.KindRead, ClassifyKind(text, query.RoleEmployee), text)
		assert.Equal(t, query.KindRead, ClassifyKind(text, query.Role("")), text)
	}
}

func TestClassify_MutationSkipsRoutingModel(t *testing.T) {
	called := false
	c := NewClassifier(ai.ModelFunc(func(ctx context.Context, prompt string) (string, error) {
		called = true
		return "SOURCES: [KNOWLEDGE]\nFUSION: false", nil
	}), zap.NewNop())

	got := c.Classify(context.Background(), query.Query{Text: "delete employee id E001", Role: query.RoleHR})
	assert.False(t, called)
	assert.Equal(t, query.KindDelete, got.Kind)
	assert.Equal(t, []query.Capability{query.CapData}, got.Capabilities)
	assert.False(t, got.Fusion)
}

func TestClassify_UsesModelRouting(t *testing.T) {
	tests := []struct {
		name   string
		reply  string
		want   []query.Capability
		fusion bool
	}{
		{"data", "SOURCES: [DATA]\nFUSION: false", []query.Capability{query.CapData}, false},
		{"knowledge", "SOURCES: [KNOWLEDGE]\nFUSION: false", []query.Capability{query.CapKnowledge}, false},
		{"both", "SOURCES: [DATA, KNOWLEDGE]\nFUSION: true", []query.Capability{query.CapData, query.CapKnowledge}, true},
		{"both without flag", "sources: [data, knowledge]", []query.Capability{query.CapData, query.CapKnowledge}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClassifier(ai.ModelFunc(func(ctx context.Context, prompt string) (string, error) {
				assert.True(t, strings.Contains(prompt, "User role: EMPLOYEE"))
				return tt.reply, nil
			}), zap.NewNop())

			got := c.Classify(context.Background(), query.Query{Text: "anything", CallerID: "E007", Role: query.RoleEmployee})
			assert.Equal(t, query.KindRead, got.Kind)
			assert.Equal(t, tt.want, got.Capabilities)
			assert.Equal(t, tt.fusion, got.Fusion)
		})
	}
}

func TestClassify_FallsBackToLexicalRouter(t *testing.T) {
	failing := ai.ModelFunc(func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("timeout")
	})
	garbage := ai.ModelFunc(func(ctx context.Context, prompt string) (string, error) {
		return "I think you should ask HR.", nil
	})

	for name, m := range map[string]ai.Model{"failing": failing, "garbage": garbage, "nil": nil} {
		t.Run(name, func(t *testing.T) {
			c := NewClassifier(m, zap.NewNop())

			got := c.Classify(context.Background(), query.Query{Text: "what is the leave policy", Role: query.RoleEmployee})
			assert.Equal(t, []query.Capability{query.CapKnowledge}, got.Capabilities)

			got = c.Classify(context.Background(), query.Query{Text: "am I eligible for leave based on my experience", Role: query.RoleEmployee})
			assert.True(t, got.Fusion)
			assert.Equal(t, query.RouteFusion, query.RouteFor(got))

			got = c.Classify(context.Background(), query.Query{Text: "xyzzy", Role: query.RoleEmployee})
			assert.Equal(t, query.KindRead, got.Kind)
			assert.Equal(t, []query.Capability{query.CapData}, got.Capabilities)
		})
	}
}
