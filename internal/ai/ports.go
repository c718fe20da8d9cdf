package ai

import (
	"context"
	"errors"
)

var (
	ErrEmptyReply = errors.New("ai: empty reply")
	ErrTimeout    = errors.New("ai: model call timed out")
)

// Model: the generative model. Knows nothing about employees, SQL or policies.
type Model interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// ModelFunc adapts a plain function to Model.
type ModelFunc func(ctx context.Context, prompt string) (string, error)

func (f ModelFunc) Invoke(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
