package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Bounded puts a deadline and a shared token bucket in front of every model call.
// A call that runs past the deadline fails with ErrTimeout.
type Bounded struct {
	next    Model
	timeout time.Duration
	limiter *rate.Limiter
}

func NewBounded(next Model, timeout time.Duration, rps float64, burst int) *Bounded {
	var limiter *rate.Limiter
	if rps > 0 {
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return &Bounded{next: next, timeout: timeout, limiter: limiter}
}

func (b *Bounded) Invoke(ctx context.Context, prompt string) (string, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return "", ctx.Err()
			}
			// Wait also fails early when the deadline would pass before a token frees up
			return "", fmt.Errorf("%w: waiting for rate limiter: %v", ErrTimeout, err)
		}
	}

	out, err := b.next.Invoke(ctx, prompt)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %v: %v", ErrTimeout, b.timeout, err)
		}
		return "", err
	}
	return out, nil
}

type Options struct {
	Provider          string
	APIKey            string
	Model             string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// New builds the configured provider client wrapped in Bounded.
func New(ctx context.Context, opts Options, log *zap.Logger) (Model, error) {
	var (
		client Model
		err    error
	)
	switch opts.Provider {
	case "", "openai":
		client, err = NewOpenAIClient(opts.APIKey, opts.Model, opts.BaseURL, log)
	case "gemini":
		client, err = NewGeminiClient(ctx, opts.APIKey, opts.Model, log)
	default:
		return nil, fmt.Errorf("ai: unknown provider %q", opts.Provider)
	}
	if err != nil {
		return nil, err
	}
	return NewBounded(client, opts.Timeout, opts.RequestsPerSecond, opts.Burst), nil
}
