package llm

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryingProvider wraps an LLMProvider with bounded exponential-backoff
// retries for transient failures. Context cancellation and deadline errors
// are treated as permanent so per-stage timeouts are honored.
type RetryingProvider struct {
	provider LLMProvider
	maxTries uint
}

var _ LLMProvider = &RetryingProvider{}

// NewRetryingProvider wraps provider; maxTries counts the initial attempt.
func NewRetryingProvider(provider LLMProvider, maxTries uint) *RetryingProvider {
	if maxTries == 0 {
		maxTries = 3
	}
	return &RetryingProvider{provider: provider, maxTries: maxTries}
}

func (r *RetryingProvider) Chat(ctx context.Context, history []Message, options ...Option) (string, error) {
	return r.retry(ctx, func() (string, error) {
		return r.provider.Chat(ctx, history, options...)
	})
}

func (r *RetryingProvider) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	return r.retry(ctx, func() (string, error) {
		return r.provider.Generate(ctx, prompt, options...)
	})
}

func (r *RetryingProvider) retry(ctx context.Context, call func() (string, error)) (string, error) {
	operation := func() (string, error) {
		res, err := call()
		if err != nil {
			if ctx.Err() != nil {
				return "", backoff.Permanent(err)
			}
			return "", err
		}
		return res, nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(r.maxTries),
	)
}
