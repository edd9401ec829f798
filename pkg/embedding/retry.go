package embedding

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryingProvider wraps an EmbeddingProvider with bounded exponential-backoff
// retries for transient failures. Context cancellation and deadline errors
// are treated as permanent so per-stage timeouts are honored.
type RetryingProvider struct {
	provider EmbeddingProvider
	maxTries uint
}

var _ EmbeddingProvider = &RetryingProvider{}

// NewRetryingProvider wraps provider; maxTries counts the initial attempt.
func NewRetryingProvider(provider EmbeddingProvider, maxTries uint) *RetryingProvider {
	if maxTries == 0 {
		maxTries = 3
	}
	return &RetryingProvider{provider: provider, maxTries: maxTries}
}

func (r *RetryingProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	operation := func() (*EmbeddingResponse, error) {
		res, err := r.provider.Generate(ctx, text, taskType)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(err)
			}
			return nil, err
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
