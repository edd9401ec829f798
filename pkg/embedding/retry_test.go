package embedding

import (
	"context"
	"fmt"
	"testing"
)

type flakyProvider struct {
	failures int
	calls    int
}

func (f *flakyProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, fmt.Errorf("transient embedding failure %d", f.calls)
	}
	return &EmbeddingResponse{Embedding: EmbeddingValues{Values: []float32{0.1, 0.2}}}, nil
}

func TestRetryingProviderRecoversTransientFailure(t *testing.T) {
	inner := &flakyProvider{failures: 1}
	p := NewRetryingProvider(inner, 3)

	res, err := p.Generate(context.Background(), "sizing complaints", TaskRetrievalQuery)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(res.Embedding.Values) != 2 {
		t.Errorf("got %d values, want 2", len(res.Embedding.Values))
	}
	if inner.calls != 2 {
		t.Errorf("provider called %d times, want 2", inner.calls)
	}
}

func TestRetryingProviderExhaustsBoundedTries(t *testing.T) {
	inner := &flakyProvider{failures: 10}
	p := NewRetryingProvider(inner, 2)

	if _, err := p.Generate(context.Background(), "q", TaskRetrievalQuery); err == nil {
		t.Fatal("expected error after retry exhaustion")
	}
	if inner.calls != 2 {
		t.Errorf("provider called %d times, want the bounded 2", inner.calls)
	}
}

func TestRetryingProviderTreatsCancelledContextAsPermanent(t *testing.T) {
	inner := &flakyProvider{failures: 10}
	p := NewRetryingProvider(inner, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Generate(ctx, "q", TaskRetrievalQuery); err == nil {
		t.Fatal("expected error on cancelled context")
	}
	if inner.calls != 1 {
		t.Errorf("provider called %d times after cancellation, want 1", inner.calls)
	}
}
