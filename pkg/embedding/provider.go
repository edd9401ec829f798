package embedding

import "context"

// Task types hint the provider about how the embedding will be used.
const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// EmbeddingValues carries the dense vector.
type EmbeddingValues struct {
	Values []float32 `json:"values"`
}

// EmbeddingResponse is the provider-agnostic embedding result.
type EmbeddingResponse struct {
	Embedding EmbeddingValues `json:"embedding"`
}

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error)
}
