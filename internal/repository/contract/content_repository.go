package contract

import (
	"context"

	"brandpulse-be/internal/entity"
	"brandpulse-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredContent wraps a content item with the cosine similarity of its
// best-matching embedded chunk.
type ScoredContent struct {
	Content    *entity.ContentItem
	Similarity float64 // 0.0 to 1.0 (1.0 = identical)
}

// ContentScope narrows a similarity search. Nil/empty fields mean no filter.
type ContentScope struct {
	CampaignId  *uuid.UUID
	Brand       string
	ContentType string
}

type ContentRepository interface {
	Create(ctx context.Context, item *entity.ContentItem) error
	Update(ctx context.Context, item *entity.ContentItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ContentItem, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ContentItem, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

type ContentEmbeddingRepository interface {
	Create(ctx context.Context, embedding *entity.ContentEmbedding) error
	CreateBulk(ctx context.Context, embeddings []*entity.ContentEmbedding) error
	DeleteByContentId(ctx context.Context, contentId uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ContentEmbedding, error)
	// SearchSimilarWithScore returns content items whose embedded chunks
	// clear the similarity threshold, best chunk first. A content item with
	// several matching chunks appears once per chunk; callers dedupe.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, scope ContentScope, threshold float64) ([]*ScoredContent, error)
}
