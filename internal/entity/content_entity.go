package entity

import (
	"time"

	"github.com/google/uuid"
)

// ContentItem is one collected brand-intelligence record: a community
// thread, a scored pain point, or a generated insight. Collection and
// cleaning happen upstream; this service only reads (and the ingestion
// consumer attaches embeddings).
type ContentItem struct {
	Id           uuid.UUID
	CampaignId   uuid.UUID
	Brand        string
	ContentType  string // thread | pain_point | insight
	Title        string
	Body         string
	Keywords     []string // pain-point keyword cluster, raw and possibly redundant
	MentionCount int
	HeatScore    float64
	Source       string
	PublishedAt  time.Time
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	DeletedAt    *time.Time
	IsDeleted    bool
}

// ContentEmbedding is one embedded chunk of a content item's display text.
type ContentEmbedding struct {
	Id             uuid.UUID
	Document       string
	EmbeddingValue []float32
	ContentId      uuid.UUID
	ChunkIndex     int
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}
