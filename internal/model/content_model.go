package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ContentItem struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CampaignId   uuid.UUID      `gorm:"type:uuid;not null;index"`
	Brand        string         `gorm:"type:varchar(255);index"`
	ContentType  string         `gorm:"type:varchar(32);not null;index"`
	Title        string         `gorm:"type:text"`
	Body         string         `gorm:"type:text"`
	Keywords     datatypes.JSON `gorm:"type:jsonb"`
	MentionCount int            `gorm:"default:0"`
	HeatScore    float64        `gorm:"default:0"`
	Source       string         `gorm:"type:varchar(255)"`
	PublishedAt  time.Time      `gorm:"index"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (ContentItem) TableName() string {
	return "content_items"
}

type ContentEmbedding struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Document       string          `gorm:"type:text"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"` // text-embedding-004 uses 768 dimensions
	ContentId      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ChunkIndex     int             `gorm:"default:0"` // 0-based index for ordering
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt  `gorm:"index"`
}

func (ContentEmbedding) TableName() string {
	return "content_embeddings"
}
