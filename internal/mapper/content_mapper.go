package mapper

import (
	"encoding/json"
	"time"

	"brandpulse-be/internal/entity"
	"brandpulse-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ContentMapper struct{}

func NewContentMapper() *ContentMapper {
	return &ContentMapper{}
}

func (m *ContentMapper) ToEntity(e *model.ContentItem) *entity.ContentItem {
	if e == nil {
		return nil
	}

	var deletedAt *time.Time
	if e.DeletedAt.Valid {
		t := e.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt
		updatedAt = &t
	}

	var keywords []string
	if len(e.Keywords) > 0 {
		// Malformed keyword payloads degrade to an empty list rather
		// than failing the read.
		_ = json.Unmarshal(e.Keywords, &keywords)
	}

	return &entity.ContentItem{
		Id:           e.Id,
		CampaignId:   e.CampaignId,
		Brand:        e.Brand,
		ContentType:  e.ContentType,
		Title:        e.Title,
		Body:         e.Body,
		Keywords:     keywords,
		MentionCount: e.MentionCount,
		HeatScore:    e.HeatScore,
		Source:       e.Source,
		PublishedAt:  e.PublishedAt,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
		IsDeleted:    e.DeletedAt.Valid,
	}
}

func (m *ContentMapper) ToModel(e *entity.ContentItem) *model.ContentItem {
	if e == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if e.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *e.DeletedAt, Valid: true}
	} else if e.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	var keywords datatypes.JSON
	if len(e.Keywords) > 0 {
		raw, err := json.Marshal(e.Keywords)
		if err == nil {
			keywords = datatypes.JSON(raw)
		}
	}

	return &model.ContentItem{
		Id:           e.Id,
		CampaignId:   e.CampaignId,
		Brand:        e.Brand,
		ContentType:  e.ContentType,
		Title:        e.Title,
		Body:         e.Body,
		Keywords:     keywords,
		MentionCount: e.MentionCount,
		HeatScore:    e.HeatScore,
		Source:       e.Source,
		PublishedAt:  e.PublishedAt,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
	}
}

func (m *ContentMapper) ToEntities(items []*model.ContentItem) []*entity.ContentItem {
	entities := make([]*entity.ContentItem, len(items))
	for i, e := range items {
		entities[i] = m.ToEntity(e)
	}
	return entities
}

type ContentEmbeddingMapper struct{}

func NewContentEmbeddingMapper() *ContentEmbeddingMapper {
	return &ContentEmbeddingMapper{}
}

func (m *ContentEmbeddingMapper) ToEntity(e *model.ContentEmbedding) *entity.ContentEmbedding {
	if e == nil {
		return nil
	}

	var deletedAt *time.Time
	if e.DeletedAt.Valid {
		t := e.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt
		updatedAt = &t
	}

	return &entity.ContentEmbedding{
		Id:             e.Id,
		Document:       e.Document,
		EmbeddingValue: e.EmbeddingValue.Slice(),
		ContentId:      e.ContentId,
		ChunkIndex:     e.ChunkIndex,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      updatedAt,
		DeletedAt:      deletedAt,
		IsDeleted:      e.DeletedAt.Valid,
	}
}

func (m *ContentEmbeddingMapper) ToModel(e *entity.ContentEmbedding) *model.ContentEmbedding {
	if e == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if e.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *e.DeletedAt, Valid: true}
	} else if e.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	return &model.ContentEmbedding{
		Id:             e.Id,
		Document:       e.Document,
		EmbeddingValue: pgvector.NewVector(e.EmbeddingValue),
		ContentId:      e.ContentId,
		ChunkIndex:     e.ChunkIndex,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      updatedAt,
		DeletedAt:      deletedAt,
	}
}
