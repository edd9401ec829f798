package implementation

import (
	"context"

	"brandpulse-be/internal/entity"
	"brandpulse-be/internal/mapper"
	"brandpulse-be/internal/model"
	"brandpulse-be/internal/repository/contract"
	"brandpulse-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type ContentEmbeddingRepositoryImpl struct {
	db              *gorm.DB
	embeddingMapper *mapper.ContentEmbeddingMapper
	contentMapper   *mapper.ContentMapper
}

func NewContentEmbeddingRepository(db *gorm.DB) contract.ContentEmbeddingRepository {
	return &ContentEmbeddingRepositoryImpl{
		db:              db,
		embeddingMapper: mapper.NewContentEmbeddingMapper(),
		contentMapper:   mapper.NewContentMapper(),
	}
}

func (r *ContentEmbeddingRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ContentEmbeddingRepositoryImpl) Create(ctx context.Context, embedding *entity.ContentEmbedding) error {
	m := r.embeddingMapper.ToModel(embedding)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*embedding = *r.embeddingMapper.ToEntity(m)
	return nil
}

func (r *ContentEmbeddingRepositoryImpl) CreateBulk(ctx context.Context, embeddings []*entity.ContentEmbedding) error {
	if len(embeddings) == 0 {
		return nil
	}
	models := make([]*model.ContentEmbedding, len(embeddings))
	for i, e := range embeddings {
		models[i] = r.embeddingMapper.ToModel(e)
	}

	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}

	for i, m := range models {
		*embeddings[i] = *r.embeddingMapper.ToEntity(m)
	}
	return nil
}

func (r *ContentEmbeddingRepositoryImpl) DeleteByContentId(ctx context.Context, contentId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("content_id = ?", contentId).Delete(&model.ContentEmbedding{}).Error
}

func (r *ContentEmbeddingRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ContentEmbedding, error) {
	var models []*model.ContentEmbedding
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.ContentEmbedding, len(models))
	for i, m := range models {
		entities[i] = r.embeddingMapper.ToEntity(m)
	}
	return entities, nil
}

// SearchSimilarWithScore joins embeddings to their content items and computes
// cosine similarity inline. pgvector's <=> operator is cosine distance, so
// similarity is 1 - distance.
func (r *ContentEmbeddingRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, scope contract.ContentScope, threshold float64) ([]*contract.ScoredContent, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.ContentItem
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	query := r.db.WithContext(ctx).
		Table("content_embeddings").
		Select("content_items.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Joins("JOIN content_items ON content_items.id = content_embeddings.content_id").
		Where("content_embeddings.deleted_at IS NULL").
		Where("content_items.deleted_at IS NULL").
		Where("1 - (embedding_value <=> ?) >= ?", queryVector, threshold)

	if scope.CampaignId != nil {
		query = query.Where("content_items.campaign_id = ?", *scope.CampaignId)
	}
	if scope.Brand != "" {
		query = query.Where("content_items.brand = ?", scope.Brand)
	}
	if scope.ContentType != "" {
		query = query.Where("content_items.content_type = ?", scope.ContentType)
	}

	err := query.
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error

	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredContent, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredContent{
			Content:    r.contentMapper.ToEntity(&res.ContentItem),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}
