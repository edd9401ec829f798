package specification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByCampaignID scopes content to one monitoring campaign
type ByCampaignID struct {
	CampaignID uuid.UUID
}

func (s ByCampaignID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("campaign_id = ?", s.CampaignID)
}

// ByContentType filters by content type (thread, pain_point, insight)
type ByContentType struct {
	ContentType string
}

func (s ByContentType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("content_type = ?", s.ContentType)
}

// ByBrand filters by monitored brand name
type ByBrand struct {
	Brand string
}

func (s ByBrand) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("brand = ?", s.Brand)
}

// PublishedSince keeps content published on or after the cutoff
type PublishedSince struct {
	Since time.Time
}

func (s PublishedSince) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("published_at >= ?", s.Since)
}

// ByContentID filters embeddings by their parent content item
type ByContentID struct {
	ContentID uuid.UUID
}

func (s ByContentID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("content_id = ?", s.ContentID)
}
