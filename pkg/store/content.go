package store

import "time"

// Content type discriminators for retrieved brand-intelligence records.
const (
	ContentTypeThread    = "thread"
	ContentTypePainPoint = "pain_point"
	ContentTypeInsight   = "insight"
)

// AllContentTypes lists every retrievable content type, in merge order.
var AllContentTypes = []string{ContentTypeThread, ContentTypePainPoint, ContentTypeInsight}

// RetrievedContent is a scored content unit returned by the retrieval engine.
// Similarity is the raw cosine similarity and is always at or above the
// configured minimum for the strategy that produced the item. RankScore is
// the similarity adjusted by the keyword-match boost and is used only for
// ordering, never for admission.
type RetrievedContent struct {
	ID           string    `json:"id"`
	CampaignID   string    `json:"campaign_id"`
	Brand        string    `json:"brand"`
	ContentType  string    `json:"content_type"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	Keywords     []string  `json:"keywords,omitempty"`
	MentionCount int       `json:"mention_count,omitempty"`
	HeatScore    float64   `json:"heat_score,omitempty"`
	Source       string    `json:"source"`
	PublishedAt  time.Time `json:"published_at"`
	Similarity   float64   `json:"similarity"`
	RankScore    float64   `json:"rank_score"`
	KeywordHits  int       `json:"keyword_hits"`
}
