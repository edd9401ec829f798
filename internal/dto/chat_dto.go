package dto

import (
	"time"

	"github.com/google/uuid"
)

// Chat message roles accepted in the replayed history.
const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessageDTO is one prior message the client replays with its request.
// The server-side session window takes precedence when both exist.
type ChatMessageDTO struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

// SendChatRequest carries one query. WorkflowId is optional; the server
// generates one for a fresh conversation and echoes it in the response.
type SendChatRequest struct {
	WorkflowId          *uuid.UUID       `json:"workflow_id,omitempty"`
	Query               string           `json:"query" validate:"required"`
	CampaignId          *uuid.UUID       `json:"campaign_id,omitempty"`
	ConversationHistory []ChatMessageDTO `json:"conversation_history,omitempty" validate:"max=20,dive"`
}

// SourceDTO is one citation attached to a grounded answer.
type SourceDTO struct {
	ContentId       string    `json:"content_id"`
	Type            string    `json:"type"`
	ContentPreview  string    `json:"content_preview"`
	SimilarityScore float64   `json:"similarity_score"`
	Source          string    `json:"source"`
	Date            time.Time `json:"date"`
}

type SendChatResponse struct {
	WorkflowId  uuid.UUID   `json:"workflow_id"`
	Response    string      `json:"response"`
	Sources     []SourceDTO `json:"sources"`
	ContextUsed int         `json:"context_used"`
	IntentType  string      `json:"intent_type"`
	Strategy    string      `json:"strategy,omitempty"`
	TokensUsed  int         `json:"tokens_used"`
	Cost        float64     `json:"cost"`
	ElapsedMs   int64       `json:"elapsed_ms"`
	Refused     bool        `json:"refused,omitempty"`
	Degraded    bool        `json:"degraded,omitempty"`
}

// PublishEmbedContentMessage asks the embedding worker to (re)index one
// content item.
type PublishEmbedContentMessage struct {
	ContentId uuid.UUID `json:"content_id"`
}

// IngestContentMessage is the NATS payload emitted by the upstream
// collectors when a new content item lands.
type IngestContentMessage struct {
	CampaignId   uuid.UUID `json:"campaign_id"`
	Brand        string    `json:"brand"`
	ContentType  string    `json:"content_type"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	Keywords     []string  `json:"keywords,omitempty"`
	MentionCount int       `json:"mention_count,omitempty"`
	HeatScore    float64   `json:"heat_score,omitempty"`
	Source       string    `json:"source"`
	PublishedAt  time.Time `json:"published_at"`
}
