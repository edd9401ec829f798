package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"brandpulse-be/internal/dto"
	"brandpulse-be/internal/entity"
	"brandpulse-be/internal/pkg/logger"
	"brandpulse-be/internal/repository/contract"
	"brandpulse-be/pkg/events"
	pkgnats "brandpulse-be/pkg/nats"
	"brandpulse-be/pkg/store"

	"github.com/google/uuid"
)

type IIngestService interface {
	Start() error
}

// ingestService bridges the collector fleet and the retrieval index: it
// consumes content-ingested events off NATS, persists the item, and queues
// it for embedding on the in-process bus.
type ingestService struct {
	subscriber  *pkgnats.Subscriber
	topicName   string
	contentRepo contract.ContentRepository
	publisher   IPublisherService
	logger      logger.ILogger
}

func NewIngestService(
	subscriber *pkgnats.Subscriber,
	topicName string,
	contentRepo contract.ContentRepository,
	publisher IPublisherService,
	sysLogger logger.ILogger,
) IIngestService {
	return &ingestService{
		subscriber:  subscriber,
		topicName:   topicName,
		contentRepo: contentRepo,
		publisher:   publisher,
		logger:      sysLogger,
	}
}

func (is *ingestService) Start() error {
	subject := "events." + is.topicName
	return is.subscriber.Subscribe(subject, "content-ingest-worker", is.handleEvent)
}

func (is *ingestService) handleEvent(ctx context.Context, event events.Event) error {
	raw, err := json.Marshal(event.Payload())
	if err != nil {
		return fmt.Errorf("failed to re-marshal event payload: %w", err)
	}

	var payload dto.IngestContentMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("failed to decode ingest payload: %w", err)
	}

	if !validContentType(payload.ContentType) {
		is.logger.Warn("ingest", "dropping event with unknown content type", map[string]interface{}{
			"content_type": payload.ContentType,
			"brand":        payload.Brand,
		})
		// Malformed upstream data is not retriable.
		return nil
	}

	item := &entity.ContentItem{
		Id:           uuid.New(),
		CampaignId:   payload.CampaignId,
		Brand:        payload.Brand,
		ContentType:  payload.ContentType,
		Title:        payload.Title,
		Body:         payload.Body,
		Keywords:     payload.Keywords,
		MentionCount: payload.MentionCount,
		HeatScore:    payload.HeatScore,
		Source:       payload.Source,
		PublishedAt:  payload.PublishedAt,
		CreatedAt:    time.Now(),
	}

	if err := is.contentRepo.Create(ctx, item); err != nil {
		return fmt.Errorf("failed to store content item: %w", err)
	}

	msgPayload, err := json.Marshal(dto.PublishEmbedContentMessage{ContentId: item.Id})
	if err != nil {
		return fmt.Errorf("failed to marshal embed message: %w", err)
	}
	if err := is.publisher.Publish(ctx, msgPayload); err != nil {
		return fmt.Errorf("failed to queue content for embedding: %w", err)
	}

	is.logger.Info("ingest", "content item ingested", map[string]interface{}{
		"content_id":   item.Id.String(),
		"campaign_id":  item.CampaignId.String(),
		"content_type": item.ContentType,
	})
	return nil
}

func validContentType(ct string) bool {
	for _, known := range store.AllContentTypes {
		if ct == known {
			return true
		}
	}
	return false
}
