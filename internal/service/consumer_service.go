package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"brandpulse-be/internal/dto"
	"brandpulse-be/internal/entity"
	"brandpulse-be/internal/repository/contract"
	"brandpulse-be/internal/repository/specification"
	"brandpulse-be/pkg/embedding"
	"brandpulse-be/pkg/events"
	pkgnats "brandpulse-be/pkg/nats"
	"brandpulse-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService is the embedding worker: it drains the in-process bus,
// chunks each content item's display text, embeds the chunks, and replaces
// the item's stored vectors.
type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	contentRepo       contract.ContentRepository
	embeddingRepo     contract.ContentEmbeddingRepository
	embeddingProvider embedding.EmbeddingProvider
	natsPub           *pkgnats.Publisher
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	contentRepo contract.ContentRepository,
	embeddingRepo contract.ContentEmbeddingRepository,
	embeddingProvider embedding.EmbeddingProvider,
	natsPub *pkgnats.Publisher,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		contentRepo:       contentRepo,
		embeddingRepo:     embeddingRepo,
		embeddingProvider: embeddingProvider,
		natsPub:           natsPub,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishEmbedContentMessage
	err := json.Unmarshal(msg.Payload, &payload)
	if err != nil {
		log.Printf("[ERROR] Failed to unmarshal message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Processing embedding for ContentId: %s", payload.ContentId)

	item, err := cs.contentRepo.FindOne(ctx, specification.ByID{ID: payload.ContentId})
	if err != nil {
		log.Printf("[ERROR] Failed to get content %s: %v", payload.ContentId, err)
		msg.Nack() // Nack for retriable errors
		return
	}
	if item == nil {
		log.Printf("[ERROR] Content not found: %s", payload.ContentId)
		msg.Ack() // Deleted meanwhile? Ack.
		return
	}

	document := renderDocument(item)

	// ChunkSize: 1500 chars (approx 375 tokens), overlap 200 chars.
	chunks := utils.SplitText(document, 1500, 200)
	log.Printf("[INFO] Content %s split into %d chunks", item.Id, len(chunks))

	var newEmbeddings []*entity.ContentEmbedding
	for i, chunk := range chunks {
		res, err := cs.embeddingProvider.Generate(ctx, chunk, embedding.TaskRetrievalDocument)
		if err != nil {
			log.Printf("[ERROR] Failed to embed chunk %d of content %s: %v", i, item.Id, err)
			msg.Nack()
			return
		}

		newEmbeddings = append(newEmbeddings, &entity.ContentEmbedding{
			Id:             uuid.New(),
			Document:       chunk,
			EmbeddingValue: res.Embedding.Values,
			ContentId:      item.Id,
			ChunkIndex:     i,
			CreatedAt:      time.Now(),
		})
	}

	if err := cs.embeddingRepo.DeleteByContentId(ctx, item.Id); err != nil {
		log.Printf("[ERROR] Failed to delete old embeddings: %v", err)
		msg.Nack()
		return
	}

	if err := cs.embeddingRepo.CreateBulk(ctx, newEmbeddings); err != nil {
		log.Printf("[ERROR] Failed to create bulk embeddings: %v", err)
		msg.Nack()
		return
	}

	// Let downstream consumers (dashboards, alerting) know the item is
	// searchable now. Best effort, indexing already succeeded.
	if cs.natsPub != nil {
		indexed := events.BaseEvent{
			Type: "brand.content.indexed",
			Data: map[string]interface{}{
				"content_id": item.Id.String(),
				"chunks":     len(newEmbeddings),
			},
			OccurredAt: time.Now(),
		}
		if err := cs.natsPub.Publish(ctx, indexed); err != nil {
			log.Printf("[WARN] Failed to publish indexed event for %s: %v", item.Id, err)
		}
	}

	log.Printf("[SUCCESS] Content indexed: %d chunks for ContentId: %s", len(newEmbeddings), item.Id)
	msg.Ack()
}

// renderDocument builds the text that gets embedded. Metadata goes in so
// brand and type queries land near their items in vector space.
func renderDocument(item *entity.ContentItem) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Brand: %s\nType: %s\nTitle: %s\n", item.Brand, item.ContentType, item.Title))
	if len(item.Keywords) > 0 {
		sb.WriteString("Keywords: " + strings.Join(item.Keywords, ", ") + "\n")
	}
	sb.WriteString("\n")
	sb.WriteString(item.Body)
	sb.WriteString(fmt.Sprintf("\n\nSource: %s\nPublished At: %s", item.Source, item.PublishedAt.Format(time.RFC3339)))
	return sb.String()
}
