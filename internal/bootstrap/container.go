package bootstrap

import (
	"context"
	"log"
	"time"

	"brandpulse-be/internal/config"
	"brandpulse-be/internal/controller"
	"brandpulse-be/internal/pkg/logger"
	"brandpulse-be/internal/repository/implementation"
	"brandpulse-be/internal/repository/memory"
	"brandpulse-be/internal/service"
	"brandpulse-be/pkg/embedding"
	"brandpulse-be/pkg/llm/factory"

	pktNats "brandpulse-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController controller.IChatController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	IngestService   service.IIngestService
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// 3. Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}
	// Retries sit inside the cache so cache hits never pay the backoff path.
	embeddingProvider = embedding.NewRetryingProvider(embeddingProvider, uint(cfg.Ai.EmbedMaxRetries))
	cacheTTL := time.Duration(cfg.Ai.EmbedCacheTTLMins) * time.Minute
	embeddingProvider = embedding.NewCachedProvider(embeddingProvider, rdb, cacheTTL, log.Default())

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.GoogleGemini,
		uint(cfg.Ai.LLMMaxRetries),
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Repositories
	contentRepo := implementation.NewContentRepository(db)
	embeddingRepo := implementation.NewContentEmbeddingRepository(db)
	sessionRepo := memory.NewSessionRepository(time.Duration(cfg.Rag.SessionTTLMins) * time.Minute)

	// 5. Services
	publisherService := service.NewPublisherService(cfg.Keys.ContentIngestTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Keys.ContentIngestTopic,
		contentRepo,
		embeddingRepo,
		embeddingProvider,
		natsPub,
	)

	var ingestService service.IIngestService
	if natsSub != nil {
		ingestService = service.NewIngestService(
			natsSub,
			cfg.Keys.ContentIngestTopic,
			contentRepo,
			publisherService,
			sysLogger,
		)
	}

	chatService := service.NewChatService(
		cfg,
		embeddingProvider,
		llmProvider,
		embeddingRepo,
		sessionRepo,
		sysLogger,
	)

	// 6. Controllers
	return &Container{
		ChatController: controller.NewChatController(chatService),

		ConsumerService: consumerService,
		IngestService:   ingestService,
	}
}
