package service

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"brandpulse-be/internal/config"
	"brandpulse-be/internal/dto"
	"brandpulse-be/internal/pkg/logger"
	"brandpulse-be/internal/repository/contract"
	"brandpulse-be/internal/repository/memory"
	"brandpulse-be/pkg/embedding"
	"brandpulse-be/pkg/llm"
	ragcontext "brandpulse-be/pkg/rag/context"
	"brandpulse-be/pkg/rag/conversation"
	"brandpulse-be/pkg/rag/executor"
	"brandpulse-be/pkg/rag/guardrail"
	"brandpulse-be/pkg/rag/intent"
	"brandpulse-be/pkg/rag/response"
	"brandpulse-be/pkg/rag/rewrite"
	"brandpulse-be/pkg/rag/search"
	"brandpulse-be/pkg/store"

	"github.com/google/uuid"
)

// IChatService defines the chat service interface
type IChatService interface {
	SendChat(ctx context.Context, userId uuid.UUID, request *dto.SendChatRequest) (*dto.SendChatResponse, error)
}

// chatService owns the request-scoped orchestration around the pipeline:
// conversation state loading, execution, and the commit rule for turns.
type chatService struct {
	pipeline    *executor.Pipeline
	sessionRepo *memory.SessionRepository
	windowSize  int
	llmLogger   *log.Logger
}

// NewChatService wires the full pipeline from its providers and tunables.
func NewChatService(
	cfg *config.Config,
	embeddingProvider embedding.EmbeddingProvider,
	llmProvider llm.LLMProvider,
	embeddingRepo contract.ContentEmbeddingRepository,
	sessionRepo *memory.SessionRepository,
	sysLogger logger.ILogger,
) IChatService {
	llmLogger := initLLMLogger()

	searchConfig := search.Config{
		MinSimilarity:      cfg.Rag.MinSimilarity,
		PerTypeLimit:       cfg.Rag.PerTypeLimit,
		GlobalLimit:        cfg.Rag.GlobalLimit,
		KeywordBoost:       cfg.Rag.KeywordBoost,
		MaxBoostedKeywords: cfg.Rag.MaxBoostedKeywords,
	}
	orchestrator := search.NewOrchestrator(embeddingProvider, embeddingRepo, searchConfig, llmLogger)

	pipeline := executor.NewPipeline(
		guardrail.NewValidator(sysLogger),
		intent.NewClassifier(llmProvider, llmLogger),
		rewrite.NewRewriter(llmProvider, llmLogger),
		orchestrator,
		ragcontext.NewAssembler(cfg.Rag.MaxContextItems, llmLogger),
		response.NewGenerator(llmProvider, cfg.Ai.LLMModel, llmLogger),
		guardrail.NewSanitizer(sysLogger),
		executor.DefaultConfig(),
		llmLogger,
	)

	return &chatService{
		pipeline:    pipeline,
		sessionRepo: sessionRepo,
		windowSize:  cfg.Rag.WindowSize,
		llmLogger:   llmLogger,
	}
}

func initLLMLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "llm_rag.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[LLM-RAG] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}

// SendChat runs one query through the pipeline. The conversation turn is
// committed to the session window only when the pipeline actually answered;
// refusals and degraded replies leave state untouched.
func (cs *chatService) SendChat(ctx context.Context, userId uuid.UUID, request *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	workflowId := uuid.New()
	if request.WorkflowId != nil {
		workflowId = *request.WorkflowId
	}

	session := cs.loadSession(userId, workflowId, request)
	window := conversation.FromTurns(session.Turns, cs.windowSize)

	result, err := cs.pipeline.Execute(ctx, workflowId.String(), request.Query, request.CampaignId, window)
	if err != nil {
		return nil, err
	}

	if !result.Refused && !result.Degraded {
		window.Append(conversation.Turn{Query: request.Query, Answer: result.Reply})
		session.Turns = window.Turns()
		session.LastQuery = request.Query
		cs.sessionRepo.Save(session)
	}

	sources := make([]dto.SourceDTO, 0, len(result.Citations))
	for _, c := range result.Citations {
		sources = append(sources, dto.SourceDTO{
			ContentId:       c.ContentID,
			Type:            c.ContentType,
			ContentPreview:  c.Preview,
			SimilarityScore: c.Similarity,
			Source:          c.Source,
			Date:            c.Date,
		})
	}

	return &dto.SendChatResponse{
		WorkflowId:  workflowId,
		Response:    result.Reply,
		Sources:     sources,
		ContextUsed: result.ContextUsed,
		IntentType:  result.IntentType,
		Strategy:    result.Strategy,
		TokensUsed:  result.TokensUsed,
		Cost:        result.Cost,
		ElapsedMs:   result.ElapsedMs,
		Refused:     result.Refused,
		Degraded:    result.Degraded,
	}, nil
}

// loadSession prefers the server-side window; a fresh workflow seeds it
// from whatever history the client replayed.
func (cs *chatService) loadSession(userId uuid.UUID, workflowId uuid.UUID, request *dto.SendChatRequest) *store.Session {
	session, found := cs.sessionRepo.Get(workflowId.String())
	if found {
		return session
	}

	session = &store.Session{
		ID:     workflowId.String(),
		UserID: userId.String(),
	}
	if turns := pairHistory(request.ConversationHistory); len(turns) > 0 {
		window := conversation.NewWindow(cs.windowSize)
		for _, t := range turns {
			window.Append(t)
		}
		session.Turns = window.Turns()
	}
	return session
}

// pairHistory folds a role-tagged message list into (query, answer) turns.
// An assistant message completes the pending user message; consecutive user
// messages close the earlier one with an empty answer, and assistant
// messages with no pending user message are dropped.
func pairHistory(messages []dto.ChatMessageDTO) []conversation.Turn {
	turns := make([]conversation.Turn, 0, len(messages)/2)
	pending := ""

	for _, m := range messages {
		switch m.Role {
		case dto.ChatRoleUser:
			if pending != "" {
				turns = append(turns, conversation.Turn{Query: pending})
			}
			pending = m.Content
		case dto.ChatRoleAssistant:
			if pending != "" {
				turns = append(turns, conversation.Turn{Query: pending, Answer: m.Content})
				pending = ""
			}
		}
	}
	if pending != "" {
		turns = append(turns, conversation.Turn{Query: pending})
	}
	return turns
}
