package executor

import (
	"context"
	"log"
	"regexp"
	"time"

	ragcontext "brandpulse-be/pkg/rag/context"
	"brandpulse-be/pkg/rag/conversation"
	"brandpulse-be/pkg/rag/guardrail"
	"brandpulse-be/pkg/rag/intent"
	"brandpulse-be/pkg/rag/response"
	"brandpulse-be/pkg/rag/rewrite"
	"brandpulse-be/pkg/rag/search"

	"github.com/google/uuid"
)

// DegradedMessage is returned when retrieval or generation fails midway.
// Infrastructure trouble degrades the reply, it never errors the request.
const DegradedMessage = "I couldn't process that question right now. Please try again in a moment."

// Config bounds each pipeline stage with its own timeout.
type Config struct {
	ClassifyTimeout time.Duration
	RewriteTimeout  time.Duration
	RetrieveTimeout time.Duration
	GenerateTimeout time.Duration
}

// DefaultConfig returns default stage timeouts
func DefaultConfig() Config {
	return Config{
		ClassifyTimeout: 10 * time.Second,
		RewriteTimeout:  10 * time.Second,
		RetrieveTimeout: 15 * time.Second,
		GenerateTimeout: 30 * time.Second,
	}
}

// Result is the outcome of one pipeline execution. ContextUsed counts the
// context items that grounded the answer; zero for refusals, conversational
// replies, and the no-information branch.
type Result struct {
	Reply          string
	Citations      []response.Citation
	ContextUsed    int
	TokensUsed     int
	Cost           float64
	IntentType     string
	Strategy       string
	RewrittenQuery string
	Refused        bool
	Degraded       bool
	ElapsedMs      int64
}

// Pipeline orchestrates the full query path: input guardrail, intent
// classification, query rewriting, retrieval, context assembly, grounded
// generation, and the output guardrail, in that order.
type Pipeline struct {
	validator  *guardrail.Validator
	classifier *intent.Classifier
	rewriter   *rewrite.Rewriter
	retriever  search.Retriever
	assembler  *ragcontext.Assembler
	generator  *response.Generator
	sanitizer  *guardrail.Sanitizer
	config     Config
	logger     *log.Logger
}

func NewPipeline(
	validator *guardrail.Validator,
	classifier *intent.Classifier,
	rewriter *rewrite.Rewriter,
	retriever search.Retriever,
	assembler *ragcontext.Assembler,
	generator *response.Generator,
	sanitizer *guardrail.Sanitizer,
	config Config,
	logger *log.Logger,
) *Pipeline {
	return &Pipeline{
		validator:  validator,
		classifier: classifier,
		rewriter:   rewriter,
		retriever:  retriever,
		assembler:  assembler,
		generator:  generator,
		sanitizer:  sanitizer,
		config:     config,
		logger:     logger,
	}
}

// Execute runs one query through the pipeline. Guardrail refusals and
// infrastructure degradation both come back as a Result, not an error; the
// caller decides whether to commit the turn to conversation state.
func (p *Pipeline) Execute(
	ctx context.Context,
	workflowId string,
	query string,
	campaignId *uuid.UUID,
	window *conversation.Window,
) (*Result, error) {
	started := time.Now()

	// Stage 1: input guardrail. A rejected query stops here with no
	// retrieval, no generation, and no state mutation by the caller.
	validation := p.validator.Validate(query, workflowId)
	if !validation.Valid {
		p.logger.Printf("[PIPELINE] %s rejected: %s", workflowId, validation.Category)
		return &Result{
			Reply:     validation.Refusal,
			Refused:   true,
			ElapsedMs: time.Since(started).Milliseconds(),
		}, nil
	}

	// Stage 2: intent classification.
	classifyCtx, cancel := context.WithTimeout(ctx, p.config.ClassifyTimeout)
	classification := p.classifier.Classify(classifyCtx, query, window)
	cancel()

	result := &Result{
		IntentType: classification.IntentType,
		Strategy:   classification.Strategy,
	}
	// A classifier fallback is recovered locally: the combined strategy still
	// produces a full answer, so it is logged but never marks the result
	// degraded. Degradation is reserved for infrastructure failures below.
	if classification.Degraded {
		p.logger.Printf("[PIPELINE] %s classifier fallback, continuing with %s strategy",
			workflowId, classification.Strategy)
	}

	// Conversational queries get a canned reply: zero retrieval, zero
	// generation, so pleasantries stay fast and deterministic.
	if !classification.RetrievalNeeded() {
		result.Reply = conversationalReply(query)
		result.ElapsedMs = time.Since(started).Milliseconds()
		return result, nil
	}

	// Stage 3: rewrite follow-ups into self-contained retrieval queries.
	rewriteCtx, cancel := context.WithTimeout(ctx, p.config.RewriteTimeout)
	rewritten := p.rewriter.Rewrite(rewriteCtx, query, window)
	cancel()
	result.RewrittenQuery = rewritten

	// Stage 4: hybrid retrieval.
	retrieveCtx, cancel := context.WithTimeout(ctx, p.config.RetrieveTimeout)
	candidates, err := p.retriever.Retrieve(retrieveCtx, search.Plan{
		Query:       rewritten,
		Strategy:    classification.Strategy,
		Keywords:    classification.Entities.Keywords,
		CampaignID:  campaignId,
		Brand:       classification.Entities.Brand,
		ContentType: classification.Entities.ContentType,
	})
	cancel()
	if err != nil {
		p.logger.Printf("[ERROR] %s retrieval failed: %v", workflowId, err)
		result.Reply = DegradedMessage
		result.Degraded = true
		result.ElapsedMs = time.Since(started).Milliseconds()
		return result, nil
	}

	// Stage 5: context assembly.
	bundle := p.assembler.Assemble(candidates)

	// Stage 6: grounded generation. An empty bundle yields the fixed
	// no-information message inside the generator.
	generateCtx, cancel := context.WithTimeout(ctx, p.config.GenerateTimeout)
	answer, err := p.generator.Generate(generateCtx, rewritten, bundle, window)
	cancel()
	if err != nil {
		p.logger.Printf("[ERROR] %s generation failed: %v", workflowId, err)
		result.Reply = DegradedMessage
		result.Degraded = true
		result.ElapsedMs = time.Since(started).Milliseconds()
		return result, nil
	}

	// Stage 7: output guardrail, always last so it sees the final text.
	sanitized := p.sanitizer.Sanitize(answer.Text, workflowId)
	if sanitized.Overridden {
		result.Reply = sanitized.Text
		result.Refused = true
		result.ElapsedMs = time.Since(started).Milliseconds()
		return result, nil
	}

	result.Reply = answer.Text
	result.Citations = answer.Citations
	if len(answer.Citations) > 0 {
		result.ContextUsed = len(bundle.Items)
	}
	result.TokensUsed = answer.TokensUsed
	result.Cost = answer.Cost
	result.ElapsedMs = time.Since(started).Milliseconds()

	p.logger.Printf("[PIPELINE] %s answered: intent=%s citations=%d elapsed=%dms",
		workflowId, result.IntentType, len(result.Citations), result.ElapsedMs)

	return result, nil
}

var thanksRe = regexp.MustCompile(`(?i)\b(thanks|thank you)\b`)
var farewellRe = regexp.MustCompile(`(?i)\b(bye|goodbye|see you)\b`)

// conversationalReply answers pleasantries without touching the model.
func conversationalReply(query string) string {
	switch {
	case thanksRe.MatchString(query):
		return "You're welcome! Ask me anything else about your monitored brands."
	case farewellRe.MatchString(query):
		return "Goodbye! Come back whenever you want to check on your campaigns."
	default:
		return "Hello! Ask me about your monitored brands, campaigns, community threads, or pain points."
	}
}
