package response

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"brandpulse-be/pkg/llm"
	ragcontext "brandpulse-be/pkg/rag/context"
	"brandpulse-be/pkg/rag/conversation"
)

// NoInformationMessage is returned verbatim when retrieval produced nothing
// usable. The model is never called in that case, so it cannot improvise.
const NoInformationMessage = "I couldn't find any collected brand data matching your question. Try different keywords, or broaden the time range."

// Citation points one answer back at a retrieved content item.
type Citation struct {
	ContentID   string    `json:"content_id"`
	ContentType string    `json:"type"`
	Source      string    `json:"source"`
	Preview     string    `json:"content_preview"`
	Similarity  float64   `json:"similarity_score"`
	Date        time.Time `json:"date"`
}

// Answer is the generated reply plus its provenance and usage accounting.
type Answer struct {
	Text       string
	Citations  []Citation
	TokensUsed int
	Cost       float64
}

// Generator produces answers grounded exclusively in the assembled context.
type Generator struct {
	llmProvider llm.LLMProvider
	model       string
	logger      *log.Logger
}

func NewGenerator(llmProvider llm.LLMProvider, model string, logger *log.Logger) *Generator {
	return &Generator{
		llmProvider: llmProvider,
		model:       model,
		logger:      logger,
	}
}

// Generate answers the query from the bundle, with the recent conversation
// turns available for continuity. Every citation corresponds to an item that
// was actually in the grounding context. An empty bundle short circuits to
// the fixed no-information message with zero model calls.
func (g *Generator) Generate(ctx context.Context, query string, bundle *ragcontext.Bundle, window *conversation.Window) (*Answer, error) {
	if bundle.Empty() {
		g.logger.Printf("[GENERATION] Empty context, returning no-information message")
		return &Answer{Text: NoInformationMessage}, nil
	}

	prompt := g.buildGroundedPrompt(query, bundle, window)

	text, err := g.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.4))
	if err != nil {
		return nil, fmt.Errorf("answer generation failed: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("answer generation returned empty response")
	}

	citations := make([]Citation, 0, len(bundle.Items))
	for _, item := range bundle.Items {
		citations = append(citations, Citation{
			ContentID:   item.ContentID,
			ContentType: item.ContentType,
			Source:      item.Source,
			Preview:     item.Preview,
			Similarity:  item.Similarity,
			Date:        item.Date,
		})
	}

	inTokens := llm.EstimateTokens(prompt)
	outTokens := llm.EstimateTokens(text)

	g.logger.Printf("[GENERATION] Answer generated from %d items", len(bundle.Items))

	return &Answer{
		Text:       text,
		Citations:  citations,
		TokensUsed: inTokens + outTokens,
		Cost:       llm.EstimateCost(g.model, inTokens, outTokens),
	}, nil
}

func (g *Generator) buildGroundedPrompt(query string, bundle *ragcontext.Bundle, window *conversation.Window) string {
	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You are a brand-monitoring analyst answering from collected community data.\n")
	prompt.WriteString("</system>\n\n")

	if window != nil && !window.Empty() {
		prompt.WriteString("<recent_conversation>\n")
		for _, t := range window.Turns() {
			prompt.WriteString(fmt.Sprintf("User: %s\nAssistant: %s\n", t.Query, t.Answer))
		}
		prompt.WriteString("</recent_conversation>\n\n")
	}

	prompt.WriteString("<reference_material>\n")
	prompt.WriteString("CRITICAL: This is the ONLY data source. Do NOT use outside knowledge.\n\n")
	for i, item := range bundle.Items {
		prompt.WriteString(fmt.Sprintf("--- Item %d ---\n", i+1))
		prompt.WriteString(item.Rendered)
		prompt.WriteString("\n\n")
	}
	prompt.WriteString("</reference_material>\n\n")

	prompt.WriteString("<rules>\n")
	prompt.WriteString("1. Answer ONLY from the reference material above.\n")
	prompt.WriteString("2. Never invent numbers, names, dates, or quotes.\n")
	prompt.WriteString("3. If the material does not cover part of the question, say so plainly.\n")
	prompt.WriteString("4. Be concise and lead with the finding the user asked about.\n")
	prompt.WriteString("5. Do NOT emit citation markers like [1]. Sources are attached separately.\n")
	prompt.WriteString("</rules>\n\n")

	prompt.WriteString("<user_question>\n")
	prompt.WriteString(query)
	prompt.WriteString("\n</user_question>\n\n")

	prompt.WriteString("Answer:")

	return prompt.String()
}
