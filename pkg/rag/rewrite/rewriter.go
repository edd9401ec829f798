package rewrite

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"unicode"

	"brandpulse-be/pkg/llm"
	"brandpulse-be/pkg/rag/conversation"
)

// Rewriter turns context-dependent follow-up queries into self-contained
// search queries using the recent conversation window. Rewriting is
// idempotent: a query that is already self-contained, or arrives with no
// history, passes through unchanged.
type Rewriter struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewRewriter(llmProvider llm.LLMProvider, logger *log.Logger) *Rewriter {
	return &Rewriter{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

var anaphorRe = regexp.MustCompile(`(?i)\b(it|that|this|those|these|them|they|he|she)\b|more about|what about|what else|tell me more|go on|expand on`)

// Rewrite produces a self-contained query string. It never fails the
// request: on model error it degrades to appending the previous query's
// topic so retrieval still has the referenced context.
func (r *Rewriter) Rewrite(ctx context.Context, query string, window *conversation.Window) string {
	if window == nil || window.Empty() {
		return query
	}

	if !needsContext(query) {
		return query
	}

	prompt := r.buildPrompt(query, window)

	rewritten, err := r.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.0))
	if err != nil {
		r.logger.Printf("[WARN] Query rewrite failed, using topic fallback: %v", err)
		return r.topicFallback(query, window)
	}

	rewritten = strings.TrimSpace(strings.Trim(strings.TrimSpace(rewritten), `"`))
	if rewritten == "" {
		return r.topicFallback(query, window)
	}

	r.logger.Printf("[REWRITE] %q -> %q", query, rewritten)
	return rewritten
}

// needsContext detects anaphoric references that cannot be resolved without
// conversation history: pronouns, follow-up phrasings, or short queries that
// name no entity of their own.
func needsContext(query string) bool {
	if anaphorRe.MatchString(query) {
		return true
	}

	words := strings.Fields(query)
	if len(words) > 6 {
		return false
	}
	if strings.ContainsAny(query, `"'`) {
		return false
	}
	// A short query that carries its own proper noun ("Acme complaints")
	// is self-contained; one that is all lowercase after the sentence
	// opener ("show me the summary") depends on context.
	for i, w := range words {
		runes := []rune(w)
		if len(runes) == 0 || !unicode.IsUpper(runes[0]) {
			continue
		}
		if i > 0 || !commonOpeners[strings.ToLower(strings.Trim(w, ".,?!"))] {
			return false
		}
	}
	return true
}

// commonOpeners are sentence starters whose capitalization says nothing
// about whether the query names an entity.
var commonOpeners = map[string]bool{
	"show": true, "tell": true, "give": true, "find": true, "list": true,
	"what": true, "who": true, "when": true, "where": true, "why": true,
	"how": true, "can": true, "could": true, "please": true, "summarize": true,
	"the": true, "and": true, "more": true, "any": true, "do": true,
}

func (r *Rewriter) buildPrompt(query string, window *conversation.Window) string {
	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You rewrite follow-up questions into self-contained search queries.\n")
	prompt.WriteString("Substitute the referenced brand or topic from the conversation.\n")
	prompt.WriteString("Respond with ONLY the rewritten query, nothing else.\n")
	prompt.WriteString("</system>\n\n")

	prompt.WriteString("<conversation>\n")
	for _, t := range window.Turns() {
		prompt.WriteString(fmt.Sprintf("User: %s\nAssistant: %s\n", t.Query, t.Answer))
	}
	prompt.WriteString("</conversation>\n\n")

	prompt.WriteString("<follow_up>\n")
	prompt.WriteString(query)
	prompt.WriteString("\n</follow_up>")

	return prompt.String()
}

// topicFallback appends the most recent user query so the referenced subject
// is still present in the retrieval query. Cruder than a proper rewrite but
// keeps the pipeline grounded when the model is unavailable.
func (r *Rewriter) topicFallback(query string, window *conversation.Window) string {
	last, ok := window.Last()
	if !ok {
		return query
	}
	return query + " (" + last.Query + ")"
}
