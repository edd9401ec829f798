package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	"brandpulse-be/pkg/llm"
	"brandpulse-be/pkg/rag/conversation"
)

// Intent types decide whether and how retrieval runs.
const (
	TypeConversational = "conversational"
	TypeSemantic       = "semantic"
	TypeKeyword        = "keyword"
	TypeCombined       = "combined"
)

// minConfidence below which a classification is treated as degraded and
// replaced by the combined fallback.
const minConfidence = 0.4

// Entities extracted from the query for scoping and keyword boosting.
type Entities struct {
	Brand          string   `json:"brand"`
	Campaign       string   `json:"campaign"`
	TimeWindowDays int      `json:"time_window_days"`
	ContentType    string   `json:"content_type"` // thread | pain_point | insight | ""
	Keywords       []string `json:"keywords"`
}

// Classification is produced once per query and consumed immediately.
type Classification struct {
	IntentType string   `json:"intent_type"`
	Entities   Entities `json:"entities"`
	Strategy   string   `json:"strategy"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
	Degraded   bool     `json:"-"` // true when the combined fallback was applied
}

// RetrievalNeeded reports whether this classification routes to the
// retrieval engine at all.
func (c *Classification) RetrievalNeeded() bool {
	return c.IntentType != TypeConversational
}

// Classifier decides whether retrieval is needed and which strategy to use.
// Pure pleasantries are caught by a deterministic pre-pass; everything else
// goes through an LLM classification with a combined-strategy fallback, so a
// malformed or low-confidence model response never fails the request.
type Classifier struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewClassifier(llmProvider llm.LLMProvider, logger *log.Logger) *Classifier {
	return &Classifier{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

var greetingRe = regexp.MustCompile(`(?i)^\s*(hi|hii+|hello|hey|yo|good (morning|afternoon|evening)|how are you\??|what'?s up\??|thanks?( you)?( so much)?!*|thank you!*|bye|goodbye|see you|ok(ay)?|cool|nice)[.!?\s]*$`)

var quotedPhraseRe = regexp.MustCompile(`"([^"]+)"|'([^']{2,})'`)

// Classify analyzes the query against the recent conversation window.
// It never returns an error to the caller; degraded model output falls back
// to the combined strategy.
func (c *Classifier) Classify(ctx context.Context, query string, window *conversation.Window) *Classification {
	if greetingRe.MatchString(query) {
		return &Classification{
			IntentType: TypeConversational,
			Confidence: 1.0,
			Reasoning:  "pure pleasantry with no informational content",
		}
	}

	prompt := c.buildPrompt(query, window)

	response, err := c.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.0))
	if err != nil {
		c.logger.Printf("[WARN] Intent classification failed, using fallback: %v", err)
		return c.fallback(query, "classifier call failed")
	}

	classification, err := c.parse(response)
	if err != nil {
		c.logger.Printf("[WARN] Intent parsing failed, using fallback: %v", err)
		return c.fallback(query, "classifier output malformed")
	}

	if classification.Confidence < minConfidence {
		c.logger.Printf("[WARN] Intent confidence %.2f below %.2f, using fallback",
			classification.Confidence, minConfidence)
		return c.fallback(query, "classifier confidence too low")
	}

	// Guarantee keyword entities for the boosting strategies even when the
	// model omits them.
	if classification.Strategy != TypeSemantic && len(classification.Entities.Keywords) == 0 {
		classification.Entities.Keywords = ExtractKeywords(query)
	}

	c.logger.Printf("[INTENT] %s (strategy=%s, confidence=%.2f)",
		classification.IntentType, classification.Strategy, classification.Confidence)

	return classification
}

func (c *Classifier) buildPrompt(query string, window *conversation.Window) string {
	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You are an intent analyzer for a brand-intelligence assistant.\n")
	prompt.WriteString("You do NOT answer questions. You only classify intent and extract entities.\n")
	prompt.WriteString("</system>\n\n")

	if window != nil && !window.Empty() {
		prompt.WriteString("<recent_conversation>\n")
		for _, t := range window.Turns() {
			prompt.WriteString(fmt.Sprintf("User: %s\nAssistant: %s\n", t.Query, t.Answer))
		}
		prompt.WriteString("</recent_conversation>\n\n")
	}

	prompt.WriteString("<user_query>\n")
	prompt.WriteString(query)
	prompt.WriteString("\n</user_query>\n\n")

	prompt.WriteString("<intent_definitions>\n")
	prompt.WriteString("conversational: pure greeting/small talk with no informational content\n")
	prompt.WriteString("keyword: the query centers on explicit quoted or exact phrases to look up\n")
	prompt.WriteString("semantic: purely open-ended natural language, no specific terms\n")
	prompt.WriteString("combined: mixes a concept with specific terms (the common case)\n")
	prompt.WriteString("</intent_definitions>\n\n")

	prompt.WriteString("<entities>\n")
	prompt.WriteString("Extract when present: brand name, campaign name, time window in days,\n")
	prompt.WriteString("content type (thread | pain_point | insight), and keyword phrases.\n")
	prompt.WriteString("</entities>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON:\n")
	prompt.WriteString("{\n")
	prompt.WriteString("  \"intent_type\": \"conversational|semantic|keyword|combined\",\n")
	prompt.WriteString("  \"entities\": {\"brand\": \"\", \"campaign\": \"\", \"time_window_days\": 0, \"content_type\": \"\", \"keywords\": []},\n")
	prompt.WriteString("  \"confidence\": 0.95,\n")
	prompt.WriteString("  \"reasoning\": \"Brief explanation\"\n")
	prompt.WriteString("}\n")
	prompt.WriteString("</output_format>")

	return prompt.String()
}

func (c *Classifier) parse(response string) (*Classification, error) {
	jsonContent := extractJSON(response)
	if jsonContent == "" {
		return nil, fmt.Errorf("no JSON found in response")
	}

	var classification Classification
	if err := json.Unmarshal([]byte(jsonContent), &classification); err != nil {
		return nil, fmt.Errorf("JSON unmarshal failed: %w", err)
	}

	classification.IntentType = strings.ToLower(strings.TrimSpace(classification.IntentType))
	switch classification.IntentType {
	case TypeConversational, TypeSemantic, TypeKeyword, TypeCombined:
	default:
		return nil, fmt.Errorf("unknown intent type %q", classification.IntentType)
	}

	// All non-conversational intents route to vector retrieval; the intent
	// type doubles as the strategy name.
	if classification.IntentType != TypeConversational {
		classification.Strategy = classification.IntentType
	}

	return &classification, nil
}

// fallback builds a combined-strategy classification from heuristics alone.
func (c *Classifier) fallback(query, reason string) *Classification {
	cls := &Classification{
		IntentType: TypeCombined,
		Strategy:   TypeCombined,
		Confidence: 0.5,
		Reasoning:  "Fallback: " + reason,
		Degraded:   true,
		Entities: Entities{
			Keywords: ExtractKeywords(query),
		},
	}
	if m := quotedPhraseRe.FindStringSubmatch(query); m != nil {
		phrase := m[1]
		if phrase == "" {
			phrase = m[2]
		}
		cls.Entities.Keywords = append([]string{phrase}, cls.Entities.Keywords...)
	}
	return cls
}

// ExtractKeywords pulls candidate keyword terms from a query, dropping stop
// words and punctuation. Exposed for the fallback path and the rewriter.
func ExtractKeywords(query string) []string {
	stopWords := map[string]bool{
		"the": true, "a": true, "an": true, "is": true, "are": true, "was": true,
		"what": true, "who": true, "when": true, "where": true, "why": true, "how": true,
		"my": true, "your": true, "our": true, "their": true, "i": true, "me": true,
		"about": true, "for": true, "of": true, "in": true, "on": true, "to": true,
		"show": true, "tell": true, "give": true, "find": true, "list": true,
		"people": true, "saying": true, "and": true, "with": true, "any": true,
	}

	words := strings.Fields(strings.ToLower(query))
	keywords := make([]string, 0)

	for _, word := range words {
		word = strings.Trim(word, ".,?!;:\"'")
		word = strings.TrimSuffix(word, "'s")
		if len(word) > 2 && !stopWords[word] {
			keywords = append(keywords, word)
		}
	}

	return keywords
}

func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}
