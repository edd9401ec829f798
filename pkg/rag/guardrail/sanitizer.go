package guardrail

// SanitizedRefusal replaces generated answers that violate output policy.
const SanitizedRefusal = "The generated answer was withheld because it contained content outside this " +
	"assistant's boundaries. Please rephrase your question around the collected brand-intelligence data."

// SanitizeResult is the output-side decision.
type SanitizeResult struct {
	Text       string
	Overridden bool
	Category   string // set when overridden
}

// Sanitizer is the final output-side safety pass. It is an independent check
// of the generated answer, not a rephrasing of the input validator.
type Sanitizer struct {
	sink EventSink
}

func NewSanitizer(sink EventSink) *Sanitizer {
	return &Sanitizer{sink: sink}
}

// Sanitize scans the generated answer for boundary violations that slipped
// through generation and substitutes a refusal when one is found. The
// override is deterministic and logged for audit.
func (s *Sanitizer) Sanitize(answer string, workflowId string) SanitizeResult {
	for _, p := range outputDenyPatterns {
		if p.re.MatchString(answer) {
			if s.sink != nil {
				s.sink.Warn("guardrail", "answer overridden by sanitizer", map[string]interface{}{
					"category":    p.category,
					"workflow_id": workflowId,
				})
			}
			return SanitizeResult{
				Text:       SanitizedRefusal,
				Overridden: true,
				Category:   p.category,
			}
		}
	}

	return SanitizeResult{Text: answer}
}
