package guardrail

import (
	"strings"
)

// MaxQueryLength bounds incoming query text.
const MaxQueryLength = 2000

// EventSink receives guardrail audit events. The structured logger satisfies
// this; tests can pass a capture fake. An explicit sink keeps guardrail
// decisions out of hidden global state.
type EventSink interface {
	Warn(module, message string, details map[string]interface{})
}

// ValidationResult is the gate decision for an incoming query.
type ValidationResult struct {
	Valid    bool
	Category string // set when invalid
	Reason   string // internal description, not user-facing
	Refusal  string // canned user-facing refusal when invalid
}

// Validator gates raw query text before any retrieval work begins.
type Validator struct {
	sink EventSink
}

func NewValidator(sink EventSink) *Validator {
	return &Validator{sink: sink}
}

// Validate checks the query against structural limits and the deny-pattern
// set. It never mutates anything beyond emitting an audit event.
func (v *Validator) Validate(query string, workflowId string) ValidationResult {
	trimmed := strings.TrimSpace(query)

	if trimmed == "" {
		return v.reject("empty_query", "query is empty or whitespace-only",
			"Please enter a question about your brand-intelligence data.", workflowId)
	}

	if len(trimmed) > MaxQueryLength {
		return v.reject("query_too_long", "query exceeds maximum length",
			"That question is too long. Please shorten it and try again.", workflowId)
	}

	for _, p := range inputDenyPatterns {
		if p.re.MatchString(trimmed) {
			return v.reject(p.category, "query matched deny pattern", refusalFor(p.category), workflowId)
		}
	}

	return ValidationResult{Valid: true}
}

func (v *Validator) reject(category, reason, refusal, workflowId string) ValidationResult {
	if v.sink != nil {
		v.sink.Warn("guardrail", "query rejected", map[string]interface{}{
			"category":    category,
			"reason":      reason,
			"workflow_id": workflowId,
		})
	}
	return ValidationResult{
		Valid:    false,
		Category: category,
		Reason:   reason,
		Refusal:  refusal,
	}
}
