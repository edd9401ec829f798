package guardrail

import "regexp"

// Violation categories. Crisis is separated from the generic policy
// categories because it carries its own resource-oriented refusal.
const (
	CategoryCrisis     = "crisis"
	CategoryIllegal    = "illegal_activity"
	CategoryCommitment = "legal_commitment"
	CategoryPolitical  = "political_endorsement"
	CategoryPII        = "pii_extraction"
	CategoryInjection  = "prompt_injection"
)

// Refusal templates per category. Crisis queries get resources, not a
// generic refusal.
const (
	CrisisRefusal = "It sounds like you or someone you know may be going through a difficult time. " +
		"Please reach out to a crisis line such as the 988 Suicide & Crisis Lifeline (call or text 988) " +
		"or the International Association for Suicide Prevention (https://www.iasp.info/resources/Crisis_Centres/). " +
		"This assistant is limited to brand-intelligence questions and cannot help with personal crises."

	PolicyRefusal = "I can't help with that request. This assistant answers questions about collected " +
		"brand-intelligence data only. Please rephrase your question around brand mentions, pain points, or insights."

	InjectionRefusal = "I can't process that request. Please ask a plain question about your brand-intelligence data."
)

type denyPattern struct {
	category string
	re       *regexp.Regexp
}

// Input deny patterns. Matched case-insensitively against the raw query
// before any retrieval work begins.
var inputDenyPatterns = []denyPattern{
	{CategoryCrisis, regexp.MustCompile(`(?i)\b(kill (myself|me)|suicide|suicidal|self[- ]harm|end my life|hurt myself)\b`)},
	{CategoryIllegal, regexp.MustCompile(`(?i)\bhow (to|do i) (hack|steal|launder|forge|counterfeit)\b`)},
	{CategoryIllegal, regexp.MustCompile(`(?i)\b(make|build|buy) (a )?(bomb|explosive|illegal weapon)\b`)},
	{CategoryCommitment, regexp.MustCompile(`(?i)\b(sign|enter into|commit (us|me) to|guarantee) (a |the )?(contract|agreement|legal|refund|discount)\b`)},
	{CategoryPolitical, regexp.MustCompile(`(?i)\b(who should i vote|(endorse|support|back) (a |the )?(candidate|party|election))\b`)},
	{CategoryPII, regexp.MustCompile(`(?i)\b(home address|phone number|email address|social security|passport number|credit card) of\b`)},
	{CategoryPII, regexp.MustCompile(`(?i)\b(dox|doxx|personal (details|information) (of|about))\b`)},
	{CategoryInjection, regexp.MustCompile(`(?i)(ignore (all |any )?(previous |prior )?(instructions|prompts)|disregard (your|the) (rules|instructions))`)},
	{CategoryInjection, regexp.MustCompile(`(?i)(reveal|show|print) (your|the) (system prompt|hidden instructions)`)},
	{CategoryInjection, regexp.MustCompile(`(?i)\byou are now (dan|in developer mode)\b`)},
}

// Output patterns: boundary violations that may slip through generation.
var outputDenyPatterns = []denyPattern{
	{CategoryPII, regexp.MustCompile(`\b[0-9]{3}-[0-9]{2}-[0-9]{4}\b`)},                                     // SSN-shaped
	{CategoryPII, regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)},                 // email address
	{CategoryPII, regexp.MustCompile(`\b\+?[0-9]{3}[-.\s][0-9]{3}[-.\s][0-9]{4}\b`)},                        // phone-shaped
	{CategoryCommitment, regexp.MustCompile(`(?i)\bwe (guarantee|promise|commit to|will refund|legally)\b`)}, // fabricated commitments
	{CategoryCrisis, regexp.MustCompile(`(?i)\b(how to (harm|hurt) (yourself|others))\b`)},
}

// refusalFor maps a category to its refusal template.
func refusalFor(category string) string {
	switch category {
	case CategoryCrisis:
		return CrisisRefusal
	case CategoryInjection:
		return InjectionRefusal
	default:
		return PolicyRefusal
	}
}
