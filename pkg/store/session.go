package store

import "brandpulse-be/pkg/rag/conversation"

// Session is the in-memory conversation state for one chat workflow. Only
// the bounded recent window survives between requests; committed turns
// beyond the window are gone for good.
type Session struct {
	ID     string              `json:"id"`
	UserID string              `json:"user_id"`
	Turns  []conversation.Turn `json:"turns"`

	// LastQuery is kept for diagnostics only.
	LastQuery string `json:"last_query"`
}
