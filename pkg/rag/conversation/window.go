package conversation

import "strings"

// DefaultWindowSize is the number of recent turns kept for rewriting and
// generation context.
const DefaultWindowSize = 3

// Turn is one completed (query, answer) exchange.
type Turn struct {
	Query  string `json:"query"`
	Answer string `json:"answer"`
}

// Window holds the bounded recent conversation history. The bound is enforced
// structurally: appends beyond the capacity evict the oldest turn, so callers
// can never grow it past the configured size.
type Window struct {
	turns []Turn
	max   int
}

// NewWindow creates an empty window keeping at most max turns.
// A non-positive max falls back to DefaultWindowSize.
func NewWindow(max int) *Window {
	if max <= 0 {
		max = DefaultWindowSize
	}
	return &Window{max: max}
}

// FromTurns builds a window from an externally accumulated history,
// keeping only the most recent max turns.
func FromTurns(turns []Turn, max int) *Window {
	w := NewWindow(max)
	for _, t := range turns {
		w.Append(t)
	}
	return w
}

// Append adds a completed turn, evicting the oldest if the window is full.
// Turns with an empty query are ignored.
func (w *Window) Append(t Turn) {
	if strings.TrimSpace(t.Query) == "" {
		return
	}
	w.turns = append(w.turns, t)
	if len(w.turns) > w.max {
		w.turns = w.turns[len(w.turns)-w.max:]
	}
}

// Turns returns a copy of the held turns, oldest first.
func (w *Window) Turns() []Turn {
	out := make([]Turn, len(w.turns))
	copy(out, w.turns)
	return out
}

// Last returns the most recent turn, or false if the window is empty.
func (w *Window) Last() (Turn, bool) {
	if len(w.turns) == 0 {
		return Turn{}, false
	}
	return w.turns[len(w.turns)-1], true
}

// Len returns the number of held turns.
func (w *Window) Len() int {
	return len(w.turns)
}

// Empty reports whether the window holds no turns.
func (w *Window) Empty() bool {
	return len(w.turns) == 0
}
