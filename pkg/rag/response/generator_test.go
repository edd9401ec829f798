package response

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"brandpulse-be/pkg/llm"
	ragcontext "brandpulse-be/pkg/rag/context"
	"brandpulse-be/pkg/rag/conversation"
)

type fakeLLM struct {
	response string
	err      error
	calls    int
	lastReq  string
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.calls++
	return f.response, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	f.calls++
	f.lastReq = prompt
	return f.response, f.err
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func sizingBundle() *ragcontext.Bundle {
	return &ragcontext.Bundle{Items: []ragcontext.ContextItem{
		{
			ContentID:   "11111111-1111-1111-1111-111111111111",
			ContentType: "pain_point",
			Source:      "reddit",
			Date:        time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			Similarity:  0.91,
			Rendered:    "[pain_point] Sizing runs small\nMentions: 42 | Heat: 8.7",
			Preview:     "Sizing runs small",
		},
		{
			ContentID:   "22222222-2222-2222-2222-222222222222",
			ContentType: "thread",
			Source:      "forum",
			Date:        time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
			Similarity:  0.85,
			Rendered:    "[thread] Fit issues\nOrdered medium, fits like a small.",
			Preview:     "Fit issues: Ordered medium, fits like a small.",
		},
	}}
}

func TestGenerateEmptyBundleSkipsModel(t *testing.T) {
	fake := &fakeLLM{response: "should never be used"}
	g := NewGenerator(fake, "gemini-2.0-flash", discardLogger())

	ans, err := g.Generate(context.Background(), "anything", &ragcontext.Bundle{}, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if ans.Text != NoInformationMessage {
		t.Errorf("text = %q, want the fixed no-information message", ans.Text)
	}
	if len(ans.Citations) != 0 {
		t.Errorf("empty context produced %d citations, want 0", len(ans.Citations))
	}
	if fake.calls != 0 {
		t.Errorf("empty context made %d LLM calls, want 0", fake.calls)
	}
}

func TestGenerateCitesEveryContextItem(t *testing.T) {
	fake := &fakeLLM{response: "Sizing complaints dominate: 42 mentions of small fit."}
	g := NewGenerator(fake, "gemini-2.0-flash", discardLogger())

	bundle := sizingBundle()
	ans, err := g.Generate(context.Background(), "What are the top complaints?", bundle, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(ans.Citations) != len(bundle.Items) {
		t.Fatalf("got %d citations, want %d", len(ans.Citations), len(bundle.Items))
	}
	for i, c := range ans.Citations {
		item := bundle.Items[i]
		if c.ContentID != item.ContentID || c.Similarity != item.Similarity || c.Preview != item.Preview {
			t.Errorf("citation %d does not match context item: %+v vs %+v", i, c, item)
		}
	}
	if ans.TokensUsed <= 0 {
		t.Error("expected a token estimate")
	}
	if ans.Cost <= 0 {
		t.Error("expected a nonzero cost estimate for a paid model")
	}
}

func TestGeneratePromptContainsContextAndRules(t *testing.T) {
	fake := &fakeLLM{response: "answer"}
	g := NewGenerator(fake, "gemini-2.0-flash", discardLogger())

	if _, err := g.Generate(context.Background(), "top complaints?", sizingBundle(), nil); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	for _, want := range []string{"Sizing runs small", "Fit issues", "ONLY data source", "Never invent", "top complaints?"} {
		if !strings.Contains(fake.lastReq, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestGeneratePromptIncludesRecentTurns(t *testing.T) {
	fake := &fakeLLM{response: "answer"}
	g := NewGenerator(fake, "gemini-2.0-flash", discardLogger())

	window := conversation.NewWindow(3)
	window.Append(conversation.Turn{
		Query:  "What are people saying about Acme's sizing?",
		Answer: "Mostly that it runs small.",
	})

	if _, err := g.Generate(context.Background(), "any other complaints?", sizingBundle(), window); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	for _, want := range []string{"Acme's sizing", "Mostly that it runs small."} {
		if !strings.Contains(fake.lastReq, want) {
			t.Errorf("prompt missing recent turn fragment %q", want)
		}
	}
}

func TestGeneratePropagatesModelFailure(t *testing.T) {
	fake := &fakeLLM{err: fmt.Errorf("model down")}
	g := NewGenerator(fake, "gemini-2.0-flash", discardLogger())

	if _, err := g.Generate(context.Background(), "q", sizingBundle(), nil); err == nil {
		t.Fatal("expected error when the model fails")
	}
}

func TestGenerateRejectsEmptyModelOutput(t *testing.T) {
	fake := &fakeLLM{response: "   "}
	g := NewGenerator(fake, "gemini-2.0-flash", discardLogger())

	if _, err := g.Generate(context.Background(), "q", sizingBundle(), nil); err == nil {
		t.Fatal("expected error on blank model output")
	}
}
