package context

import (
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"brandpulse-be/pkg/store"

	"github.com/google/uuid"
)

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestAssemblePainPointRendersMetrics(t *testing.T) {
	a := NewAssembler(10, discardLogger())

	bundle := a.Assemble([]store.RetrievedContent{{
		ID:           uuid.NewString(),
		ContentType:  store.ContentTypePainPoint,
		Title:        "Sizing runs small",
		Keywords:     []string{"sizing", "fit", "returns"},
		MentionCount: 42,
		HeatScore:    8.7,
		Source:       "reddit",
		PublishedAt:  time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		Similarity:   0.9,
	}})

	if bundle.Empty() {
		t.Fatal("bundle must not be empty")
	}
	r := bundle.Items[0].Rendered
	for _, want := range []string{"[pain_point]", "sizing, fit, returns", "Mentions: 42", "Heat: 8.7", "reddit", "2026-08-01"} {
		if !strings.Contains(r, want) {
			t.Errorf("rendered pain point missing %q:\n%s", want, r)
		}
	}
}

func TestAssembleThreadAndInsightRenderTitleAndBody(t *testing.T) {
	a := NewAssembler(10, discardLogger())

	bundle := a.Assemble([]store.RetrievedContent{
		{
			ID:          uuid.NewString(),
			ContentType: store.ContentTypeThread,
			Title:       "Anyone else having fit issues?",
			Body:        "Ordered a medium and it fits like a small.",
			Source:      "forum",
			PublishedAt: time.Now(),
		},
		{
			ID:          uuid.NewString(),
			ContentType: store.ContentTypeInsight,
			Title:       "Weekly sizing report",
			Body:        "Sizing complaints rose 30% week over week.",
			Source:      "analysis",
			PublishedAt: time.Now(),
		},
	})

	if len(bundle.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(bundle.Items))
	}
	if !strings.Contains(bundle.Items[0].Rendered, "fits like a small") {
		t.Error("thread body missing from rendered context")
	}
	if !strings.Contains(bundle.Items[1].Rendered, "[insight] Weekly sizing report") {
		t.Error("insight header missing from rendered context")
	}
}

func TestAssemblePreservesRankOrderAndCapsItems(t *testing.T) {
	a := NewAssembler(3, discardLogger())

	var candidates []store.RetrievedContent
	for i := 0; i < 5; i++ {
		candidates = append(candidates, store.RetrievedContent{
			ID:          uuid.NewString(),
			ContentType: store.ContentTypeThread,
			Title:       string(rune('a' + i)),
			PublishedAt: time.Now(),
		})
	}

	bundle := a.Assemble(candidates)
	if len(bundle.Items) != 3 {
		t.Fatalf("got %d items, want cap of 3", len(bundle.Items))
	}
	for i, item := range bundle.Items {
		if !strings.Contains(item.Rendered, string(rune('a'+i))) {
			t.Errorf("item %d out of rank order: %s", i, item.Rendered)
		}
	}
}

func TestPreviewTruncates(t *testing.T) {
	long := strings.Repeat("complaint ", 40)
	got := preview("Title", long)

	if len([]rune(got)) > previewLength+3 {
		t.Errorf("preview too long: %d runes", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated preview should end with ellipsis, got %q", got)
	}
	if !strings.HasPrefix(got, "Title: ") {
		t.Errorf("preview should lead with the title, got %q", got)
	}
}

func TestEmptyBundle(t *testing.T) {
	a := NewAssembler(10, discardLogger())
	if !a.Assemble(nil).Empty() {
		t.Error("assembling no candidates must yield an empty bundle")
	}

	var nilBundle *Bundle
	if !nilBundle.Empty() {
		t.Error("nil bundle must report empty")
	}
}
