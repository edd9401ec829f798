package search

import (
	"context"
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"brandpulse-be/internal/entity"
	"brandpulse-be/internal/repository/contract"
	"brandpulse-be/internal/repository/specification"
	"brandpulse-be/pkg/embedding"
	"brandpulse-be/pkg/store"

	"github.com/google/uuid"
)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Generate(ctx context.Context, text, taskType string) (*embedding.EmbeddingResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingValues{Values: []float32{0.1, 0.2, 0.3}},
	}, nil
}

// fakeEmbeddingRepo serves canned scored content keyed by content type.
type fakeEmbeddingRepo struct {
	byType map[string][]*contract.ScoredContent
	err    error
}

func (f *fakeEmbeddingRepo) Create(ctx context.Context, e *entity.ContentEmbedding) error {
	return nil
}

func (f *fakeEmbeddingRepo) CreateBulk(ctx context.Context, e []*entity.ContentEmbedding) error {
	return nil
}

func (f *fakeEmbeddingRepo) DeleteByContentId(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (f *fakeEmbeddingRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ContentEmbedding, error) {
	return nil, nil
}

func (f *fakeEmbeddingRepo) SearchSimilarWithScore(ctx context.Context, emb []float32, limit int, scope contract.ContentScope, threshold float64) ([]*contract.ScoredContent, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*contract.ScoredContent
	for _, s := range f.byType[scope.ContentType] {
		if s.Similarity >= threshold {
			out = append(out, s)
		}
	}
	return out, nil
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func scoredItem(id uuid.UUID, contentType, title string, keywords []string, similarity float64, published time.Time) *contract.ScoredContent {
	return &contract.ScoredContent{
		Content: &entity.ContentItem{
			Id:          id,
			ContentType: contentType,
			Title:       title,
			Keywords:    keywords,
			PublishedAt: published,
		},
		Similarity: similarity,
	}
}

func TestRetrieveRanksBySimilarityForSemanticStrategy(t *testing.T) {
	now := time.Now()
	repo := &fakeEmbeddingRepo{byType: map[string][]*contract.ScoredContent{
		store.ContentTypeThread: {
			scoredItem(uuid.New(), store.ContentTypeThread, "low", nil, 0.6, now),
			scoredItem(uuid.New(), store.ContentTypeThread, "high", nil, 0.9, now),
		},
	}}
	o := NewOrchestrator(&fakeEmbedder{}, repo, DefaultConfig(), discardLogger())

	got, err := o.Retrieve(context.Background(), Plan{Query: "sizing", Strategy: "semantic"})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].Title != "high" {
		t.Errorf("top result = %q, want the higher-similarity item", got[0].Title)
	}
	if got[0].RankScore != got[0].Similarity {
		t.Errorf("semantic rank %v must equal similarity %v", got[0].RankScore, got[0].Similarity)
	}
}

func TestRetrieveKeywordBoostReordersAboveSimilarity(t *testing.T) {
	now := time.Now()
	repo := &fakeEmbeddingRepo{byType: map[string][]*contract.ScoredContent{
		store.ContentTypePainPoint: {
			scoredItem(uuid.New(), store.ContentTypePainPoint, "generic gripes", nil, 0.80, now),
			scoredItem(uuid.New(), store.ContentTypePainPoint, "fit problems", []string{"sizing", "fit"}, 0.72, now),
		},
	}}
	o := NewOrchestrator(&fakeEmbedder{}, repo, DefaultConfig(), discardLogger())

	got, err := o.Retrieve(context.Background(), Plan{
		Query:    "sizing complaints",
		Strategy: "combined",
		Keywords: []string{"sizing", "fit"},
	})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	// 0.72 * (1 + 0.15*2) = 0.936 beats 0.80.
	if got[0].Title != "fit problems" {
		t.Errorf("top result = %q, want keyword-boosted item", got[0].Title)
	}
	if got[0].KeywordHits != 2 {
		t.Errorf("keyword hits = %d, want 2", got[0].KeywordHits)
	}
	if got[0].Similarity != 0.72 {
		t.Errorf("boost must not alter the raw similarity, got %v", got[0].Similarity)
	}
}

func TestRetrieveBoostNeverAdmitsBelowThreshold(t *testing.T) {
	now := time.Now()
	// 0.4 is below the 0.5 admission threshold even though a triple
	// keyword boost would push its rank past it.
	repo := &fakeEmbeddingRepo{byType: map[string][]*contract.ScoredContent{
		store.ContentTypeThread: {
			scoredItem(uuid.New(), store.ContentTypeThread, "near miss", []string{"sizing", "fit", "returns"}, 0.4, now),
		},
	}}
	o := NewOrchestrator(&fakeEmbedder{}, repo, DefaultConfig(), discardLogger())

	got, err := o.Retrieve(context.Background(), Plan{
		Query:    "sizing",
		Strategy: "keyword",
		Keywords: []string{"sizing", "fit", "returns"},
	})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d results, want 0: boost must not admit sub-threshold items", len(got))
	}
}

func TestRetrieveKeywordHitsAreCapped(t *testing.T) {
	now := time.Now()
	repo := &fakeEmbeddingRepo{byType: map[string][]*contract.ScoredContent{
		store.ContentTypePainPoint: {
			scoredItem(uuid.New(), store.ContentTypePainPoint, "everything matches",
				[]string{"a", "b", "c", "d", "e"}, 0.6, now),
		},
	}}
	o := NewOrchestrator(&fakeEmbedder{}, repo, DefaultConfig(), discardLogger())

	got, err := o.Retrieve(context.Background(), Plan{
		Query:    "q",
		Strategy: "keyword",
		Keywords: []string{"a", "b", "c", "d", "e"},
	})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	want := 0.6 * (1 + 0.15*3)
	if diff := got[0].RankScore - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("rank = %v, want %v (boost capped at 3 hits)", got[0].RankScore, want)
	}
	if got[0].KeywordHits != 5 {
		t.Errorf("raw keyword hits = %d, want 5", got[0].KeywordHits)
	}
}

func TestRetrieveDeduplicatesChunksKeepingBestScore(t *testing.T) {
	now := time.Now()
	id := uuid.New()
	repo := &fakeEmbeddingRepo{byType: map[string][]*contract.ScoredContent{
		store.ContentTypeInsight: {
			scoredItem(id, store.ContentTypeInsight, "weekly insight", nil, 0.7, now),
			scoredItem(id, store.ContentTypeInsight, "weekly insight", nil, 0.85, now),
		},
	}}
	o := NewOrchestrator(&fakeEmbedder{}, repo, DefaultConfig(), discardLogger())

	got, err := o.Retrieve(context.Background(), Plan{Query: "q", Strategy: "semantic"})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1 after dedup", len(got))
	}
	if got[0].Similarity != 0.85 {
		t.Errorf("dedup kept similarity %v, want best chunk 0.85", got[0].Similarity)
	}
}

func TestRetrieveRecencyBreaksTies(t *testing.T) {
	old := time.Now().Add(-48 * time.Hour)
	fresh := time.Now()
	repo := &fakeEmbeddingRepo{byType: map[string][]*contract.ScoredContent{
		store.ContentTypeThread: {
			scoredItem(uuid.New(), store.ContentTypeThread, "stale", nil, 0.7, old),
			scoredItem(uuid.New(), store.ContentTypeThread, "fresh", nil, 0.7, fresh),
		},
	}}
	o := NewOrchestrator(&fakeEmbedder{}, repo, DefaultConfig(), discardLogger())

	got, err := o.Retrieve(context.Background(), Plan{Query: "q", Strategy: "semantic"})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if got[0].Title != "fresh" {
		t.Errorf("top result = %q, want the more recent item on a rank tie", got[0].Title)
	}
}

func TestRetrieveGlobalLimit(t *testing.T) {
	now := time.Now()
	byType := map[string][]*contract.ScoredContent{}
	for _, ct := range store.AllContentTypes {
		for i := 0; i < 6; i++ {
			byType[ct] = append(byType[ct],
				scoredItem(uuid.New(), ct, fmt.Sprintf("%s-%d", ct, i), nil, 0.6+float64(i)/100, now))
		}
	}
	repo := &fakeEmbeddingRepo{byType: byType}
	o := NewOrchestrator(&fakeEmbedder{}, repo, DefaultConfig(), discardLogger())

	got, err := o.Retrieve(context.Background(), Plan{Query: "q", Strategy: "semantic"})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != DefaultConfig().GlobalLimit {
		t.Errorf("got %d results, want global limit %d", len(got), DefaultConfig().GlobalLimit)
	}
}

func TestRetrieveEmptyResultIsNotAnError(t *testing.T) {
	repo := &fakeEmbeddingRepo{byType: map[string][]*contract.ScoredContent{}}
	o := NewOrchestrator(&fakeEmbedder{}, repo, DefaultConfig(), discardLogger())

	got, err := o.Retrieve(context.Background(), Plan{Query: "nothing indexed", Strategy: "semantic"})
	if err != nil {
		t.Fatalf("empty retrieval must not error, got %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d results, want 0", len(got))
	}
}

func TestRetrieveContentTypeFilterSearchesOneType(t *testing.T) {
	now := time.Now()
	repo := &fakeEmbeddingRepo{byType: map[string][]*contract.ScoredContent{
		store.ContentTypeThread:    {scoredItem(uuid.New(), store.ContentTypeThread, "thread", nil, 0.9, now)},
		store.ContentTypePainPoint: {scoredItem(uuid.New(), store.ContentTypePainPoint, "pain", nil, 0.9, now)},
	}}
	o := NewOrchestrator(&fakeEmbedder{}, repo, DefaultConfig(), discardLogger())

	got, err := o.Retrieve(context.Background(), Plan{
		Query:       "q",
		Strategy:    "semantic",
		ContentType: store.ContentTypePainPoint,
	})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 1 || got[0].ContentType != store.ContentTypePainPoint {
		t.Errorf("content-type filter leaked other types: %+v", got)
	}
}

func TestRetrieveEmbeddingFailurePropagates(t *testing.T) {
	o := NewOrchestrator(&fakeEmbedder{err: fmt.Errorf("provider down")},
		&fakeEmbeddingRepo{}, DefaultConfig(), discardLogger())

	if _, err := o.Retrieve(context.Background(), Plan{Query: "q", Strategy: "semantic"}); err == nil {
		t.Fatal("expected error when embedding generation fails")
	}
}
