package search

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"brandpulse-be/internal/repository/contract"
	"brandpulse-be/pkg/embedding"
	"brandpulse-be/pkg/store"

	"github.com/google/uuid"
)

// Plan describes one retrieval pass: the (possibly rewritten) query, the
// strategy the intent classifier picked, and the entity filters it extracted.
type Plan struct {
	Query       string
	Strategy    string // semantic | keyword | combined
	Keywords    []string
	CampaignID  *uuid.UUID
	Brand       string
	ContentType string // empty = search all content types
}

// Config encapsulates retrieval parameters
type Config struct {
	// MinSimilarity is the admission threshold on raw cosine similarity.
	// Keyword boosting never admits an item below it.
	MinSimilarity float64
	// PerTypeLimit caps candidates fetched per content type before merging.
	PerTypeLimit int
	// GlobalLimit caps the merged, ranked result set.
	GlobalLimit int
	// KeywordBoost is the per-matched-keyword rank multiplier increment.
	KeywordBoost float64
	// MaxBoostedKeywords caps how many keyword hits can boost one item.
	MaxBoostedKeywords int
}

// DefaultConfig returns default retrieval configuration
func DefaultConfig() Config {
	return Config{
		MinSimilarity:      0.5,
		PerTypeLimit:       10,
		GlobalLimit:        10,
		KeywordBoost:       0.15,
		MaxBoostedKeywords: 3,
	}
}

// Retriever is the narrow surface the pipeline depends on.
type Retriever interface {
	Retrieve(ctx context.Context, plan Plan) ([]store.RetrievedContent, error)
}

// Orchestrator embeds the query, fans out a vector search per content type,
// deduplicates, and ranks with an optional keyword boost. An empty result
// set is a valid outcome, not an error.
type Orchestrator struct {
	embeddingProvider embedding.EmbeddingProvider
	embeddingRepo     contract.ContentEmbeddingRepository
	config            Config
	logger            *log.Logger
}

// NewOrchestrator creates a new search orchestrator
func NewOrchestrator(
	embeddingProvider embedding.EmbeddingProvider,
	embeddingRepo contract.ContentEmbeddingRepository,
	config Config,
	logger *log.Logger,
) *Orchestrator {
	return &Orchestrator{
		embeddingProvider: embeddingProvider,
		embeddingRepo:     embeddingRepo,
		config:            config,
		logger:            logger,
	}
}

func (o *Orchestrator) Retrieve(ctx context.Context, plan Plan) ([]store.RetrievedContent, error) {
	embeddingRes, err := o.embeddingProvider.Generate(ctx, plan.Query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}
	queryVector := embeddingRes.Embedding.Values

	contentTypes := store.AllContentTypes
	if plan.ContentType != "" {
		contentTypes = []string{plan.ContentType}
	}

	// Fan out one vector search per content type so a hot type cannot
	// crowd the others out of the candidate pool.
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		pooled   []*contract.ScoredContent
	)
	for _, ct := range contentTypes {
		wg.Add(1)
		go func(contentType string) {
			defer wg.Done()
			scope := contract.ContentScope{
				CampaignId:  plan.CampaignID,
				Brand:       plan.Brand,
				ContentType: contentType,
			}
			scored, err := o.embeddingRepo.SearchSimilarWithScore(
				ctx, queryVector, o.config.PerTypeLimit, scope, o.config.MinSimilarity)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("vector search (%s) failed: %w", contentType, err)
				}
				return
			}
			pooled = append(pooled, scored...)
		}(ct)
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}

	candidates := o.dedupe(pooled)
	o.rank(candidates, plan)

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].RankScore != candidates[j].RankScore {
			return candidates[i].RankScore > candidates[j].RankScore
		}
		// Equal rank resolves to the fresher item.
		return candidates[i].PublishedAt.After(candidates[j].PublishedAt)
	})

	if len(candidates) > o.config.GlobalLimit {
		candidates = candidates[:o.config.GlobalLimit]
	}

	o.logger.Printf("[SEARCH] strategy=%s candidates=%d", plan.Strategy, len(candidates))
	return candidates, nil
}

// dedupe keeps one entry per content item, at its best chunk similarity.
// The repository returns one row per matching chunk.
func (o *Orchestrator) dedupe(scored []*contract.ScoredContent) []store.RetrievedContent {
	best := make(map[uuid.UUID]int)
	var out []store.RetrievedContent

	for _, s := range scored {
		if s.Content == nil {
			continue
		}
		if idx, ok := best[s.Content.Id]; ok {
			if s.Similarity > out[idx].Similarity {
				out[idx].Similarity = s.Similarity
			}
			continue
		}
		best[s.Content.Id] = len(out)
		out = append(out, store.RetrievedContent{
			ID:           s.Content.Id.String(),
			CampaignID:   s.Content.CampaignId.String(),
			Brand:        s.Content.Brand,
			ContentType:  s.Content.ContentType,
			Title:        s.Content.Title,
			Body:         s.Content.Body,
			Keywords:     s.Content.Keywords,
			MentionCount: s.Content.MentionCount,
			HeatScore:    s.Content.HeatScore,
			Source:       s.Content.Source,
			PublishedAt:  s.Content.PublishedAt,
			Similarity:   s.Similarity,
		})
	}
	return out
}

// rank assigns each candidate its final score. Semantic strategy ranks on
// similarity alone; keyword and combined strategies multiply in a bounded
// boost per matched query keyword, so boosting reorders but never admits
// anything the similarity threshold rejected.
func (o *Orchestrator) rank(candidates []store.RetrievedContent, plan Plan) {
	useKeywords := (plan.Strategy == "keyword" || plan.Strategy == "combined") && len(plan.Keywords) > 0

	for i := range candidates {
		c := &candidates[i]
		c.RankScore = c.Similarity
		if !useKeywords {
			continue
		}
		c.KeywordHits = countKeywordHits(c, plan.Keywords)
		hits := c.KeywordHits
		if hits > o.config.MaxBoostedKeywords {
			hits = o.config.MaxBoostedKeywords
		}
		c.RankScore = c.Similarity * (1 + o.config.KeywordBoost*float64(hits))
	}
}

// countKeywordHits counts distinct query keywords present in the item: in
// its keyword cluster, its title, or its body. Matching is case-insensitive
// and raw, synonyms do not match.
func countKeywordHits(c *store.RetrievedContent, keywords []string) int {
	haystack := strings.ToLower(c.Title + " " + c.Body)
	tags := make(map[string]bool, len(c.Keywords))
	for _, k := range c.Keywords {
		tags[strings.ToLower(k)] = true
	}

	hits := 0
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if tags[kw] || strings.Contains(haystack, kw) {
			hits++
		}
	}
	return hits
}
