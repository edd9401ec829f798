package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedProvider decorates an EmbeddingProvider with a Redis cache keyed by a
// hash of the input text. Query embeddings repeat often across analyst
// sessions, so this avoids redundant remote calls. Any cache failure degrades
// to a direct provider call, never a request failure.
type CachedProvider struct {
	inner  EmbeddingProvider
	rdb    *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

var _ EmbeddingProvider = &CachedProvider{}

func NewCachedProvider(inner EmbeddingProvider, rdb *redis.Client, ttl time.Duration, logger *log.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedProvider{
		inner:  inner,
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *CachedProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	key := c.cacheKey(text, taskType)

	if cached, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var res EmbeddingResponse
		if err := json.Unmarshal(cached, &res); err == nil {
			return &res, nil
		}
		// Corrupt entry, fall through and overwrite
	} else if err != redis.Nil {
		c.logger.Printf("[WARN] Embedding cache read failed: %v", err)
	}

	res, err := c.inner.Generate(ctx, text, taskType)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(res); err == nil {
		if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Printf("[WARN] Embedding cache write failed: %v", err)
		}
	}

	return res, nil
}

func (c *CachedProvider) cacheKey(text, taskType string) string {
	sum := sha256.Sum256([]byte(taskType + "\x00" + text))
	return fmt.Sprintf("embed:%x", sum)
}
