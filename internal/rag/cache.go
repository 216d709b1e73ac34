package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ContextCache memoizes retrieval results per normalized question so repeat
// questions skip the embedding and vector calls. A nil cache is a no-op.
type ContextCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewContextCache wraps a Redis client. ttl <= 0 falls back to 15 minutes.
func NewContextCache(redisClient *redis.Client, ttl time.Duration) *ContextCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &ContextCache{redis: redisClient, ttl: ttl}
}

func (c *ContextCache) key(question string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(question))))
	return "rag:context:" + hex.EncodeToString(sum[:])
}

// Get returns the cached matches for the question, or (nil, false).
func (c *ContextCache) Get(ctx context.Context, question string) ([]Match, bool) {
	if c == nil || c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, c.key(question)).Bytes()
	if err != nil {
		return nil, false
	}
	var matches []Match
	if err := json.Unmarshal(data, &matches); err != nil {
		return nil, false
	}
	return matches, true
}

// Set stores the matches for the question. Failures are ignored: the cache is
// an optimization, never a dependency.
func (c *ContextCache) Set(ctx context.Context, question string, matches []Match) {
	if c == nil || c.redis == nil {
		return
	}
	data, err := json.Marshal(matches)
	if err != nil {
		return
	}
	c.redis.Set(ctx, c.key(question), data, c.ttl)
}
