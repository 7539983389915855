package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/quantfoundry/netvalue-go/internal/models"
	"github.com/quantfoundry/netvalue-go/internal/services/valuation"
)

// ResultCacheStats tracks cache performance counters.
type ResultCacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
	mu     sync.RWMutex
}

// resultCacheEntry wraps a cached analysis with its metadata.
type resultCacheEntry struct {
	Response *models.AnalyzeResponse `json:"response"`
	CachedAt time.Time               `json:"cached_at"`
}

// AnalysisResultCache caches analysis responses in Redis keyed by asset and
// model option fingerprint. Cache failures never fail a request; they fall
// through to recomputation.
type AnalysisResultCache struct {
	redis  *redis.Client
	logger *logrus.Logger
	ttl    time.Duration
	stats  *ResultCacheStats
	prefix string
}

// NewAnalysisResultCache creates a Redis-backed analysis result cache.
func NewAnalysisResultCache(redisClient *redis.Client, ttl time.Duration, logger *logrus.Logger) *AnalysisResultCache {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AnalysisResultCache{
		redis:  redisClient,
		logger: logger,
		ttl:    ttl,
		stats:  &ResultCacheStats{},
		prefix: "valuation_result:",
	}
}

// CacheKey fingerprints an asset, its effective model options, and the full
// observation series. Every row's date and values feed the hash, so two
// requests only share a key when they would produce the same analysis.
func (c *AnalysisResultCache) CacheKey(asset string, opts valuation.Options, series []valuation.Observation) string {
	payload, err := json.Marshal(opts)
	if err != nil {
		payload = []byte(opts.Asset)
	}
	h := fnv.New64a()
	h.Write(payload)
	fmt.Fprintf(h, "|rows=%d", len(series))
	for _, obs := range series {
		fmt.Fprintf(h, "|%d:%g:%g:%g:%g:%g",
			obs.Date.Unix(),
			obs.Price,
			obs.ActiveAddresses,
			obs.TotalAddresses,
			obs.TransactionVolume,
			obs.MarketCap,
		)
	}
	return fmt.Sprintf("%s%s:%x", c.prefix, asset, h.Sum64())
}

// Get retrieves a cached analysis response.
func (c *AnalysisResultCache) Get(ctx context.Context, key string) (*models.AnalyzeResponse, bool) {
	data, err := c.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		c.recordMiss()
		return nil, false
	}
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Redis error reading analysis result cache")
		c.recordMiss()
		return nil, false
	}

	var entry resultCacheEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Error deserializing cached analysis result")
		c.recordMiss()
		return nil, false
	}

	c.stats.mu.Lock()
	c.stats.Hits++
	c.stats.mu.Unlock()
	return entry.Response, true
}

// Set stores an analysis response with the configured TTL.
func (c *AnalysisResultCache) Set(ctx context.Context, key string, response *models.AnalyzeResponse) {
	entry := resultCacheEntry{
		Response: response,
		CachedAt: time.Now(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Error serializing analysis result for cache")
		return
	}

	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Redis error writing analysis result cache")
		return
	}

	c.stats.mu.Lock()
	c.stats.Sets++
	c.stats.mu.Unlock()
}

// Invalidate drops every cached result for an asset, e.g. after new
// observations arrive.
func (c *AnalysisResultCache) Invalidate(ctx context.Context, asset string) {
	pattern := c.prefix + asset + ":*"
	iter := c.redis.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.WithError(err).WithField("asset", asset).Warn("Redis error scanning analysis result cache")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.logger.WithError(err).WithField("asset", asset).Warn("Redis error invalidating analysis result cache")
	}
}

// Stats returns a snapshot of the cache counters.
func (c *AnalysisResultCache) Stats() ResultCacheStats {
	c.stats.mu.RLock()
	defer c.stats.mu.RUnlock()
	return ResultCacheStats{
		Hits:   c.stats.Hits,
		Misses: c.stats.Misses,
		Sets:   c.stats.Sets,
	}
}

func (c *AnalysisResultCache) recordMiss() {
	c.stats.mu.Lock()
	c.stats.Misses++
	c.stats.mu.Unlock()
}
