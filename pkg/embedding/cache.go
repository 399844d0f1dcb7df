package embedding

import (
	"context"
	"encoding/binary"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL is the default TTL for cached rankings.
const DefaultCacheTTL = 10 * time.Minute

// CachedMatcher wraps a Matcher with caching support. Identical batches
// are served from a TTL cache; concurrent identical lookups are
// deduplicated through single-flight.
type CachedMatcher struct {
	matcher Matcher
	cache   *ttlcache.Cache[string, map[string]map[string]float64]
	group   *singleflight.Group
	logger  *slog.Logger

	hits   atomic.Uint64
	misses atomic.Uint64
	sfHits atomic.Uint64
}

// CacheStats holds cache statistics for a cached matcher.
type CacheStats struct {
	Hits             uint64 `json:"hits"`
	Misses           uint64 `json:"misses"`
	SingleflightHits uint64 `json:"singleflight_hits"`
}

// NewCachedMatcher wraps a matcher with caching. A non-positive ttl
// selects DefaultCacheTTL.
func NewCachedMatcher(matcher Matcher, ttl time.Duration, logger *slog.Logger) *CachedMatcher {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	cache := ttlcache.New(
		ttlcache.WithTTL[string, map[string]map[string]float64](ttl),
	)
	go cache.Start()

	return &CachedMatcher{
		matcher: matcher,
		cache:   cache,
		group:   &singleflight.Group{},
		logger:  logger,
	}
}

// Rank serves the batch from cache when possible, otherwise delegates to
// the wrapped matcher exactly once per in-flight identical batch.
func (c *CachedMatcher) Rank(ctx context.Context, mentions []string) (map[string]map[string]float64, error) {
	if len(mentions) == 0 {
		return map[string]map[string]float64{}, nil
	}

	key := cacheKey(mentions)
	if item := c.cache.Get(key); item != nil {
		c.hits.Add(1)
		c.logger.Debug("embedding cache hit", "mentions", len(mentions))
		return item.Value(), nil
	}

	result, err, shared := c.group.Do(key, func() (any, error) {
		c.misses.Add(1)
		start := time.Now()
		scores, err := c.matcher.Rank(ctx, mentions)
		if err != nil {
			return nil, err
		}
		c.cache.Set(key, scores, ttlcache.DefaultTTL)
		c.logger.Debug("embedding ranked and cached",
			"mentions", len(mentions),
			"duration", time.Since(start))
		return scores, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.sfHits.Add(1)
	}
	return result.(map[string]map[string]float64), nil
}

// cacheKey hashes the batch content in order.
func cacheKey(mentions []string) string {
	h := xxhash.New()
	for _, m := range mentions {
		_, _ = h.WriteString(m)
		_, _ = h.WriteString("|")
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], h.Sum64())
	return string(buf[:])
}

// Stats returns cache statistics for this matcher.
func (c *CachedMatcher) Stats() CacheStats {
	return CacheStats{
		Hits:             c.hits.Load(),
		Misses:           c.misses.Load(),
		SingleflightHits: c.sfHits.Load(),
	}
}

// Close stops the cache and closes the wrapped matcher.
func (c *CachedMatcher) Close() error {
	c.cache.Stop()
	return c.matcher.Close()
}
