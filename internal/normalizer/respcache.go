package normalizer

import (
	"context"
	"encoding/json"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// responseCache fronts normalizer RPCs with an in-process LRU (bounded,
// evictable — unlike the correctness-critical Entity Cache in internal/cache,
// this is a pure performance cache and eviction is harmless) and a shared
// Redis layer behind it, grounded on the teacher's pkg/external/cache.go
// CacheClient. Construction only parses the Redis URL: no pool size is set
// and Redis is not pinged, so an unreachable Redis shows up only as cache
// misses and failed writes (logged at DEBUG).
type responseCache struct {
	lru    *lru.Cache[string, []byte]
	redis  *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

func newResponseCache(redisURL string, lruSize int, ttl time.Duration, logger *logrus.Logger) (*responseCache, error) {
	if lruSize <= 0 {
		lruSize = 4096
	}
	l, err := lru.New[string, []byte](lruSize)
	if err != nil {
		return nil, err
	}

	rc := &responseCache{lru: l, ttl: ttl, logger: logger}

	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, err
		}
		rc.redis = redis.NewClient(opts)
	}
	return rc, nil
}

func (c *responseCache) get(ctx context.Context, key string) ([]byte, bool) {
	if v, ok := c.lru.Get(key); ok {
		return v, true
	}
	if c.redis == nil {
		return nil, false
	}
	v, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil && c.logger != nil {
			c.logger.WithError(err).Debug("normalizer response cache miss (redis error)")
		}
		return nil, false
	}
	c.lru.Add(key, v)
	return v, true
}

func (c *responseCache) set(ctx context.Context, key string, value []byte) {
	c.lru.Add(key, value)
	if c.redis == nil {
		return
	}
	if err := c.redis.Set(ctx, key, value, c.ttl).Err(); err != nil && c.logger != nil {
		c.logger.WithError(err).Debug("normalizer response cache write failed")
	}
}

func (c *responseCache) getJSON(ctx context.Context, key string, out interface{}) bool {
	raw, ok := c.get(ctx, key)
	if !ok {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func (c *responseCache) setJSON(ctx context.Context, key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.set(ctx, key, raw)
}

func (c *responseCache) ping(ctx context.Context) error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Ping(ctx).Err()
}

func (c *responseCache) close() error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Close()
}

// flush discards every cached normalizer response, in-process and shared,
// so the next lookup re-fetches from the live normalizer service. Used by
// the CLI's "normalizer update-db" operational subcommand after the
// upstream normalizer databases are refreshed.
func (c *responseCache) flush(ctx context.Context) error {
	c.lru.Purge()
	if c.redis == nil {
		return nil
	}
	return c.redis.FlushDB(ctx).Err()
}
