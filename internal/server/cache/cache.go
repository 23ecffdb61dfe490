// Package cache provides an optional Redis-backed result cache for the
// query service. Keys are derived from the normalized term; lookups that
// miss are computed once per key via singleflight.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/searchlab/termindex/internal/query"
	"github.com/searchlab/termindex/pkg/config"
	pkgredis "github.com/searchlab/termindex/pkg/redis"
)

const keyPrefix = "termindex:"

type ResultCache struct {
	client *pkgredis.Client
	cfg    config.RedisConfig
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

func New(client *pkgredis.Client, cfg config.RedisConfig) *ResultCache {
	return &ResultCache{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "result-cache"),
	}
}

func (c *ResultCache) Get(ctx context.Context, term string) (*query.Result, bool) {
	key := c.buildKey(term)
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var result query.Result
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "term", term, "key", key)
	return &result, true
}

func (c *ResultCache) Set(ctx context.Context, term string, result *query.Result) {
	key := c.buildKey(term)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result for term, computing and storing it
// on a miss. Only positive results are cached; not-found outcomes are cheap
// to recompute and pass through as errors.
func (c *ResultCache) GetOrCompute(
	ctx context.Context,
	term string,
	computeFn func() (*query.Result, error),
) (*query.Result, bool, error) {
	if result, ok := c.Get(ctx, term); ok {
		return result, true, nil
	}
	key := c.buildKey(term)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if result, ok := c.Get(ctx, term); ok {
			return result, nil
		}
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, term, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*query.Result), false, nil
}

func (c *ResultCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *ResultCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *ResultCache) buildKey(term string) string {
	hash := sha256.Sum256([]byte(term))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
