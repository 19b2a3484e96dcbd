// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// tree.go provides a Valkey-backed cache for rendered category trees.
// Building the forest is cheap, but the JSON for a large taxonomy is not,
// and every instance serving the API can share one rendering.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"marketplace/internal/logger"
)

const (
	// treeKeyPrefix is the Valkey key prefix for cached trees.
	treeKeyPrefix = "tree:"

	// DefaultTreeTTL is how long a rendered tree stays cached.
	DefaultTreeTTL = 5 * time.Minute
)

// Variants of the rendered tree.
const (
	VariantForest = "forest"
	VariantFlat   = "flat"
	VariantList   = "list"
)

// TreeCache manages rendered tree caching in Valkey.
type TreeCache struct {
	client *redis.Client
	ttl    time.Duration
	log    logger.Logger
}

// NewTreeCache creates a new tree cache backed by the given Valkey client.
func NewTreeCache(client *redis.Client, ttl time.Duration, log logger.Logger) *TreeCache {
	if ttl == 0 {
		ttl = DefaultTreeTTL
	}
	return &TreeCache{client: client, ttl: ttl, log: log}
}

// Get retrieves the cached rendering of a variant.
func (tc *TreeCache) Get(ctx context.Context, variant string) ([]byte, bool) {
	val, err := tc.client.Get(ctx, treeKeyPrefix+variant).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		tc.log.Warn("tree cache get error", logger.String("variant", variant), logger.Error(err))
		return nil, false
	}
	tc.log.Debug("tree cache hit", logger.String("variant", variant))
	return val, true
}

// Set stores the rendering of a variant with the configured TTL.
func (tc *TreeCache) Set(ctx context.Context, variant string, body []byte) {
	if err := tc.client.Set(ctx, treeKeyPrefix+variant, body, tc.ttl).Err(); err != nil {
		tc.log.Warn("tree cache set error", logger.String("variant", variant), logger.Error(err))
	}
}

// Invalidate removes a single variant.
func (tc *TreeCache) Invalidate(ctx context.Context, variant string) {
	if err := tc.client.Del(ctx, treeKeyPrefix+variant).Err(); err != nil {
		tc.log.Warn("tree cache invalidate error", logger.String("variant", variant), logger.Error(err))
	}
}

// InvalidateAll removes every cached tree by scanning for the prefix.
// Any category change can move nodes anywhere in the forest, so every
// mutation clears all variants.
func (tc *TreeCache) InvalidateAll(ctx context.Context) {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := tc.client.Scan(ctx, cursor, treeKeyPrefix+"*", 100).Result()
		if err != nil {
			tc.log.Warn("tree cache scan error", logger.Error(err))
			return
		}
		if len(keys) > 0 {
			if err := tc.client.Del(ctx, keys...).Err(); err != nil {
				tc.log.Warn("tree cache bulk delete error", logger.Error(err))
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		tc.log.Debug("tree cache cleared", logger.Int("deleted", deleted))
	}
}
