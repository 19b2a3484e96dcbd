// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"marketplace/internal/logger"
)

// testValkeyClient returns a Redis client for tests.
// Skips if Valkey is unavailable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15, // Use DB 15 for tests.
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, treeKeyPrefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestConnectValkey(t *testing.T) {
	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")

	client, err := ConnectValkey(host, port, os.Getenv("VALKEY_PASSWORD"), logger.Nop())
	if err != nil {
		t.Skipf("skipping: Valkey not available: %v", err)
	}
	defer client.Close()

	pong, err := client.Ping(context.Background()).Result()
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if pong != "PONG" {
		t.Errorf("expected PONG, got %q", pong)
	}
}

func TestConnectValkeyUnreachable(t *testing.T) {
	_, err := ConnectValkey("127.0.0.1", "1", "", logger.Nop())
	if err == nil {
		t.Error("expected error for unreachable Valkey")
	}
}

func TestTreeCacheSetAndGet(t *testing.T) {
	client := testValkeyClient(t)
	tc := NewTreeCache(client, time.Minute, logger.Nop())
	ctx := context.Background()

	data, ok := tc.Get(ctx, VariantForest)
	if ok || data != nil {
		t.Error("expected cache miss")
	}

	body := []byte(`{"roots":[],"orphans":[]}`)
	tc.Set(ctx, VariantForest, body)

	data, ok = tc.Get(ctx, VariantForest)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(data) != string(body) {
		t.Errorf("data mismatch: got %q, want %q", data, body)
	}

	ttl, err := client.TTL(ctx, treeKeyPrefix+VariantForest).Result()
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("TTL = %v, want within (0, 1m]", ttl)
	}
}

func TestTreeCacheInvalidate(t *testing.T) {
	client := testValkeyClient(t)
	tc := NewTreeCache(client, time.Minute, logger.Nop())
	ctx := context.Background()

	tc.Set(ctx, VariantFlat, []byte("[]"))
	tc.Set(ctx, VariantForest, []byte("{}"))
	tc.Invalidate(ctx, VariantFlat)

	if _, ok := tc.Get(ctx, VariantFlat); ok {
		t.Error("expected flat variant to be gone")
	}
	if _, ok := tc.Get(ctx, VariantForest); !ok {
		t.Error("forest variant should survive a single invalidation")
	}
}

func TestTreeCacheInvalidateAll(t *testing.T) {
	client := testValkeyClient(t)
	tc := NewTreeCache(client, time.Minute, logger.Nop())
	ctx := context.Background()

	for _, v := range []string{VariantForest, VariantFlat, VariantList} {
		tc.Set(ctx, v, []byte(v))
	}
	// A key outside the prefix must survive.
	client.Set(ctx, "other:key", "keep", time.Minute)
	t.Cleanup(func() { client.Del(ctx, "other:key") })

	tc.InvalidateAll(ctx)

	for _, v := range []string{VariantForest, VariantFlat, VariantList} {
		if _, ok := tc.Get(ctx, v); ok {
			t.Errorf("expected miss for %q after InvalidateAll", v)
		}
	}
	if got, _ := client.Get(ctx, "other:key").Result(); got != "keep" {
		t.Error("InvalidateAll removed a key outside the tree prefix")
	}
}

func TestNewTreeCacheDefaultTTL(t *testing.T) {
	tc := NewTreeCache(nil, 0, logger.Nop())
	if tc.ttl != DefaultTreeTTL {
		t.Errorf("expected DefaultTreeTTL (%v), got %v", DefaultTreeTTL, tc.ttl)
	}
}
