// Copyright (c) 2025, the TradeLite contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradelite/tradelite/internal/config"
)

type testStruct struct {
	Name  string
	Value int
}

// checkRedisAvailable checks if Redis is available at the given address
func checkRedisAvailable(addr string) bool {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	return client.Ping(ctx).Err() == nil
}

func setupTestCache(t *testing.T) Store {
	t.Helper()

	if !checkRedisAvailable("localhost:6379") {
		t.Skip("Redis not available, skipping test")
	}

	store, err := InitCache(config.CacheConfig{
		Type:  "redis",
		Redis: config.RedisConfig{Host: "localhost", Port: 6379},
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store := setupTestCache(t)
	ctx := context.Background()

	in := testStruct{Name: "btc", Value: 42}
	require.NoError(t, store.Set(ctx, PrefixSimulation+"roundtrip", in, time.Minute))

	var out testStruct
	require.NoError(t, store.Get(ctx, PrefixSimulation+"roundtrip", &out))
	assert.Equal(t, in, out)

	require.NoError(t, store.Delete(ctx, PrefixSimulation+"roundtrip"))
	err := store.Get(ctx, PrefixSimulation+"roundtrip", &out)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestRedisStoreRateWindow(t *testing.T) {
	store := setupTestCache(t)
	ctx := context.Background()

	key := PrefixRate + "test:window"
	now := time.Now().Unix()

	for i := int64(0); i < 4; i++ {
		require.NoError(t, store.Increment(ctx, key, now+i))
	}
	require.NoError(t, store.CleanAndCount(ctx, key, now+2))

	count, err := store.GetCount(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, store.Expire(ctx, key, time.Minute))
	require.NoError(t, store.Delete(ctx, key))
}

func TestRedisStoreParseURL(t *testing.T) {
	if !checkRedisAvailable("localhost:6379") {
		t.Skip("Redis not available, skipping test")
	}

	store, err := InitCache(config.CacheConfig{
		Redis: config.RedisConfig{URL: "redis://localhost:6379/0"},
	})
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "url_key", "v", time.Minute))

	var out string
	require.NoError(t, store.Get(ctx, "url_key", &out))
	assert.Equal(t, "v", out)
}
