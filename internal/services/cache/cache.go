// Copyright (c) 2025, the TradeLite contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

var (
	ErrKeyNotFound = errors.New("cache: key not found")
	ErrClosed      = errors.New("cache: store is closed")
)

// Key prefixes. Result caches (simulation, sentiment, anomalies, feedback)
// share the one hour ResultTTL.
const (
	PrefixSession    = "session:"
	PrefixSimulation = "simulation:"
	PrefixSentiment  = "sentiment:"
	PrefixAnomaly    = "anomalies:"
	PrefixFeedback   = "feedback:"
	PrefixRate       = "rate:"

	DefaultTimeout = 30 * time.Second
	RetryAttempts  = 2
	RetryDelay     = 50 * time.Millisecond

	// Cache durations
	DefaultTTL = 15 * time.Minute
	ResultTTL  = 1 * time.Hour
	SessionTTL = 24 * time.Hour

	CleanupInterval = 1 * time.Minute
)

// ttlForKey infers the expiration for a key from its prefix. Used when a
// caller passes a zero expiration and when refreshing the local layer.
func ttlForKey(key string) time.Duration {
	switch {
	case strings.HasPrefix(key, PrefixSession):
		return SessionTTL
	case strings.HasPrefix(key, PrefixSimulation),
		strings.HasPrefix(key, PrefixSentiment),
		strings.HasPrefix(key, PrefixAnomaly),
		strings.HasPrefix(key, PrefixFeedback):
		return ResultTTL
	default:
		return DefaultTTL
	}
}

// RedisStore represents a Redis cache instance with local memory cache
type RedisStore struct {
	client *redis.Client
	local  *LocalCache
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
	mu     sync.RWMutex
}

// LocalCache provides in-memory caching to reduce Redis hits
type LocalCache struct {
	sync.RWMutex
	items map[string]*localCacheItem
}

type localCacheItem struct {
	value      []byte
	expiration time.Time
}

// NewCache creates a Redis-backed store with a local read-through layer.
func NewCache(opts *redis.Options) *RedisStore {
	ctx, cancel := context.WithCancel(context.Background())
	store := &RedisStore{
		client: redis.NewClient(opts),
		local: &LocalCache{
			items: make(map[string]*localCacheItem),
		},
		ctx:    ctx,
		cancel: cancel,
	}

	store.wg.Add(1)
	go func() {
		defer store.wg.Done()
		store.localCacheCleanup()
	}()

	return store
}

func (s *RedisStore) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// withRetry runs op against Redis with a per-attempt timeout, retrying
// transient failures. redis.Nil stops the retry loop immediately.
func (s *RedisStore) withRetry(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error
	for i := 0; i < RetryAttempts; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		timeoutCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
		err := op(timeoutCtx)
		cancel()

		if err == nil {
			return nil
		}

		lastErr = err
		if errors.Is(err, redis.Nil) {
			break
		}
		if i < RetryAttempts-1 {
			time.Sleep(RetryDelay)
		}
	}
	return lastErr
}

// Get retrieves a value from cache with local cache first
func (s *RedisStore) Get(ctx context.Context, key string, value interface{}) error {
	if s.isClosed() {
		return ErrClosed
	}

	if data, ok := s.getFromLocalCache(key); ok {
		if err := json.Unmarshal(data, value); err != nil {
			log.Error().Err(err).Str("key", key).Msg("Failed to unmarshal local cached value")
		} else {
			return nil
		}
	}

	var data []byte
	err := s.withRetry(ctx, func(ctx context.Context) error {
		var err error
		data, err = s.client.Get(ctx, key).Bytes()
		return err
	})
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrKeyNotFound
		}
		return err
	}

	// Mirror into the local layer with the remaining Redis TTL
	ttl := s.client.TTL(ctx, key).Val()
	if ttl < 0 {
		ttl = ttlForKey(key)
	}
	s.setInLocalCache(key, data, ttl)

	return json.Unmarshal(data, value)
}

// Set stores a value in both Redis and local cache
func (s *RedisStore) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if s.isClosed() {
		return ErrClosed
	}

	if expiration == 0 {
		expiration = ttlForKey(key)
	}

	data, err := json.Marshal(value)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to marshal value for cache")
		return err
	}

	err = s.withRetry(ctx, func(ctx context.Context) error {
		return s.client.Set(ctx, key, data, expiration).Err()
	})
	if err != nil {
		return err
	}

	s.setInLocalCache(key, data, expiration)
	return nil
}

// Delete removes a value from both Redis and local cache
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if s.isClosed() {
		return ErrClosed
	}

	s.local.Lock()
	delete(s.local.items, key)
	s.local.Unlock()

	return s.withRetry(ctx, func(ctx context.Context) error {
		return s.client.Del(ctx, key).Err()
	})
}

// Increment adds a timestamp to a rate limit window.
func (s *RedisStore) Increment(ctx context.Context, key string, timestamp int64) error {
	if s.isClosed() {
		return ErrClosed
	}

	return s.withRetry(ctx, func(ctx context.Context) error {
		return s.client.ZAdd(ctx, key, &redis.Z{
			Score:  float64(timestamp),
			Member: strconv.FormatInt(timestamp, 10),
		}).Err()
	})
}

// CleanAndCount drops window entries older than windowStart.
func (s *RedisStore) CleanAndCount(ctx context.Context, key string, windowStart int64) error {
	if s.isClosed() {
		return ErrClosed
	}

	return s.withRetry(ctx, func(ctx context.Context) error {
		return s.client.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(windowStart, 10)).Err()
	})
}

// GetCount returns the number of entries in a rate limit window.
func (s *RedisStore) GetCount(ctx context.Context, key string) (int64, error) {
	if s.isClosed() {
		return 0, ErrClosed
	}

	var count int64
	err := s.withRetry(ctx, func(ctx context.Context) error {
		var err error
		count, err = s.client.ZCard(ctx, key).Result()
		return err
	})
	return count, err
}

// Expire updates the expiration of a key.
func (s *RedisStore) Expire(ctx context.Context, key string, expiration time.Duration) error {
	if s.isClosed() {
		return ErrClosed
	}

	if expiration == 0 {
		expiration = ttlForKey(key)
	}

	return s.withRetry(ctx, func(ctx context.Context) error {
		return s.client.Expire(ctx, key, expiration).Err()
	})
}

// Local cache methods
func (s *RedisStore) getFromLocalCache(key string) ([]byte, bool) {
	s.local.RLock()
	defer s.local.RUnlock()

	if item, exists := s.local.items[key]; exists {
		if time.Now().Before(item.expiration) {
			return item.value, true
		}
	}
	return nil, false
}

func (s *RedisStore) setInLocalCache(key string, value []byte, ttl time.Duration) {
	s.local.Lock()
	defer s.local.Unlock()

	s.local.items[key] = &localCacheItem{
		value:      value,
		expiration: time.Now().Add(ttl),
	}
}

func (s *RedisStore) localCacheCleanup() {
	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.local.Lock()
			now := time.Now()
			for key, item := range s.local.items {
				if now.After(item.expiration) {
					delete(s.local.items, key)
				}
			}
			s.local.Unlock()
		case <-s.ctx.Done():
			return
		}
	}
}

// Close closes the Redis connection and stops the cleanup goroutine
func (s *RedisStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.closed = true
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	s.local.Lock()
	s.local.items = make(map[string]*localCacheItem)
	s.local.Unlock()

	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
