// Copyright (c) 2025, the TradeLite contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package cache

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/tradelite/tradelite/internal/config"
)

// CacheType represents the type of cache to use
type CacheType string

const (
	CacheTypeRedis  CacheType = "redis"
	CacheTypeMemory CacheType = "memory"
)

// redisOptions builds the Redis client configuration. REDIS_URL takes
// precedence over host/port.
func redisOptions(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.URL != "" {
		opts, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		tuneRedisOptions(opts)
		return opts, nil
	}

	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 6379
	}

	opts := &redis.Options{Addr: fmt.Sprintf("%s:%d", host, port)}
	tuneRedisOptions(opts)
	return opts, nil
}

func tuneRedisOptions(opts *redis.Options) {
	isDev := os.Getenv("GIN_MODE") != "release"

	opts.MinIdleConns = 2
	opts.MaxRetries = RetryAttempts
	opts.MinRetryBackoff = RetryDelay
	opts.MaxRetryBackoff = time.Second

	if isDev {
		opts.PoolSize = 5
		opts.MaxConnAge = 30 * time.Second
		opts.ReadTimeout = 2 * time.Second
		opts.WriteTimeout = 2 * time.Second
		opts.PoolTimeout = 2 * time.Second
		opts.IdleTimeout = 30 * time.Second
	} else {
		opts.PoolSize = 10
		opts.MaxConnAge = 5 * time.Minute
		opts.ReadTimeout = DefaultTimeout
		opts.WriteTimeout = DefaultTimeout
		opts.PoolTimeout = DefaultTimeout * 2
		opts.IdleTimeout = time.Minute
	}
}

// cacheType picks the implementation: explicit type wins, otherwise Redis
// when a URL or host is configured, memory when not.
func cacheType(cfg config.CacheConfig) CacheType {
	if cfg.Type == "" {
		if cfg.Redis.URL == "" && cfg.Redis.Host == "" {
			return CacheTypeMemory
		}
		return CacheTypeRedis
	}

	switch strings.ToLower(cfg.Type) {
	case "redis":
		return CacheTypeRedis
	case "memory":
		return CacheTypeMemory
	default:
		log.Warn().Str("type", cfg.Type).Msg("Unknown cache type specified, defaulting to memory cache")
		return CacheTypeMemory
	}
}

// InitCache initializes a cache instance from the cache configuration.
func InitCache(cfg config.CacheConfig) (Store, error) {
	ct := cacheType(cfg)

	log.Debug().Str("type", string(ct)).Msg("Initializing cache")

	switch ct {
	case CacheTypeRedis:
		isDev := os.Getenv("GIN_MODE") != "release"

		opts, err := redisOptions(cfg.Redis)
		if err != nil {
			return nil, err
		}

		timeout := DefaultTimeout
		if isDev {
			timeout = 2 * time.Second
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		client := redis.NewClient(opts)
		err = client.Ping(ctx).Err()
		client.Close()

		if err != nil {
			if isDev {
				// In development, fall back to memory cache
				log.Warn().Err(err).Str("addr", opts.Addr).Msg("Redis connection failed, falling back to memory cache")
				return NewMemoryStore(), nil
			}
			return nil, err
		}

		return NewCache(opts), nil

	default:
		log.Debug().Msg("Initializing memory cache")
		return NewMemoryStore(), nil
	}
}
