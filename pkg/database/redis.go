package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/config"
)

// ErrCacheNotConfigured is returned when no Redis host is set.
var ErrCacheNotConfigured = errors.New("translation cache not configured")

// A cache lookup sits in front of every model call, so a slow Redis must fail
// fast rather than add latency to translation.
const (
	cacheDialTimeout = 2 * time.Second
	cacheIOTimeout   = 500 * time.Millisecond
)

// NewRedisClient connects the Redis instance behind the translation cache.
func NewRedisClient(ctx context.Context, cfg *config.CacheConfig) (*redis.Client, error) {
	if cfg.Host == "" {
		return nil, ErrCacheNotConfigured
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		ClientName:   "welfare-nl2sql",
		DialTimeout:  cacheDialTimeout,
		ReadTimeout:  cacheIOTimeout,
		WriteTimeout: cacheIOTimeout,
		MaxRetries:   1,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach translation cache at %s: %w", cfg.Addr(), err)
	}

	return client, nil
}
