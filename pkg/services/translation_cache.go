package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	DefaultTranslationCacheTTL = 24 * time.Hour
	translationCacheKeyPrefix  = "nl2sql:translation:v1:"
)

// TranslationCache remembers model translations keyed by the preprocessed
// question. Pattern translations are never cached. Implementations must
// treat every failure as a miss.
type TranslationCache interface {
	Get(ctx context.Context, processedQuestion string) (string, bool)
	Set(ctx context.Context, processedQuestion string, sql string)
}

type redisTranslationCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisTranslationCache creates a cache on client. A zero ttl uses
// DefaultTranslationCacheTTL.
func NewRedisTranslationCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) TranslationCache {
	if ttl <= 0 {
		ttl = DefaultTranslationCacheTTL
	}
	return &redisTranslationCache{
		client: client,
		ttl:    ttl,
		logger: logger.Named("translation-cache"),
	}
}

var _ TranslationCache = (*redisTranslationCache)(nil)

func (c *redisTranslationCache) Get(ctx context.Context, processedQuestion string) (string, bool) {
	sql, err := c.client.Get(ctx, translationCacheKey(processedQuestion)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Translation cache read failed", zap.Error(err))
		}
		return "", false
	}
	return sql, true
}

func (c *redisTranslationCache) Set(ctx context.Context, processedQuestion string, sql string) {
	if err := c.client.Set(ctx, translationCacheKey(processedQuestion), sql, c.ttl).Err(); err != nil {
		c.logger.Warn("Translation cache write failed", zap.Error(err))
	}
}

// translationCacheKey hashes the question after case and whitespace folding.
func translationCacheKey(processedQuestion string) string {
	folded := strings.Join(strings.Fields(strings.ToLower(processedQuestion)), " ")
	sum := sha256.Sum256([]byte(folded))
	return translationCacheKeyPrefix + hex.EncodeToString(sum[:])
}
