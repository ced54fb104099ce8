package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTranslationCacheKey(t *testing.T) {
	key := translationCacheKey("How many citizens")

	assert.True(t, strings.HasPrefix(key, translationCacheKeyPrefix))
	assert.Len(t, key, len(translationCacheKeyPrefix)+64)
	assert.Equal(t, key, translationCacheKey("  how   MANY\tcitizens "), "case and whitespace are folded")
	assert.NotEqual(t, key, translationCacheKey("How many officers"))
}

func TestRedisTranslationCache_UnreachableServerIsAMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	cache := NewRedisTranslationCache(client, 0, zap.NewNop())
	ctx := context.Background()

	assert.NotPanics(t, func() { cache.Set(ctx, "How many citizens", "SELECT COUNT(*) FROM citizens") })
	sql, ok := cache.Get(ctx, "How many citizens")
	assert.False(t, ok)
	assert.Empty(t, sql)
}
