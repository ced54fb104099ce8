//go:build integration

package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/testhelpers"
)

func TestRedisTranslationCache_RoundTrip(t *testing.T) {
	client := testhelpers.GetRedisClient(t)
	cache := NewRedisTranslationCache(client, time.Minute, zap.NewNop())
	ctx := context.Background()

	_, ok := cache.Get(ctx, "How many citizens")
	assert.False(t, ok)

	cache.Set(ctx, "How many citizens", "SELECT COUNT(*) AS total_citizens FROM citizens")

	sql, ok := cache.Get(ctx, "how  many CITIZENS")
	require.True(t, ok)
	assert.Equal(t, "SELECT COUNT(*) AS total_citizens FROM citizens", sql)

	ttl, err := client.TTL(ctx, translationCacheKey("How many citizens")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)
}
