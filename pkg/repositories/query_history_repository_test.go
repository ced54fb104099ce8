//go:build integration

package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/models"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/testhelpers"
)

func setupHistoryRepoTest(t *testing.T) QueryHistoryRepository {
	t.Helper()
	historyDB := testhelpers.GetHistoryDB(t)
	historyDB.Truncate(t)
	return NewQueryHistoryRepository(historyDB.DB)
}

func TestQueryHistoryRepository_CreateAndList(t *testing.T) {
	repo := setupHistoryRepoTest(t)
	ctx := context.Background()

	rowCount := 3
	executed := &models.QueryHistoryEntry{
		RequestID:    "req-1",
		Question:     "how many schemes are active",
		SQL:          "SELECT TOP 100 COUNT(*) AS total FROM schemes WHERE is_active = 1",
		Method:       models.MethodModel,
		Confidence:   models.ModelConfidence,
		Safe:         true,
		QueryType:    "aggregation",
		TablesUsed:   []string{"schemes"},
		RowCount:     &rowCount,
		DurationMs:   42,
		CreatedAt:    time.Now().UTC().Add(-time.Minute),
	}
	msg := "could not convert query to SQL"
	failed := &models.QueryHistoryEntry{
		RequestID:    "req-2",
		Question:     "drop everything",
		Safe:         false,
		UnsafeReason: models.ReasonWriteVerb,
		ErrorMessage: &msg,
	}

	require.NoError(t, repo.Create(ctx, executed))
	require.NoError(t, repo.Create(ctx, failed))
	assert.NotEqual(t, executed.ID, failed.ID)

	entries, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first
	assert.Equal(t, "req-2", entries[0].RequestID)
	assert.Equal(t, models.ReasonWriteVerb, entries[0].UnsafeReason)
	require.NotNil(t, entries[0].ErrorMessage)
	assert.Equal(t, msg, *entries[0].ErrorMessage)
	assert.Empty(t, entries[0].SQL)
	assert.Nil(t, entries[0].RowCount)

	got := entries[1]
	assert.Equal(t, executed.SQL, got.SQL)
	assert.Equal(t, models.MethodModel, got.Method)
	assert.InDelta(t, models.ModelConfidence, got.Confidence, 0.0001)
	assert.Equal(t, []string{"schemes"}, got.TablesUsed)
	require.NotNil(t, got.RowCount)
	assert.Equal(t, 3, *got.RowCount)
	assert.Equal(t, int64(42), got.DurationMs)
}

func TestQueryHistoryRepository_ListRecent_Limits(t *testing.T) {
	repo := setupHistoryRepoTest(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &models.QueryHistoryEntry{RequestID: "r", Question: "q"}))
	}

	entries, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	entries, err = repo.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestQueryHistoryRepository_DeleteOlderThan(t *testing.T) {
	repo := setupHistoryRepoTest(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, repo.Create(ctx, &models.QueryHistoryEntry{RequestID: "old", Question: "q", CreatedAt: now.AddDate(0, 0, -100)}))
	require.NoError(t, repo.Create(ctx, &models.QueryHistoryEntry{RequestID: "new", Question: "q", CreatedAt: now}))

	deleted, err := repo.DeleteOlderThan(ctx, now.AddDate(0, 0, -90))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	entries, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "new", entries[0].RequestID)
}
