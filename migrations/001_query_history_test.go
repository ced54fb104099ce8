//go:build integration

package migrations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/testhelpers"
)

// Test_001_QueryHistory verifies migration 001 creates the history table.
func Test_001_QueryHistory(t *testing.T) {
	historyDB := testhelpers.GetHistoryDB(t)
	ctx := context.Background()

	columns := map[string]string{
		"id":            "uuid",
		"question":      "text",
		"confidence":    "double precision",
		"safe":          "boolean",
		"tables_used":   "ARRAY",
		"row_count":     "integer",
		"duration_ms":   "bigint",
		"created_at":    "timestamp with time zone",
		"unsafe_reason": "text",
	}
	for column, wantType := range columns {
		var dataType string
		err := historyDB.DB.Pool.QueryRow(ctx, `
			SELECT data_type
			FROM information_schema.columns
			WHERE table_name = 'query_history'
			AND column_name = $1
		`, column).Scan(&dataType)
		require.NoError(t, err, "column %s should exist", column)
		assert.Equal(t, wantType, dataType, "column %s", column)
	}

	var indexExists bool
	err := historyDB.DB.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM pg_indexes
			WHERE tablename = 'query_history'
			AND indexname = 'idx_query_history_created_at'
		)
	`).Scan(&indexExists)
	require.NoError(t, err)
	assert.True(t, indexExists, "idx_query_history_created_at index should exist")
}
