//go:build integration

package testhelpers

import (
	"context"
	"testing"
)

func TestHistoryDB_Connection(t *testing.T) {
	historyDB := GetHistoryDB(t)

	var exists bool
	err := historyDB.DB.Pool.QueryRow(context.Background(), `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = 'query_history'
		)`).Scan(&exists)
	if err != nil {
		t.Fatalf("failed to query information_schema: %v", err)
	}
	if !exists {
		t.Error("expected query_history table to exist after migrations")
	}
}

func TestHistoryDB_Truncate(t *testing.T) {
	historyDB := GetHistoryDB(t)
	historyDB.Truncate(t)

	var count int
	if err := historyDB.DB.Pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM query_history").Scan(&count); err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty table, got %d rows", count)
	}
}

func TestRedisClient_Ping(t *testing.T) {
	client := GetRedisClient(t)
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("failed to ping redis: %v", err)
	}
}
