package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/database"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/models"
)

const (
	DefaultHistoryListLimit = 20
	MaxHistoryListLimit     = 100
)

// QueryHistoryRepository provides data access for the question history.
type QueryHistoryRepository interface {
	Create(ctx context.Context, entry *models.QueryHistoryEntry) error
	ListRecent(ctx context.Context, limit int) ([]*models.QueryHistoryEntry, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type queryHistoryRepository struct {
	db *database.DB
}

func NewQueryHistoryRepository(db *database.DB) QueryHistoryRepository {
	return &queryHistoryRepository{db: db}
}

var _ QueryHistoryRepository = (*queryHistoryRepository)(nil)

func (r *queryHistoryRepository) Create(ctx context.Context, entry *models.QueryHistoryEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO query_history (
			id, request_id, question, processed_question, sql,
			method, confidence, safe, unsafe_reason,
			query_type, tables_used, row_count, error_message,
			duration_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.db.Exec(ctx, query,
		entry.ID,
		entry.RequestID,
		entry.Question,
		nullIfEmpty(entry.ProcessedQuestion),
		nullIfEmpty(entry.SQL),
		nullIfEmpty(string(entry.Method)),
		entry.Confidence,
		entry.Safe,
		nullIfEmpty(string(entry.UnsafeReason)),
		nullIfEmpty(entry.QueryType),
		entry.TablesUsed,
		entry.RowCount,
		entry.ErrorMessage,
		entry.DurationMs,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create query history entry: %w", err)
	}

	return nil
}

func (r *queryHistoryRepository) ListRecent(ctx context.Context, limit int) ([]*models.QueryHistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryListLimit
	}
	if limit > MaxHistoryListLimit {
		limit = MaxHistoryListLimit
	}

	query := `
		SELECT id, request_id, question,
		       COALESCE(processed_question, ''), COALESCE(sql, ''),
		       COALESCE(method, ''), confidence, safe, COALESCE(unsafe_reason, ''),
		       COALESCE(query_type, ''), tables_used, row_count, error_message,
		       duration_ms, created_at
		FROM query_history
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list query history entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.QueryHistoryEntry
	for rows.Next() {
		var entry models.QueryHistoryEntry
		var method, reason string

		err := rows.Scan(
			&entry.ID,
			&entry.RequestID,
			&entry.Question,
			&entry.ProcessedQuestion,
			&entry.SQL,
			&method,
			&entry.Confidence,
			&entry.Safe,
			&reason,
			&entry.QueryType,
			&entry.TablesUsed,
			&entry.RowCount,
			&entry.ErrorMessage,
			&entry.DurationMs,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan query history entry: %w", err)
		}
		entry.Method = models.TranslationMethod(method)
		entry.UnsafeReason = models.UnsafeReason(reason)

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating query history entries: %w", err)
	}

	return entries, nil
}

func (r *queryHistoryRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM query_history WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old query history entries: %w", err)
	}

	return tag.RowsAffected(), nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
