package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/models"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/repositories"
	sqlparse "github.com/ekaya-inc/welfare-nl2sql/pkg/sql"
)

// QueryHistoryService records every question asked and the outcome.
type QueryHistoryService interface {
	Record(ctx context.Context, entry *models.QueryHistoryEntry) error
	ListRecent(ctx context.Context, limit int) ([]*models.QueryHistoryEntry, error)
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type queryHistoryService struct {
	repo   repositories.QueryHistoryRepository
	logger *zap.Logger
}

func NewQueryHistoryService(repo repositories.QueryHistoryRepository, logger *zap.Logger) QueryHistoryService {
	return &queryHistoryService{
		repo:   repo,
		logger: logger.Named("query-history-service"),
	}
}

var _ QueryHistoryService = (*queryHistoryService)(nil)

func (s *queryHistoryService) Record(ctx context.Context, entry *models.QueryHistoryEntry) error {
	// Classify the query before recording
	classifyQuery(entry)

	err := s.repo.Create(ctx, entry)
	if err != nil {
		s.logger.Error("Failed to record query history entry",
			zap.String("request_id", entry.RequestID),
			zap.Error(err))
		return err
	}
	return nil
}

func (s *queryHistoryService) ListRecent(ctx context.Context, limit int) ([]*models.QueryHistoryEntry, error) {
	entries, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		s.logger.Error("Failed to list query history entries", zap.Error(err))
		return nil, err
	}
	return entries, nil
}

func (s *queryHistoryService) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	count, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("Failed to prune query history",
			zap.Time("cutoff", cutoff),
			zap.Error(err))
		return 0, err
	}
	return count, nil
}

// Query types recorded with each history entry.
const (
	QueryTypeAggregation = "aggregation"
	QueryTypeLookup      = "lookup"
	QueryTypeReport      = "report"
	QueryTypeExploration = "exploration"
)

// classifyQuery sets query_type and tables_used from the entry's SQL.
func classifyQuery(entry *models.QueryHistoryEntry) {
	if entry.SQL == "" {
		return
	}
	stmt := sqlparse.ParseStatement(entry.SQL)
	entry.TablesUsed = tablesOf(stmt)
	entry.QueryType = classifyQueryType(stmt)
}

// tablesOf returns the tables named after FROM or JOIN at any depth, lower
// cased, schema prefix kept, in order of first appearance. Derived tables are
// skipped.
func tablesOf(stmt *sqlparse.Statement) []string {
	var tables []string
	seen := make(map[string]bool)
	toks := stmt.Tokens

	for i, t := range toks {
		if !t.Is("FROM") && !t.Is("JOIN") {
			continue
		}
		j := stmt.NextSignificant(i + 1)
		var parts []string
		for j < len(toks) && (toks[j].Kind == sqlparse.TokenWord || toks[j].Kind == sqlparse.TokenQuotedIdent) {
			parts = append(parts, strings.ToLower(strings.Trim(toks[j].Text, `[]"`)))
			if j+2 >= len(toks) || toks[j+1].Text != "." {
				break
			}
			j += 2
		}
		if len(parts) == 0 {
			continue
		}
		name := strings.Join(parts, ".")
		if !seen[name] {
			seen[name] = true
			tables = append(tables, name)
		}
	}
	return tables
}

// classifyQueryType buckets a statement by what the outer SELECT does: rolls
// rows up, fetches a bounded filtered set, orders a listing, or browses.
func classifyQueryType(stmt *sqlparse.Statement) string {
	if list, ok := stmt.SelectListSpan(); ok && stmt.ContainsAggregate(list) {
		return QueryTypeAggregation
	}
	if stmt.HasTopLevel("GROUP", "BY") {
		return QueryTypeAggregation
	}

	_, bounded := stmt.TopClause()
	if bounded && stmt.HasTopLevel("WHERE") {
		return QueryTypeLookup
	}
	if stmt.HasTopLevel("ORDER", "BY") {
		return QueryTypeReport
	}
	return QueryTypeExploration
}
