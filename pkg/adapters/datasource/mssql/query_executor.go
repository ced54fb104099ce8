package mssql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/adapters/datasource"
)

// QueryExecutor provides SQL Server query execution.
type QueryExecutor struct {
	db *sql.DB
}

// NewQueryExecutor opens a connection pool for cfg and returns an executor
// that owns it.
func NewQueryExecutor(ctx context.Context, cfg *Config) (*QueryExecutor, error) {
	adapter, err := NewAdapter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &QueryExecutor{db: adapter.DB()}, nil
}

// NewQueryExecutorWithDB wraps an existing pool. The executor takes ownership
// of db and closes it on Close.
func NewQueryExecutorWithDB(db *sql.DB) *QueryExecutor {
	return &QueryExecutor{db: db}
}

var (
	_ datasource.QueryExecutor    = (*QueryExecutor)(nil)
	_ datasource.ConnectionTester = (*QueryExecutor)(nil)
)

// Query runs a SELECT statement and returns bounded results.
// See datasource.QueryExecutor.Query for limit behavior.
//
// The statement is not wrapped in a derived table: validated statements may
// carry ORDER BY, unnamed aggregate columns or duplicate column names, all of
// which SQL Server rejects inside "SELECT TOP (n) * FROM (...)". Rows past the
// limit are left unread and the result is marked Truncated.
func (e *QueryExecutor) Query(ctx context.Context, sqlQuery string, limit int) (*datasource.QueryExecutionResult, error) {
	effectiveLimit := datasource.EffectiveLimit(limit)

	rows, err := e.db.QueryContext(ctx, sqlQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	columnNames, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get column types: %w", err)
	}

	columns := make([]datasource.ColumnInfo, len(columnNames))
	for i, colName := range columnNames {
		columns[i] = datasource.ColumnInfo{
			Name: colName,
			Type: columnType(columnTypes[i].DatabaseTypeName()),
		}
	}

	resultRows := make([]map[string]any, 0)
	truncated := false
	for rows.Next() {
		if len(resultRows) == effectiveLimit {
			truncated = true
			break
		}

		values := make([]any, len(columnNames))
		valuePtrs := make([]any, len(columnNames))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		rowMap := make(map[string]any, len(columnNames))
		for i, col := range columnNames {
			rowMap[col] = convertValue(values[i], columnTypes[i].DatabaseTypeName())
		}
		resultRows = append(resultRows, rowMap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return &datasource.QueryExecutionResult{
		Columns:   columns,
		Rows:      resultRows,
		RowCount:  len(resultRows),
		Truncated: truncated,
	}, nil
}

// TestConnection verifies the pool can reach the server.
func (e *QueryExecutor) TestConnection(ctx context.Context) error {
	if err := e.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (e *QueryExecutor) Close() error {
	if e.db != nil {
		return e.db.Close()
	}
	return nil
}
