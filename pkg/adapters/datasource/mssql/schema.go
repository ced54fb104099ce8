package mssql

import (
	"context"
	"fmt"
	"strings"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/adapters/datasource"
)

const columnsQuery = `
	SELECT
	    c.TABLE_NAME,
	    c.COLUMN_NAME,
	    c.DATA_TYPE
	FROM INFORMATION_SCHEMA.COLUMNS c
	INNER JOIN INFORMATION_SCHEMA.TABLES t
	    ON t.TABLE_SCHEMA = c.TABLE_SCHEMA AND t.TABLE_NAME = c.TABLE_NAME
	WHERE t.TABLE_TYPE = 'BASE TABLE'
	  AND c.TABLE_SCHEMA = 'dbo'
	ORDER BY c.TABLE_NAME, c.ORDINAL_POSITION
	`

// Columns returns the columns of every dbo user table, keyed by lower-cased
// table name.
func (e *QueryExecutor) Columns(ctx context.Context) (map[string][]datasource.ColumnInfo, error) {
	rows, err := e.db.QueryContext(ctx, columnsQuery)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	tables := make(map[string][]datasource.ColumnInfo)
	for rows.Next() {
		var table, column, dataType string
		if err := rows.Scan(&table, &column, &dataType); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		key := strings.ToLower(table)
		tables[key] = append(tables[key], datasource.ColumnInfo{
			Name: column,
			Type: columnType(dataType),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate column rows: %w", err)
	}

	return tables, nil
}

var _ datasource.SchemaInspector = (*QueryExecutor)(nil)
