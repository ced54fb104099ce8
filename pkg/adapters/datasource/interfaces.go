package datasource

import "context"

// ConnectionTester tests database connectivity.
// Each implementation owns its connection and must be closed when done.
type ConnectionTester interface {
	// TestConnection verifies the database is reachable with valid credentials.
	// Returns nil if connection is healthy, error otherwise.
	TestConnection(ctx context.Context) error

	// Close releases the database connection.
	Close() error
}

// MaxQueryLimit is the hard cap on rows returned by Query.
// This protects against unbounded queries that could crash the server.
const MaxQueryLimit = 1000

// QueryExecutor runs validated, read-only SQL against the welfare database.
//
// Each implementation owns its connection and must be closed when done.
type QueryExecutor interface {
	// Query runs a SELECT statement and returns at most limit rows.
	// The statement is sent unmodified; the row cap is applied while reading.
	//
	// Limit behavior:
	//   - limit <= 0: uses MaxQueryLimit (1000)
	//   - limit > MaxQueryLimit: capped to MaxQueryLimit (1000)
	//   - otherwise: uses specified limit
	//
	// Driver errors are returned wrapped so callers can surface the native
	// message.
	Query(ctx context.Context, sqlQuery string, limit int) (*QueryExecutionResult, error)

	// Close releases any resources held by the executor.
	Close() error
}

// SchemaInspector reads the live column layout of the target database.
type SchemaInspector interface {
	// Columns returns every user-table column keyed by lower-cased table name.
	Columns(ctx context.Context) (map[string][]ColumnInfo, error)
}

// ColumnInfo describes a result column with database-agnostic type information.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"` // SQL Server type name, upper case (e.g., "INT", "NVARCHAR", "DECIMAL")
}

// QueryExecutionResult holds the results from executing a query.
type QueryExecutionResult struct {
	Columns  []ColumnInfo     `json:"columns"`
	Rows     []map[string]any `json:"rows"`
	RowCount int              `json:"row_count"`
	// Truncated is set when the statement produced more rows than the limit.
	Truncated bool `json:"truncated,omitempty"`
}

// EffectiveLimit applies the MaxQueryLimit rules to a requested limit.
func EffectiveLimit(limit int) int {
	if limit <= 0 || limit > MaxQueryLimit {
		return MaxQueryLimit
	}
	return limit
}
