package mssql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/microsoft/go-mssqldb"         // SQL Server driver
	_ "github.com/microsoft/go-mssqldb/azuread" // Azure AD support

	"github.com/ekaya-inc/welfare-nl2sql/pkg/adapters/datasource"
)

// Adapter owns a SQL Server connection pool.
type Adapter struct {
	config *Config
	db     *sql.DB
}

// NewAdapter opens a pool for cfg and pings it. SQL logins and Azure AD
// service principals are supported.
func NewAdapter(ctx context.Context, cfg *Config) (*Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	db, err := openConnection(cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connection test failed: %w", err)
	}

	return &Adapter{config: cfg, db: db}, nil
}

func openConnection(cfg *Config) (*sql.DB, error) {
	driver, dsn := cfg.dataSource()
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s connection: %w", cfg.AuthMethod, err)
	}
	return db, nil
}

// TestConnection verifies the database is reachable and that the session is
// attached to the configured database.
func (a *Adapter) TestConnection(ctx context.Context) error {
	if err := a.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	var current string
	if err := a.db.QueryRowContext(ctx, "SELECT DB_NAME()").Scan(&current); err != nil {
		return fmt.Errorf("test query failed: %w", err)
	}
	if a.config != nil && current != a.config.Database {
		return fmt.Errorf("connected to database %q, expected %q", current, a.config.Database)
	}

	return nil
}

// Close releases the pool.
func (a *Adapter) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// DB returns the underlying *sql.DB for use by the query executor.
func (a *Adapter) DB() *sql.DB {
	return a.db
}

// Ensure Adapter implements ConnectionTester at compile time.
var _ datasource.ConnectionTester = (*Adapter)(nil)
