package database

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultMaxConnections = 10
	defaultApplication    = "welfare-nl2sql-history"
)

// DB is the pgx pool backing the query history store.
type DB struct {
	*pgxpool.Pool
}

// Config describes the history store connection.
type Config struct {
	URL            string
	MaxConnections int32
	// StatementTimeout bounds every history statement server-side. Zero leaves
	// the server default in place.
	StatementTimeout time.Duration
	ApplicationName  string
}

// NewConnection opens the history pool and pings it.
func NewConnection(ctx context.Context, cfg *Config) (*DB, error) {
	pc, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// History writes are small and bursty; idle connections are recycled quickly
// so a quiet service does not pin server slots.
func poolConfig(cfg *Config) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse history database URL: %w", err)
	}

	pc.MaxConns = cfg.MaxConnections
	if pc.MaxConns <= 0 {
		pc.MaxConns = defaultMaxConnections
	}
	pc.MaxConnLifetime = time.Hour
	pc.MaxConnIdleTime = 5 * time.Minute

	app := cfg.ApplicationName
	if app == "" {
		app = defaultApplication
	}
	pc.ConnConfig.RuntimeParams["application_name"] = app
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(cfg.StatementTimeout.Milliseconds(), 10)
	}

	return pc, nil
}

// Close closes the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}
