package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver "pgx" for golang-migrate
	"go.uber.org/zap"
)

const (
	// DefaultMigrationsPath is where the history schema migrations live
	// relative to the working directory.
	DefaultMigrationsPath = "./migrations"

	// HistoryMigrationsTable tracks the applied history schema version. It is
	// named apart from the golang-migrate default so the history tables can
	// share a database with other services.
	HistoryMigrationsTable = "query_history_schema_migrations"
)

// ErrDirtySchema is returned when a previous migration failed halfway.
var ErrDirtySchema = errors.New("history schema is dirty")

// MigrateURL applies pending history migrations to the database at url.
func MigrateURL(url, migrationsPath string, logger *zap.Logger) error {
	if migrationsPath == "" {
		migrationsPath = DefaultMigrationsPath
	}

	sqlDB, err := sql.Open("pgx", url)
	if err != nil {
		return fmt.Errorf("failed to open sql connection: %w", err)
	}
	defer sqlDB.Close()

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{MigrationsTable: HistoryMigrationsTable})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logger.Warn("Failed to close migration source", zap.Error(srcErr))
		}
		if dbErr != nil {
			logger.Warn("Failed to close migration database", zap.Error(dbErr))
		}
	}()

	// A dirty version needs a manual fix; retrying Up would only fail again.
	if version, dirty, err := m.Version(); err == nil && dirty {
		return fmt.Errorf("%w at version %d", ErrDirtySchema, version)
	}

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Debug("History schema up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to migrate history schema: %w", err)
	}

	version, _, _ := m.Version()
	logger.Info("History schema migrated", zap.Uint("version", version))
	return nil
}
