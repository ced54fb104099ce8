package testhelpers

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/database"
)

// HistoryTestImage is the stock PostgreSQL image backing the history store.
const HistoryTestImage = "postgres:16-alpine"

// HistoryDB holds a shared history database with migrations applied.
// Use this for testing repositories and services against a real database.
type HistoryDB struct {
	Container testcontainers.Container
	DB        *database.DB
	ConnStr   string
}

var (
	sharedHistoryDB     *HistoryDB
	sharedHistoryDBOnce sync.Once
	sharedHistoryDBErr  error
)

// GetHistoryDB returns a shared PostgreSQL container for integration tests.
// The container is created once and reused across all tests in the run.
func GetHistoryDB(t *testing.T) *HistoryDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedHistoryDBOnce.Do(func() {
		sharedHistoryDB, sharedHistoryDBErr = setupHistoryDB()
	})

	if sharedHistoryDBErr != nil {
		t.Fatalf("Failed to setup history database: %v", sharedHistoryDBErr)
	}

	return sharedHistoryDB
}

// Truncate removes all history rows so a test starts from an empty table.
func (h *HistoryDB) Truncate(t *testing.T) {
	t.Helper()
	if _, err := h.DB.Pool.Exec(context.Background(), "TRUNCATE query_history"); err != nil {
		t.Fatalf("Failed to truncate query_history: %v", err)
	}
}

func setupHistoryDB() (*HistoryDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        HistoryTestImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "welfare_history",
			"POSTGRES_USER":     "welfare",
			"POSTGRES_PASSWORD": "test_password",
		},
		// Postgres logs readiness twice: once for the init run, once for real.
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	connStr := fmt.Sprintf("postgres://welfare:test_password@%s:%s/welfare_history?sslmode=disable",
		host, port.Port())

	if err := database.MigrateURL(connStr, migrationsPath(), zap.NewNop()); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            connStr,
		MaxConnections: 5,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	return &HistoryDB{
		Container: container,
		DB:        db,
		ConnStr:   connStr,
	}, nil
}

// migrationsPath resolves the repository's migrations directory from this
// file's location so tests work from any package directory.
func migrationsPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}
