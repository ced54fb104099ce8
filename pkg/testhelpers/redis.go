package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// RedisTestImage backs the translation cache in integration tests.
const RedisTestImage = "redis:7-alpine"

// RedisServer holds a shared Redis container.
type RedisServer struct {
	Container testcontainers.Container
	Addr      string
}

var (
	sharedRedis     *RedisServer
	sharedRedisOnce sync.Once
	sharedRedisErr  error
)

// GetRedisClient returns a client on a shared Redis container with an empty
// database. The client is closed when the test ends.
func GetRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedRedisOnce.Do(func() {
		sharedRedis, sharedRedisErr = setupRedis()
	})
	if sharedRedisErr != nil {
		t.Fatalf("Failed to setup redis: %v", sharedRedisErr)
	}

	client := redis.NewClient(&redis.Options{Addr: sharedRedis.Addr})
	t.Cleanup(func() { _ = client.Close() })

	if err := client.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("Failed to flush redis: %v", err)
	}
	return client
}

func setupRedis() (*RedisServer, error) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        RedisTestImage,
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start redis container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	return &RedisServer{
		Container: container,
		Addr:      fmt.Sprintf("%s:%s", host, port.Port()),
	}, nil
}
