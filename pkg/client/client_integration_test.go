//go:build integration

package client

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/Sternrassler/flowdesk/internal/testutil"
	"github.com/Sternrassler/flowdesk/pkg/cache"
	"github.com/Sternrassler/flowdesk/pkg/session"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedisContainer creates a Redis container for integration testing.
func setupRedisContainer(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := redisContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := redisContainer.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func TestIntegration_FullRequestFlow(t *testing.T) {
	redisClient, cleanup := setupRedisContainer(t)
	defer cleanup()

	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetHandler(http.MethodGet, "/api/v1/workgroups", testutil.NewConditionalHandler(`"wg-v1"`, []string{"ops"}))
	mock.SetData(http.MethodPost, "/api/v1/workgroups", map[string]string{"id": "wg-2"})

	store := session.NewRedisStore(redisClient, "integration")
	s := session.New(store)
	ctx := context.Background()
	if _, err := s.Login(ctx, "tok-int", "ivy"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	c := newTestClient(t, mock.URL(), func(cfg *Config) {
		cfg.Redis = redisClient
		cfg.Session = s
	})

	// Request 1: fills the cache
	var groups []string
	if err := c.Call(ctx, http.MethodGet, "/api/v1/workgroups", nil, &groups); err != nil {
		t.Fatalf("Request 1 failed: %v", err)
	}

	// Request 2: revalidated with If-None-Match
	if err := c.Call(ctx, http.MethodGet, "/api/v1/workgroups", nil, &groups); err != nil {
		t.Fatalf("Request 2 failed: %v", err)
	}
	if n := mock.GetConditionalCount(); n != 1 {
		t.Errorf("conditionalRequests = %d, want 1", n)
	}
	if len(groups) != 1 || groups[0] != "ops" {
		t.Errorf("groups = %v", groups)
	}

	key := cache.Key{Principal: "ivy", Endpoint: "/api/v1/workgroups", QueryParams: map[string][]string{}}
	entry, err := c.GetCache().Get(ctx, key)
	if err != nil {
		t.Fatalf("Cache lookup failed: %v", err)
	}
	if entry.ETag != `"wg-v1"` {
		t.Errorf("Cached ETag = %q, want %q", entry.ETag, `"wg-v1"`)
	}

	// Request 3: a write drops the cached list
	if err := c.Call(ctx, http.MethodPost, "/api/v1/workgroups", map[string]string{"code": "audit"}, nil); err != nil {
		t.Fatalf("Request 3 failed: %v", err)
	}
	if _, err := c.GetCache().Get(ctx, key); !errors.Is(err, cache.ErrCacheMiss) {
		t.Errorf("cache after write = %v, want ErrCacheMiss", err)
	}
}

func TestIntegration_SharedRateLimit(t *testing.T) {
	redisClient, cleanup := setupRedisContainer(t)
	defer cleanup()

	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetResponse(http.MethodGet, "/api/v1/tasks", testutil.NewRateLimitResponse(2*time.Minute))

	first := newTestClient(t, mock.URL(), func(cfg *Config) {
		cfg.Redis = redisClient
		cfg.MaxRetries = 0
	})
	second := newTestClient(t, mock.URL(), func(cfg *Config) { cfg.Redis = redisClient })

	ctx := context.Background()
	err := first.Call(ctx, http.MethodGet, "/api/v1/tasks", nil, nil)
	if !errors.Is(err, ErrRetryExhausted) {
		t.Fatalf("first Call() error = %v, want ErrRetryExhausted", err)
	}

	// The 429 recorded by the first client blocks the second.
	err = second.Call(ctx, http.MethodGet, "/api/v1/tasks", nil, nil)
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("second Call() error = %v, want ErrRateLimited", err)
	}

	state, err := second.RateLimitState(ctx)
	if err != nil {
		t.Fatalf("RateLimitState() error = %v", err)
	}
	if !state.NeedsCriticalBlock() {
		t.Errorf("state = %+v, want critical", state)
	}
	if n := mock.GetRequestCount(); n != 1 {
		t.Errorf("request count = %d, want 1", n)
	}
}
