package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/safar/boutique/internal/session"
)

func setupRedisStore(t *testing.T) (*session.RedisStore, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor: wait.ForLog("Ready to accept connections").
			WithStartupTimeout(60 * time.Second),
	}

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start redis container: %v", err)
	}

	host, err := redisC.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := redisC.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	store, err := session.NewRedisStore(fmt.Sprintf("redis://%s:%s", host, port.Port()))
	if err != nil {
		t.Fatalf("Failed to connect to redis: %v", err)
	}

	cleanup := func() {
		if err := store.Close(); err != nil {
			t.Logf("Failed to close redis store: %v", err)
		}
		if err := redisC.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}

	return store, cleanup
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, cleanup := setupRedisStore(t)
	defer cleanup()
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, session.KeyToken); err != nil || ok {
		t.Fatalf("Missing key should report ok=false, got ok=%v err=%v", ok, err)
	}

	if err := store.Set(ctx, session.KeyToken, "abc123"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	value, ok, err := store.Get(ctx, session.KeyToken)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || value != "abc123" {
		t.Errorf("Expected abc123, got %q (ok=%v)", value, ok)
	}

	if err := store.Set(ctx, session.KeyCart, `[{"quantity":3}]`); err != nil {
		t.Fatalf("Set cart: %v", err)
	}
	cart, ok, err := store.Get(ctx, session.KeyCart)
	if err != nil || !ok {
		t.Fatalf("Get cart: ok=%v err=%v", ok, err)
	}
	if cart != `[{"quantity":3}]` {
		t.Errorf("Cart snapshot mismatch: %q", cart)
	}
}

func TestRedisStoreDelete(t *testing.T) {
	store, cleanup := setupRedisStore(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.Set(ctx, session.KeyToken, "abc123"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Delete(ctx, session.KeyToken); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, session.KeyToken); ok {
		t.Error("Deleted key should be gone")
	}
	if err := store.Delete(ctx, session.KeyToken); err != nil {
		t.Errorf("Second delete should be a no-op, got %v", err)
	}
}
