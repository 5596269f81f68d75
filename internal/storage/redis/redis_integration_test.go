//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xenking/troli-storefront/internal/domain/cart"
)

func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := c.Terminate(context.Background()); err != nil {
			t.Logf("terminate redis: %v", err)
		}
	})

	endpoint, err := c.Endpoint(ctx, "")
	require.NoError(t, err)
	return endpoint
}

func TestCartStore_Integration(t *testing.T) {
	ctx := context.Background()
	addr := startRedis(t)

	client, err := NewClient(ctx, Options{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store := NewCartStore(client, "", time.Minute)

	_, err = store.Load(ctx, "session-1")
	require.ErrorIs(t, err, cart.ErrNoSnapshot)

	require.NoError(t, store.Save(ctx, "session-1", sampleLines()))

	lines, err := store.Load(ctx, "session-1")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, 2, lines[0].Quantity)

	ttl, err := client.TTL(ctx, DefaultPrefix+"session-1").Result()
	require.NoError(t, err)
	assert.Positive(t, ttl)
	assert.LessOrEqual(t, ttl, time.Minute)

	require.NoError(t, store.Delete(ctx, "session-1"))
	_, err = store.Load(ctx, "session-1")
	require.ErrorIs(t, err, cart.ErrNoSnapshot)
}

func TestCartStore_IntegrationExpiry(t *testing.T) {
	ctx := context.Background()
	addr := startRedis(t)

	client, err := NewClient(ctx, Options{Addr: "redis://" + addr + "/0"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store := NewCartStore(client, "test:", time.Second)
	require.NoError(t, store.Save(ctx, "s", sampleLines()))

	require.Eventually(t, func() bool {
		_, err := store.Load(ctx, "s")
		return err != nil
	}, 5*time.Second, 100*time.Millisecond)
}
