//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Apurer/storefront-api/internal/domains/sales/domain"
)

func setupRedisContainer(t *testing.T) (*goredis.Client, func()) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := goredis.NewClient(&goredis.Options{Addr: endpoint})
	require.NoError(t, client.Ping(ctx).Err())

	cleanup := func() {
		_ = client.Close()
		container.Terminate(ctx)
	}
	return client, cleanup
}

func TestOrderCache_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	client, cleanup := setupRedisContainer(t)
	defer cleanup()

	cache := NewOrderCache(client, time.Minute)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "o-1")
	require.NoError(t, err)
	assert.False(t, ok)

	order := &domain.Order{
		ID:            "o-1",
		CashierID:     "cashier",
		Channel:       domain.ChannelInPerson,
		PaymentMethod: domain.PaymentCash,
		Lines: []domain.OrderLine{{
			VariantID:    "v",
			Quantity:     3,
			UnitPrice:    decimal.RequireFromString("100"),
			DiscountRate: decimal.RequireFromString("0.2"),
			LineTotal:    decimal.RequireFromString("240"),
		}},
		Total:    decimal.RequireFromString("240"),
		PlacedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, cache.Put(ctx, order))

	cached, ok, err := cache.Get(ctx, "o-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, cached.Total.Equal(order.Total))
	assert.Equal(t, order.PlacedAt, cached.PlacedAt)

	ttl, err := client.TTL(ctx, Key("o-1")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, client.Set(ctx, Key("o-2"), "not-json", time.Minute).Err())
	_, ok, err = cache.Get(ctx, "o-2")
	require.NoError(t, err)
	assert.False(t, ok)
}
