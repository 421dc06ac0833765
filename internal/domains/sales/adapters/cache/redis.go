package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Apurer/storefront-api/internal/domains/sales/domain"
	"github.com/Apurer/storefront-api/internal/domains/sales/ports"
)

var _ ports.OrderCache = (*OrderCache)(nil)

const (
	keyPrefix  = "storefront:order:"
	DefaultTTL = 10 * time.Minute
)

// OrderCache stores committed orders as JSON under storefront:order:<id>.
type OrderCache struct {
	client goredis.Cmdable
	ttl    time.Duration
}

// NewOrderCache wraps client. A non-positive ttl falls back to DefaultTTL.
func NewOrderCache(client goredis.Cmdable, ttl time.Duration) *OrderCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &OrderCache{client: client, ttl: ttl}
}

func Key(orderID string) string { return keyPrefix + orderID }

func (c *OrderCache) Get(ctx context.Context, id string) (*domain.Order, bool, error) {
	raw, err := c.client.Get(ctx, Key(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var order domain.Order
	if err := json.Unmarshal(raw, &order); err != nil {
		// a corrupt entry is dropped and treated as a miss
		_ = c.client.Del(ctx, Key(id)).Err()
		return nil, false, nil
	}
	return &order, true, nil
}

func (c *OrderCache) Put(ctx context.Context, order *domain.Order) error {
	if order == nil {
		return nil
	}
	raw, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, Key(order.ID), raw, c.ttl).Err()
}
