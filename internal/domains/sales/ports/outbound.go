package ports

import (
	"context"
	"time"

	"github.com/Apurer/storefront-api/internal/domains/sales/domain"
)

// OrderCache keeps committed orders close to readers. Orders are immutable, so entries never go stale.
type OrderCache interface {
	Get(ctx context.Context, id string) (*domain.Order, bool, error)
	Put(ctx context.Context, order *domain.Order) error
}

// EventPublisher emits domain events after commit.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// DeliveryScheduler arranges for a shipped order to be marked delivered after delay.
type DeliveryScheduler interface {
	ScheduleDelivery(ctx context.Context, orderID string, delay time.Duration) error
}

// NoopOrderCache never hits.
type NoopOrderCache struct{}

func (NoopOrderCache) Get(context.Context, string) (*domain.Order, bool, error) {
	return nil, false, nil
}
func (NoopOrderCache) Put(context.Context, *domain.Order) error { return nil }

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, domain.Event) error { return nil }

// NoopDeliveryScheduler never schedules anything.
type NoopDeliveryScheduler struct{}

func (NoopDeliveryScheduler) ScheduleDelivery(context.Context, string, time.Duration) error {
	return nil
}

var (
	_ OrderCache        = NoopOrderCache{}
	_ EventPublisher    = NoopPublisher{}
	_ DeliveryScheduler = NoopDeliveryScheduler{}
)
