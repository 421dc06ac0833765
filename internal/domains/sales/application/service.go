package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	invports "github.com/Apurer/storefront-api/internal/domains/inventory/ports"
	salestypes "github.com/Apurer/storefront-api/internal/domains/sales/application/types"
	"github.com/Apurer/storefront-api/internal/domains/sales/domain"
	"github.com/Apurer/storefront-api/internal/domains/sales/ports"
)

const (
	// DefaultDeliveryDelay is how long a shipped order waits before it is marked delivered.
	DefaultDeliveryDelay = time.Minute
	defaultListLimit     = 50
	maxListLimit         = 500
)

// Service orchestrates order placement, returns and shipment tracking.
type Service struct {
	store         ports.Store
	cache         ports.OrderCache
	events        ports.EventPublisher
	scheduler     ports.DeliveryScheduler
	logger        *slog.Logger
	now           func() time.Time
	newID         func() string
	deliveryDelay time.Duration
}

// Option customizes the sales service.
type Option func(*Service)

func WithOrderCache(cache ports.OrderCache) Option {
	return func(s *Service) {
		if cache != nil {
			s.cache = cache
		}
	}
}

func WithEventPublisher(publisher ports.EventPublisher) Option {
	return func(s *Service) {
		if publisher != nil {
			s.events = publisher
		}
	}
}

func WithDeliveryScheduler(scheduler ports.DeliveryScheduler) Option {
	return func(s *Service) {
		if scheduler != nil {
			s.scheduler = scheduler
		}
	}
}

func WithDeliveryDelay(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.deliveryDelay = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

func NewService(store ports.Store, opts ...Option) *Service {
	s := &Service{
		store:         store,
		cache:         ports.NoopOrderCache{},
		events:        ports.NoopPublisher{},
		scheduler:     ports.NoopDeliveryScheduler{},
		logger:        slog.Default(),
		now:           time.Now,
		newID:         uuid.NewString,
		deliveryDelay: DefaultDeliveryDelay,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// PlaceOrder validates the request, reserves stock for every line in one transaction
// and persists the order. Either every line is reserved and the order exists, or
// nothing changed.
func (s *Service) PlaceOrder(ctx context.Context, cmd salestypes.PlaceOrderCommand) (*salestypes.PlaceOrderResult, error) {
	draft := toDraft(cmd)
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	key := strings.TrimSpace(cmd.IdempotencyKey)
	var hash string
	if key != "" {
		fingerprint, err := FingerprintPlaceOrder(cmd)
		if err != nil {
			return nil, &domain.InternalError{Op: opPlaceOrder, Err: err}
		}
		hash = fingerprint
		if replay, err := s.replay(ctx, key, hash); err != nil || replay != nil {
			return replay, err
		}
	}

	order, err := domain.NewOrder(s.newID(), draft, s.now())
	if err != nil {
		return nil, err
	}
	order.IdempotencyKey = key
	order.RequestHash = hash
	var shipment *domain.Shipment
	if order.RequiresShipment() {
		shipment = domain.NewShipment(order.ID, domain.NewTrackingNumber(), order.PlacedAt)
	}

	// Once reservation starts the call must end in commit or full rollback.
	err = s.store.WithinTx(context.WithoutCancel(ctx), func(ctx context.Context, tx ports.Tx) error {
		if err := reserve(ctx, tx.Stock(), order); err != nil {
			return err
		}
		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}
		if shipment != nil {
			return tx.InsertShipment(ctx, shipment)
		}
		return nil
	})
	if err != nil {
		if key != "" && errors.Is(err, ports.ErrDuplicateIdempotencyKey) {
			if replay, rerr := s.replay(ctx, key, hash); rerr != nil || replay != nil {
				return replay, rerr
			}
		}
		return nil, classify(opPlaceOrder, err)
	}

	s.cacheOrder(ctx, order)
	s.publish(ctx, domain.OrderPlaced(order))
	return &salestypes.PlaceOrderResult{Order: order, Shipment: shipment}, nil
}

// reserve checks every variant exists, then conditionally decrements each line.
// All shortfalls are collected so the caller sees the full picture in one error.
func reserve(ctx context.Context, ledger invports.StockLedger, order *domain.Order) error {
	seen := make(map[string]struct{}, len(order.Lines))
	for _, line := range order.Lines {
		if _, ok := seen[line.VariantID]; ok {
			continue
		}
		seen[line.VariantID] = struct{}{}
		if _, err := ledger.Available(ctx, line.VariantID); err != nil {
			if errors.Is(err, invports.ErrNotFound) {
				return &domain.NotFoundError{Resource: "variant", ID: line.VariantID}
			}
			return err
		}
	}

	// Rows are touched in variant order so concurrent orders cannot deadlock each other.
	sequence := make([]int, len(order.Lines))
	for i := range sequence {
		sequence[i] = i
	}
	sort.SliceStable(sequence, func(a, b int) bool {
		return order.Lines[sequence[a]].VariantID < order.Lines[sequence[b]].VariantID
	})
	short := map[int]domain.StockShortfall{}
	for _, idx := range sequence {
		line := order.Lines[idx]
		reserved, err := ledger.TryDecrement(ctx, line.VariantID, line.Quantity)
		if err != nil {
			return err
		}
		if reserved {
			continue
		}
		available, err := ledger.Available(ctx, line.VariantID)
		if err != nil {
			return err
		}
		short[idx] = domain.StockShortfall{
			VariantID: line.VariantID,
			Requested: line.Quantity,
			Available: available,
		}
	}
	if len(short) > 0 {
		shortfalls := make([]domain.StockShortfall, 0, len(short))
		for idx := range order.Lines {
			if s, ok := short[idx]; ok {
				shortfalls = append(shortfalls, s)
			}
		}
		return &domain.InsufficientStockError{Shortfalls: shortfalls}
	}
	return nil
}

func (s *Service) replay(ctx context.Context, key, hash string) (*salestypes.PlaceOrderResult, error) {
	existing, err := s.store.FindByIdempotencyKey(ctx, key)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(opPlaceOrder, err)
	}
	if existing.RequestHash != hash {
		return nil, fmt.Errorf("%w: key %q belongs to order %s", domain.ErrIdempotencyConflict, key, existing.ID)
	}
	result := &salestypes.PlaceOrderResult{Order: existing, Replayed: true}
	if existing.RequiresShipment() {
		if shipment, err := s.store.GetShipment(ctx, existing.ID); err == nil {
			result.Shipment = shipment
		}
	}
	return result, nil
}

// GetOrder reads through the order cache.
func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.NewValidationError("orderId", "is required")
	}
	if cached, ok, err := s.cache.Get(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "order cache read failed", slog.String("order.id", id), slog.String("error", err.Error()))
	} else if ok {
		return cached, nil
	}
	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, classify(opGetOrder, notFound("order", id, err))
	}
	s.cacheOrder(ctx, order)
	return order, nil
}

func (s *Service) ListOrders(ctx context.Context, query salestypes.ListOrdersQuery) ([]*domain.Order, error) {
	filter := ports.OrderFilter{
		CustomerID: strings.TrimSpace(query.CustomerID),
		CashierID:  strings.TrimSpace(query.CashierID),
		Limit:      query.Limit,
	}
	if raw := normalizeEnum(query.Channel); raw != "" {
		channel := domain.Channel(raw)
		if !channel.Valid() {
			return nil, domain.NewValidationError("channel", fmt.Sprintf("unknown channel %q", query.Channel))
		}
		filter.Channel = channel
	}
	switch {
	case filter.Limit < 0:
		return nil, domain.NewValidationError("limit", "must not be negative")
	case filter.Limit == 0:
		filter.Limit = defaultListLimit
	case filter.Limit > maxListLimit:
		filter.Limit = maxListLimit
	}
	orders, err := s.store.ListOrders(ctx, filter)
	if err != nil {
		return nil, classify(opListOrders, err)
	}
	return orders, nil
}

// ProcessReturn restores stock for returned goods and records the refund.
func (s *Service) ProcessReturn(ctx context.Context, cmd salestypes.ProcessReturnCommand) (*domain.Return, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return nil, domain.NewValidationError("orderId", "is required")
	}
	lines := make([]domain.ReturnRequestLine, 0, len(cmd.Lines))
	for _, l := range cmd.Lines {
		lines = append(lines, domain.ReturnRequestLine{VariantID: l.VariantID, Quantity: l.Quantity})
	}
	if err := domain.ValidateReturnRequest(cmd.CashierID, lines); err != nil {
		return nil, err
	}

	var ret *domain.Return
	err := s.store.WithinTx(context.WithoutCancel(ctx), func(ctx context.Context, tx ports.Tx) error {
		order, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return notFound("order", orderID, err)
		}
		returned, err := tx.ReturnedQuantities(ctx, order.ID)
		if err != nil {
			return err
		}
		candidate, err := domain.NewReturn(s.newID(), order, cmd.CashierID, lines, returned, s.now())
		if err != nil {
			return err
		}
		for _, l := range candidate.Lines {
			if err := tx.Stock().Increment(ctx, l.VariantID, l.Quantity); err != nil {
				if errors.Is(err, invports.ErrNotFound) {
					return &domain.NotFoundError{Resource: "variant", ID: l.VariantID}
				}
				return err
			}
		}
		if err := tx.InsertReturn(ctx, candidate); err != nil {
			return err
		}
		ret = candidate
		return nil
	})
	if err != nil {
		return nil, classify(opProcessReturn, err)
	}
	s.publish(ctx, domain.OrderReturned(ret))
	return ret, nil
}

func (s *Service) ListReturns(ctx context.Context, orderID string) ([]*domain.Return, error) {
	orderID = strings.TrimSpace(orderID)
	if _, err := s.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	returns, err := s.store.ListReturns(ctx, orderID)
	if err != nil {
		return nil, classify(opListReturns, err)
	}
	return returns, nil
}

func (s *Service) GetShipment(ctx context.Context, orderID string) (*domain.Shipment, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, domain.NewValidationError("orderId", "is required")
	}
	shipment, err := s.store.GetShipment(ctx, orderID)
	if err != nil {
		return nil, classify(opShipment, notFound("shipment", orderID, err))
	}
	return shipment, nil
}

// TrackShipment looks a shipment up by its public tracking number.
func (s *Service) TrackShipment(ctx context.Context, trackingNumber string) (*domain.Shipment, error) {
	trackingNumber = strings.ToUpper(strings.TrimSpace(trackingNumber))
	if trackingNumber == "" {
		return nil, domain.NewValidationError("trackingNumber", "is required")
	}
	shipment, err := s.store.GetShipmentByTracking(ctx, trackingNumber)
	if err != nil {
		return nil, classify(opShipment, notFound("shipment", trackingNumber, err))
	}
	return shipment, nil
}

// UpdateShippingStatus applies a status transition. Shipped orders get a delivery scheduled.
func (s *Service) UpdateShippingStatus(ctx context.Context, cmd salestypes.UpdateShippingCommand) (*domain.Shipment, error) {
	status, err := domain.ParseShippingStatus(cmd.Status)
	if err != nil {
		return nil, err
	}
	shipment, err := s.GetShipment(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	from := shipment.Status
	if err := shipment.TransitionTo(status, s.now()); err != nil {
		return nil, err
	}
	if tn := strings.ToUpper(strings.TrimSpace(cmd.TrackingNumber)); tn != "" {
		shipment.TrackingNumber = tn
	}
	saved, err := s.store.SaveShipment(ctx, shipment, from)
	if errors.Is(err, ports.ErrTrackingNumberTaken) {
		return nil, domain.NewValidationError("trackingNumber", fmt.Sprintf("%s is already assigned to another shipment", shipment.TrackingNumber))
	}
	if err != nil {
		return nil, classify(opUpdateShipment, notFound("shipment", shipment.OrderID, err))
	}
	s.publish(ctx, domain.ShipmentStatusChanged(saved))
	if saved.Status == domain.ShippingShipped {
		if err := s.scheduler.ScheduleDelivery(ctx, saved.OrderID, s.deliveryDelay); err != nil {
			s.logger.WarnContext(ctx, "failed to schedule delivery, sweeper will pick it up",
				slog.String("order.id", saved.OrderID), slog.String("error", err.Error()))
		}
	}
	return saved, nil
}

// MarkDelivered completes a shipped order. Shipments in any other status are returned unchanged.
func (s *Service) MarkDelivered(ctx context.Context, orderID string) (*domain.Shipment, error) {
	shipment, err := s.GetShipment(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if shipment.Status != domain.ShippingShipped {
		return shipment, nil
	}
	if err := shipment.TransitionTo(domain.ShippingDelivered, s.now()); err != nil {
		return nil, err
	}
	saved, err := s.store.SaveShipment(ctx, shipment, domain.ShippingShipped)
	if errors.Is(err, ports.ErrStaleShipment) {
		return s.GetShipment(ctx, orderID)
	}
	if err != nil {
		return nil, classify(opUpdateShipment, err)
	}
	s.publish(ctx, domain.ShipmentStatusChanged(saved))
	return saved, nil
}

// SweepDeliveries marks every shipment shipped before cutoff as delivered.
func (s *Service) SweepDeliveries(ctx context.Context, cutoff time.Time) (int, error) {
	due, err := s.store.ListShippedBefore(ctx, cutoff)
	if err != nil {
		return 0, classify(opSweep, err)
	}
	delivered := 0
	var errs []error
	for _, shipment := range due {
		result, err := s.MarkDelivered(ctx, shipment.OrderID)
		if err != nil {
			errs = append(errs, fmt.Errorf("order %s: %w", shipment.OrderID, err))
			continue
		}
		if result.Status == domain.ShippingDelivered {
			delivered++
		}
	}
	return delivered, errors.Join(errs...)
}

func (s *Service) cacheOrder(ctx context.Context, order *domain.Order) {
	if err := s.cache.Put(ctx, order); err != nil {
		s.logger.WarnContext(ctx, "order cache write failed", slog.String("order.id", order.ID), slog.String("error", err.Error()))
	}
}

func (s *Service) publish(ctx context.Context, event domain.Event) {
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish sales event",
			slog.String("event.type", event.Type), slog.String("aggregate.id", event.AggregateID), slog.String("error", err.Error()))
	}
}

func toDraft(cmd salestypes.PlaceOrderCommand) domain.Draft {
	lines := make([]domain.LineDraft, 0, len(cmd.Lines))
	for _, l := range cmd.Lines {
		lines = append(lines, domain.LineDraft{
			VariantID:    l.VariantID,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			DiscountRate: l.DiscountRate,
		})
	}
	return domain.Draft{
		CashierID:       cmd.CashierID,
		CustomerID:      cmd.CustomerID,
		Channel:         domain.Channel(normalizeEnum(cmd.Channel)),
		PaymentMethod:   domain.PaymentMethod(normalizeEnum(cmd.PaymentMethod)),
		Lines:           lines,
		ShippingAddress: cmd.ShippingAddress,
	}
}

var _ ports.Service = (*Service)(nil)
