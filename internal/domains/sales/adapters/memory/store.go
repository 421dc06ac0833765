package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	invmemory "github.com/Apurer/storefront-api/internal/domains/inventory/adapters/memory"
	invports "github.com/Apurer/storefront-api/internal/domains/inventory/ports"
	"github.com/Apurer/storefront-api/internal/domains/sales/domain"
	"github.com/Apurer/storefront-api/internal/domains/sales/ports"
)

var (
	_ ports.Store = (*Store)(nil)
	_ ports.Tx    = (*tx)(nil)
)

// Store keeps sales in memory and shares a stock ledger with the in-memory inventory.
// Transactions are serialized: the inventory lock is taken first, then the store lock.
type Store struct {
	inventory *invmemory.Repository

	mu         sync.RWMutex
	orders     map[string]*domain.Order
	sequence   []string
	byKey      map[string]string
	returns    map[string][]*domain.Return
	shipments  map[string]*domain.Shipment
	byTracking map[string]string
}

func NewStore(inventory *invmemory.Repository) *Store {
	if inventory == nil {
		inventory = invmemory.NewRepository()
	}
	return &Store{
		inventory:  inventory,
		orders:     map[string]*domain.Order{},
		byKey:      map[string]string{},
		returns:    map[string][]*domain.Return{},
		shipments:  map[string]*domain.Shipment{},
		byTracking: map[string]string{},
	}
}

// WithinTx stages writes and applies them only when fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	return s.inventory.Atomically(ctx, func(ledger invports.StockLedger) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		t := &tx{store: s, ledger: ledger}
		if err := fn(ctx, t); err != nil {
			return err
		}
		t.commit()
		return nil
	})
}

func (s *Store) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return cloneOrder(order), nil
}

func (s *Store) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	s.mu.RLock()
	id, ok := s.byKey[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ports.ErrNotFound
	}
	return s.GetOrder(ctx, id)
}

// ListOrders returns matching orders newest first.
func (s *Store) ListOrders(_ context.Context, filter ports.OrderFilter) ([]*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]*domain.Order, 0)
	for i := len(s.sequence) - 1; i >= 0; i-- {
		order := s.orders[s.sequence[i]]
		if filter.CustomerID != "" && order.CustomerID != filter.CustomerID {
			continue
		}
		if filter.CashierID != "" && order.CashierID != filter.CashierID {
			continue
		}
		if filter.Channel != "" && order.Channel != filter.Channel {
			continue
		}
		list = append(list, cloneOrder(order))
		if filter.Limit > 0 && len(list) == filter.Limit {
			break
		}
	}
	return list, nil
}

func (s *Store) ListReturns(_ context.Context, orderID string) ([]*domain.Return, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]*domain.Return, 0, len(s.returns[orderID]))
	for _, r := range s.returns[orderID] {
		list = append(list, cloneReturn(r))
	}
	return list, nil
}

func (s *Store) GetShipment(_ context.Context, orderID string) (*domain.Shipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	shipment, ok := s.shipments[orderID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := *shipment
	return &clone, nil
}

func (s *Store) GetShipmentByTracking(ctx context.Context, trackingNumber string) (*domain.Shipment, error) {
	s.mu.RLock()
	orderID, ok := s.byTracking[trackingNumber]
	s.mu.RUnlock()
	if !ok {
		return nil, ports.ErrNotFound
	}
	return s.GetShipment(ctx, orderID)
}

func (s *Store) SaveShipment(_ context.Context, shipment *domain.Shipment, from domain.ShippingStatus) (*domain.Shipment, error) {
	if shipment == nil {
		return nil, errors.New("shipment is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.shipments[shipment.OrderID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if current.Status != from {
		return nil, ports.ErrStaleShipment
	}
	if current.TrackingNumber != shipment.TrackingNumber {
		if owner, taken := s.byTracking[shipment.TrackingNumber]; taken && owner != shipment.OrderID {
			return nil, ports.ErrTrackingNumberTaken
		}
		delete(s.byTracking, current.TrackingNumber)
		s.byTracking[shipment.TrackingNumber] = shipment.OrderID
	}
	clone := *shipment
	s.shipments[shipment.OrderID] = &clone
	out := clone
	return &out, nil
}

func (s *Store) ListShippedBefore(_ context.Context, cutoff time.Time) ([]*domain.Shipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]*domain.Shipment, 0)
	for _, shipment := range s.shipments {
		if shipment.Status == domain.ShippingShipped && shipment.ShippedAt != nil && shipment.ShippedAt.Before(cutoff) {
			clone := *shipment
			list = append(list, &clone)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ShippedAt.Before(*list[j].ShippedAt) })
	return list, nil
}

// tx runs with the store lock held, so it touches the maps directly.
type tx struct {
	store     *Store
	ledger    invports.StockLedger
	orders    []*domain.Order
	shipments []*domain.Shipment
	returns   []*domain.Return
}

func (t *tx) Stock() invports.StockLedger { return t.ledger }

func (t *tx) InsertOrder(_ context.Context, order *domain.Order) error {
	if order == nil {
		return errors.New("order is nil")
	}
	if _, exists := t.store.orders[order.ID]; exists {
		return errors.New("order id already exists")
	}
	if order.IdempotencyKey != "" {
		if _, used := t.store.byKey[order.IdempotencyKey]; used {
			return ports.ErrDuplicateIdempotencyKey
		}
		for _, staged := range t.orders {
			if staged.IdempotencyKey == order.IdempotencyKey {
				return ports.ErrDuplicateIdempotencyKey
			}
		}
	}
	t.orders = append(t.orders, cloneOrder(order))
	return nil
}

func (t *tx) InsertShipment(_ context.Context, shipment *domain.Shipment) error {
	if shipment == nil {
		return errors.New("shipment is nil")
	}
	if _, taken := t.store.byTracking[shipment.TrackingNumber]; taken {
		return errors.New("tracking number already assigned")
	}
	clone := *shipment
	t.shipments = append(t.shipments, &clone)
	return nil
}

func (t *tx) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	if order, ok := t.store.orders[id]; ok {
		return cloneOrder(order), nil
	}
	for _, staged := range t.orders {
		if staged.ID == id {
			return cloneOrder(staged), nil
		}
	}
	return nil, ports.ErrNotFound
}

func (t *tx) ReturnedQuantities(_ context.Context, orderID string) (map[string]int, error) {
	out := map[string]int{}
	add := func(r *domain.Return) {
		for _, l := range r.Lines {
			out[l.VariantID] += l.Quantity
		}
	}
	for _, r := range t.store.returns[orderID] {
		add(r)
	}
	for _, r := range t.returns {
		if r.OrderID == orderID {
			add(r)
		}
	}
	return out, nil
}

func (t *tx) InsertReturn(_ context.Context, ret *domain.Return) error {
	if ret == nil {
		return errors.New("return is nil")
	}
	t.returns = append(t.returns, cloneReturn(ret))
	return nil
}

func (t *tx) commit() {
	s := t.store
	for _, order := range t.orders {
		s.orders[order.ID] = order
		s.sequence = append(s.sequence, order.ID)
		if order.IdempotencyKey != "" {
			s.byKey[order.IdempotencyKey] = order.ID
		}
	}
	for _, shipment := range t.shipments {
		s.shipments[shipment.OrderID] = shipment
		s.byTracking[shipment.TrackingNumber] = shipment.OrderID
	}
	for _, ret := range t.returns {
		s.returns[ret.OrderID] = append(s.returns[ret.OrderID], ret)
	}
}

func cloneOrder(o *domain.Order) *domain.Order {
	clone := *o
	clone.Lines = append([]domain.OrderLine(nil), o.Lines...)
	if o.ShippingAddress != nil {
		addr := *o.ShippingAddress
		clone.ShippingAddress = &addr
	}
	return &clone
}

func cloneReturn(r *domain.Return) *domain.Return {
	clone := *r
	clone.Lines = append([]domain.ReturnLine(nil), r.Lines...)
	return &clone
}
