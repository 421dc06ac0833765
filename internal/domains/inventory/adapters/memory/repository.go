package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Apurer/storefront-api/internal/domains/inventory/domain"
	"github.com/Apurer/storefront-api/internal/domains/inventory/ports"
)

var (
	_ ports.Repository  = (*Repository)(nil)
	_ ports.StockLedger = (*Repository)(nil)
	_ ports.StockLedger = (*stagedLedger)(nil)
)

// Repository is an in-memory variant store. It doubles as a stock ledger and can
// run staged ledger work atomically for the in-memory sales store.
type Repository struct {
	mu       sync.RWMutex
	variants map[string]*domain.Variant
	now      func() time.Time
}

func NewRepository() *Repository {
	return &Repository{variants: map[string]*domain.Variant{}, now: time.Now}
}

func (r *Repository) Create(_ context.Context, variant *domain.Variant) (*domain.Variant, error) {
	if variant == nil {
		return nil, errors.New("variant is nil")
	}
	clone := *variant
	if err := clone.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.variants[clone.ID]; ok {
		return nil, ports.ErrDuplicateSKU
	}
	for _, existing := range r.variants {
		if existing.SKU == clone.SKU || (existing.ProductID == clone.ProductID && existing.Size == clone.Size) {
			return nil, ports.ErrDuplicateSKU
		}
	}
	now := r.now().UTC()
	clone.CreatedAt = now
	clone.UpdatedAt = now
	r.variants[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.Variant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.variants[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := *v
	return &clone, nil
}

func (r *Repository) List(_ context.Context) ([]*domain.Variant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(func(*domain.Variant) bool { return true }), nil
}

func (r *Repository) ListLowStock(_ context.Context, threshold int) ([]*domain.Variant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(func(v *domain.Variant) bool { return v.Stock <= threshold }), nil
}

func (r *Repository) Restock(_ context.Context, id string, quantity int) (*domain.Variant, error) {
	if err := domain.ValidateAdjustment(quantity); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.variants[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	v.Stock += quantity
	v.UpdatedAt = r.now().UTC()
	clone := *v
	return &clone, nil
}

// Available implements ports.StockLedger outside of any transaction.
func (r *Repository) Available(_ context.Context, id string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.variants[id]
	if !ok {
		return 0, ports.ErrNotFound
	}
	return v.Stock, nil
}

// TryDecrement implements ports.StockLedger outside of any transaction.
func (r *Repository) TryDecrement(ctx context.Context, id string, quantity int) (bool, error) {
	var ok bool
	err := r.Atomically(ctx, func(ledger ports.StockLedger) error {
		var err error
		ok, err = ledger.TryDecrement(ctx, id, quantity)
		return err
	})
	return ok, err
}

// Increment implements ports.StockLedger outside of any transaction.
func (r *Repository) Increment(ctx context.Context, id string, quantity int) error {
	return r.Atomically(ctx, func(ledger ports.StockLedger) error {
		return ledger.Increment(ctx, id, quantity)
	})
}

// Atomically runs fn against a staged ledger while holding the write lock.
// Staged changes are applied only when fn returns nil.
func (r *Repository) Atomically(_ context.Context, fn func(ledger ports.StockLedger) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	staged := &stagedLedger{base: r.variants, pending: map[string]int{}}
	if err := fn(staged); err != nil {
		return err
	}
	now := r.now().UTC()
	for id, stock := range staged.pending {
		v := r.variants[id]
		v.Stock = stock
		v.UpdatedAt = now
	}
	return nil
}

func (r *Repository) sorted(keep func(*domain.Variant) bool) []*domain.Variant {
	list := make([]*domain.Variant, 0, len(r.variants))
	for _, v := range r.variants {
		if !keep(v) {
			continue
		}
		clone := *v
		list = append(list, &clone)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].SKU < list[j].SKU })
	return list
}

// stagedLedger buffers stock changes until the surrounding Atomically call commits.
type stagedLedger struct {
	base    map[string]*domain.Variant
	pending map[string]int
}

func (l *stagedLedger) Available(_ context.Context, id string) (int, error) {
	if stock, ok := l.pending[id]; ok {
		return stock, nil
	}
	v, ok := l.base[id]
	if !ok {
		return 0, ports.ErrNotFound
	}
	return v.Stock, nil
}

func (l *stagedLedger) TryDecrement(ctx context.Context, id string, quantity int) (bool, error) {
	if err := domain.ValidateAdjustment(quantity); err != nil {
		return false, err
	}
	stock, err := l.Available(ctx, id)
	if err != nil {
		return false, err
	}
	if stock < quantity {
		return false, nil
	}
	l.pending[id] = stock - quantity
	return true, nil
}

func (l *stagedLedger) Increment(ctx context.Context, id string, quantity int) error {
	if err := domain.ValidateAdjustment(quantity); err != nil {
		return err
	}
	stock, err := l.Available(ctx, id)
	if err != nil {
		return err
	}
	l.pending[id] = stock + quantity
	return nil
}
