package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Apurer/storefront-api/internal/domains/inventory/domain"
	"github.com/Apurer/storefront-api/internal/domains/inventory/ports"
)

var _ ports.StockLedger = (*Ledger)(nil)

// DefaultStatementTimeout bounds each stock round trip.
const DefaultStatementTimeout = 5 * time.Second

// Ledger runs conditional stock updates against db, which may be a transaction handle.
type Ledger struct {
	db      *gorm.DB
	timeout time.Duration
}

// LedgerOption customizes a Ledger.
type LedgerOption func(*Ledger)

// WithStatementTimeout overrides the per-statement deadline. Non-positive values disable it.
func WithStatementTimeout(d time.Duration) LedgerOption {
	return func(l *Ledger) {
		l.timeout = d
	}
}

// NewStockLedger binds the ledger to db. Pass the *gorm.DB handed to a
// Transaction callback to run the updates inside that transaction.
func NewStockLedger(db *gorm.DB, opts ...LedgerOption) *Ledger {
	l := &Ledger{db: db, timeout: DefaultStatementTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Available reads the current stock of a variant.
func (l *Ledger) Available(ctx context.Context, id string) (int, error) {
	if err := l.ensureDB(); err != nil {
		return 0, err
	}
	ctx, cancel := l.bound(ctx)
	defer cancel()
	var record variantRecord
	err := l.db.WithContext(ctx).Select("id", "stock").Take(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ports.ErrNotFound
		}
		return 0, err
	}
	return record.Stock, nil
}

// TryDecrement issues UPDATE ... SET stock = stock - q WHERE id = ? AND stock >= q.
func (l *Ledger) TryDecrement(ctx context.Context, id string, quantity int) (bool, error) {
	if err := l.ensureDB(); err != nil {
		return false, err
	}
	if err := domain.ValidateAdjustment(quantity); err != nil {
		return false, err
	}
	ctx, cancel := l.bound(ctx)
	defer cancel()
	result := l.db.WithContext(ctx).
		Model(&variantRecord{}).
		Where("id = ? AND stock >= ?", id, quantity).
		UpdateColumns(map[string]any{
			"stock":      gorm.Expr("stock - ?", quantity),
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Increment adds quantity to stock.
func (l *Ledger) Increment(ctx context.Context, id string, quantity int) error {
	if err := l.ensureDB(); err != nil {
		return err
	}
	if err := domain.ValidateAdjustment(quantity); err != nil {
		return err
	}
	ctx, cancel := l.bound(ctx)
	defer cancel()
	result := l.db.WithContext(ctx).
		Model(&variantRecord{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"stock":      gorm.Expr("stock + ?", quantity),
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (l *Ledger) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if l.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, l.timeout)
}

func (l *Ledger) ensureDB() error {
	if l == nil || l.db == nil {
		return errors.New("postgres stock ledger not configured")
	}
	return nil
}
