package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/Apurer/storefront-api/internal/domains/inventory/domain"
	"github.com/Apurer/storefront-api/internal/domains/inventory/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists variants in PostgreSQL using GORM. Schema is owned by platform/migrations.
type Repository struct {
	db     *gorm.DB
	ledger *Ledger
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB, opts ...LedgerOption) *Repository {
	return &Repository{db: db, ledger: NewStockLedger(db, opts...)}
}

// variantRecord maps the variant aggregate to the product_variants table.
type variantRecord struct {
	ID        string    `gorm:"primaryKey;column:id;size:64"`
	ProductID string    `gorm:"column:product_id;size:64;not null;uniqueIndex:idx_variants_product_size"`
	Size      string    `gorm:"column:size;type:varchar(4);not null;uniqueIndex:idx_variants_product_size"`
	SKU       string    `gorm:"column:sku;size:128;not null;uniqueIndex"`
	Stock     int       `gorm:"column:stock;not null;check:chk_variants_stock_non_negative,stock >= 0"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;index"`
}

func (variantRecord) TableName() string { return "product_variants" }

// Create inserts a new variant.
func (r *Repository) Create(ctx context.Context, variant *domain.Variant) (*domain.Variant, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if variant == nil {
		return nil, errors.New("variant is nil")
	}
	record := toRecord(variant)
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ports.ErrDuplicateSKU
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// GetByID fetches a variant by identifier.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Variant, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record variantRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// List returns all variants ordered by SKU.
func (r *Repository) List(ctx context.Context) ([]*domain.Variant, error) {
	return r.find(ctx, func(db *gorm.DB) *gorm.DB { return db })
}

// ListLowStock returns variants whose stock is at or below threshold.
func (r *Repository) ListLowStock(ctx context.Context, threshold int) ([]*domain.Variant, error) {
	return r.find(ctx, func(db *gorm.DB) *gorm.DB { return db.Where("stock <= ?", threshold) })
}

// Restock atomically adds quantity to stock.
func (r *Repository) Restock(ctx context.Context, id string, quantity int) (*domain.Variant, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if err := r.ledger.Increment(ctx, id, quantity); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *Repository) find(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]*domain.Variant, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []variantRecord
	if err := r.db.WithContext(ctx).Scopes(scope).Order("sku ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	variants := make([]*domain.Variant, 0, len(records))
	for i := range records {
		variants = append(variants, records[i].toDomain())
	}
	return variants, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres variant repository not configured")
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func toRecord(v *domain.Variant) variantRecord {
	return variantRecord{
		ID:        v.ID,
		ProductID: v.ProductID,
		Size:      string(v.Size),
		SKU:       v.SKU,
		Stock:     v.Stock,
	}
}

func (r variantRecord) toDomain() *domain.Variant {
	return &domain.Variant{
		ID:        r.ID,
		ProductID: r.ProductID,
		Size:      domain.Size(r.Size),
		SKU:       r.SKU,
		Stock:     r.Stock,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
