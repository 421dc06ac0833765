package migrations

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Run applies the schema for the bounded contexts. Adapters never automigrate on their own.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&variantRecord{},
		&orderRecord{},
		&orderLineRecord{},
		&returnRecord{},
		&returnLineRecord{},
		&shipmentRecord{},
		&roleRecord{},
	)
}

// Variant schema mirrors the inventory Postgres adapter. The check constraint backs the stock invariant.
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

// Sales schema mirrors the sales Postgres adapter.
type orderRecord struct {
	ID              string          `gorm:"primaryKey;column:id;size:64"`
	CustomerID      string          `gorm:"column:customer_id;size:64;index"`
	CashierID       string          `gorm:"column:cashier_id;size:64;not null;index"`
	Channel         string          `gorm:"column:channel;type:varchar(16);not null"`
	PaymentMethod   string          `gorm:"column:payment_method;type:varchar(16);not null"`
	Total           decimal.Decimal `gorm:"column:total;type:numeric;not null"`
	ShippingAddress []byte          `gorm:"column:shipping_address;type:jsonb"`
	IdempotencyKey  *string         `gorm:"column:idempotency_key;size:128;uniqueIndex:idx_orders_idempotency_key"`
	RequestHash     string          `gorm:"column:request_hash;size:64"`
	PlacedAt        time.Time       `gorm:"column:placed_at;not null;index"`
}

func (orderRecord) TableName() string { return "orders" }

type orderLineRecord struct {
	OrderID      string          `gorm:"primaryKey;column:order_id;size:64"`
	Position     int             `gorm:"primaryKey;column:position"`
	VariantID    string          `gorm:"column:variant_id;size:64;not null;index"`
	Quantity     int             `gorm:"column:quantity;not null;check:chk_order_lines_quantity_positive,quantity > 0"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price;type:numeric;not null"`
	DiscountRate decimal.Decimal `gorm:"column:discount_rate;type:numeric;not null"`
	LineTotal    decimal.Decimal `gorm:"column:line_total;type:numeric;not null"`
}

func (orderLineRecord) TableName() string { return "order_lines" }

type returnRecord struct {
	ID          string          `gorm:"primaryKey;column:id;size:64"`
	OrderID     string          `gorm:"column:order_id;size:64;not null;index"`
	CashierID   string          `gorm:"column:cashier_id;size:64;not null"`
	RefundTotal decimal.Decimal `gorm:"column:refund_total;type:numeric;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;not null"`
}

func (returnRecord) TableName() string { return "order_returns" }

type returnLineRecord struct {
	ReturnID     string          `gorm:"primaryKey;column:return_id;size:64"`
	Position     int             `gorm:"primaryKey;column:position"`
	VariantID    string          `gorm:"column:variant_id;size:64;not null"`
	Quantity     int             `gorm:"column:quantity;not null"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price;type:numeric;not null"`
	DiscountRate decimal.Decimal `gorm:"column:discount_rate;type:numeric;not null"`
	Refund       decimal.Decimal `gorm:"column:refund;type:numeric;not null"`
}

func (returnLineRecord) TableName() string { return "order_return_lines" }

type shipmentRecord struct {
	OrderID        string     `gorm:"primaryKey;column:order_id;size:64"`
	TrackingNumber string     `gorm:"column:tracking_number;size:32;not null;uniqueIndex"`
	Status         string     `gorm:"column:status;type:varchar(16);not null;index:idx_shipments_status_shipped"`
	ShippedAt      *time.Time `gorm:"column:shipped_at;index:idx_shipments_status_shipped"`
	DeliveredAt    *time.Time `gorm:"column:delivered_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at"`
}

func (shipmentRecord) TableName() string { return "shipments" }

// Role schema mirrors the access Postgres adapter.
type roleRecord struct {
	ID        string         `gorm:"primaryKey;column:id;size:64"`
	Name      string         `gorm:"column:name;size:64;not null;uniqueIndex"`
	Ring      int            `gorm:"column:ring;not null;index;check:chk_roles_ring_range,ring BETWEEN 0 AND 3"`
	Modules   pq.StringArray `gorm:"column:modules;type:text[]"`
	CreatedAt time.Time      `gorm:"column:created_at"`
}

func (roleRecord) TableName() string { return "roles" }
