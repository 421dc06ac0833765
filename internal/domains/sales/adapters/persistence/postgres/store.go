package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	invpostgres "github.com/Apurer/storefront-api/internal/domains/inventory/adapters/persistence/postgres"
	invports "github.com/Apurer/storefront-api/internal/domains/inventory/ports"
	"github.com/Apurer/storefront-api/internal/domains/sales/domain"
	"github.com/Apurer/storefront-api/internal/domains/sales/ports"
)

var (
	_ ports.Store = (*Store)(nil)
	_ ports.Tx    = (*tx)(nil)
)

// Store persists sales in PostgreSQL using GORM. Schema is owned by platform/migrations.
type Store struct {
	db      *gorm.DB
	timeout time.Duration
}

// Option customizes a Store.
type Option func(*Store)

// WithStatementTimeout bounds every statement the store issues. Non-positive values disable it.
func WithStatementTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.timeout = d
	}
}

// NewStore wires a PostgreSQL-backed sales store. Caller manages DB lifecycle.
func NewStore(db *gorm.DB, opts ...Option) *Store {
	s := &Store{db: db, timeout: invpostgres.DefaultStatementTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// WithinTx runs fn in a single database transaction. Stock updates share it through tx.Stock().
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(ctx, &tx{
			db:      db,
			timeout: s.timeout,
			ledger:  invpostgres.NewStockLedger(db, invpostgres.WithStatementTimeout(s.timeout)),
		})
	})
	return translate(err)
}

func (s *Store) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()
	order, err := loadOrder(ctx, s.db, id, false)
	return order, translate(err)
}

func (s *Store) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()
	var record orderRecord
	if err := s.db.WithContext(ctx).Take(&record, "idempotency_key = ?", key).Error; err != nil {
		return nil, translate(err)
	}
	orders, err := attachLines(ctx, s.db, []orderRecord{record})
	if err != nil {
		return nil, translate(err)
	}
	return orders[0], nil
}

// ListOrders returns matching orders newest first.
func (s *Store) ListOrders(ctx context.Context, filter ports.OrderFilter) ([]*domain.Order, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()
	query := s.db.WithContext(ctx).Model(&orderRecord{})
	if filter.CustomerID != "" {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.CashierID != "" {
		query = query.Where("cashier_id = ?", filter.CashierID)
	}
	if filter.Channel != "" {
		query = query.Where("channel = ?", string(filter.Channel))
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	var records []orderRecord
	if err := query.Order("placed_at DESC, id DESC").Find(&records).Error; err != nil {
		return nil, translate(err)
	}
	orders, err := attachLines(ctx, s.db, records)
	return orders, translate(err)
}

func (s *Store) ListReturns(ctx context.Context, orderID string) ([]*domain.Return, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()
	var records []returnRecord
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at ASC, id ASC").Find(&records).Error; err != nil {
		return nil, translate(err)
	}
	if len(records) == 0 {
		return []*domain.Return{}, nil
	}
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	var lines []returnLineRecord
	if err := s.db.WithContext(ctx).Where("return_id IN ?", ids).Order("return_id, position").Find(&lines).Error; err != nil {
		return nil, translate(err)
	}
	byReturn := map[string][]returnLineRecord{}
	for _, l := range lines {
		byReturn[l.ReturnID] = append(byReturn[l.ReturnID], l)
	}
	out := make([]*domain.Return, 0, len(records))
	for _, r := range records {
		out = append(out, r.toDomain(byReturn[r.ID]))
	}
	return out, nil
}

func (s *Store) GetShipment(ctx context.Context, orderID string) (*domain.Shipment, error) {
	return s.takeShipment(ctx, "order_id = ?", orderID)
}

func (s *Store) GetShipmentByTracking(ctx context.Context, trackingNumber string) (*domain.Shipment, error) {
	return s.takeShipment(ctx, "tracking_number = ?", trackingNumber)
}

// SaveShipment updates the row only while its status still equals from.
func (s *Store) SaveShipment(ctx context.Context, shipment *domain.Shipment, from domain.ShippingStatus) (*domain.Shipment, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	if shipment == nil {
		return nil, errors.New("shipment is nil")
	}
	record := toShipmentRecord(shipment)
	bctx, cancel := bound(ctx, s.timeout)
	defer cancel()
	result := s.db.WithContext(bctx).
		Model(&shipmentRecord{}).
		Where("order_id = ? AND status = ?", record.OrderID, string(from)).
		Updates(map[string]any{
			"tracking_number": record.TrackingNumber,
			"status":          record.Status,
			"shipped_at":      record.ShippedAt,
			"delivered_at":    record.DeliveredAt,
			"updated_at":      record.UpdatedAt,
		})
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return nil, ports.ErrTrackingNumberTaken
		}
		return nil, translate(result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := s.GetShipment(ctx, record.OrderID); err != nil {
			return nil, err
		}
		return nil, ports.ErrStaleShipment
	}
	return s.GetShipment(ctx, record.OrderID)
}

// ListShippedBefore returns shipments still in transit that left before cutoff, oldest first.
func (s *Store) ListShippedBefore(ctx context.Context, cutoff time.Time) ([]*domain.Shipment, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()
	var records []shipmentRecord
	err := s.db.WithContext(ctx).
		Where("status = ? AND shipped_at < ?", string(domain.ShippingShipped), cutoff).
		Order("shipped_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, translate(err)
	}
	out := make([]*domain.Shipment, 0, len(records))
	for _, r := range records {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) takeShipment(ctx context.Context, where string, arg string) (*domain.Shipment, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	ctx, cancel := bound(ctx, s.timeout)
	defer cancel()
	var record shipmentRecord
	if err := s.db.WithContext(ctx).Take(&record, where, arg).Error; err != nil {
		return nil, translate(err)
	}
	return record.toDomain(), nil
}

func (s *Store) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres sales store not configured")
	}
	return nil
}

// tx wraps the transaction handle passed to WithinTx callbacks.
type tx struct {
	db      *gorm.DB
	timeout time.Duration
	ledger  *invpostgres.Ledger
}

func (t *tx) Stock() invports.StockLedger { return t.ledger }

func (t *tx) InsertOrder(ctx context.Context, order *domain.Order) error {
	if order == nil {
		return errors.New("order is nil")
	}
	record, lines := toOrderRecords(order)
	ctx, cancel := bound(ctx, t.timeout)
	defer cancel()
	if err := t.db.WithContext(ctx).Create(&record).Error; err != nil {
		if record.IdempotencyKey != nil && isUniqueViolation(err) {
			return ports.ErrDuplicateIdempotencyKey
		}
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	return t.db.WithContext(ctx).Create(&lines).Error
}

func (t *tx) InsertShipment(ctx context.Context, shipment *domain.Shipment) error {
	if shipment == nil {
		return errors.New("shipment is nil")
	}
	record := toShipmentRecord(shipment)
	ctx, cancel := bound(ctx, t.timeout)
	defer cancel()
	return t.db.WithContext(ctx).Create(&record).Error
}

// GetOrder takes a row lock on the order so concurrent returns against it serialize.
func (t *tx) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	ctx, cancel := bound(ctx, t.timeout)
	defer cancel()
	return loadOrder(ctx, t.db, id, true)
}

func (t *tx) ReturnedQuantities(ctx context.Context, orderID string) (map[string]int, error) {
	ctx, cancel := bound(ctx, t.timeout)
	defer cancel()
	var rows []struct {
		VariantID string
		Quantity  int
	}
	err := t.db.WithContext(ctx).
		Table("order_return_lines AS l").
		Select("l.variant_id AS variant_id, COALESCE(SUM(l.quantity), 0) AS quantity").
		Joins("JOIN order_returns r ON r.id = l.return_id").
		Where("r.order_id = ?", orderID).
		Group("l.variant_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.VariantID] = r.Quantity
	}
	return out, nil
}

func (t *tx) InsertReturn(ctx context.Context, ret *domain.Return) error {
	if ret == nil {
		return errors.New("return is nil")
	}
	record, lines := toReturnRecords(ret)
	ctx, cancel := bound(ctx, t.timeout)
	defer cancel()
	if err := t.db.WithContext(ctx).Create(&record).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	return t.db.WithContext(ctx).Create(&lines).Error
}

func loadOrder(ctx context.Context, db *gorm.DB, id string, lock bool) (*domain.Order, error) {
	query := db.WithContext(ctx)
	if lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var record orderRecord
	if err := query.Take(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	orders, err := attachLines(ctx, db, []orderRecord{record})
	if err != nil {
		return nil, err
	}
	return orders[0], nil
}

func attachLines(ctx context.Context, db *gorm.DB, records []orderRecord) ([]*domain.Order, error) {
	if len(records) == 0 {
		return []*domain.Order{}, nil
	}
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	var lines []orderLineRecord
	if err := db.WithContext(ctx).Where("order_id IN ?", ids).Order("order_id, position").Find(&lines).Error; err != nil {
		return nil, err
	}
	byOrder := map[string][]orderLineRecord{}
	for _, l := range lines {
		byOrder[l.OrderID] = append(byOrder[l.OrderID], l)
	}
	orders := make([]*domain.Order, 0, len(records))
	for _, r := range records {
		orders = append(orders, r.toDomain(byOrder[r.ID]))
	}
	return orders, nil
}

func bound(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// translate maps driver errors onto the sales port errors.
// Serialization failures, deadlocks, lock and statement timeouts and lost connections are transient.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ports.ErrNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %w", ports.ErrTransient, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "40001", pgErr.Code == "40P01", pgErr.Code == "55P03", pgErr.Code == "57014",
			strings.HasPrefix(pgErr.Code, "08"):
			return fmt.Errorf("%w: %w", ports.ErrTransient, err)
		}
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return fmt.Errorf("%w: %w", ports.ErrTransient, err)
	}
	return err
}
