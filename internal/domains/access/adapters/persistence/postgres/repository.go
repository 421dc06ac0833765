package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/storefront-api/internal/domains/access/domain"
	"github.com/Apurer/storefront-api/internal/domains/access/ports"
)

var _ ports.RoleRepository = (*Repository)(nil)

// Repository persists roles in PostgreSQL using GORM. Schema is owned by platform/migrations.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type roleRecord struct {
	ID        string         `gorm:"primaryKey;column:id;size:64"`
	Name      string         `gorm:"column:name;size:64;not null;uniqueIndex"`
	Ring      int            `gorm:"column:ring;not null;index"`
	Modules   pq.StringArray `gorm:"column:modules;type:text[]"`
	CreatedAt time.Time      `gorm:"column:created_at"`
}

func (roleRecord) TableName() string { return "roles" }

// SeedDefaults inserts the built-in roles, leaving existing rows untouched.
func (r *Repository) SeedDefaults(ctx context.Context, now time.Time) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	defaults := domain.DefaultRoles()
	records := make([]roleRecord, 0, len(defaults))
	for _, role := range defaults {
		role.CreatedAt = now.UTC()
		records = append(records, toRecord(role))
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&records).Error
}

func (r *Repository) Create(ctx context.Context, role *domain.Role) (*domain.Role, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if role == nil {
		return nil, errors.New("role is nil")
	}
	record := toRecord(role)
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ports.ErrDuplicateRole
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Role, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record roleRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) List(ctx context.Context) ([]*domain.Role, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []roleRecord
	if err := r.db.WithContext(ctx).Order("ring ASC").Order("id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.Role, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.toDomain())
	}
	return out, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres repository is not initialized")
	}
	return nil
}

func toRecord(role *domain.Role) roleRecord {
	return roleRecord{
		ID:        role.ID,
		Name:      role.Name,
		Ring:      int(role.Ring),
		Modules:   pq.StringArray(append([]string{}, role.Modules...)),
		CreatedAt: role.CreatedAt,
	}
}

func (r roleRecord) toDomain() *domain.Role {
	return &domain.Role{
		ID:        r.ID,
		Name:      r.Name,
		Ring:      domain.Ring(r.Ring),
		Modules:   append([]string{}, r.Modules...),
		CreatedAt: r.CreatedAt.UTC(),
	}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
