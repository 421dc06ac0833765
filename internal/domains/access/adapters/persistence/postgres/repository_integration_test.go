//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/Apurer/storefront-api/internal/domains/access/domain"
	"github.com/Apurer/storefront-api/internal/domains/access/ports"
	"github.com/Apurer/storefront-api/internal/platform/migrations"
	platformpostgres "github.com/Apurer/storefront-api/internal/platform/postgres"
)

func setupRolesPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("storefront_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := platformpostgres.Connect(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, migrations.Run(db))

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}
	return db, cleanup
}

func TestRoleRepository_SeedCreateList(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	db, cleanup := setupRolesPostgresContainer(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewRepository(db)
	now := time.Now().UTC()

	require.NoError(t, repo.SeedDefaults(ctx, now))
	require.NoError(t, repo.SeedDefaults(ctx, now))

	cashier, err := repo.GetByID(ctx, "cashier")
	require.NoError(t, err)
	assert.Equal(t, domain.RingCashier, cashier.Ring)
	assert.Equal(t, []string{"sales"}, cashier.Modules)

	role, err := domain.NewRole("auditor", "Auditor", domain.RingManager, []string{"reports"})
	require.NoError(t, err)
	role.CreatedAt = now
	_, err = repo.Create(ctx, role)
	require.NoError(t, err)
	_, err = repo.Create(ctx, role)
	assert.ErrorIs(t, err, ports.ErrDuplicateRole)

	roles, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 5)
	assert.Equal(t, "admin", roles[0].ID)
	assert.Equal(t, "auditor", roles[1].ID)
	assert.Equal(t, "user", roles[4].ID)

	_, err = repo.GetByID(ctx, "ghost")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}
