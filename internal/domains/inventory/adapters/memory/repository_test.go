package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/storefront-api/internal/domains/inventory/domain"
	"github.com/Apurer/storefront-api/internal/domains/inventory/ports"
)

func seed(t *testing.T, repo *Repository, id, sku string, size domain.Size, stock int) {
	t.Helper()
	v, err := domain.NewVariant(id, "prod-1", size, sku, stock)
	require.NoError(t, err)
	_, err = repo.Create(context.Background(), v)
	require.NoError(t, err)
}

func TestRepository_CreateRejectsDuplicates(t *testing.T) {
	repo := NewRepository()
	seed(t, repo, "v1", "SKU-M", domain.SizeM, 1)

	dupSKU, err := domain.NewVariant("v2", "prod-2", domain.SizeL, "SKU-M", 1)
	require.NoError(t, err)
	_, err = repo.Create(context.Background(), dupSKU)
	require.ErrorIs(t, err, ports.ErrDuplicateSKU)

	dupSize, err := domain.NewVariant("v3", "prod-1", domain.SizeM, "SKU-OTHER", 1)
	require.NoError(t, err)
	_, err = repo.Create(context.Background(), dupSize)
	require.ErrorIs(t, err, ports.ErrDuplicateSKU)
}

func TestRepository_TryDecrementIsConditional(t *testing.T) {
	repo := NewRepository()
	seed(t, repo, "v1", "SKU-M", domain.SizeM, 2)
	ctx := context.Background()

	ok, err := repo.TryDecrement(ctx, "v1", 3)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.TryDecrement(ctx, "v1", 2)
	require.NoError(t, err)
	assert.True(t, ok)

	stock, err := repo.Available(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, 0, stock)

	_, err = repo.TryDecrement(ctx, "missing", 1)
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRepository_AtomicallyDiscardsOnError(t *testing.T) {
	repo := NewRepository()
	seed(t, repo, "v1", "SKU-M", domain.SizeM, 5)
	ctx := context.Background()

	boom := errors.New("boom")
	err := repo.Atomically(ctx, func(ledger ports.StockLedger) error {
		ok, err := ledger.TryDecrement(ctx, "v1", 4)
		require.NoError(t, err)
		require.True(t, ok)
		staged, err := ledger.Available(ctx, "v1")
		require.NoError(t, err)
		require.Equal(t, 1, staged)
		return boom
	})
	require.ErrorIs(t, err, boom)

	stock, err := repo.Available(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, 5, stock)
}

func TestRepository_ConcurrentDecrementsNeverOversell(t *testing.T) {
	repo := NewRepository()
	seed(t, repo, "v1", "SKU-M", domain.SizeM, 10)
	ctx := context.Background()

	var wg sync.WaitGroup
	var succeeded int64
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.TryDecrement(ctx, "v1", 1)
			if err == nil && ok {
				atomic.AddInt64(&succeeded, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(10), succeeded)
	stock, err := repo.Available(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, 0, stock)
}

func TestRepository_RestockAndLowStock(t *testing.T) {
	repo := NewRepository()
	seed(t, repo, "v1", "SKU-A", domain.SizeS, 1)
	seed(t, repo, "v2", "SKU-B", domain.SizeM, 20)
	ctx := context.Background()

	low, err := repo.ListLowStock(ctx, 5)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "v1", low[0].ID)

	updated, err := repo.Restock(ctx, "v1", 9)
	require.NoError(t, err)
	assert.Equal(t, 10, updated.Stock)

	low, err = repo.ListLowStock(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, low)

	_, err = repo.Restock(ctx, "missing", 1)
	require.ErrorIs(t, err, ports.ErrNotFound)
}
