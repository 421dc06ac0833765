package application

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/storefront-api/internal/domains/inventory/adapters/memory"
	"github.com/Apurer/storefront-api/internal/domains/inventory/domain"
	"github.com/Apurer/storefront-api/internal/domains/inventory/ports"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("variant-%d", n)
	}
}

func TestCreateVariant_Persists(t *testing.T) {
	svc := NewService(memory.NewRepository(), WithIDGenerator(sequentialIDs()))

	v, err := svc.CreateVariant(context.Background(), ports.CreateVariantInput{
		ProductID: "hoodie", Size: "m", SKU: "HOODIE-M", InitialStock: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, "variant-1", v.ID)
	assert.Equal(t, domain.SizeM, v.Size)

	fetched, err := svc.GetVariant(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, fetched.Stock)
}

func TestCreateVariant_InvalidInput(t *testing.T) {
	svc := NewService(memory.NewRepository())

	_, err := svc.CreateVariant(context.Background(), ports.CreateVariantInput{
		ProductID: "hoodie", Size: "XXL", SKU: "HOODIE-XXL",
	})
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, err, domain.ErrInvalidSize)

	_, err = svc.CreateVariant(context.Background(), ports.CreateVariantInput{
		ProductID: "hoodie", Size: "S", SKU: "HOODIE-S", InitialStock: -2,
	})
	require.ErrorIs(t, err, domain.ErrNegativeStock)
}

func TestRestock_IsAdditive(t *testing.T) {
	svc := NewService(memory.NewRepository(), WithIDGenerator(sequentialIDs()))
	ctx := context.Background()
	v, err := svc.CreateVariant(ctx, ports.CreateVariantInput{ProductID: "tee", Size: "L", SKU: "TEE-L", InitialStock: 2})
	require.NoError(t, err)

	updated, err := svc.Restock(ctx, v.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Stock)

	_, err = svc.Restock(ctx, v.ID, 0)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Restock(ctx, "ghost", 1)
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestLowStock(t *testing.T) {
	svc := NewService(memory.NewRepository(), WithIDGenerator(sequentialIDs()))
	ctx := context.Background()
	_, err := svc.CreateVariant(ctx, ports.CreateVariantInput{ProductID: "tee", Size: "S", SKU: "TEE-S", InitialStock: 1})
	require.NoError(t, err)
	_, err = svc.CreateVariant(ctx, ports.CreateVariantInput{ProductID: "tee", Size: "M", SKU: "TEE-M", InitialStock: 40})
	require.NoError(t, err)

	low, err := svc.LowStock(ctx, 5)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "TEE-S", low[0].SKU)

	_, err = svc.LowStock(ctx, -1)
	require.ErrorIs(t, err, ErrInvalidInput)
}
