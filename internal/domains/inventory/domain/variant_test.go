package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVariant_NormalizesInput(t *testing.T) {
	v, err := NewVariant(" v-1 ", "p-1", "xl", "  TSHIRT-XL ", 4)
	require.NoError(t, err)
	assert.Equal(t, "v-1", v.ID)
	assert.Equal(t, SizeXL, v.Size)
	assert.Equal(t, "TSHIRT-XL", v.SKU)
}

func TestNewVariant_RejectsInvalid(t *testing.T) {
	cases := []struct {
		name    string
		id      string
		product string
		size    Size
		sku     string
		stock   int
		want    error
	}{
		{"missing id", "", "p", SizeM, "sku", 0, ErrInvalidVariantID},
		{"missing product", "v", "", SizeM, "sku", 0, ErrInvalidProductID},
		{"bad size", "v", "p", "XXL", "sku", 0, ErrInvalidSize},
		{"missing sku", "v", "p", SizeM, " ", 0, ErrEmptySKU},
		{"negative stock", "v", "p", SizeM, "sku", -1, ErrNegativeStock},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewVariant(tc.id, tc.product, tc.size, tc.sku, tc.stock)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestVariant_CanCover(t *testing.T) {
	v := &Variant{Stock: 3}
	assert.True(t, v.CanCover(3))
	assert.False(t, v.CanCover(4))
	assert.False(t, v.CanCover(0))
}

func TestParseSize(t *testing.T) {
	size, err := ParseSize(" s ")
	require.NoError(t, err)
	assert.Equal(t, SizeS, size)

	_, err = ParseSize("XXS")
	require.ErrorIs(t, err, ErrInvalidSize)
}
