package domain

import (
	"errors"
	"strings"
	"time"
)

// Size enumerates the garment sizes a product variant may carry.
type Size string

const (
	SizeXS Size = "XS"
	SizeS  Size = "S"
	SizeM  Size = "M"
	SizeL  Size = "L"
	SizeXL Size = "XL"
)

var (
	ErrInvalidVariantID  = errors.New("variant id is required")
	ErrInvalidProductID  = errors.New("product id is required")
	ErrInvalidSize       = errors.New("size must be one of XS, S, M, L, XL")
	ErrEmptySKU          = errors.New("sku is required")
	ErrNegativeStock     = errors.New("stock must not be negative")
	ErrInvalidAdjustment = errors.New("stock adjustment must be greater than zero")
)

// Variant is a purchasable product/size combination holding a stock count.
type Variant struct {
	ID        string
	ProductID string
	Size      Size
	SKU       string
	Stock     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewVariant validates and constructs a Variant.
func NewVariant(id, productID string, size Size, sku string, stock int) (*Variant, error) {
	v := &Variant{
		ID:        strings.TrimSpace(id),
		ProductID: strings.TrimSpace(productID),
		Size:      Size(strings.ToUpper(strings.TrimSpace(string(size)))),
		SKU:       strings.TrimSpace(sku),
		Stock:     stock,
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

// Validate enforces the variant invariants.
func (v *Variant) Validate() error {
	if v.ID == "" {
		return ErrInvalidVariantID
	}
	if v.ProductID == "" {
		return ErrInvalidProductID
	}
	if !v.Size.Valid() {
		return ErrInvalidSize
	}
	if v.SKU == "" {
		return ErrEmptySKU
	}
	if v.Stock < 0 {
		return ErrNegativeStock
	}
	return nil
}

// CanCover reports whether the current stock satisfies quantity.
func (v *Variant) CanCover(quantity int) bool {
	return quantity > 0 && v.Stock >= quantity
}

// Valid reports whether s is a known size.
func (s Size) Valid() bool {
	switch s {
	case SizeXS, SizeS, SizeM, SizeL, SizeXL:
		return true
	default:
		return false
	}
}

// ParseSize normalizes user input into a Size.
func ParseSize(raw string) (Size, error) {
	s := Size(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", ErrInvalidSize
	}
	return s, nil
}

// ValidateAdjustment rejects non-positive additive stock movements.
func ValidateAdjustment(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidAdjustment
	}
	return nil
}
