package mapper

import (
	"time"

	"github.com/Apurer/storefront-api/internal/domains/inventory/domain"
	"github.com/Apurer/storefront-api/internal/domains/inventory/ports"
)

// CreateVariantRequest is the body of POST /v1/inventory/variants.
type CreateVariantRequest struct {
	ProductID    string `json:"productId"`
	Size         string `json:"size"`
	SKU          string `json:"sku"`
	InitialStock int    `json:"initialStock"`
}

// RestockRequest is the body of POST /v1/inventory/variants/:variantId/restock.
type RestockRequest struct {
	Quantity int `json:"quantity"`
}

type Variant struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	Size      string    `json:"size"`
	SKU       string    `json:"sku"`
	Stock     int       `json:"stock"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func ToCreateInput(req CreateVariantRequest) ports.CreateVariantInput {
	return ports.CreateVariantInput{
		ProductID:    req.ProductID,
		Size:         req.Size,
		SKU:          req.SKU,
		InitialStock: req.InitialStock,
	}
}

func FromVariant(v *domain.Variant) Variant {
	if v == nil {
		return Variant{}
	}
	return Variant{
		ID:        v.ID,
		ProductID: v.ProductID,
		Size:      string(v.Size),
		SKU:       v.SKU,
		Stock:     v.Stock,
		UpdatedAt: v.UpdatedAt,
	}
}

func FromVariants(list []*domain.Variant) []Variant {
	out := make([]Variant, 0, len(list))
	for _, v := range list {
		out = append(out, FromVariant(v))
	}
	return out
}
