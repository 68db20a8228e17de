package domain

import (
	"time"

	"github.com/google/uuid"
)

// DiscountType is the kind of discount a vendor sets on a single product.
type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountFlat    DiscountType = "flat"
)

// Variation is a purchasable variant of a product (size, color, ...).
// Variation SKUs are globally unique across the whole catalog.
type Variation struct {
	SKU        string            `json:"sku"`
	Stock      int               `json:"stock"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Media is a pre-resolved image reference. Upload handling happens upstream;
// the catalog only ever sees URLs.
type Media struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId,omitempty"`
}

// Product represents a vendor-owned product in the catalog.
//
// The json tags are the persisted compatibility surface and must not change.
type Product struct {
	ID              uuid.UUID     `json:"id"`
	Vendor          uuid.UUID     `json:"vendor"`
	Category        uuid.UUID     `json:"category"`
	SubCategory     *uuid.UUID    `json:"subCategory,omitempty"`
	Name            string        `json:"name"`
	Description     string        `json:"description"`
	Slug            string        `json:"slug"`
	SKU             string        `json:"sku"`
	Price           float64       `json:"price"`
	Discount        float64       `json:"discount"`
	DiscountType    DiscountType  `json:"discountType"`
	Quantity        int           `json:"quantity"`
	Variations      []Variation   `json:"variations,omitempty"`
	Images          []Media       `json:"images"`
	Thumbnail       Media         `json:"thumbnail"`
	SearchTags      []string      `json:"searchTags,omitempty"`
	Status          ProductStatus `json:"status"`
	IsActive        bool          `json:"isActive"`
	IsFeatured      bool          `json:"isFeatured"`
	RejectionReason string        `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`

	// Read-side clearance overlay. Never persisted with the product; attached
	// by the pricing overlay when the owning vendor has a live sale.
	ClearanceSale *SaleOverlay `json:"clearanceSale,omitempty"`
	SalePrice     *float64     `json:"salePrice,omitempty"`
}

// VariationQuantity returns the total stock across all variations.
func (p *Product) VariationQuantity() int {
	sum := 0
	for _, v := range p.Variations {
		sum += v.Stock
	}
	return sum
}

// InStockVariations filters out variations with zero stock for public views.
func (p *Product) InStockVariations() []Variation {
	if len(p.Variations) == 0 {
		return p.Variations
	}
	out := make([]Variation, 0, len(p.Variations))
	for _, v := range p.Variations {
		if v.Stock > 0 {
			out = append(out, v)
		}
	}
	return out
}

// CategoryStatus gates whether a category can receive new products.
type CategoryStatus string

const (
	CategoryActive   CategoryStatus = "active"
	CategoryInactive CategoryStatus = "inactive"
)

// Category represents a top-level product category
type Category struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Status    CategoryStatus `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
}

// SubCategory belongs to exactly one Category.
type SubCategory struct {
	ID        uuid.UUID `json:"id"`
	Category  uuid.UUID `json:"category"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProductStats aggregates catalog counts for dashboards.
type ProductStats struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"byStatus"`
	Active     int            `json:"active"`
	Featured   int            `json:"featured"`
	OutOfStock int            `json:"outOfStock,omitempty"`
	InStock    int            `json:"inStock,omitempty"`
}
