package transport

import (
	"io"
	"strings"
	"time"

	"vendormart/internal/domain"

	"github.com/gocarina/gocsv"
)

// ProductExportRow is one CSV line of a catalog export. Nested structures are
// flattened; variations collapse to a count plus total stock.
type ProductExportRow struct {
	ID              string  `csv:"id"`
	Vendor          string  `csv:"vendor"`
	Name            string  `csv:"name"`
	Slug            string  `csv:"slug"`
	SKU             string  `csv:"sku"`
	Category        string  `csv:"category"`
	SubCategory     string  `csv:"subcategory"`
	Price           float64 `csv:"price"`
	Discount        float64 `csv:"discount"`
	DiscountType    string  `csv:"discount_type"`
	Quantity        int     `csv:"quantity"`
	VariationCount  int     `csv:"variation_count"`
	Status          string  `csv:"status"`
	IsActive        bool    `csv:"is_active"`
	IsFeatured      bool    `csv:"is_featured"`
	RejectionReason string  `csv:"rejection_reason"`
	SearchTags      string  `csv:"search_tags"`
	CreatedAt       string  `csv:"created_at"`
}

// WriteProductCSV writes products to w in CSV form
func WriteProductCSV(w io.Writer, products []*domain.Product) error {
	rows := make([]*ProductExportRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, exportRow(p))
	}
	return gocsv.Marshal(rows, w)
}

func exportRow(p *domain.Product) *ProductExportRow {
	subCategory := ""
	if p.SubCategory != nil {
		subCategory = p.SubCategory.String()
	}

	return &ProductExportRow{
		ID:              p.ID.String(),
		Vendor:          p.Vendor.String(),
		Name:            p.Name,
		Slug:            p.Slug,
		SKU:             p.SKU,
		Category:        p.Category.String(),
		SubCategory:     subCategory,
		Price:           p.Price,
		Discount:        p.Discount,
		DiscountType:    string(p.DiscountType),
		Quantity:        p.Quantity,
		VariationCount:  len(p.Variations),
		Status:          string(p.Status),
		IsActive:        p.IsActive,
		IsFeatured:      p.IsFeatured,
		RejectionReason: p.RejectionReason,
		SearchTags:      strings.Join(p.SearchTags, ";"),
		CreatedAt:       p.CreatedAt.Format(time.RFC3339),
	}
}
