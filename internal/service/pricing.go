package service

import (
	"context"
	"time"

	"vendormart/internal/domain"
	"vendormart/internal/repository"

	"github.com/google/uuid"
)

// PricingOverlay decorates read-side products with their vendor's live
// clearance sale. It never writes; the overlay is recomputed on every read so
// sales appear and disappear at their window edges without any mutation.
type PricingOverlay struct {
	sales repository.ClearanceSaleRepository
	now   func() time.Time
}

// NewPricingOverlay creates a new PricingOverlay
func NewPricingOverlay(sales repository.ClearanceSaleRepository) *PricingOverlay {
	return &PricingOverlay{sales: sales, now: time.Now}
}

// EnrichProduct attaches sale metadata and the computed sale price to a
// single product, when covered by a live sale.
func (p *PricingOverlay) EnrichProduct(ctx context.Context, product *domain.Product) error {
	if product == nil {
		return nil
	}
	return p.EnrichProducts(ctx, []*domain.Product{product})
}

// EnrichProducts enriches a batch in place. Vendor sales are fetched once per
// distinct vendor; products outside any live sale pass through untouched.
func (p *PricingOverlay) EnrichProducts(ctx context.Context, products []*domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	vendors := distinctVendors(products)
	sales, err := p.sales.FindLiveByVendors(ctx, vendors, p.now())
	if err != nil {
		return err
	}
	if len(sales) == 0 {
		return nil
	}

	byVendor := make(map[uuid.UUID]*domain.ClearanceSale, len(sales))
	for _, sale := range sales {
		if sale.Vendor != nil {
			byVendor[*sale.Vendor] = sale
		}
	}

	for _, product := range products {
		sale, ok := byVendor[product.Vendor]
		if !ok {
			continue
		}
		applyOverlay(product, sale)
	}

	return nil
}

func applyOverlay(product *domain.Product, sale *domain.ClearanceSale) {
	member := sale.Member(product.ID)
	if member == nil || !member.IsActive {
		return
	}

	product.ClearanceSale = &domain.SaleOverlay{
		DiscountType:    sale.DiscountType,
		DiscountAmount:  sale.DiscountAmount,
		OfferActiveTime: sale.OfferActiveTime,
		StartTime:       sale.StartTime,
		EndTime:         sale.EndTime,
		MetaTitle:       sale.MetaTitle,
	}

	// A zero amount still yields a sale price (equal to the list price).
	if sale.DiscountType == domain.SaleDiscountFlat {
		price := SalePrice(product.Price, sale.DiscountAmount)
		product.SalePrice = &price
	}
}

// SalePrice computes the discounted price of a flat-type sale. The amount is
// applied as a percentage of price; this formula is part of the persisted
// pricing behavior and must not be changed to a flat subtraction.
func SalePrice(price, discountAmount float64) float64 {
	sale := price - price*(discountAmount/100)
	if sale < 0 {
		return 0
	}
	return sale
}

func distinctVendors(products []*domain.Product) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(products))
	vendors := make([]uuid.UUID, 0, len(products))
	for _, product := range products {
		if _, dup := seen[product.Vendor]; dup {
			continue
		}
		seen[product.Vendor] = struct{}{}
		vendors = append(vendors, product.Vendor)
	}
	return vendors
}
