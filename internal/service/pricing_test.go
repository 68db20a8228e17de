package service

import (
	"context"
	"testing"
	"time"

	"vendormart/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

type pricingFixture struct {
	sales   *mockClearanceSaleRepository
	overlay *PricingOverlay
	now     time.Time
}

func newPricingFixture() *pricingFixture {
	sales := newMockClearanceSaleRepository()
	overlay := NewPricingOverlay(sales)
	now := time.Now()
	overlay.now = func() time.Time { return now }
	return &pricingFixture{sales: sales, overlay: overlay, now: now}
}

func (f *pricingFixture) liveSale(vendor uuid.UUID, discountType domain.SaleDiscountType, amount float64, members ...uuid.UUID) {
	ctx := context.Background()
	sale := &domain.ClearanceSale{
		ID:              uuid.New(),
		Vendor:          &vendor,
		IsActive:        true,
		StartDate:       f.now.Add(-time.Hour),
		ExpireDate:      f.now.Add(time.Hour),
		DiscountType:    discountType,
		DiscountAmount:  amount,
		OfferActiveTime: domain.OfferAlways,
		CreatedAt:       f.now,
		UpdatedAt:       f.now,
	}
	f.sales.Create(ctx, sale)
	f.sales.AddProducts(ctx, sale.ID, members)
}

func storeProduct(vendor uuid.UUID, price float64) *domain.Product {
	return &domain.Product{
		ID:     uuid.New(),
		Vendor: vendor,
		Name:   "product",
		Price:  price,
		Status: domain.StatusApproved,
	}
}

func TestEnrichProduct_FlatSalePrice(t *testing.T) {
	fixture := newPricingFixture()
	vendor := uuid.New()
	product := storeProduct(vendor, 200)
	fixture.liveSale(vendor, domain.SaleDiscountFlat, 10, product.ID)

	if err := fixture.overlay.EnrichProduct(context.Background(), product); err != nil {
		t.Fatalf("enrich failed: %v", err)
	}

	if product.ClearanceSale == nil {
		t.Fatal("overlay missing on covered product")
	}
	if product.SalePrice == nil {
		t.Fatal("sale price missing for flat sale")
	}
	if *product.SalePrice != 180 {
		t.Fatalf("sale price %v, expected 180", *product.SalePrice)
	}
	if product.Price != 200 {
		t.Fatalf("vendor price mutated: %v", product.Price)
	}
}

func TestEnrichProduct_ZeroAmountFlatSaleStillPrices(t *testing.T) {
	fixture := newPricingFixture()
	vendor := uuid.New()
	product := storeProduct(vendor, 200)
	fixture.liveSale(vendor, domain.SaleDiscountFlat, 0, product.ID)

	if err := fixture.overlay.EnrichProduct(context.Background(), product); err != nil {
		t.Fatalf("enrich failed: %v", err)
	}

	if product.SalePrice == nil {
		t.Fatal("flat sale with amount 0 must still set a sale price")
	}
	if *product.SalePrice != product.Price {
		t.Fatalf("sale price %v, expected the list price %v", *product.SalePrice, product.Price)
	}
}

func TestEnrichProduct_ProductWiseAttachesNoPrice(t *testing.T) {
	fixture := newPricingFixture()
	vendor := uuid.New()
	product := storeProduct(vendor, 200)
	fixture.liveSale(vendor, domain.SaleDiscountProductWise, 10, product.ID)

	if err := fixture.overlay.EnrichProduct(context.Background(), product); err != nil {
		t.Fatalf("enrich failed: %v", err)
	}

	if product.ClearanceSale == nil {
		t.Fatal("overlay metadata missing")
	}
	if product.SalePrice != nil {
		t.Fatal("product_wise sale must not compute a sale price")
	}
}

func TestEnrichProduct_InactiveMemberGetsNoOverlay(t *testing.T) {
	fixture := newPricingFixture()
	ctx := context.Background()
	vendor := uuid.New()
	product := storeProduct(vendor, 200)
	fixture.liveSale(vendor, domain.SaleDiscountFlat, 10, product.ID)

	sale, err := fixture.sales.FindByOwner(ctx, vendor.String())
	if err != nil {
		t.Fatalf("sale lookup failed: %v", err)
	}
	if err := fixture.sales.SetProductActive(ctx, sale.ID, product.ID, false); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}

	if err := fixture.overlay.EnrichProduct(ctx, product); err != nil {
		t.Fatalf("enrich failed: %v", err)
	}
	if product.ClearanceSale != nil || product.SalePrice != nil {
		t.Fatal("inactive member must not receive an overlay")
	}
}

func TestEnrichProduct_NonMemberUntouched(t *testing.T) {
	fixture := newPricingFixture()
	vendor := uuid.New()
	member := storeProduct(vendor, 100)
	outsider := storeProduct(vendor, 100)
	fixture.liveSale(vendor, domain.SaleDiscountFlat, 50, member.ID)

	if err := fixture.overlay.EnrichProducts(context.Background(), []*domain.Product{member, outsider}); err != nil {
		t.Fatalf("enrich failed: %v", err)
	}

	if member.SalePrice == nil {
		t.Fatal("member should carry a sale price")
	}
	if outsider.ClearanceSale != nil || outsider.SalePrice != nil {
		t.Fatal("non-member must pass through untouched")
	}
}

func TestEnrichProducts_OutsideWindowIsNoop(t *testing.T) {
	fixture := newPricingFixture()
	ctx := context.Background()
	vendor := uuid.New()
	product := storeProduct(vendor, 200)

	sale := &domain.ClearanceSale{
		ID:             uuid.New(),
		Vendor:         &vendor,
		IsActive:       true,
		StartDate:      fixture.now.Add(-3 * time.Hour),
		ExpireDate:     fixture.now.Add(-time.Hour),
		DiscountType:   domain.SaleDiscountFlat,
		DiscountAmount: 10,
	}
	fixture.sales.Create(ctx, sale)
	fixture.sales.AddProducts(ctx, sale.ID, []uuid.UUID{product.ID})

	if err := fixture.overlay.EnrichProduct(ctx, product); err != nil {
		t.Fatalf("enrich failed: %v", err)
	}
	if product.ClearanceSale != nil || product.SalePrice != nil {
		t.Fatal("expired sale must not decorate products")
	}
}

func TestProperty_EnrichPreservesShapeAndFloorsAtZero(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("enrichment keeps order and fields, sale price in [0, price]", prop.ForAll(
		func(prices []float64, amount float64) bool {
			fixture := newPricingFixture()
			vendor := uuid.New()

			products := make([]*domain.Product, 0, len(prices))
			memberIDs := make([]uuid.UUID, 0, len(prices))
			for _, price := range prices {
				p := storeProduct(vendor, price)
				products = append(products, p)
				memberIDs = append(memberIDs, p.ID)
			}
			fixture.liveSale(vendor, domain.SaleDiscountFlat, amount, memberIDs...)

			originalIDs := make([]uuid.UUID, len(products))
			for i, p := range products {
				originalIDs[i] = p.ID
			}

			if err := fixture.overlay.EnrichProducts(context.Background(), products); err != nil {
				t.Logf("FAIL: enrich failed: %v", err)
				return false
			}

			for i, p := range products {
				if p.ID != originalIDs[i] {
					t.Logf("FAIL: product order changed at %d", i)
					return false
				}
				if p.Price != prices[i] {
					t.Logf("FAIL: vendor price mutated at %d", i)
					return false
				}
				if p.SalePrice == nil {
					t.Logf("FAIL: sale price missing at %d", i)
					return false
				}
				if *p.SalePrice < 0 || *p.SalePrice > p.Price {
					t.Logf("FAIL: sale price %v outside [0, %v]", *p.SalePrice, p.Price)
					return false
				}
			}
			return true
		},
		gen.SliceOfN(4, gen.Float64Range(0.01, 10000)),
		gen.Float64Range(0.01, 100),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestSalePrice_Formula(t *testing.T) {
	cases := []struct {
		price, amount, want float64
	}{
		{200, 10, 180},
		{200, 0, 200},
		{100, 100, 0},
		{50, 0.5, 49.75},
		{80, 25, 60},
	}
	for _, tc := range cases {
		if got := SalePrice(tc.price, tc.amount); got != tc.want {
			t.Errorf("SalePrice(%v, %v) = %v, want %v", tc.price, tc.amount, got, tc.want)
		}
	}
}
