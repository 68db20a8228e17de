package service

import (
	"context"
	"errors"
	"testing"

	"vendormart/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

type catalogFixture struct {
	products   *mockProductRepository
	categories *mockCategoryRepository
	cache      *mockInvalidator
	service    ProductService
	category   uuid.UUID
}

func newCatalogFixture() *catalogFixture {
	products := newMockProductRepository()
	categories := newMockCategoryRepository()
	invalidator := &mockInvalidator{}
	slugs := NewSlugGenerator(products)

	return &catalogFixture{
		products:   products,
		categories: categories,
		cache:      invalidator,
		service:    NewProductService(products, categories, slugs, invalidator),
		category:   categories.addActiveCategory(),
	}
}

func (f *catalogFixture) validInput(name, sku string) CreateProductInput {
	return CreateProductInput{
		Name:        name,
		Description: "description",
		Category:    f.category,
		SKU:         sku,
		Price:       100,
		Quantity:    5,
		Images:      []domain.Media{{URL: "https://cdn.example.com/a.jpg"}},
		Thumbnail:   domain.Media{URL: "https://cdn.example.com/t.jpg"},
	}
}

func TestProperty_CreateQuantityEqualsVariationStockSum(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("quantity is recomputed from variation stocks", prop.ForAll(
		func(stocks []int) bool {
			fixture := newCatalogFixture()
			ctx := context.Background()

			input := fixture.validInput("Widget", "SKU-1")
			input.Quantity = 999 // must be overridden
			expected := 0
			for i, stock := range stocks {
				input.Variations = append(input.Variations, domain.Variation{
					SKU:   "VAR-" + uuid.NewString()[:8] + "-" + string(rune('a'+i)),
					Stock: stock,
				})
				expected += stock
			}

			product, err := fixture.service.Create(ctx, input, uuid.New())
			if err != nil {
				t.Logf("FAIL: Create failed: %v", err)
				return false
			}

			if product.Quantity != expected {
				t.Logf("FAIL: quantity %d, expected %d", product.Quantity, expected)
				return false
			}

			stored, err := fixture.products.FindByID(ctx, product.ID)
			if err != nil {
				t.Logf("FAIL: stored product missing: %v", err)
				return false
			}
			return stored.Quantity == expected
		},
		gen.SliceOfN(3, gen.IntRange(0, 500)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_ContentEditForcesReapproval(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("editing content of an approved product forces pending and hidden", prop.ForAll(
		func(newName string, claimActive bool) bool {
			fixture := newCatalogFixture()
			ctx := context.Background()
			vendor := uuid.New()

			product, err := fixture.service.Create(ctx, fixture.validInput("Original", "SKU-R"), vendor)
			if err != nil {
				t.Logf("FAIL: Create failed: %v", err)
				return false
			}

			// Approve and activate through the admin/vendor paths
			if _, err := fixture.service.AdminSetStatus(ctx, product.ID, domain.StatusApproved, ""); err != nil {
				t.Logf("FAIL: approve failed: %v", err)
				return false
			}
			active := true
			if _, err := fixture.service.Update(ctx, product.ID, UpdateProductInput{IsActive: &active}, vendor); err != nil {
				t.Logf("FAIL: activate failed: %v", err)
				return false
			}

			// Content edit, optionally claiming isActive=true in the same payload
			input := UpdateProductInput{Name: &newName}
			if claimActive {
				input.IsActive = &active
			}
			updated, err := fixture.service.Update(ctx, product.ID, input, vendor)
			if err != nil {
				t.Logf("FAIL: content edit failed: %v", err)
				return false
			}

			if updated.Status != domain.StatusPending {
				t.Logf("FAIL: status %s after content edit, expected pending", updated.Status)
				return false
			}
			if updated.IsActive {
				t.Logf("FAIL: product still active after content edit")
				return false
			}
			return updated.Name == newName
		},
		gen.RegexMatch(`[A-Z][a-z]{3,20}`),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestUpdate_ActivationGate(t *testing.T) {
	fixture := newCatalogFixture()
	ctx := context.Background()
	vendor := uuid.New()

	product, err := fixture.service.Create(ctx, fixture.validInput("Gadget", "SKU-G"), vendor)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	active := true
	_, err = fixture.service.Update(ctx, product.ID, UpdateProductInput{IsActive: &active}, vendor)
	if !errors.Is(err, ErrProductNotApproved) {
		t.Fatalf("expected ErrProductNotApproved for pending product, got %v", err)
	}

	if _, err := fixture.service.AdminSetStatus(ctx, product.ID, domain.StatusApproved, ""); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	updated, err := fixture.service.Update(ctx, product.ID, UpdateProductInput{IsActive: &active}, vendor)
	if err != nil {
		t.Fatalf("activation of approved product failed: %v", err)
	}
	if !updated.IsActive {
		t.Fatal("approved product should be activatable")
	}
}

func TestUpdate_OwnershipRequired(t *testing.T) {
	fixture := newCatalogFixture()
	ctx := context.Background()
	owner := uuid.New()

	product, err := fixture.service.Create(ctx, fixture.validInput("Owned", "SKU-O"), owner)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	name := "Hijacked"
	if _, err := fixture.service.Update(ctx, product.ID, UpdateProductInput{Name: &name}, uuid.New()); !errors.Is(err, ErrForbiddenAccess) {
		t.Fatalf("expected ErrForbiddenAccess for foreign vendor, got %v", err)
	}
	if err := fixture.service.Delete(ctx, product.ID, uuid.New()); !errors.Is(err, ErrForbiddenAccess) {
		t.Fatalf("expected ErrForbiddenAccess on foreign delete, got %v", err)
	}
}

func TestProperty_SlugsStayUnique(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("same-named products receive distinct slugs", prop.ForAll(
		func(name string, count int) bool {
			fixture := newCatalogFixture()
			ctx := context.Background()

			seen := map[string]bool{}
			for i := 0; i < count; i++ {
				product, err := fixture.service.Create(ctx, fixture.validInput(name, uuid.NewString()), uuid.New())
				if err != nil {
					t.Logf("FAIL: Create %d failed: %v", i, err)
					return false
				}
				if seen[product.Slug] {
					t.Logf("FAIL: slug %q assigned twice", product.Slug)
					return false
				}
				seen[product.Slug] = true
			}
			return true
		},
		gen.RegexMatch(`[A-Z][a-z]{2,10}( [a-z]{2,8})?`),
		gen.IntRange(2, 5),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestCreate_Validation(t *testing.T) {
	fixture := newCatalogFixture()
	ctx := context.Background()
	vendor := uuid.New()

	t.Run("unknown category", func(t *testing.T) {
		input := fixture.validInput("P", "SKU-C1")
		input.Category = uuid.New()
		if _, err := fixture.service.Create(ctx, input, vendor); !errors.Is(err, ErrCategoryNotFound) {
			t.Fatalf("expected ErrCategoryNotFound, got %v", err)
		}
	})

	t.Run("inactive category", func(t *testing.T) {
		inactive := uuid.New()
		fixture.categories.categories[inactive] = &domain.Category{ID: inactive, Status: domain.CategoryInactive}
		input := fixture.validInput("P", "SKU-C2")
		input.Category = inactive
		if _, err := fixture.service.Create(ctx, input, vendor); !errors.Is(err, ErrCategoryInactive) {
			t.Fatalf("expected ErrCategoryInactive, got %v", err)
		}
	})

	t.Run("subcategory mismatch", func(t *testing.T) {
		other := fixture.categories.addActiveCategory()
		sub := uuid.New()
		fixture.categories.subcategories[sub] = &domain.SubCategory{ID: sub, Category: other}
		input := fixture.validInput("P", "SKU-C3")
		input.SubCategory = &sub
		if _, err := fixture.service.Create(ctx, input, vendor); !errors.Is(err, ErrSubCategoryMismatch) {
			t.Fatalf("expected ErrSubCategoryMismatch, got %v", err)
		}
	})

	t.Run("duplicate sku", func(t *testing.T) {
		if _, err := fixture.service.Create(ctx, fixture.validInput("P", "SKU-DUP"), vendor); err != nil {
			t.Fatalf("first create failed: %v", err)
		}
		if _, err := fixture.service.Create(ctx, fixture.validInput("Q", "SKU-DUP"), vendor); !errors.Is(err, ErrDuplicateSKU) {
			t.Fatalf("expected ErrDuplicateSKU, got %v", err)
		}
	})

	t.Run("duplicate variation sku in payload", func(t *testing.T) {
		input := fixture.validInput("P", "SKU-C4")
		input.Variations = []domain.Variation{{SKU: "V-1", Stock: 1}, {SKU: "V-1", Stock: 2}}
		if _, err := fixture.service.Create(ctx, input, vendor); !errors.Is(err, ErrDuplicatePayloadSKU) {
			t.Fatalf("expected ErrDuplicatePayloadSKU, got %v", err)
		}
	})

	t.Run("variation sku taken by another product", func(t *testing.T) {
		first := fixture.validInput("P", "SKU-C5")
		first.Variations = []domain.Variation{{SKU: "V-TAKEN", Stock: 1}}
		if _, err := fixture.service.Create(ctx, first, vendor); err != nil {
			t.Fatalf("first create failed: %v", err)
		}
		second := fixture.validInput("Q", "SKU-C6")
		second.Variations = []domain.Variation{{SKU: "V-TAKEN", Stock: 3}}
		if _, err := fixture.service.Create(ctx, second, vendor); !errors.Is(err, ErrDuplicateVariantSKU) {
			t.Fatalf("expected ErrDuplicateVariantSKU, got %v", err)
		}
	})

	t.Run("images required", func(t *testing.T) {
		input := fixture.validInput("P", "SKU-C7")
		input.Images = nil
		if _, err := fixture.service.Create(ctx, input, vendor); !errors.Is(err, ErrImagesRequired) {
			t.Fatalf("expected ErrImagesRequired, got %v", err)
		}
	})

	t.Run("thumbnail required", func(t *testing.T) {
		input := fixture.validInput("P", "SKU-C8")
		input.Thumbnail = domain.Media{}
		if _, err := fixture.service.Create(ctx, input, vendor); !errors.Is(err, ErrThumbnailRequired) {
			t.Fatalf("expected ErrThumbnailRequired, got %v", err)
		}
	})

	t.Run("percent discount over 100", func(t *testing.T) {
		input := fixture.validInput("P", "SKU-C9")
		input.Discount = 101
		input.DiscountType = domain.DiscountPercent
		if _, err := fixture.service.Create(ctx, input, vendor); !errors.Is(err, ErrInvalidDiscount) {
			t.Fatalf("expected ErrInvalidDiscount, got %v", err)
		}
	})

	t.Run("flat discount at or above price", func(t *testing.T) {
		input := fixture.validInput("P", "SKU-C10")
		input.Discount = 100
		input.DiscountType = domain.DiscountFlat
		if _, err := fixture.service.Create(ctx, input, vendor); !errors.Is(err, ErrInvalidDiscount) {
			t.Fatalf("expected ErrInvalidDiscount, got %v", err)
		}
	})
}

func TestAdminSetStatus_RejectionRules(t *testing.T) {
	fixture := newCatalogFixture()
	ctx := context.Background()

	product, err := fixture.service.Create(ctx, fixture.validInput("Judged", "SKU-J"), uuid.New())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Rejection without a reason leaves the product untouched
	if _, err := fixture.service.AdminSetStatus(ctx, product.ID, domain.StatusRejected, "  "); !errors.Is(err, ErrReasonRequired) {
		t.Fatalf("expected ErrReasonRequired, got %v", err)
	}
	stored, _ := fixture.products.FindByID(ctx, product.ID)
	if stored.Status != domain.StatusPending {
		t.Fatalf("status changed on failed rejection: %s", stored.Status)
	}

	rejected, err := fixture.service.AdminSetStatus(ctx, product.ID, domain.StatusRejected, "poor images")
	if err != nil {
		t.Fatalf("rejection failed: %v", err)
	}
	if rejected.RejectionReason != "poor images" || rejected.IsActive {
		t.Fatal("rejection must record the reason and hide the product")
	}

	// Approval clears the reason
	approved, err := fixture.service.AdminSetStatus(ctx, product.ID, domain.StatusApproved, "")
	if err != nil {
		t.Fatalf("approval failed: %v", err)
	}
	if approved.RejectionReason != "" {
		t.Fatal("approval must clear the rejection reason")
	}
	if approved.IsActive {
		t.Fatal("approval must not activate the product")
	}
}

func TestAdminSetStatus_Transitions(t *testing.T) {
	fixture := newCatalogFixture()
	ctx := context.Background()

	product, err := fixture.service.Create(ctx, fixture.validInput("Moved", "SKU-M"), uuid.New())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := fixture.service.AdminSetStatus(ctx, product.ID, "bogus", ""); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}

	// pending cannot go straight to suspended
	if _, err := fixture.service.AdminSetStatus(ctx, product.ID, domain.StatusSuspended, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	// same-status is an idempotent no-op
	if _, err := fixture.service.AdminSetStatus(ctx, product.ID, domain.StatusPending, ""); err != nil {
		t.Fatalf("same-status transition should succeed: %v", err)
	}
}

func TestStats_ByStatusSumsToTotal(t *testing.T) {
	fixture := newCatalogFixture()
	ctx := context.Background()
	vendor := uuid.New()

	for i := 0; i < 4; i++ {
		if _, err := fixture.service.Create(ctx, fixture.validInput("S", uuid.NewString()), vendor); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	stats, err := fixture.service.VendorStats(ctx, vendor)
	if err != nil {
		t.Fatalf("VendorStats failed: %v", err)
	}

	sum := 0
	for _, n := range stats.ByStatus {
		sum += n
	}
	if sum != stats.Total || stats.Total != 4 {
		t.Fatalf("byStatus sum %d, total %d", sum, stats.Total)
	}
}

func TestGetPublicByID_HidesOutOfStockVariations(t *testing.T) {
	fixture := newCatalogFixture()
	ctx := context.Background()

	input := fixture.validInput("Varied", "SKU-V")
	input.Variations = []domain.Variation{
		{SKU: "V-A", Stock: 3},
		{SKU: "V-B", Stock: 0},
		{SKU: "V-C", Stock: 1},
	}
	product, err := fixture.service.Create(ctx, input, uuid.New())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	public, err := fixture.service.GetPublicByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetPublicByID failed: %v", err)
	}
	if len(public.Variations) != 2 {
		t.Fatalf("expected 2 in-stock variations, got %d", len(public.Variations))
	}
	for _, v := range public.Variations {
		if v.Stock == 0 {
			t.Fatalf("zero-stock variation %s leaked into public view", v.SKU)
		}
	}

	// The stored product keeps the full list
	stored, _ := fixture.products.FindByID(ctx, product.ID)
	if len(stored.Variations) != 3 {
		t.Fatalf("stored variations mutated: %d", len(stored.Variations))
	}
}

func TestMutations_InvalidateCache(t *testing.T) {
	fixture := newCatalogFixture()
	ctx := context.Background()
	vendor := uuid.New()

	product, err := fixture.service.Create(ctx, fixture.validInput("Cached", "SKU-CC"), vendor)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	afterCreate := fixture.cache.calls()
	if afterCreate == 0 {
		t.Fatal("create must invalidate cache")
	}

	name := "Renamed"
	if _, err := fixture.service.Update(ctx, product.ID, UpdateProductInput{Name: &name}, vendor); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if fixture.cache.calls() <= afterCreate {
		t.Fatal("update must invalidate cache")
	}
}
