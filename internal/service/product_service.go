package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vendormart/internal/cache"
	"vendormart/internal/domain"
	"vendormart/internal/repository"

	"github.com/google/uuid"
)

// CreateProductInput is the full payload for a new product. Body-level schema
// checks happen upstream; this layer enforces the catalog invariants.
type CreateProductInput struct {
	Name         string
	Description  string
	Category     uuid.UUID
	SubCategory  *uuid.UUID
	SKU          string
	Price        float64
	Discount     float64
	DiscountType domain.DiscountType
	Quantity     int
	Variations   []domain.Variation
	Images       []domain.Media
	Thumbnail    domain.Media
	SearchTags   []string
}

// UpdateProductInput is a partial product edit. Nil fields are untouched.
type UpdateProductInput struct {
	Name         *string
	Description  *string
	Category     *uuid.UUID
	SubCategory  *uuid.UUID
	Price        *float64
	Discount     *float64
	DiscountType *domain.DiscountType
	Variations   []domain.Variation
	Images       []domain.Media
	Thumbnail    *domain.Media
	SearchTags   []string
	IsActive     *bool
}

// contentTouched reports whether the edit changes reviewable content, which
// forces an approved product back to pending.
func (in UpdateProductInput) contentTouched() bool {
	return in.Name != nil || in.Description != nil || in.Price != nil ||
		in.Category != nil || in.SubCategory != nil || in.Images != nil ||
		in.Variations != nil || in.Discount != nil
}

// ListOptions control pagination and ordering of product listings.
type ListOptions struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder repository.SortOrder
}

func (o ListOptions) normalized() ListOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.Limit < 1 {
		o.Limit = 20
	}
	if o.Limit > 100 {
		o.Limit = 100
	}
	return o
}

// Pagination describes one page of a listing.
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// ProductPage is one page of products plus pagination metadata.
type ProductPage struct {
	Products   []*domain.Product `json:"products"`
	Pagination Pagination        `json:"pagination"`
}

// ProductService defines the product catalog business logic.
type ProductService interface {
	// Vendor operations
	Create(ctx context.Context, input CreateProductInput, vendor uuid.UUID) (*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateProductInput, vendor uuid.UUID) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID, vendor uuid.UUID) error
	ListVendor(ctx context.Context, vendor uuid.UUID, opts ListOptions) (*ProductPage, error)
	VendorStats(ctx context.Context, vendor uuid.UUID) (*domain.ProductStats, error)
	ExportVendor(ctx context.Context, vendor uuid.UUID) ([]*domain.Product, error)

	// Public operations
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	GetPublicByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	ListPublic(ctx context.Context, category *uuid.UUID, opts ListOptions) (*ProductPage, error)
	Search(ctx context.Context, query string, limit int) ([]*domain.Product, error)
	Featured(ctx context.Context, limit int) ([]*domain.Product, error)
	Similar(ctx context.Context, id uuid.UUID, limit int) ([]*domain.Product, error)

	// Admin operations (bypass ownership)
	AdminUpdate(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*domain.Product, error)
	AdminSetStatus(ctx context.Context, id uuid.UUID, status domain.ProductStatus, reason string) (*domain.Product, error)
	AdminSetFeatured(ctx context.Context, id uuid.UUID, featured bool) (*domain.Product, error)
	AdminDelete(ctx context.Context, id uuid.UUID) error
	AdminList(ctx context.Context, filter repository.ProductFilter, opts ListOptions) (*ProductPage, error)
	AdminStats(ctx context.Context) (*domain.ProductStats, error)
	ExportAdmin(ctx context.Context) ([]*domain.Product, error)
}

type productService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	slugs      *SlugGenerator
	cache      cache.Invalidator
}

// NewProductService creates a new instance of ProductService
func NewProductService(
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	slugs *SlugGenerator,
	invalidator cache.Invalidator,
) ProductService {
	return &productService{
		products:   products,
		categories: categories,
		slugs:      slugs,
		cache:      invalidator,
	}
}

// Create validates the full payload and persists a new pending product.
// Validation runs to completion before the single write; a failed step means
// nothing was persisted.
func (s *productService) Create(ctx context.Context, input CreateProductInput, vendor uuid.UUID) (*domain.Product, error) {
	if err := s.validateCategory(ctx, input.Category); err != nil {
		return nil, err
	}
	if input.SubCategory != nil {
		if err := s.validateSubCategory(ctx, *input.SubCategory, input.Category); err != nil {
			return nil, err
		}
	}

	slug, err := s.slugs.Generate(ctx, input.Name)
	if err != nil {
		return nil, err
	}

	if _, err := s.products.FindBySKU(ctx, input.SKU); err == nil {
		return nil, ErrDuplicateSKU
	} else if !errors.Is(err, repository.ErrProductNotFound) {
		return nil, fmt.Errorf("failed to check sku: %w", err)
	}

	quantity := input.Quantity
	if len(input.Variations) > 0 {
		if err := s.validateVariationSKUs(ctx, input.Variations, uuid.Nil); err != nil {
			return nil, err
		}
		quantity = sumStock(input.Variations)
	}

	if len(input.Images) == 0 {
		return nil, ErrImagesRequired
	}
	if strings.TrimSpace(input.Thumbnail.URL) == "" {
		return nil, ErrThumbnailRequired
	}

	if err := validateDiscount(input.Discount, input.DiscountType, input.Price); err != nil {
		return nil, err
	}

	now := time.Now()
	product := &domain.Product{
		ID:           uuid.New(),
		Vendor:       vendor,
		Category:     input.Category,
		SubCategory:  input.SubCategory,
		Name:         input.Name,
		Description:  input.Description,
		Slug:         slug,
		SKU:          input.SKU,
		Price:        input.Price,
		Discount:     input.Discount,
		DiscountType: input.DiscountType,
		Quantity:     quantity,
		Variations:   input.Variations,
		Images:       input.Images,
		Thumbnail:    input.Thumbnail,
		SearchTags:   input.SearchTags,
		Status:       domain.StatusPending,
		IsActive:     false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, cache.ProductPatterns()...)
	return product, nil
}

// Update applies a partial vendor edit. Editing reviewable content of an
// approved product forces it back to pending and hidden, regardless of any
// isActive value in the payload.
func (s *productService) Update(ctx context.Context, id uuid.UUID, input UpdateProductInput, vendor uuid.UUID) (*domain.Product, error) {
	product, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if product.Vendor != vendor {
		return nil, ErrForbiddenAccess
	}

	return s.applyUpdate(ctx, product, input, false)
}

// AdminUpdate applies a partial edit without ownership or re-approval rules.
func (s *productService) AdminUpdate(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*domain.Product, error) {
	product, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.applyUpdate(ctx, product, input, true)
}

func (s *productService) applyUpdate(ctx context.Context, product *domain.Product, input UpdateProductInput, admin bool) (*domain.Product, error) {
	forceReapproval := !admin && product.Status == domain.StatusApproved && input.contentTouched()

	if input.Category != nil {
		if err := s.validateCategory(ctx, *input.Category); err != nil {
			return nil, err
		}
	}
	if input.SubCategory != nil {
		// The mismatch check runs against the new category when one is
		// supplied, else the product's existing category.
		parent := product.Category
		if input.Category != nil {
			parent = *input.Category
		}
		if err := s.validateSubCategory(ctx, *input.SubCategory, parent); err != nil {
			return nil, err
		}
	}

	if input.Discount != nil && *input.Discount > 0 {
		price := product.Price
		if input.Price != nil {
			price = *input.Price
		}
		discountType := product.DiscountType
		if input.DiscountType != nil {
			discountType = *input.DiscountType
		}
		if err := validateDiscount(*input.Discount, discountType, price); err != nil {
			return nil, err
		}
	}

	if input.Images != nil && len(input.Images) == 0 {
		return nil, ErrImagesRequired
	}

	if len(input.Variations) > 0 {
		if err := s.validateVariationSKUs(ctx, input.Variations, product.ID); err != nil {
			return nil, err
		}
	}

	// All validation passed; mutate the in-memory copy and write once.
	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.SubCategory != nil {
		product.SubCategory = input.SubCategory
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.Discount != nil {
		product.Discount = *input.Discount
	}
	if input.DiscountType != nil {
		product.DiscountType = *input.DiscountType
	}
	if input.Images != nil {
		product.Images = input.Images
	}
	if input.Thumbnail != nil {
		product.Thumbnail = *input.Thumbnail
	}
	if input.SearchTags != nil {
		product.SearchTags = input.SearchTags
	}
	if input.Variations != nil {
		product.Variations = input.Variations
		if len(input.Variations) > 0 {
			product.Quantity = sumStock(input.Variations)
		}
	}

	if forceReapproval {
		product.Status = domain.StatusPending
		product.IsActive = false
	} else if input.IsActive != nil {
		if *input.IsActive && !admin && !product.Status.CanActivate() {
			return nil, ErrProductNotApproved
		}
		product.IsActive = *input.IsActive
	}

	product.UpdatedAt = time.Now()

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, cache.ProductPatterns()...)
	return product, nil
}

// AdminSetStatus moves a product through the review state machine. Rejection
// requires a reason and hides the product; approval clears any prior reason
// but does not activate — the vendor decides launch timing.
func (s *productService) AdminSetStatus(ctx context.Context, id uuid.UUID, status domain.ProductStatus, reason string) (*domain.Product, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	product, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if status == domain.StatusRejected && strings.TrimSpace(reason) == "" {
		return nil, ErrReasonRequired
	}

	if !domain.CanTransition(product.Status, status) {
		return nil, ErrInvalidTransition
	}

	product.Status = status
	switch status {
	case domain.StatusRejected:
		product.RejectionReason = reason
		product.IsActive = false
	case domain.StatusApproved:
		product.RejectionReason = ""
	}
	product.UpdatedAt = time.Now()

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, cache.ProductPatterns()...)
	return product, nil
}

// AdminSetFeatured flips the featured flag
func (s *productService) AdminSetFeatured(ctx context.Context, id uuid.UUID, featured bool) (*domain.Product, error) {
	product, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	product.IsFeatured = featured
	product.UpdatedAt = time.Now()

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, cache.ProductPatterns()...)
	return product, nil
}

// Delete removes a vendor's own product
func (s *productService) Delete(ctx context.Context, id uuid.UUID, vendor uuid.UUID) error {
	product, err := s.findProduct(ctx, id)
	if err != nil {
		return err
	}

	if product.Vendor != vendor {
		return ErrForbiddenAccess
	}

	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}

	s.cache.Invalidate(ctx, cache.ProductPatterns()...)
	return nil
}

// AdminDelete removes any product without ownership checks
func (s *productService) AdminDelete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.findProduct(ctx, id); err != nil {
		return err
	}

	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}

	s.cache.Invalidate(ctx, cache.ProductPatterns()...)
	return nil
}

// GetByID retrieves a product for its owner or an admin view
func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.findProduct(ctx, id)
}

// GetPublicByID retrieves a product for the storefront, hiding variations
// with zero stock.
func (s *productService) GetPublicByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	product.Variations = product.InStockVariations()
	return product, nil
}

// ListVendor pages through a vendor's own products
func (s *productService) ListVendor(ctx context.Context, vendor uuid.UUID, opts ListOptions) (*ProductPage, error) {
	opts = opts.normalized()
	filter := repository.ProductFilter{Vendor: &vendor}
	return s.page(ctx, filter, opts)
}

// ListPublic pages through approved, active products
func (s *productService) ListPublic(ctx context.Context, category *uuid.UUID, opts ListOptions) (*ProductPage, error) {
	opts = opts.normalized()
	approved := domain.StatusApproved
	active := true
	filter := repository.ProductFilter{
		Status:   &approved,
		IsActive: &active,
		Category: category,
	}
	return s.page(ctx, filter, opts)
}

// AdminList pages through the raw catalog with an arbitrary filter
func (s *productService) AdminList(ctx context.Context, filter repository.ProductFilter, opts ListOptions) (*ProductPage, error) {
	opts = opts.normalized()
	return s.page(ctx, filter, opts)
}

// Search returns lightweight matches for the storefront search bar. Queries
// under two characters return nothing.
func (s *productService) Search(ctx context.Context, query string, limit int) ([]*domain.Product, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return []*domain.Product{}, nil
	}
	if limit < 1 {
		limit = 20
	}

	approved := domain.StatusApproved
	active := true
	filter := repository.ProductFilter{
		Status:      &approved,
		IsActive:    &active,
		InStockOnly: true,
		Search:      query,
	}

	products, _, err := s.products.List(ctx, filter, 1, limit, "created_at", repository.SortOrderDesc)
	return products, err
}

// Featured returns the storefront's featured products
func (s *productService) Featured(ctx context.Context, limit int) ([]*domain.Product, error) {
	if limit < 1 {
		limit = 10
	}

	approved := domain.StatusApproved
	active := true
	featured := true
	filter := repository.ProductFilter{
		Status:      &approved,
		IsActive:    &active,
		IsFeatured:  &featured,
		InStockOnly: true,
	}

	products, _, err := s.products.List(ctx, filter, 1, limit, "created_at", repository.SortOrderDesc)
	return products, err
}

// Similar returns products sharing search tags with the given product, or
// same-category products when it has no tags.
func (s *productService) Similar(ctx context.Context, id uuid.UUID, limit int) ([]*domain.Product, error) {
	if limit < 1 {
		limit = 10
	}

	current, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	approved := domain.StatusApproved
	active := true
	filter := repository.ProductFilter{
		Status:      &approved,
		IsActive:    &active,
		InStockOnly: true,
		ExcludeID:   &id,
	}

	if len(current.SearchTags) > 0 {
		filter.TagsAny = current.SearchTags
	} else {
		filter.Category = &current.Category
	}

	products, _, err := s.products.List(ctx, filter, 1, limit, "created_at", repository.SortOrderDesc)
	return products, err
}

// VendorStats aggregates a vendor's product counts for the dashboard
func (s *productService) VendorStats(ctx context.Context, vendor uuid.UUID) (*domain.ProductStats, error) {
	return s.stats(ctx, &vendor, false)
}

// AdminStats aggregates catalog-wide counts including stock coverage
func (s *productService) AdminStats(ctx context.Context) (*domain.ProductStats, error) {
	return s.stats(ctx, nil, true)
}

// ExportVendor returns all of a vendor's products for CSV export
func (s *productService) ExportVendor(ctx context.Context, vendor uuid.UUID) ([]*domain.Product, error) {
	products, _, err := s.products.List(ctx, repository.ProductFilter{Vendor: &vendor}, 1, exportLimit, "created_at", repository.SortOrderDesc)
	return products, err
}

// ExportAdmin returns the full catalog for CSV export
func (s *productService) ExportAdmin(ctx context.Context) ([]*domain.Product, error) {
	products, _, err := s.products.List(ctx, repository.ProductFilter{}, 1, exportLimit, "created_at", repository.SortOrderDesc)
	return products, err
}

const exportLimit = 10000

func (s *productService) page(ctx context.Context, filter repository.ProductFilter, opts ListOptions) (*ProductPage, error) {
	products, total, err := s.products.List(ctx, filter, opts.Page, opts.Limit, opts.SortBy, opts.SortOrder)
	if err != nil {
		return nil, err
	}

	pages := total / opts.Limit
	if total%opts.Limit > 0 {
		pages++
	}

	return &ProductPage{
		Products: products,
		Pagination: Pagination{
			Total: total,
			Page:  opts.Page,
			Limit: opts.Limit,
			Pages: pages,
		},
	}, nil
}

func (s *productService) stats(ctx context.Context, vendor *uuid.UUID, includeStock bool) (*domain.ProductStats, error) {
	base := repository.ProductFilter{Vendor: vendor}

	count := func(mutate func(*repository.ProductFilter)) (int, error) {
		f := base
		if mutate != nil {
			mutate(&f)
		}
		return s.products.Count(ctx, f)
	}

	total, err := count(nil)
	if err != nil {
		return nil, err
	}

	byStatus := map[string]int{}
	for _, status := range []domain.ProductStatus{
		domain.StatusPending, domain.StatusApproved, domain.StatusRejected, domain.StatusSuspended,
	} {
		st := status
		n, err := count(func(f *repository.ProductFilter) { f.Status = &st })
		if err != nil {
			return nil, err
		}
		byStatus[string(status)] = n
	}

	active := true
	activeCount, err := count(func(f *repository.ProductFilter) { f.IsActive = &active })
	if err != nil {
		return nil, err
	}

	featured := true
	featuredCount, err := count(func(f *repository.ProductFilter) { f.IsFeatured = &featured })
	if err != nil {
		return nil, err
	}

	stats := &domain.ProductStats{
		Total:    total,
		ByStatus: byStatus,
		Active:   activeCount,
		Featured: featuredCount,
	}

	if includeStock {
		outOfStock, err := count(func(f *repository.ProductFilter) { f.OutOfStockOnly = true })
		if err != nil {
			return nil, err
		}
		stats.OutOfStock = outOfStock
		stats.InStock = total - outOfStock
	}

	return stats, nil
}

func (s *productService) findProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *productService) validateCategory(ctx context.Context, id uuid.UUID) error {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}
	if category.Status != domain.CategoryActive {
		return ErrCategoryInactive
	}
	return nil
}

func (s *productService) validateSubCategory(ctx context.Context, id, parent uuid.UUID) error {
	sub, err := s.categories.FindSubCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSubCategoryNotFound) {
			return ErrSubCategoryNotFound
		}
		return err
	}
	if sub.Category != parent {
		return ErrSubCategoryMismatch
	}
	return nil
}

// validateVariationSKUs rejects duplicate SKUs inside the payload and SKUs
// already used by another product's variations.
func (s *productService) validateVariationSKUs(ctx context.Context, variations []domain.Variation, exclude uuid.UUID) error {
	seen := make(map[string]struct{}, len(variations))
	for _, v := range variations {
		if _, dup := seen[v.SKU]; dup {
			return ErrDuplicatePayloadSKU
		}
		seen[v.SKU] = struct{}{}
	}

	for _, v := range variations {
		if _, err := s.products.FindByVariationSKU(ctx, v.SKU, exclude); err == nil {
			return ErrDuplicateVariantSKU
		} else if !errors.Is(err, repository.ErrProductNotFound) {
			return fmt.Errorf("failed to check variation sku: %w", err)
		}
	}

	return nil
}

func validateDiscount(discount float64, discountType domain.DiscountType, price float64) error {
	if discount <= 0 {
		return nil
	}
	if discountType == domain.DiscountPercent && discount > 100 {
		return ErrInvalidDiscount
	}
	if discountType == domain.DiscountFlat && discount >= price {
		return ErrInvalidDiscount
	}
	return nil
}

func sumStock(variations []domain.Variation) int {
	sum := 0
	for _, v := range variations {
		sum += v.Stock
	}
	return sum
}
