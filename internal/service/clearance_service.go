package service

import (
	"context"
	"errors"
	"time"

	"vendormart/internal/cache"
	"vendormart/internal/domain"
	"vendormart/internal/repository"

	"github.com/google/uuid"
)

// SaleConfigInput is a partial clearance sale configuration. Nil fields keep
// the current value on update; required fields are enforced on first setup.
type SaleConfigInput struct {
	IsActive        *bool
	StartDate       *time.Time
	ExpireDate      *time.Time
	DiscountType    *domain.SaleDiscountType
	DiscountAmount  *float64
	OfferActiveTime *domain.OfferActiveTime
	StartTime       *string
	EndTime         *string
	MetaTitle       *string
	MetaDescription *string
	MetaImage       *string
}

// ClearanceSaleService manages per-owner clearance sale configs and their
// product membership. A nil vendor means the admin-global sale.
type ClearanceSaleService interface {
	Setup(ctx context.Context, vendor *uuid.UUID, input SaleConfigInput) (*domain.ClearanceSale, error)
	Get(ctx context.Context, vendor *uuid.UUID) (*domain.ClearanceSale, error)
	ToggleActive(ctx context.Context, vendor *uuid.UUID, isActive bool) (*domain.ClearanceSale, error)
	AddProducts(ctx context.Context, vendor *uuid.UUID, productIDs []uuid.UUID) (*domain.ClearanceSale, error)
	RemoveProduct(ctx context.Context, vendor *uuid.UUID, productID uuid.UUID) (*domain.ClearanceSale, error)
	ToggleProductStatus(ctx context.Context, vendor *uuid.UUID, productID uuid.UUID, isActive bool) (*domain.ClearanceSale, error)
	PublicSales(ctx context.Context, limit int) ([]*domain.ClearanceSale, error)
}

type clearanceSaleService struct {
	sales    repository.ClearanceSaleRepository
	products repository.ProductRepository
	cache    cache.Invalidator
	now      func() time.Time
}

// NewClearanceSaleService creates a new instance of ClearanceSaleService
func NewClearanceSaleService(
	sales repository.ClearanceSaleRepository,
	products repository.ProductRepository,
	invalidator cache.Invalidator,
) ClearanceSaleService {
	return &clearanceSaleService{
		sales:    sales,
		products: products,
		cache:    invalidator,
		now:      time.Now,
	}
}

// Setup creates or updates the owner's sale config. Each owner has at most
// one config; repeated setups converge on that single row.
func (s *clearanceSaleService) Setup(ctx context.Context, vendor *uuid.UUID, input SaleConfigInput) (*domain.ClearanceSale, error) {
	if input.StartDate != nil && input.ExpireDate != nil && !input.ExpireDate.After(*input.StartDate) {
		return nil, ErrInvalidDateRange
	}

	ownerKey := repository.OwnerKey(vendor)
	sale, err := s.sales.FindByOwner(ctx, ownerKey)
	switch {
	case err == nil:
		applyConfig(sale, input)
		sale.UpdatedAt = s.now()
		if err := s.sales.UpdateConfig(ctx, sale); err != nil {
			return nil, err
		}
	case errors.Is(err, repository.ErrSaleNotFound):
		if input.StartDate == nil || input.ExpireDate == nil {
			return nil, ErrDatesRequired
		}
		now := s.now()
		sale = &domain.ClearanceSale{
			ID:              uuid.New(),
			Vendor:          vendor,
			DiscountType:    domain.SaleDiscountFlat,
			OfferActiveTime: domain.OfferAlways,
			Products:        []domain.SaleProduct{},
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		applyConfig(sale, input)
		if err := s.sales.Create(ctx, sale); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	s.cache.Invalidate(ctx, cache.ClearancePatterns()...)
	return sale, nil
}

// Get retrieves the owner's sale config with its membership list
func (s *clearanceSaleService) Get(ctx context.Context, vendor *uuid.UUID) (*domain.ClearanceSale, error) {
	return s.findSale(ctx, vendor)
}

// ToggleActive sets the sale's master switch. Dates and membership are kept,
// so a sale can be paused and resumed; repeating the call with the same value
// is a no-op.
func (s *clearanceSaleService) ToggleActive(ctx context.Context, vendor *uuid.UUID, isActive bool) (*domain.ClearanceSale, error) {
	sale, err := s.findSale(ctx, vendor)
	if err != nil {
		return nil, err
	}

	sale.IsActive = isActive
	sale.UpdatedAt = s.now()
	if err := s.sales.UpdateConfig(ctx, sale); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, cache.ClearancePatterns()...)
	return sale, nil
}

// AddProducts adds products to the owner's sale. Vendors may only add their
// own products and only as a whole batch; the admin-global sale takes any
// existing products. Already-member ids are skipped, so retries are safe.
func (s *clearanceSaleService) AddProducts(ctx context.Context, vendor *uuid.UUID, productIDs []uuid.UUID) (*domain.ClearanceSale, error) {
	if len(productIDs) == 0 {
		return nil, ErrInvalidSaleProducts
	}

	sale, err := s.sales.FindByOwner(ctx, repository.OwnerKey(vendor))
	if err != nil {
		if errors.Is(err, repository.ErrSaleNotFound) {
			return nil, ErrSaleSetupRequired
		}
		return nil, err
	}

	ids := dedupeIDs(productIDs)
	if vendor != nil {
		owned, err := s.products.CountOwned(ctx, *vendor, ids)
		if err != nil {
			return nil, err
		}
		if owned != len(ids) {
			return nil, ErrInvalidSaleProducts
		}
	}

	if err := s.sales.AddProducts(ctx, sale.ID, ids); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, cache.ClearancePatterns()...)
	return s.sales.FindByOwner(ctx, repository.OwnerKey(vendor))
}

// RemoveProduct drops a product from the sale. Removing a non-member is a
// no-op.
func (s *clearanceSaleService) RemoveProduct(ctx context.Context, vendor *uuid.UUID, productID uuid.UUID) (*domain.ClearanceSale, error) {
	sale, err := s.findSale(ctx, vendor)
	if err != nil {
		return nil, err
	}

	if err := s.sales.RemoveProduct(ctx, sale.ID, productID); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, cache.ClearancePatterns()...)
	return s.sales.FindByOwner(ctx, repository.OwnerKey(vendor))
}

// ToggleProductStatus sets a member product's visibility inside the sale
// without removing it.
func (s *clearanceSaleService) ToggleProductStatus(ctx context.Context, vendor *uuid.UUID, productID uuid.UUID, isActive bool) (*domain.ClearanceSale, error) {
	sale, err := s.findSale(ctx, vendor)
	if err != nil {
		return nil, err
	}

	if err := s.sales.SetProductActive(ctx, sale.ID, productID, isActive); err != nil {
		if errors.Is(err, repository.ErrSaleProductNotFound) {
			return nil, ErrSaleProductNotFound
		}
		return nil, err
	}

	s.cache.Invalidate(ctx, cache.ClearancePatterns()...)
	return s.sales.FindByOwner(ctx, repository.OwnerKey(vendor))
}

// PublicSales lists currently live sales for the storefront, newest first
func (s *clearanceSaleService) PublicSales(ctx context.Context, limit int) ([]*domain.ClearanceSale, error) {
	if limit < 1 {
		limit = 10
	}
	return s.sales.ListLive(ctx, s.now(), limit)
}

func (s *clearanceSaleService) findSale(ctx context.Context, vendor *uuid.UUID) (*domain.ClearanceSale, error) {
	sale, err := s.sales.FindByOwner(ctx, repository.OwnerKey(vendor))
	if err != nil {
		if errors.Is(err, repository.ErrSaleNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, err
	}
	return sale, nil
}

func applyConfig(sale *domain.ClearanceSale, input SaleConfigInput) {
	if input.IsActive != nil {
		sale.IsActive = *input.IsActive
	}
	if input.StartDate != nil {
		sale.StartDate = *input.StartDate
	}
	if input.ExpireDate != nil {
		sale.ExpireDate = *input.ExpireDate
	}
	if input.DiscountType != nil {
		sale.DiscountType = *input.DiscountType
	}
	if input.DiscountAmount != nil {
		sale.DiscountAmount = *input.DiscountAmount
	}
	if input.OfferActiveTime != nil {
		sale.OfferActiveTime = *input.OfferActiveTime
	}
	if input.StartTime != nil {
		sale.StartTime = *input.StartTime
	}
	if input.EndTime != nil {
		sale.EndTime = *input.EndTime
	}
	if input.MetaTitle != nil {
		sale.MetaTitle = *input.MetaTitle
	}
	if input.MetaDescription != nil {
		sale.MetaDescription = *input.MetaDescription
	}
	if input.MetaImage != nil {
		sale.MetaImage = *input.MetaImage
	}
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
