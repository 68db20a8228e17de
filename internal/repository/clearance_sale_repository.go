package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"vendormart/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrSaleNotFound        = errors.New("clearance sale not found")
	ErrSaleProductNotFound = errors.New("product not found in clearance sale")
)

// AdminOwnerKey is the fixed owner key of the admin-global clearance sale.
// Persisting it as a regular row keeps the "singleton" uniform with the
// per-vendor configs across restarts and horizontal scaling.
const AdminOwnerKey = "admin"

// OwnerKey derives the storage key for a sale owner. Vendors key by their id;
// the admin-global config keys by AdminOwnerKey.
func OwnerKey(vendor *uuid.UUID) string {
	if vendor == nil {
		return AdminOwnerKey
	}
	return vendor.String()
}

// ClearanceSaleRepository defines the interface for clearance sale data access.
//
// Membership mutations (AddProducts, RemoveProduct, SetProductActive) are
// single atomic statements on the membership table, never a read-mutate-write
// of the whole config, so concurrent edits on the same sale converge.
type ClearanceSaleRepository interface {
	Create(ctx context.Context, sale *domain.ClearanceSale) error
	UpdateConfig(ctx context.Context, sale *domain.ClearanceSale) error
	FindByOwner(ctx context.Context, ownerKey string) (*domain.ClearanceSale, error)
	AddProducts(ctx context.Context, saleID uuid.UUID, productIDs []uuid.UUID) error
	RemoveProduct(ctx context.Context, saleID, productID uuid.UUID) error
	SetProductActive(ctx context.Context, saleID, productID uuid.UUID, isActive bool) error
	// ListLive returns sales that are switched on and date-active at now,
	// most recently created first.
	ListLive(ctx context.Context, now time.Time, limit int) ([]*domain.ClearanceSale, error)
	// FindLiveByVendors returns the live sale of each listed vendor, if any.
	FindLiveByVendors(ctx context.Context, vendors []uuid.UUID, now time.Time) ([]*domain.ClearanceSale, error)
}

type clearanceSaleRepository struct {
	db *sql.DB
}

// NewClearanceSaleRepository creates a new instance of ClearanceSaleRepository
func NewClearanceSaleRepository(db *sql.DB) ClearanceSaleRepository {
	return &clearanceSaleRepository{db: db}
}

const saleColumns = `id, owner_key, vendor_id, is_active, start_date, expire_date, discount_type,
	discount_amount, offer_active_time, start_time, end_time, meta_title, meta_description,
	meta_image, created_at, updated_at`

// Create inserts a new clearance sale config for its owner
func (r *clearanceSaleRepository) Create(ctx context.Context, sale *domain.ClearanceSale) error {
	query := `
		INSERT INTO clearance_sales (` + saleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		sale.ID,
		OwnerKey(sale.Vendor),
		sale.Vendor,
		sale.IsActive,
		sale.StartDate,
		sale.ExpireDate,
		sale.DiscountType,
		sale.DiscountAmount,
		sale.OfferActiveTime,
		nullableString(sale.StartTime),
		nullableString(sale.EndTime),
		sale.MetaTitle,
		sale.MetaDescription,
		sale.MetaImage,
		sale.CreatedAt,
		sale.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create clearance sale: %w", err)
	}

	return nil
}

// UpdateConfig writes the config fields of an existing sale. Membership rows
// are not touched here.
func (r *clearanceSaleRepository) UpdateConfig(ctx context.Context, sale *domain.ClearanceSale) error {
	query := `
		UPDATE clearance_sales
		SET is_active = $2, start_date = $3, expire_date = $4, discount_type = $5,
		    discount_amount = $6, offer_active_time = $7, start_time = $8, end_time = $9,
		    meta_title = $10, meta_description = $11, meta_image = $12, updated_at = $13
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		sale.ID,
		sale.IsActive,
		sale.StartDate,
		sale.ExpireDate,
		sale.DiscountType,
		sale.DiscountAmount,
		sale.OfferActiveTime,
		nullableString(sale.StartTime),
		nullableString(sale.EndTime),
		sale.MetaTitle,
		sale.MetaDescription,
		sale.MetaImage,
		sale.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update clearance sale: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrSaleNotFound
	}

	return nil
}

// FindByOwner retrieves a sale config with its membership list
func (r *clearanceSaleRepository) FindByOwner(ctx context.Context, ownerKey string) (*domain.ClearanceSale, error) {
	query := `SELECT ` + saleColumns + ` FROM clearance_sales WHERE owner_key = $1`

	sale, err := scanSale(r.db.QueryRowContext(ctx, query, ownerKey))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSaleNotFound
		}
		return nil, fmt.Errorf("failed to find clearance sale: %w", err)
	}

	if err := r.loadMembers(ctx, sale); err != nil {
		return nil, err
	}

	return sale, nil
}

// AddProducts inserts membership rows, skipping ids that are already members.
// ON CONFLICT DO NOTHING makes the add an idempotent set union.
func (r *clearanceSaleRepository) AddProducts(ctx context.Context, saleID uuid.UUID, productIDs []uuid.UUID) error {
	query := `
		INSERT INTO clearance_sale_products (sale_id, product_id, is_active, added_at)
		VALUES ($1, $2, TRUE, $3)
		ON CONFLICT (sale_id, product_id) DO NOTHING
	`

	now := time.Now()
	for _, id := range productIDs {
		if _, err := r.db.ExecContext(ctx, query, saleID, id, now); err != nil {
			return fmt.Errorf("failed to add product %s to sale: %w", id, err)
		}
	}

	return nil
}

// RemoveProduct deletes a membership row
func (r *clearanceSaleRepository) RemoveProduct(ctx context.Context, saleID, productID uuid.UUID) error {
	query := `DELETE FROM clearance_sale_products WHERE sale_id = $1 AND product_id = $2`

	if _, err := r.db.ExecContext(ctx, query, saleID, productID); err != nil {
		return fmt.Errorf("failed to remove product from sale: %w", err)
	}

	return nil
}

// SetProductActive flips the visibility toggle of a membership row
func (r *clearanceSaleRepository) SetProductActive(ctx context.Context, saleID, productID uuid.UUID, isActive bool) error {
	query := `
		UPDATE clearance_sale_products
		SET is_active = $3
		WHERE sale_id = $1 AND product_id = $2
	`

	result, err := r.db.ExecContext(ctx, query, saleID, productID, isActive)
	if err != nil {
		return fmt.Errorf("failed to toggle sale product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrSaleProductNotFound
	}

	return nil
}

// ListLive returns date-active switched-on sales, newest first
func (r *clearanceSaleRepository) ListLive(ctx context.Context, now time.Time, limit int) ([]*domain.ClearanceSale, error) {
	query := `
		SELECT ` + saleColumns + `
		FROM clearance_sales
		WHERE is_active = TRUE AND start_date <= $1 AND expire_date >= $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	return r.querySales(ctx, query, now, limit)
}

// FindLiveByVendors returns each listed vendor's live sale, if any
func (r *clearanceSaleRepository) FindLiveByVendors(ctx context.Context, vendors []uuid.UUID, now time.Time) ([]*domain.ClearanceSale, error) {
	if len(vendors) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(vendors))
	for _, v := range vendors {
		keys = append(keys, v.String())
	}

	query := `
		SELECT ` + saleColumns + `
		FROM clearance_sales
		WHERE owner_key = ANY(string_to_array($1, ','))
		  AND is_active = TRUE AND start_date <= $2 AND expire_date >= $2
	`

	return r.querySales(ctx, query, strings.Join(keys, ","), now)
}

func (r *clearanceSaleRepository) querySales(ctx context.Context, query string, args ...any) ([]*domain.ClearanceSale, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query clearance sales: %w", err)
	}
	defer rows.Close()

	sales := []*domain.ClearanceSale{}
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clearance sale: %w", err)
		}
		sales = append(sales, sale)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clearance sales: %w", err)
	}

	for _, sale := range sales {
		if err := r.loadMembers(ctx, sale); err != nil {
			return nil, err
		}
	}

	return sales, nil
}

func (r *clearanceSaleRepository) loadMembers(ctx context.Context, sale *domain.ClearanceSale) error {
	query := `
		SELECT product_id, is_active
		FROM clearance_sale_products
		WHERE sale_id = $1
		ORDER BY added_at ASC, product_id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, sale.ID)
	if err != nil {
		return fmt.Errorf("failed to load sale products: %w", err)
	}
	defer rows.Close()

	sale.Products = []domain.SaleProduct{}
	for rows.Next() {
		var member domain.SaleProduct
		if err := rows.Scan(&member.Product, &member.IsActive); err != nil {
			return fmt.Errorf("failed to scan sale product: %w", err)
		}
		sale.Products = append(sale.Products, member)
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating sale products: %w", err)
	}

	return nil
}

func scanSale(row rowScanner) (*domain.ClearanceSale, error) {
	sale := &domain.ClearanceSale{}
	var ownerKey string
	var startTime, endTime sql.NullString

	err := row.Scan(
		&sale.ID,
		&ownerKey,
		&sale.Vendor,
		&sale.IsActive,
		&sale.StartDate,
		&sale.ExpireDate,
		&sale.DiscountType,
		&sale.DiscountAmount,
		&sale.OfferActiveTime,
		&startTime,
		&endTime,
		&sale.MetaTitle,
		&sale.MetaDescription,
		&sale.MetaImage,
		&sale.CreatedAt,
		&sale.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	sale.StartTime = startTime.String
	sale.EndTime = endTime.String

	return sale, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
