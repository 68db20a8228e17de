package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"vendormart/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "ASC"
	SortOrderDesc SortOrder = "DESC"
)

// ProductFilter narrows product queries. Nil pointer fields are ignored.
type ProductFilter struct {
	Vendor         *uuid.UUID
	Status         *domain.ProductStatus
	IsActive       *bool
	IsFeatured     *bool
	Category       *uuid.UUID
	SubCategory    *uuid.UUID
	ExcludeID      *uuid.UUID
	InStockOnly    bool
	OutOfStockOnly bool
	Search         string
	TagsAny        []string
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Product, error)
	FindBySKU(ctx context.Context, sku string) (*domain.Product, error)
	// FindByVariationSKU looks up a product carrying a variation with the
	// given SKU, excluding the product with the exclude id (pass uuid.Nil to
	// search the whole catalog).
	FindByVariationSKU(ctx context.Context, sku string, exclude uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter, page, pageSize int, sortBy string, sortOrder SortOrder) ([]*domain.Product, int, error)
	Count(ctx context.Context, filter ProductFilter) (int, error)
	// CountOwned counts how many of the given product ids belong to vendor.
	CountOwned(ctx context.Context, vendor uuid.UUID, ids []uuid.UUID) (int, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, vendor_id, category_id, subcategory_id, name, description, slug, sku,
	price, discount, discount_type, quantity, variations, images, thumbnail, search_tags,
	status, is_active, is_featured, rejection_reason, created_at, updated_at`

// Create inserts a new product using parameterized queries
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	variations, images, thumbnail, tags, err := marshalProductDocs(product)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`

	_, err = r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Vendor,
		product.Category,
		product.SubCategory,
		product.Name,
		product.Description,
		product.Slug,
		product.SKU,
		product.Price,
		product.Discount,
		product.DiscountType,
		product.Quantity,
		variations,
		images,
		thumbnail,
		tags,
		product.Status,
		product.IsActive,
		product.IsFeatured,
		product.RejectionReason,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update writes the full product row in a single statement keyed by id.
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	variations, images, thumbnail, tags, err := marshalProductDocs(product)
	if err != nil {
		return err
	}

	query := `
		UPDATE products
		SET category_id = $2, subcategory_id = $3, name = $4, description = $5,
		    sku = $6, price = $7, discount = $8, discount_type = $9, quantity = $10,
		    variations = $11, images = $12, thumbnail = $13, search_tags = $14,
		    status = $15, is_active = $16, is_featured = $17, rejection_reason = $18,
		    updated_at = $19
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Category,
		product.SubCategory,
		product.Name,
		product.Description,
		product.SKU,
		product.Price,
		product.Discount,
		product.DiscountType,
		product.Quantity,
		variations,
		images,
		thumbnail,
		tags,
		product.Status,
		product.IsActive,
		product.IsFeatured,
		product.RejectionReason,
		product.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// Delete removes a product from the database
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM products WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a product by ID
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return r.findOne(ctx, "id = $1", id)
}

// FindBySlug retrieves a product by its unique slug
func (r *productRepository) FindBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return r.findOne(ctx, "slug = $1", slug)
}

// FindBySKU retrieves a product by its unique SKU
func (r *productRepository) FindBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	return r.findOne(ctx, "sku = $1", sku)
}

// FindByVariationSKU uses JSONB containment against the variations document.
func (r *productRepository) FindByVariationSKU(ctx context.Context, sku string, exclude uuid.UUID) (*domain.Product, error) {
	needle, err := json.Marshal([]map[string]string{{"sku": sku}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal variation sku probe: %w", err)
	}

	if exclude == uuid.Nil {
		return r.findOne(ctx, "variations @> $1::jsonb", string(needle))
	}
	return r.findOne(ctx, "variations @> $1::jsonb AND id <> $2", string(needle), exclude)
}

func (r *productRepository) findOne(ctx context.Context, where string, args ...any) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE ` + where + ` LIMIT 1`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	return product, nil
}

// List retrieves products with filtering, pagination, and sorting
func (r *productRepository) List(ctx context.Context, filter ProductFilter, page, pageSize int, sortBy string, sortOrder SortOrder) ([]*domain.Product, int, error) {
	// Validate sort field to prevent SQL injection
	validSortFields := map[string]bool{
		"name":       true,
		"price":      true,
		"created_at": true,
		"quantity":   true,
	}

	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != SortOrderAsc && sortOrder != SortOrderDesc {
		sortOrder = SortOrderDesc
	}

	whereClause, args := buildProductWhere(filter)

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM products %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		%s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, productColumns, whereClause, sortBy, sortOrder, len(args)+1, len(args)+2)

	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating products: %w", err)
	}

	return products, total, nil
}

// Count counts products matching the filter
func (r *productRepository) Count(ctx context.Context, filter ProductFilter) (int, error) {
	whereClause, args := buildProductWhere(filter)

	var total int
	query := fmt.Sprintf("SELECT COUNT(*) FROM products %s", whereClause)
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}

	return total, nil
}

// CountOwned counts how many of the given product ids belong to vendor.
func (r *productRepository) CountOwned(ctx context.Context, vendor uuid.UUID, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	idList, err := json.Marshal(ids)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal id list: %w", err)
	}

	query := `
		SELECT COUNT(*)
		FROM products
		WHERE vendor_id = $1
		  AND id IN (SELECT (jsonb_array_elements_text($2::jsonb))::uuid)
	`

	var count int
	if err := r.db.QueryRowContext(ctx, query, vendor, string(idList)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count owned products: %w", err)
	}

	return count, nil
}

func buildProductWhere(filter ProductFilter) (string, []any) {
	conditions := []string{}
	args := []any{}

	add := func(cond string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.Vendor != nil {
		add("vendor_id = $%d", *filter.Vendor)
	}
	if filter.Status != nil {
		add("status = $%d", *filter.Status)
	}
	if filter.IsActive != nil {
		add("is_active = $%d", *filter.IsActive)
	}
	if filter.IsFeatured != nil {
		add("is_featured = $%d", *filter.IsFeatured)
	}
	if filter.Category != nil {
		add("category_id = $%d", *filter.Category)
	}
	if filter.SubCategory != nil {
		add("subcategory_id = $%d", *filter.SubCategory)
	}
	if filter.ExcludeID != nil {
		add("id <> $%d", *filter.ExcludeID)
	}
	if filter.InStockOnly {
		conditions = append(conditions, "quantity > 0")
	}
	if filter.OutOfStockOnly {
		conditions = append(conditions, "quantity = 0")
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", n, n))
	}
	if len(filter.TagsAny) > 0 {
		// Overlap test against the JSONB tag array.
		tagList, _ := json.Marshal(filter.TagsAny)
		add(`EXISTS (
			SELECT 1 FROM jsonb_array_elements_text(search_tags) tag
			WHERE tag IN (SELECT jsonb_array_elements_text($%d::jsonb))
		)`, string(tagList))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func marshalProductDocs(product *domain.Product) (variations, images, thumbnail, tags string, err error) {
	if product.Variations == nil {
		product.Variations = []domain.Variation{}
	}
	if product.Images == nil {
		product.Images = []domain.Media{}
	}
	if product.SearchTags == nil {
		product.SearchTags = []string{}
	}

	v, err := json.Marshal(product.Variations)
	if err != nil {
		return "", "", "", "", fmt.Errorf("failed to marshal variations: %w", err)
	}
	i, err := json.Marshal(product.Images)
	if err != nil {
		return "", "", "", "", fmt.Errorf("failed to marshal images: %w", err)
	}
	t, err := json.Marshal(product.Thumbnail)
	if err != nil {
		return "", "", "", "", fmt.Errorf("failed to marshal thumbnail: %w", err)
	}
	st, err := json.Marshal(product.SearchTags)
	if err != nil {
		return "", "", "", "", fmt.Errorf("failed to marshal search tags: %w", err)
	}

	return string(v), string(i), string(t), string(st), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	var variations, images, thumbnail, tags []byte

	err := row.Scan(
		&product.ID,
		&product.Vendor,
		&product.Category,
		&product.SubCategory,
		&product.Name,
		&product.Description,
		&product.Slug,
		&product.SKU,
		&product.Price,
		&product.Discount,
		&product.DiscountType,
		&product.Quantity,
		&variations,
		&images,
		&thumbnail,
		&tags,
		&product.Status,
		&product.IsActive,
		&product.IsFeatured,
		&product.RejectionReason,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(variations, &product.Variations); err != nil {
		return nil, fmt.Errorf("failed to unmarshal variations: %w", err)
	}
	if err := json.Unmarshal(images, &product.Images); err != nil {
		return nil, fmt.Errorf("failed to unmarshal images: %w", err)
	}
	if err := json.Unmarshal(thumbnail, &product.Thumbnail); err != nil {
		return nil, fmt.Errorf("failed to unmarshal thumbnail: %w", err)
	}
	if err := json.Unmarshal(tags, &product.SearchTags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal search tags: %w", err)
	}

	return product, nil
}
