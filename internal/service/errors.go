package service

import "vendormart/internal/apperr"

// Business errors of the catalog and clearance sale services. Each carries a
// stable machine code; the HTTP layer maps the kind to a status class.
var (
	ErrCategoryNotFound     = apperr.Validation("CATEGORY_NOT_FOUND", "category not found")
	ErrCategoryInactive     = apperr.Validation("CATEGORY_INACTIVE", "category is not active")
	ErrSubCategoryNotFound  = apperr.Validation("SUBCATEGORY_NOT_FOUND", "subcategory not found")
	ErrSubCategoryMismatch  = apperr.Validation("SUBCATEGORY_MISMATCH", "subcategory does not belong to selected category")
	ErrDuplicateSKU         = apperr.Conflict("DUPLICATE_SKU", "sku already exists")
	ErrDuplicatePayloadSKU  = apperr.Validation("DUPLICATE_VARIATION_SKU", "duplicate skus found in variations")
	ErrDuplicateVariantSKU  = apperr.Conflict("DUPLICATE_VARIATION_SKU", "variation sku already exists")
	ErrImagesRequired       = apperr.Validation("IMAGES_REQUIRED", "at least one product image is required")
	ErrThumbnailRequired    = apperr.Validation("THUMBNAIL_REQUIRED", "product thumbnail is required")
	ErrInvalidDiscount      = apperr.Validation("INVALID_DISCOUNT", "discount exceeds allowed bounds")
	ErrProductNotFound      = apperr.NotFound("PRODUCT_NOT_FOUND", "product not found")
	ErrForbiddenAccess      = apperr.Forbidden("FORBIDDEN_ACCESS", "not authorized to modify this product")
	ErrProductNotApproved   = apperr.Forbidden("PRODUCT_NOT_APPROVED", "cannot activate product until it is approved")
	ErrReasonRequired       = apperr.Validation("REASON_REQUIRED", "rejection reason is required")
	ErrInvalidStatus        = apperr.Validation("INVALID_STATUS", "unknown product status")
	ErrInvalidTransition    = apperr.Validation("INVALID_STATUS_TRANSITION", "status change is not allowed from the current status")
	ErrInvalidDateRange     = apperr.Validation("INVALID_DATE_RANGE", "expire date must be after start date")
	ErrDatesRequired        = apperr.Validation("DATES_REQUIRED", "start and expire dates are required")
	ErrSaleNotFound         = apperr.NotFound("SALE_NOT_FOUND", "clearance sale configuration not found")
	ErrSaleSetupRequired    = apperr.Validation("SETUP_REQUIRED", "clearance sale configuration must be set up first")
	ErrInvalidSaleProducts  = apperr.Forbidden("INVALID_PRODUCTS", "one or more products do not belong to you or do not exist")
	ErrSaleProductNotFound  = apperr.NotFound("PRODUCT_NOT_FOUND", "product not found in clearance sale")
)
