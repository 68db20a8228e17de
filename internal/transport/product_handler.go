package transport

import (
	"net/http"
	"strconv"

	"vendormart/internal/domain"
	"vendormart/internal/middleware"
	"vendormart/internal/repository"
	"vendormart/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// VariationRequest is one purchasable variant in a product payload
type VariationRequest struct {
	SKU        string            `json:"sku" validate:"required"`
	Stock      int               `json:"stock" validate:"gte=0"`
	Attributes map[string]string `json:"attributes"`
}

// MediaRequest is a pre-resolved image reference in a product payload
type MediaRequest struct {
	URL      string `json:"url" validate:"required,url"`
	PublicID string `json:"publicId"`
}

// CreateProductRequest represents the product creation payload
type CreateProductRequest struct {
	Name         string             `json:"name" validate:"required,min=2,max=200"`
	Description  string             `json:"description" validate:"required"`
	Category     string             `json:"category" validate:"required,uuid"`
	SubCategory  *string            `json:"subCategory" validate:"omitempty,uuid"`
	SKU          string             `json:"sku" validate:"required"`
	Price        float64            `json:"price" validate:"required,gt=0"`
	Discount     float64            `json:"discount" validate:"gte=0"`
	DiscountType string             `json:"discountType" validate:"omitempty,oneof=percent flat"`
	Quantity     int                `json:"quantity" validate:"gte=0"`
	Variations   []VariationRequest `json:"variations" validate:"omitempty,dive"`
	Images       []MediaRequest     `json:"images" validate:"required,min=1,dive"`
	Thumbnail    MediaRequest       `json:"thumbnail" validate:"required"`
	SearchTags   []string           `json:"searchTags"`
}

// UpdateProductRequest represents a partial product edit payload
type UpdateProductRequest struct {
	Name         *string            `json:"name" validate:"omitempty,min=2,max=200"`
	Description  *string            `json:"description"`
	Category     *string            `json:"category" validate:"omitempty,uuid"`
	SubCategory  *string            `json:"subCategory" validate:"omitempty,uuid"`
	Price        *float64           `json:"price" validate:"omitempty,gt=0"`
	Discount     *float64           `json:"discount" validate:"omitempty,gte=0"`
	DiscountType *string            `json:"discountType" validate:"omitempty,oneof=percent flat"`
	Variations   []VariationRequest `json:"variations" validate:"omitempty,dive"`
	Images       []MediaRequest     `json:"images" validate:"omitempty,dive"`
	Thumbnail    *MediaRequest      `json:"thumbnail"`
	SearchTags   []string           `json:"searchTags"`
	IsActive     *bool              `json:"isActive"`
}

// UpdateStatusRequest represents the admin status change payload
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason"`
}

// UpdateFeaturedRequest represents the admin featured toggle payload
type UpdateFeaturedRequest struct {
	IsFeatured bool `json:"isFeatured"`
}

// ProductHandler handles HTTP requests for product operations
type ProductHandler struct {
	products service.ProductService
	pricing  *service.PricingOverlay
	logger   *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products service.ProductService, pricing *service.PricingOverlay, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		products: products,
		pricing:  pricing,
		logger:   logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router, auth, requireVendor, requireAdmin func(http.Handler) http.Handler) {
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", h.ListPublic)
		r.Get("/search", h.Search)
		r.Get("/featured", h.Featured)
		r.Get("/{id}", h.GetPublic)
		r.Get("/{id}/similar", h.Similar)
	})

	r.Route("/api/v1/vendor/products", func(r chi.Router) {
		r.Use(auth, requireVendor)
		r.Post("/", h.Create)
		r.Get("/", h.ListVendor)
		r.Get("/stats", h.VendorStats)
		r.Get("/export", h.ExportVendor)
		r.Get("/{id}", h.GetOwn)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})

	r.Route("/api/v1/admin/products", func(r chi.Router) {
		r.Use(auth, requireAdmin)
		r.Get("/", h.AdminList)
		r.Get("/stats", h.AdminStats)
		r.Get("/export", h.ExportAdmin)
		r.Get("/{id}", h.AdminGet)
		r.Put("/{id}", h.AdminUpdate)
		r.Patch("/{id}/status", h.AdminSetStatus)
		r.Patch("/{id}/featured", h.AdminSetFeatured)
		r.Delete("/{id}", h.AdminDelete)
	})
}

// Create handles vendor product creation
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := middleware.GetVendorID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product creation validation failed", zap.Error(err))
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input, err := req.toInput()
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.products.Create(r.Context(), input, vendorID)
	if err != nil {
		middleware.RespondWithAppError(w, err, h.logger)
		return
	}

	h.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("vendor_id", vendorID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// Update handles vendor product edits
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := middleware.GetVendorID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product update validation failed", zap.Error(err))
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input, err := req.toInput()
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.products.Update(r.Context(), id, input, vendorID)
	if err != nil {
		middleware.RespondWithAppError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Delete handles vendor product deletion
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := middleware.GetVendorID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.products.Delete(r.Context(), id, vendorID); err != nil {
		middleware.RespondWithAppError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

// GetOwn retrieves one of the vendor's own products
func (h *ProductHandler) GetOwn(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := middleware.GetVendorID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	product, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		middleware.RespondWithAppError(w, err, h.logger)
		return
	}

	if product.Vendor != vendorID {
		middleware.RespondWithAppError(w, service.ErrForbiddenAccess, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// ListVendor pages through the vendor's own products
func (h *ProductHandler) ListVendor(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := middleware.GetVendorID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	page, err := h.products.ListVendor(r.Context(), vendorID, listOptions(r))
	if err != nil {
		middleware.RespondWithAppError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, page)
}

// VendorStats returns the vendor's dashboard counters
func (h *ProductHandler) VendorStats(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := middleware.GetVendorID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	stats, err := h.products.VendorStats(r.Context(), vendorID)
	if err != nil {
		middleware.RespondWithAppError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, stats)
}

// ExportVendor streams the vendor's catalog as CSV
func (h *ProductHandler) ExportVendor(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := middleware.GetVendorID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	products, err := h.products.ExportVendor(r.Context(), vendorID)
	if err != nil {
		middleware.RespondWithAppError(w, err, h.logger)
		return
	}

	h.writeCSV(w, products)
}

// ListPublic pages through the storefront catalog
func (h *ProductHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	var category *uuid.UUID
	if raw := r.URL.Query().Get("category"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid category id")
			return
		}
		category = &id
	}

	page, err := h.products.ListPublic(r.Context(), category, listOptions(r))
	if err != nil {
		middleware.RespondWithAppError(w, err, h.logger)
		return
	}

	if err := h.pricing.EnrichProducts(r.Context(), page.Products); err != nil {
		middleware.RespondWithAppError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, page)
}

// GetPublic retrieves a single storefront product
func (h *ProductHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	product, err := h.products.GetPublicByID(r.Context(), id)
	if err != nil {
		middleware.RespondWithAppError(w, err, h.logger)
		return
	}

	if err := h.pricing.EnrichProduct(r.Context(), product); err != nil {
		middleware.RespondWithAppError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Search handles the storefront search bar
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	products, err := h.products.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		middleware.RespondWithAppError(w, err, h.logger)
		return
	}

	if err := h.pricing.EnrichProducts(r.Context(), products); err != nil {
		middleware.RespondWithAppError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

// Featured returns the storefront's featured products
func (h *ProductHandler) Featured(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	products, err := h.products.Featured(r.Context(), limit)
	if err != nil {
		middleware.RespondWithAppError(w, err, h.logger)
		return
	}

	if err := h.pricing.EnrichProducts(r.Context(), products); err != nil {
		middleware.RespondWithAppError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

// Similar returns products related to the given one
func (h *ProductHandler) Similar(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	products, err := h.products.Similar(r.Context(), id, limit)
	if err != nil {
		middleware.RespondWithAppError(w, err, h.logger)
		return
	}

	if err := h.pricing.EnrichProducts(r.Context(), products); err != nil {
		middleware.RespondWithAppError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

// AdminList pages through the raw catalog
func (h *ProductHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	filter, err := adminFilter(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.products.AdminList(r.Context(), filter, listOptions(r))
	if err != nil {
		middleware.RespondWithAppError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, page)
}

// AdminGet retrieves any product including moderation fields
func (h *ProductHandler) AdminGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	product, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		middleware.RespondWithAppError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// AdminUpdate applies an unrestricted product edit
func (h *ProductHandler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input, err := req.toInput()
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.products.AdminUpdate(r.Context(), id, input)
	if err != nil {
		middleware.RespondWithAppError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// AdminSetStatus moves a product through the review state machine
func (h *ProductHandler) AdminSetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.products.AdminSetStatus(r.Context(), id, domain.ProductStatus(req.Status), req.Reason)
	if err != nil {
		middleware.RespondWithAppError(w, err, h.logger)
		return
	}

	h.logger.Info("Product status changed",
		zap.String("product_id", id.String()),
		zap.String("status", req.Status),
	)
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// AdminSetFeatured flips the featured flag
func (h *ProductHandler) AdminSetFeatured(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req UpdateFeaturedRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.products.AdminSetFeatured(r.Context(), id, req.IsFeatured)
	if err != nil {
		middleware.RespondWithAppError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// AdminDelete removes any product
func (h *ProductHandler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.products.AdminDelete(r.Context(), id); err != nil {
		middleware.RespondWithAppError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

// AdminStats returns catalog-wide counters
func (h *ProductHandler) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.products.AdminStats(r.Context())
	if err != nil {
		middleware.RespondWithAppError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, stats)
}

// ExportAdmin streams the full catalog as CSV
func (h *ProductHandler) ExportAdmin(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ExportAdmin(r.Context())
	if err != nil {
		middleware.RespondWithAppError(w, err, h.logger)
		return
	}

	h.writeCSV(w, products)
}

func (h *ProductHandler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *ProductHandler) writeCSV(w http.ResponseWriter, products []*domain.Product) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="products.csv"`)

	if err := WriteProductCSV(w, products); err != nil {
		h.logger.Error("CSV export failed", zap.Error(err))
	}
}

func (req CreateProductRequest) toInput() (service.CreateProductInput, error) {
	category, err := uuid.Parse(req.Category)
	if err != nil {
		return service.CreateProductInput{}, err
	}

	var subCategory *uuid.UUID
	if req.SubCategory != nil {
		id, err := uuid.Parse(*req.SubCategory)
		if err != nil {
			return service.CreateProductInput{}, err
		}
		subCategory = &id
	}

	discountType := domain.DiscountPercent
	if req.DiscountType != "" {
		discountType = domain.DiscountType(req.DiscountType)
	}

	return service.CreateProductInput{
		Name:         req.Name,
		Description:  req.Description,
		Category:     category,
		SubCategory:  subCategory,
		SKU:          req.SKU,
		Price:        req.Price,
		Discount:     req.Discount,
		DiscountType: discountType,
		Quantity:     req.Quantity,
		Variations:   toVariations(req.Variations),
		Images:       toMedia(req.Images),
		Thumbnail:    domain.Media{URL: req.Thumbnail.URL, PublicID: req.Thumbnail.PublicID},
		SearchTags:   req.SearchTags,
	}, nil
}

func (req UpdateProductRequest) toInput() (service.UpdateProductInput, error) {
	input := service.UpdateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Discount:    req.Discount,
		SearchTags:  req.SearchTags,
		IsActive:    req.IsActive,
	}

	if req.Category != nil {
		id, err := uuid.Parse(*req.Category)
		if err != nil {
			return service.UpdateProductInput{}, err
		}
		input.Category = &id
	}
	if req.SubCategory != nil {
		id, err := uuid.Parse(*req.SubCategory)
		if err != nil {
			return service.UpdateProductInput{}, err
		}
		input.SubCategory = &id
	}
	if req.DiscountType != nil {
		dt := domain.DiscountType(*req.DiscountType)
		input.DiscountType = &dt
	}
	if req.Variations != nil {
		input.Variations = toVariations(req.Variations)
	}
	if req.Images != nil {
		input.Images = toMedia(req.Images)
	}
	if req.Thumbnail != nil {
		input.Thumbnail = &domain.Media{URL: req.Thumbnail.URL, PublicID: req.Thumbnail.PublicID}
	}

	return input, nil
}

func toVariations(reqs []VariationRequest) []domain.Variation {
	if reqs == nil {
		return nil
	}
	variations := make([]domain.Variation, 0, len(reqs))
	for _, v := range reqs {
		variations = append(variations, domain.Variation{
			SKU:        v.SKU,
			Stock:      v.Stock,
			Attributes: v.Attributes,
		})
	}
	return variations
}

func toMedia(reqs []MediaRequest) []domain.Media {
	if reqs == nil {
		return nil
	}
	media := make([]domain.Media, 0, len(reqs))
	for _, m := range reqs {
		media = append(media, domain.Media{URL: m.URL, PublicID: m.PublicID})
	}
	return media
}

func listOptions(r *http.Request) service.ListOptions {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	order := repository.SortOrderDesc
	if q.Get("sortOrder") == "asc" {
		order = repository.SortOrderAsc
	}

	return service.ListOptions{
		Page:      page,
		Limit:     limit,
		SortBy:    q.Get("sortBy"),
		SortOrder: order,
	}
}

func adminFilter(r *http.Request) (repository.ProductFilter, error) {
	q := r.URL.Query()
	filter := repository.ProductFilter{Search: q.Get("search")}

	if raw := q.Get("status"); raw != "" {
		status := domain.ProductStatus(raw)
		filter.Status = &status
	}
	if raw := q.Get("vendor"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return repository.ProductFilter{}, err
		}
		filter.Vendor = &id
	}
	if raw := q.Get("isActive"); raw != "" {
		active := raw == "true"
		filter.IsActive = &active
	}
	if raw := q.Get("isFeatured"); raw != "" {
		featured := raw == "true"
		filter.IsFeatured = &featured
	}

	return filter, nil
}
