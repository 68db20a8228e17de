package transport

import (
	"net/http"
	"strconv"
	"time"

	"vendormart/internal/domain"
	"vendormart/internal/middleware"
	"vendormart/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SaleConfigRequest represents the clearance sale setup payload. All fields
// are optional on update; dates are required on first setup.
type SaleConfigRequest struct {
	IsActive        *bool    `json:"isActive"`
	StartDate       *string  `json:"startDate" validate:"omitempty"`
	ExpireDate      *string  `json:"expireDate" validate:"omitempty"`
	DiscountType    *string  `json:"discountType" validate:"omitempty,oneof=flat product_wise"`
	DiscountAmount  *float64 `json:"discountAmount" validate:"omitempty,gte=0,lte=100"`
	OfferActiveTime *string  `json:"offerActiveTime" validate:"omitempty,oneof=always specific_time"`
	StartTime       *string  `json:"startTime"`
	EndTime         *string  `json:"endTime"`
	MetaTitle       *string  `json:"metaTitle"`
	MetaDescription *string  `json:"metaDescription"`
	MetaImage       *string  `json:"metaImage"`
}

// AddSaleProductsRequest represents the membership add payload
type AddSaleProductsRequest struct {
	Products []string `json:"products" validate:"required,min=1,dive,uuid"`
}

// ToggleSaleRequest represents the sale master-switch payload
type ToggleSaleRequest struct {
	IsActive bool `json:"isActive"`
}

// ToggleSaleProductRequest represents the per-product visibility payload
type ToggleSaleProductRequest struct {
	IsActive bool `json:"isActive"`
}

// ClearanceHandler handles HTTP requests for clearance sale operations. The
// vendor routes act on the caller's own sale; the admin routes act on the
// global one.
type ClearanceHandler struct {
	sales  service.ClearanceSaleService
	logger *zap.Logger
}

// NewClearanceHandler creates a new ClearanceHandler
func NewClearanceHandler(sales service.ClearanceSaleService, logger *zap.Logger) *ClearanceHandler {
	return &ClearanceHandler{sales: sales, logger: logger}
}

// RegisterRoutes registers all clearance sale routes
func (h *ClearanceHandler) RegisterRoutes(r chi.Router, auth, requireVendor, requireAdmin func(http.Handler) http.Handler) {
	r.Get("/api/v1/clearance-sales", h.PublicSales)

	r.Route("/api/v1/vendor/clearance-sale", func(r chi.Router) {
		r.Use(auth, requireVendor)
		h.ownerRoutes(r, h.vendorOwner)
	})

	r.Route("/api/v1/admin/clearance-sale", func(r chi.Router) {
		r.Use(auth, requireAdmin)
		h.ownerRoutes(r, adminOwner)
	})
}

// ownerFunc resolves the sale owner for a request, or writes an error and
// reports false.
type ownerFunc func(w http.ResponseWriter, r *http.Request) (*uuid.UUID, bool)

func (h *ClearanceHandler) ownerRoutes(r chi.Router, owner ownerFunc) {
	r.Post("/", h.setup(owner))
	r.Get("/", h.get(owner))
	r.Patch("/toggle", h.toggle(owner))
	r.Post("/products", h.addProducts(owner))
	r.Delete("/products/{productId}", h.removeProduct(owner))
	r.Patch("/products/{productId}", h.toggleProduct(owner))
}

func (h *ClearanceHandler) vendorOwner(w http.ResponseWriter, r *http.Request) (*uuid.UUID, bool) {
	vendorID, ok := middleware.GetVendorID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	return &vendorID, true
}

func adminOwner(http.ResponseWriter, *http.Request) (*uuid.UUID, bool) {
	return nil, true
}

func (h *ClearanceHandler) setup(owner ownerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendor, ok := owner(w, r)
		if !ok {
			return
		}

		var req SaleConfigRequest
		if err := middleware.DecodeAndValidate(r, &req); err != nil {
			h.logger.Debug("Sale setup validation failed", zap.Error(err))
			if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
				middleware.RespondWithValidationErrors(w, validationErrors)
				return
			}
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		input, err := req.toInput()
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid date format")
			return
		}

		sale, err := h.sales.Setup(r.Context(), vendor, input)
		if err != nil {
			middleware.RespondWithAppError(w, err, h.logger)
			return
		}

		middleware.RespondWithJSON(w, http.StatusOK, sale)
	}
}

func (h *ClearanceHandler) get(owner ownerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendor, ok := owner(w, r)
		if !ok {
			return
		}

		sale, err := h.sales.Get(r.Context(), vendor)
		if err != nil {
			middleware.RespondWithAppError(w, err, h.logger)
			return
		}

		middleware.RespondWithJSON(w, http.StatusOK, sale)
	}
}

func (h *ClearanceHandler) toggle(owner ownerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendor, ok := owner(w, r)
		if !ok {
			return
		}

		var req ToggleSaleRequest
		if err := middleware.DecodeAndValidate(r, &req); err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sale, err := h.sales.ToggleActive(r.Context(), vendor, req.IsActive)
		if err != nil {
			middleware.RespondWithAppError(w, err, h.logger)
			return
		}

		middleware.RespondWithJSON(w, http.StatusOK, sale)
	}
}

func (h *ClearanceHandler) addProducts(owner ownerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendor, ok := owner(w, r)
		if !ok {
			return
		}

		var req AddSaleProductsRequest
		if err := middleware.DecodeAndValidate(r, &req); err != nil {
			if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
				middleware.RespondWithValidationErrors(w, validationErrors)
				return
			}
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		ids := make([]uuid.UUID, 0, len(req.Products))
		for _, raw := range req.Products {
			id, err := uuid.Parse(raw)
			if err != nil {
				middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
				return
			}
			ids = append(ids, id)
		}

		sale, err := h.sales.AddProducts(r.Context(), vendor, ids)
		if err != nil {
			middleware.RespondWithAppError(w, err, h.logger)
			return
		}

		middleware.RespondWithJSON(w, http.StatusOK, sale)
	}
}

func (h *ClearanceHandler) removeProduct(owner ownerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendor, ok := owner(w, r)
		if !ok {
			return
		}

		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
			return
		}

		sale, err := h.sales.RemoveProduct(r.Context(), vendor, productID)
		if err != nil {
			middleware.RespondWithAppError(w, err, h.logger)
			return
		}

		middleware.RespondWithJSON(w, http.StatusOK, sale)
	}
}

func (h *ClearanceHandler) toggleProduct(owner ownerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendor, ok := owner(w, r)
		if !ok {
			return
		}

		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
			return
		}

		var req ToggleSaleProductRequest
		if err := middleware.DecodeAndValidate(r, &req); err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sale, err := h.sales.ToggleProductStatus(r.Context(), vendor, productID, req.IsActive)
		if err != nil {
			middleware.RespondWithAppError(w, err, h.logger)
			return
		}

		middleware.RespondWithJSON(w, http.StatusOK, sale)
	}
}

// PublicSales lists currently live sales for the storefront
func (h *ClearanceHandler) PublicSales(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	sales, err := h.sales.PublicSales(r.Context(), limit)
	if err != nil {
		middleware.RespondWithAppError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"sales": sales})
}

func (req SaleConfigRequest) toInput() (service.SaleConfigInput, error) {
	input := service.SaleConfigInput{
		IsActive:        req.IsActive,
		DiscountAmount:  req.DiscountAmount,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		MetaTitle:       req.MetaTitle,
		MetaDescription: req.MetaDescription,
		MetaImage:       req.MetaImage,
	}

	if req.StartDate != nil {
		t, err := time.Parse(time.RFC3339, *req.StartDate)
		if err != nil {
			return service.SaleConfigInput{}, err
		}
		input.StartDate = &t
	}
	if req.ExpireDate != nil {
		t, err := time.Parse(time.RFC3339, *req.ExpireDate)
		if err != nil {
			return service.SaleConfigInput{}, err
		}
		input.ExpireDate = &t
	}
	if req.DiscountType != nil {
		dt := domain.SaleDiscountType(*req.DiscountType)
		input.DiscountType = &dt
	}
	if req.OfferActiveTime != nil {
		oat := domain.OfferActiveTime(*req.OfferActiveTime)
		input.OfferActiveTime = &oat
	}

	return input, nil
}
