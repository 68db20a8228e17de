package domain

import (
	"time"

	"github.com/google/uuid"
)

// SaleDiscountType selects how member products are discounted.
type SaleDiscountType string

const (
	// SaleDiscountFlat applies the sale's discountAmount as a percentage off
	// each member product's price. The name is historical; the computation is
	// part of the persisted compatibility surface and must stay percentage
	// based.
	SaleDiscountFlat SaleDiscountType = "flat"
	// SaleDiscountProductWise defers pricing to a per-product override; the
	// overlay attaches metadata only and leaves the vendor price standing.
	SaleDiscountProductWise SaleDiscountType = "product_wise"
)

// OfferActiveTime selects whether the sale runs all day or only inside a
// daily time window.
type OfferActiveTime string

const (
	OfferAlways       OfferActiveTime = "always"
	OfferSpecificTime OfferActiveTime = "specific_time"
)

// SaleProduct is a product's membership in a clearance sale. Membership and
// per-product visibility are independent toggles.
type SaleProduct struct {
	Product  uuid.UUID `json:"product"`
	IsActive bool      `json:"isActive"`
}

// ClearanceSale is a vendor's (or the admin-global) clearance sale
// configuration. At most one exists per owner; a nil Vendor marks the
// admin-global configuration.
type ClearanceSale struct {
	ID              uuid.UUID        `json:"id"`
	Vendor          *uuid.UUID       `json:"vendor,omitempty"`
	IsActive        bool             `json:"isActive"`
	StartDate       time.Time        `json:"startDate"`
	ExpireDate      time.Time        `json:"expireDate"`
	DiscountType    SaleDiscountType `json:"discountType"`
	DiscountAmount  float64          `json:"discountAmount"`
	OfferActiveTime OfferActiveTime  `json:"offerActiveTime"`
	StartTime       string           `json:"startTime,omitempty"` // "HH:mm"
	EndTime         string           `json:"endTime,omitempty"`   // "HH:mm"
	MetaTitle       string           `json:"metaTitle,omitempty"`
	MetaDescription string           `json:"metaDescription,omitempty"`
	MetaImage       string           `json:"metaImage,omitempty"`
	Products        []SaleProduct    `json:"products"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// Member returns the membership entry for a product id, or nil.
func (s *ClearanceSale) Member(productID uuid.UUID) *SaleProduct {
	for i := range s.Products {
		if s.Products[i].Product == productID {
			return &s.Products[i]
		}
	}
	return nil
}

// LiveAt reports whether the sale is switched on and the instant falls inside
// its date range. The daily specific_time window is not checked here; it
// ships with the overlay metadata for the render layer to apply.
func (s *ClearanceSale) LiveAt(now time.Time) bool {
	return s.IsActive && !now.Before(s.StartDate) && !now.After(s.ExpireDate)
}

// SaleOverlay is the read-time enrichment attached to a product when its
// vendor has a live clearance sale covering it.
type SaleOverlay struct {
	DiscountType    SaleDiscountType `json:"discountType"`
	DiscountAmount  float64          `json:"discountAmount"`
	OfferActiveTime OfferActiveTime  `json:"offerActiveTime"`
	StartTime       string           `json:"startTime,omitempty"`
	EndTime         string           `json:"endTime,omitempty"`
	MetaTitle       string           `json:"metaTitle,omitempty"`
}
