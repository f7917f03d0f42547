package model

import "time"

// DiscountType determines how a coupon's value is applied to an order.
type DiscountType string

const (
	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountFixed      DiscountType = "FIXED_AMOUNT"
)

// CouponStatus is the stored lifecycle state of a coupon. Expiry is evaluated
// lazily at validation time, so an ACTIVE row may still be invalid.
type CouponStatus string

const (
	StatusActive    CouponStatus = "ACTIVE"
	StatusUsed      CouponStatus = "USED"
	StatusExpired   CouponStatus = "EXPIRED"
	StatusCancelled CouponStatus = "CANCELLED"
)

// Coupon represents a redeemable discount instrument.
type Coupon struct {
	ID                string       `json:"id"`
	Code              string       `json:"code"`
	DiscountType      DiscountType `json:"discount_type"`
	DiscountValue     float64      `json:"discount_value"`
	MinimumOrderValue *float64     `json:"minimum_order_value,omitempty"`
	MaxDiscountAmount *float64     `json:"max_discount_amount,omitempty"`
	ExpiresAt         time.Time    `json:"expires_at"`
	UsageLimit        int          `json:"usage_limit"`
	UsedCount         int          `json:"used_count"`
	Status            CouponStatus `json:"status"`
	IsActive          bool         `json:"is_active"`
	ProductID         *string      `json:"product_id,omitempty"`
	PurchaseOrderID   *string      `json:"purchase_order_id,omitempty"`
	CreatedAt         time.Time    `json:"-"` // Not exposed in API
}

// CouponUsage is an append-only record of one successful redemption.
type CouponUsage struct {
	ID         string    `json:"id"`
	CouponID   string    `json:"coupon_id"`
	UserRef    string    `json:"user_ref"`
	OrderValue float64   `json:"order_value"`
	Discount   float64   `json:"discount"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateCouponRequest is the DTO for manual coupon creation (admin).
type CreateCouponRequest struct {
	DiscountType      string   `json:"discount_type" validate:"required,oneof=PERCENTAGE FIXED_AMOUNT"`
	DiscountValue     *float64 `json:"discount_value" validate:"required,gte=0"`
	MinimumOrderValue *float64 `json:"minimum_order_value" validate:"omitempty,gte=0"`
	MaxDiscountAmount *float64 `json:"max_discount_amount" validate:"omitempty,gte=0"`
	ExpiryDays        *int     `json:"expiry_days" validate:"omitempty,gte=1"`
	UsageLimit        *int     `json:"usage_limit" validate:"omitempty,gte=1"`
	ProductID         *string  `json:"product_id" validate:"omitempty,uuid4"`
}

// ApplyCouponRequest is the DTO for redeeming a coupon against an order.
type ApplyCouponRequest struct {
	Code       string   `json:"code" validate:"required,notblank,min=3"`
	UserRef    string   `json:"user_id" validate:"required,notblank,max=255"`
	OrderValue *float64 `json:"order_value" validate:"required,gte=0"`
}

// UpdateCouponStatusRequest is the DTO for the admin status toggle.
type UpdateCouponStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=ACTIVE CANCELLED"`
}

// ApplyCouponResponse reports the outcome of a successful redemption.
type ApplyCouponResponse struct {
	Coupon      *Coupon `json:"coupon"`
	Discount    float64 `json:"discount"`
	OrderValue  float64 `json:"order_value"`
	FinalAmount float64 `json:"final_amount"`
}

// ValidateCouponResponse is returned for read-only validation requests.
type ValidateCouponResponse struct {
	Coupon     *Coupon  `json:"coupon"`
	Discount   float64  `json:"discount"`
	OrderValue *float64 `json:"order_value,omitempty"`
}

// CouponListFilter narrows admin coupon listings.
type CouponListFilter struct {
	Status string // empty means all statuses
	Search string // matches code, customer name, or email
}

// Pagination is the page/limit pair for admin listings.
type Pagination struct {
	Page  int
	Limit int
}

// Offset returns the row offset for the current page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// CouponPage is one page of an admin coupon listing.
type CouponPage struct {
	Coupons []*Coupon `json:"coupons"`
	Page    int       `json:"page"`
	Limit   int       `json:"limit"`
	Total   int       `json:"total"`
	Pages   int       `json:"pages"`
}

// AnalyticsSummary aggregates coupon counters for the admin dashboard.
type AnalyticsSummary struct {
	TotalCoupons   int       `json:"total_coupons"`
	ActiveCoupons  int       `json:"active_coupons"`
	UsedCoupons    int       `json:"used_coupons"`
	ExpiredCoupons int       `json:"expired_coupons"`
	TotalUsage     int       `json:"total_usage"`
	UsageRate      float64   `json:"usage_rate"`
	RecentCoupons  []*Coupon `json:"recent_coupons"`
}
