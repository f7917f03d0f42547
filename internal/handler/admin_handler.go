package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/printhub/coupon-platform/internal/model"
	"github.com/printhub/coupon-platform/internal/service"
)

// AdminServiceInterface defines the interface for the admin coupon surface.
type AdminServiceInterface interface {
	Create(ctx context.Context, spec service.CouponSpec) (*model.Coupon, error)
	List(ctx context.Context, filter model.CouponListFilter, page model.Pagination) (*model.CouponPage, error)
	UpdateStatus(ctx context.Context, id string, status model.CouponStatus) (*model.Coupon, error)
	Analytics(ctx context.Context) (*model.AnalyticsSummary, error)
}

// AdminHandler handles the admin coupon listing, manual creation, status
// updates, and analytics.
type AdminHandler struct {
	service   AdminServiceInterface
	validator *validator.Validate
}

// NewAdminHandler creates a new AdminHandler with the given service and validator.
func NewAdminHandler(svc AdminServiceInterface, v *validator.Validate) *AdminHandler {
	return &AdminHandler{service: svc, validator: v}
}

// ListCoupons handles GET /api/admin/coupons with status/search filters and
// pagination.
func (h *AdminHandler) ListCoupons(c *fiber.Ctx) error {
	status := c.Query("status")
	switch status {
	case "", "ACTIVE", "USED", "EXPIRED", "CANCELLED":
	default:
		return fail(c, fiber.StatusBadRequest, "invalid request: status has an unsupported value")
	}

	page, err := h.service.List(c.Context(), model.CouponListFilter{
		Status: status,
		Search: c.Query("search"),
	}, model.Pagination{
		Page:  c.QueryInt("page", 1),
		Limit: c.QueryInt("limit", 10),
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to list coupons")
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch coupons")
	}

	return ok(c, page)
}

// CreateCoupon handles POST /api/admin/coupons for manual coupon creation.
func (h *AdminHandler) CreateCoupon(c *fiber.Ctx) error {
	var req model.CreateCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return fail(c, fiber.StatusBadRequest, formatValidationError(err))
	}

	spec := service.CouponSpec{
		DiscountType:      model.DiscountType(req.DiscountType),
		DiscountValue:     *req.DiscountValue,
		MinimumOrderValue: req.MinimumOrderValue,
		MaxDiscountAmount: req.MaxDiscountAmount,
		ProductID:         req.ProductID,
	}
	if req.ExpiryDays != nil {
		spec.ExpiryDays = *req.ExpiryDays
	}
	if req.UsageLimit != nil {
		spec.UsageLimit = *req.UsageLimit
	}

	coupon, err := h.service.Create(c.Context(), spec)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			return fail(c, fiber.StatusBadRequest, "invalid request")
		}
		log.Error().Err(err).Msg("failed to create manual coupon")
		return fail(c, fiber.StatusInternalServerError, "Failed to create coupon")
	}

	log.Info().Str("coupon_code", coupon.Code).Msg("manual coupon created")
	return created(c, coupon)
}

// UpdateCouponStatus handles PATCH /api/admin/coupons/:id/status.
func (h *AdminHandler) UpdateCouponStatus(c *fiber.Ctx) error {
	id := c.Params("id")

	var req model.UpdateCouponStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return fail(c, fiber.StatusBadRequest, formatValidationError(err))
	}

	coupon, err := h.service.UpdateStatus(c.Context(), id, model.CouponStatus(req.Status))
	if err != nil {
		if errors.Is(err, service.ErrCouponNotFound) {
			return fail(c, fiber.StatusNotFound, "Coupon not found")
		}
		log.Error().Err(err).Str("coupon_id", id).Msg("failed to update coupon status")
		return fail(c, fiber.StatusInternalServerError, "Failed to update coupon status")
	}

	return ok(c, coupon)
}

// Analytics handles GET /api/admin/analytics.
func (h *AdminHandler) Analytics(c *fiber.Ctx) error {
	summary, err := h.service.Analytics(c.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch analytics")
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch analytics")
	}
	return ok(c, summary)
}
