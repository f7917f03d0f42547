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

// CouponServiceInterface defines the interface for coupon business logic.
type CouponServiceInterface interface {
	Validate(ctx context.Context, code string, orderValue *float64) (*service.ValidationResult, error)
	Apply(ctx context.Context, code, userRef string, orderValue float64) (*model.ApplyCouponResponse, error)
	GetByCode(ctx context.Context, code string) (*model.Coupon, []*model.CouponUsage, error)
}

// CouponHandler handles HTTP requests for coupon validation and redemption.
type CouponHandler struct {
	service   CouponServiceInterface
	validator *validator.Validate
}

// NewCouponHandler creates a new CouponHandler with the given service and validator.
func NewCouponHandler(svc CouponServiceInterface, v *validator.Validate) *CouponHandler {
	return &CouponHandler{service: svc, validator: v}
}

// Validate handles GET /api/coupons/validate/:code?orderValue= requests.
// Read-only: reports validity, the coupon, and the discount the order value
// would earn.
func (h *CouponHandler) Validate(c *fiber.Ctx) error {
	code := c.Params("code")
	if len(code) < 3 {
		return fail(c, fiber.StatusBadRequest, "invalid request: code is too short")
	}

	var orderValue *float64
	if c.Query("orderValue") != "" {
		parsed := c.QueryFloat("orderValue", -1)
		if parsed < 0 {
			return fail(c, fiber.StatusBadRequest, "invalid request: orderValue must be a non-negative number")
		}
		orderValue = &parsed
	}

	result, err := h.service.Validate(c.Context(), code, orderValue)
	if err != nil {
		log.Error().Err(err).Str("coupon_code", code).Msg("failed to validate coupon")
		return fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	if !result.IsValid {
		return fail(c, fiber.StatusBadRequest, result.Reason)
	}

	discountAmount := 0.0
	if orderValue != nil {
		discountAmount = service.CalculateDiscount(result.Coupon, *orderValue)
	}

	return ok(c, model.ValidateCouponResponse{
		Coupon:     result.Coupon,
		Discount:   discountAmount,
		OrderValue: orderValue,
	})
}

// Apply handles POST /api/coupons/apply requests to redeem a coupon.
func (h *CouponHandler) Apply(c *fiber.Ctx) error {
	var req model.ApplyCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return fail(c, fiber.StatusBadRequest, formatValidationError(err))
	}

	resp, err := h.service.Apply(c.Context(), req.Code, req.UserRef, *req.OrderValue)
	if err != nil {
		var ve *service.ValidationError
		if errors.As(err, &ve) {
			return fail(c, fiber.StatusBadRequest, ve.Reason)
		}
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader("X-Request-ID")).
			Str("coupon_code", req.Code).
			Str("user_id", req.UserRef).
			Msg("failed to apply coupon")
		return fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	log.Info().
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Str("coupon_code", req.Code).
		Str("user_id", req.UserRef).
		Float64("discount", resp.Discount).
		Msg("coupon applied")

	return ok(c, resp)
}

// Get handles GET /api/coupons/:code requests for coupon details with usage
// history.
func (h *CouponHandler) Get(c *fiber.Ctx) error {
	code := c.Params("code")
	if len(code) < 3 {
		return fail(c, fiber.StatusBadRequest, "invalid request: code is too short")
	}

	coupon, usage, err := h.service.GetByCode(c.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrCouponNotFound) {
			return fail(c, fiber.StatusNotFound, "Coupon not found")
		}
		log.Error().Err(err).Str("coupon_code", code).Msg("failed to get coupon")
		return fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	return ok(c, fiber.Map{"coupon": coupon, "usage": usage})
}
