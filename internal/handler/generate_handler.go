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

// IssuanceServiceInterface defines the interface for the OTP-gated manual
// coupon issuance flow.
type IssuanceServiceInterface interface {
	InvoiceContact(ctx context.Context, orderNumber string) (*model.InvoiceContact, error)
	RequestOTP(ctx context.Context, phoneNumber, invoiceNumber string) (*service.OTPSessionInfo, error)
	ResendOTP(ctx context.Context, sessionID string) (*service.OTPSessionInfo, error)
	VerifyAndGenerate(ctx context.Context, sessionID, submittedCode string) (*service.IssuanceResult, error)
}

// GenerateHandler handles the manual coupon generation endpoints.
type GenerateHandler struct {
	service   IssuanceServiceInterface
	validator *validator.Validate
}

// NewGenerateHandler creates a new GenerateHandler with the given service and validator.
func NewGenerateHandler(svc IssuanceServiceInterface, v *validator.Validate) *GenerateHandler {
	return &GenerateHandler{service: svc, validator: v}
}

// Invoice handles GET /api/generate/invoice/:orderNumber lookups.
func (h *GenerateHandler) Invoice(c *fiber.Ctx) error {
	orderNumber := c.Params("orderNumber")
	if orderNumber == "" {
		return fail(c, fiber.StatusBadRequest, "invalid request: orderNumber is required")
	}

	contact, err := h.service.InvoiceContact(c.Context(), orderNumber)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			return fail(c, fiber.StatusNotFound, "Invoice not found")
		}
		log.Error().Err(err).Str("order_number", orderNumber).Msg("failed to fetch invoice details")
		return fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	return ok(c, contact)
}

// RequestOTP handles POST /api/generate/request-otp.
func (h *GenerateHandler) RequestOTP(c *fiber.Ctx) error {
	var req model.RequestOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return fail(c, fiber.StatusBadRequest, formatValidationError(err))
	}

	info, err := h.service.RequestOTP(c.Context(), req.PhoneNumber, req.InvoiceNumber)
	if err != nil {
		var issued *service.AlreadyIssuedError
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			return fail(c, fiber.StatusNotFound, "Invoice not found")
		case errors.As(err, &issued):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success":         false,
				"error":           "A coupon has already been generated for this invoice",
				"existing_coupon": issued.ExistingCode,
			})
		}
		log.Error().Err(err).Str("invoice_number", req.InvoiceNumber).Msg("failed to send otp")
		return fail(c, fiber.StatusInternalServerError, "Failed to send OTP")
	}

	return ok(c, fiber.Map{
		"session_id": info.SessionID,
		"message":    "OTP sent successfully",
		"expires_in": info.ExpiresIn,
		"dev_otp":    info.DevCode, // empty outside demo mode
	})
}

// VerifyAndGenerate handles POST /api/generate/verify-and-generate.
func (h *GenerateHandler) VerifyAndGenerate(c *fiber.Ctx) error {
	var req model.VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return fail(c, fiber.StatusBadRequest, formatValidationError(err))
	}

	result, err := h.service.VerifyAndGenerate(c.Context(), req.SessionID, req.OTP)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSession):
			return fail(c, fiber.StatusBadRequest, "Invalid or expired session")
		case errors.Is(err, service.ErrOTPExpired):
			return fail(c, fiber.StatusBadRequest, "OTP has expired. Please request a new one.")
		case errors.Is(err, service.ErrOTPMismatch):
			return fail(c, fiber.StatusBadRequest, "Invalid OTP")
		case errors.Is(err, service.ErrOrderNotFound):
			return fail(c, fiber.StatusNotFound, "Purchase order not found")
		}
		log.Error().Err(err).Str("session_id", req.SessionID).Msg("failed to verify otp and generate coupon")
		return fail(c, fiber.StatusInternalServerError, "Failed to generate coupon")
	}

	if result.Existing {
		return ok(c, fiber.Map{
			"coupon":  result.Coupon,
			"message": "Existing coupon retrieved",
		})
	}

	return created(c, fiber.Map{
		"coupon":  result.Coupon,
		"message": "Coupon generated successfully",
	})
}

// ResendOTP handles POST /api/generate/resend-otp.
func (h *GenerateHandler) ResendOTP(c *fiber.Ctx) error {
	var req model.ResendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return fail(c, fiber.StatusBadRequest, formatValidationError(err))
	}

	info, err := h.service.ResendOTP(c.Context(), req.SessionID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSession) {
			return fail(c, fiber.StatusBadRequest, "Invalid session. Please start over.")
		}
		log.Error().Err(err).Str("session_id", req.SessionID).Msg("failed to resend otp")
		return fail(c, fiber.StatusInternalServerError, "Failed to resend OTP")
	}

	return ok(c, fiber.Map{
		"message":    "New OTP sent successfully",
		"expires_in": info.ExpiresIn,
		"dev_otp":    info.DevCode,
	})
}
