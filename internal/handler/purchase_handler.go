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

// PurchaseServiceInterface defines the interface for purchase and catalog logic.
type PurchaseServiceInterface interface {
	CreatePurchase(ctx context.Context, req *model.CreatePurchaseRequest) (*model.CreatePurchaseResponse, error)
	ListProducts(ctx context.Context) ([]*model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
}

// PurchaseHandler handles purchase creation and the product catalog.
type PurchaseHandler struct {
	service   PurchaseServiceInterface
	validator *validator.Validate
}

// NewPurchaseHandler creates a new PurchaseHandler with the given service and validator.
func NewPurchaseHandler(svc PurchaseServiceInterface, v *validator.Validate) *PurchaseHandler {
	return &PurchaseHandler{service: svc, validator: v}
}

// CreatePurchase handles POST /api/purchases requests. The purchase triggers
// automatic coupon generation and the coupon email.
func (h *PurchaseHandler) CreatePurchase(c *fiber.Ctx) error {
	var req model.CreatePurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return fail(c, fiber.StatusBadRequest, formatValidationError(err))
	}

	resp, err := h.service.CreatePurchase(c.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			return fail(c, fiber.StatusNotFound, "Product not found")
		}
		if errors.Is(err, service.ErrInvalidRequest) {
			return fail(c, fiber.StatusBadRequest, "invalid request")
		}
		log.Error().Err(err).Str("email", req.Email).Msg("failed to create purchase")
		return fail(c, fiber.StatusInternalServerError, "Failed to create purchase")
	}

	log.Info().
		Str("order_number", resp.PurchaseOrder.OrderNumber).
		Str("coupon_code", resp.Coupon.Code).
		Msg("purchase created with coupon")

	return created(c, resp)
}

// ListProducts handles GET /api/products requests.
func (h *PurchaseHandler) ListProducts(c *fiber.Ctx) error {
	products, err := h.service.ListProducts(c.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list products")
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch products")
	}
	return ok(c, products)
}

// GetProduct handles GET /api/products/:id requests.
func (h *PurchaseHandler) GetProduct(c *fiber.Ctx) error {
	id := c.Params("id")

	product, err := h.service.GetProduct(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			return fail(c, fiber.StatusNotFound, "Product not found")
		}
		log.Error().Err(err).Str("product_id", id).Msg("failed to get product")
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch product")
	}
	return ok(c, product)
}
