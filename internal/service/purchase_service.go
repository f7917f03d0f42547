package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/printhub/coupon-platform/internal/model"
	"github.com/printhub/coupon-platform/internal/notify"
)

// CouponAfterPurchase is the slice of the coupon engine the purchase flow needs.
type CouponAfterPurchase interface {
	CreateAfterPurchase(ctx context.Context, orderID string) (*model.Coupon, error)
}

// PurchaseService creates demo purchase orders and triggers the automatic
// coupon + email that follow a purchase.
type PurchaseService struct {
	orderRepo   OrderRepositoryInterface
	productRepo ProductRepositoryInterface
	coupons     CouponAfterPurchase
	notifier    notify.Notifier
	now         func() time.Time
}

// NewPurchaseService creates a PurchaseService.
func NewPurchaseService(orderRepo OrderRepositoryInterface, productRepo ProductRepositoryInterface, coupons CouponAfterPurchase, notifier notify.Notifier) *PurchaseService {
	return &PurchaseService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		coupons:     coupons,
		notifier:    notifier,
		now:         time.Now,
	}
}

// orderNumber builds a user-facing order number: PAN-<unix millis>-<6 random
// base36 chars>.
func (s *PurchaseService) orderNumber() (string, error) {
	const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	suffix := make([]byte, 6)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(base36))))
		if err != nil {
			return "", fmt.Errorf("draw order number suffix: %w", err)
		}
		suffix[i] = base36[n.Int64()]
	}
	return fmt.Sprintf("PAN-%d-%s", s.now().UnixMilli(), suffix), nil
}

// CreatePurchase persists a purchase order, auto-generates its coupon, and
// emails the coupon to the customer. Email failure is logged and surfaced in
// the response message but never rolls back the purchase or coupon.
func (s *PurchaseService) CreatePurchase(ctx context.Context, req *model.CreatePurchaseRequest) (*model.CreatePurchaseResponse, error) {
	if req == nil || req.TotalAmount == nil {
		return nil, ErrInvalidRequest
	}

	product, err := s.productRepo.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		// Demo convenience: fall back to any active product so the purchase
		// form works without knowing real catalog ids.
		product, err = s.productRepo.FirstActive(ctx)
		if err != nil {
			return nil, fmt.Errorf("get fallback product: %w", err)
		}
		if product == nil {
			return nil, ErrProductNotFound
		}
	}

	number, err := s.orderNumber()
	if err != nil {
		return nil, err
	}

	order := &model.PurchaseOrder{
		ID:           uuid.NewString(),
		OrderNumber:  number,
		CustomerName: req.CustomerName,
		Email:        req.Email,
		Phone:        req.Phone,
		TotalAmount:  *req.TotalAmount,
		SerialNumber: req.SerialNumber,
		ProductID:    product.ID,
	}
	if err := s.orderRepo.Insert(ctx, order); err != nil {
		return nil, fmt.Errorf("insert purchase order: %w", err)
	}

	coupon, err := s.coupons.CreateAfterPurchase(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("create coupon after purchase: %w", err)
	}

	message := "Purchase created successfully! Coupon has been sent to your email."
	if err := s.notifier.SendCouponEmail(ctx, order.Email, order.CustomerName, coupon, order); err != nil {
		if !errors.Is(err, notify.ErrNotificationFailed) {
			return nil, err
		}
		log.Warn().Err(err).Str("order_number", order.OrderNumber).Msg("coupon email dispatch failed")
		message = "Purchase created successfully, but the coupon email could not be delivered."
	}

	return &model.CreatePurchaseResponse{
		PurchaseOrder: order,
		Coupon:        coupon,
		Message:       message,
	}, nil
}

// ListProducts returns the active catalog.
func (s *PurchaseService) ListProducts(ctx context.Context) ([]*model.Product, error) {
	return s.productRepo.ListActive(ctx)
}

// GetProduct returns one product.
// Returns ErrProductNotFound if it doesn't exist.
func (s *PurchaseService) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}
