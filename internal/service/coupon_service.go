package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/printhub/coupon-platform/internal/couponcode"
	"github.com/printhub/coupon-platform/internal/discount"
	"github.com/printhub/coupon-platform/internal/model"
	"github.com/printhub/coupon-platform/pkg/database"
)

const (
	// DefaultExpiryDays applies to manual coupons without an explicit expiry.
	DefaultExpiryDays = 30

	// PurchaseExpiryDays applies to coupons auto-generated after a purchase.
	PurchaseExpiryDays = 90
)

// CouponRepositoryInterface defines the interface for coupon data access.
type CouponRepositoryInterface interface {
	Insert(ctx context.Context, coupon *model.Coupon) error
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
	GetForUpdate(ctx context.Context, tx database.TxQuerier, code string) (*model.Coupon, error)
	RecordUse(ctx context.Context, tx database.TxQuerier, id string) error
	UpdateStatus(ctx context.Context, id string, status model.CouponStatus) (*model.Coupon, error)
	ActiveByOrder(ctx context.Context, orderID string) (*model.Coupon, error)
	List(ctx context.Context, filter model.CouponListFilter, page model.Pagination) ([]*model.Coupon, error)
	Count(ctx context.Context, filter model.CouponListFilter) (int, error)
	CountAll(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status model.CouponStatus) (int, error)
	Recent(ctx context.Context, limit int) ([]*model.Coupon, error)
}

// OrderRepositoryInterface defines the interface for purchase order data access.
type OrderRepositoryInterface interface {
	Insert(ctx context.Context, order *model.PurchaseOrder) error
	GetByID(ctx context.Context, id string) (*model.PurchaseOrder, error)
	GetByOrderNumber(ctx context.Context, orderNumber string) (*model.PurchaseOrder, error)
}

// ProductRepositoryInterface defines the interface for product data access.
type ProductRepositoryInterface interface {
	GetByID(ctx context.Context, id string) (*model.Product, error)
	ListActive(ctx context.Context) ([]*model.Product, error)
	FirstActive(ctx context.Context) (*model.Product, error)
}

// UsageRepositoryInterface defines the interface for usage record data access.
type UsageRepositoryInterface interface {
	Insert(ctx context.Context, tx database.TxQuerier, usage *model.CouponUsage) error
	CountAll(ctx context.Context) (int, error)
	ListByCoupon(ctx context.Context, couponID string) ([]*model.CouponUsage, error)
}

// TxBeginner defines the interface for beginning transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CouponSpec carries the parameters for creating a coupon. Zero ExpiryDays
// and UsageLimit fall back to the defaults (30 days, single use).
type CouponSpec struct {
	DiscountType      model.DiscountType
	DiscountValue     float64
	MinimumOrderValue *float64
	MaxDiscountAmount *float64
	ExpiryDays        int
	UsageLimit        int
	ProductID         *string
	PurchaseOrderID   *string
}

// ValidationResult reports a read-only coupon validation. Reason is empty
// when the coupon is valid.
type ValidationResult struct {
	IsValid bool
	Coupon  *model.Coupon
	Reason  string
}

// CouponService provides the coupon engine: creation, validation, discount
// math, and usage recording.
type CouponService struct {
	pool        TxBeginner
	couponRepo  CouponRepositoryInterface
	orderRepo   OrderRepositoryInterface
	productRepo ProductRepositoryInterface
	usageRepo   UsageRepositoryInterface
	generator   *couponcode.Generator
	now         func() time.Time
}

// NewCouponService creates a CouponService with the given pool and repositories.
func NewCouponService(pool *pgxpool.Pool, couponRepo CouponRepositoryInterface, orderRepo OrderRepositoryInterface, productRepo ProductRepositoryInterface, usageRepo UsageRepositoryInterface, generator *couponcode.Generator) *CouponService {
	return &CouponService{
		pool:        pool,
		couponRepo:  couponRepo,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		usageRepo:   usageRepo,
		generator:   generator,
		now:         time.Now,
	}
}

// NewCouponServiceWithDeps creates a CouponService with a custom TxBeginner
// and clock. Primarily used for testing.
func NewCouponServiceWithDeps(pool TxBeginner, couponRepo CouponRepositoryInterface, orderRepo OrderRepositoryInterface, productRepo ProductRepositoryInterface, usageRepo UsageRepositoryInterface, generator *couponcode.Generator, now func() time.Time) *CouponService {
	return &CouponService{
		pool:        pool,
		couponRepo:  couponRepo,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		usageRepo:   usageRepo,
		generator:   generator,
		now:         now,
	}
}

// Create generates a unique code and persists a new ACTIVE coupon.
// Returns couponcode.ErrGenerationExhausted if no collision-free code could
// be drawn.
func (s *CouponService) Create(ctx context.Context, spec CouponSpec) (*model.Coupon, error) {
	if spec.DiscountValue < 0 {
		return nil, ErrInvalidRequest
	}

	code, err := s.generator.UniqueCode(ctx, couponcode.DefaultMaxRetries)
	if err != nil {
		return nil, err
	}

	expiryDays := spec.ExpiryDays
	if expiryDays <= 0 {
		expiryDays = DefaultExpiryDays
	}
	usageLimit := spec.UsageLimit
	if usageLimit <= 0 {
		usageLimit = 1
	}

	coupon := &model.Coupon{
		ID:                uuid.NewString(),
		Code:              code,
		DiscountType:      spec.DiscountType,
		DiscountValue:     spec.DiscountValue,
		MinimumOrderValue: spec.MinimumOrderValue,
		MaxDiscountAmount: spec.MaxDiscountAmount,
		ExpiresAt:         s.now().AddDate(0, 0, expiryDays),
		UsageLimit:        usageLimit,
		UsedCount:         0,
		Status:            model.StatusActive,
		IsActive:          true,
		ProductID:         spec.ProductID,
		PurchaseOrderID:   spec.PurchaseOrderID,
	}

	if err := s.couponRepo.Insert(ctx, coupon); err != nil {
		return nil, fmt.Errorf("persist coupon: %w", err)
	}
	return coupon, nil
}

// CreateAfterPurchase derives a coupon from the purchase order's product
// category and order total: 90-day expiry, single use.
// Returns ErrOrderNotFound or ErrProductNotFound when the links are missing.
func (s *CouponService) CreateAfterPurchase(ctx context.Context, orderID string) (*model.Coupon, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get purchase order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	product, err := s.productRepo.GetByID(ctx, order.ProductID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	rule := discount.RuleFor(discount.ParseCategory(product.Category), order.TotalAmount)
	minimum := rule.MinimumOrderValue

	return s.Create(ctx, CouponSpec{
		DiscountType:      rule.Type,
		DiscountValue:     rule.Value,
		MinimumOrderValue: &minimum,
		MaxDiscountAmount: rule.MaxDiscountAmount,
		ExpiryDays:        PurchaseExpiryDays,
		UsageLimit:        1,
		ProductID:         &order.ProductID,
		PurchaseOrderID:   &order.ID,
	})
}

// checkCoupon runs the ordered business checks against a loaded coupon and
// returns the first rejection reason, or "" when the coupon is usable.
// The check order is part of the contract: status before expiry, expiry
// before the usage limit, the order-value minimum last.
func checkCoupon(coupon *model.Coupon, now time.Time, orderValue *float64) string {
	if coupon.Status != model.StatusActive {
		return "Coupon is not active"
	}
	if !coupon.IsActive {
		return "Coupon is disabled"
	}
	if now.After(coupon.ExpiresAt) {
		return "Coupon has expired"
	}
	if coupon.UsedCount >= coupon.UsageLimit {
		return "Coupon usage limit reached"
	}
	if coupon.MinimumOrderValue != nil && orderValue != nil && *orderValue < *coupon.MinimumOrderValue {
		return fmt.Sprintf("Minimum order value of $%g required", *coupon.MinimumOrderValue)
	}
	return ""
}

// Validate checks a code against an optional order value. Read-only; all
// rejections short-circuit in a fixed order. Expiry is evaluated here, so an
// ACTIVE row whose expiry has lapsed is still rejected.
func (s *CouponService) Validate(ctx context.Context, code string, orderValue *float64) (*ValidationResult, error) {
	coupon, err := s.couponRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	if coupon == nil {
		return &ValidationResult{IsValid: false, Reason: "Coupon not found"}, nil
	}

	if reason := checkCoupon(coupon, s.now(), orderValue); reason != "" {
		return &ValidationResult{IsValid: false, Coupon: coupon, Reason: reason}, nil
	}
	return &ValidationResult{IsValid: true, Coupon: coupon}, nil
}

// CalculateDiscount computes the discount amount for an order value.
// PERCENTAGE discounts are capped at MaxDiscountAmount when set; FIXED_AMOUNT
// returns the value unclamped even when it exceeds the order value. Currency
// rounding is the caller's concern.
func CalculateDiscount(coupon *model.Coupon, orderValue float64) float64 {
	if coupon.DiscountType == model.DiscountPercentage {
		d := orderValue * coupon.DiscountValue / 100
		if coupon.MaxDiscountAmount != nil {
			return math.Min(d, *coupon.MaxDiscountAmount)
		}
		return d
	}
	return coupon.DiscountValue
}

// Apply redeems a coupon against an order: one usage record, used_count
// incremented, status flipped to USED at the limit. The whole sequence runs
// in a transaction with the coupon row locked, so two concurrent applies of a
// single-use coupon cannot both succeed.
// Business rejections come back as *ValidationError.
func (s *CouponService) Apply(ctx context.Context, code, userRef string, orderValue float64) (*model.ApplyCouponResponse, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	coupon, err := s.couponRepo.GetForUpdate(ctx, tx, code)
	if err != nil {
		if errors.Is(err, ErrCouponNotFound) {
			return nil, &ValidationError{Reason: "Coupon not found"}
		}
		return nil, fmt.Errorf("get coupon for update: %w", err)
	}

	if reason := checkCoupon(coupon, s.now(), &orderValue); reason != "" {
		return nil, &ValidationError{Reason: reason}
	}

	discountAmount := CalculateDiscount(coupon, orderValue)

	usage := &model.CouponUsage{
		ID:         uuid.NewString(),
		CouponID:   coupon.ID,
		UserRef:    userRef,
		OrderValue: orderValue,
		Discount:   discountAmount,
	}
	if err := s.usageRepo.Insert(ctx, tx, usage); err != nil {
		return nil, fmt.Errorf("insert usage: %w", err)
	}

	if err := s.couponRepo.RecordUse(ctx, tx, coupon.ID); err != nil {
		return nil, fmt.Errorf("record use: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	coupon.UsedCount++
	if coupon.UsedCount >= coupon.UsageLimit {
		coupon.Status = model.StatusUsed
	}

	return &model.ApplyCouponResponse{
		Coupon:      coupon,
		Discount:    discountAmount,
		OrderValue:  orderValue,
		FinalAmount: orderValue - discountAmount,
	}, nil
}

// GetByCode returns a coupon with its usage history.
// Returns ErrCouponNotFound if the coupon doesn't exist.
func (s *CouponService) GetByCode(ctx context.Context, code string) (*model.Coupon, []*model.CouponUsage, error) {
	coupon, err := s.couponRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("get coupon: %w", err)
	}
	if coupon == nil {
		return nil, nil, ErrCouponNotFound
	}

	usage, err := s.usageRepo.ListByCoupon(ctx, coupon.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("get usage: %w", err)
	}
	return coupon, usage, nil
}

// List returns one page of coupons for the admin surface.
func (s *CouponService) List(ctx context.Context, filter model.CouponListFilter, page model.Pagination) (*model.CouponPage, error) {
	if page.Page < 1 {
		page.Page = 1
	}
	if page.Limit < 1 || page.Limit > 100 {
		page.Limit = 10
	}

	coupons, err := s.couponRepo.List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	total, err := s.couponRepo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count coupons: %w", err)
	}

	pages := 0
	if total > 0 {
		pages = (total + page.Limit - 1) / page.Limit
	}

	return &model.CouponPage{
		Coupons: coupons,
		Page:    page.Page,
		Limit:   page.Limit,
		Total:   total,
		Pages:   pages,
	}, nil
}

// UpdateStatus sets a coupon's stored status (admin: ACTIVE or CANCELLED).
func (s *CouponService) UpdateStatus(ctx context.Context, id string, status model.CouponStatus) (*model.Coupon, error) {
	return s.couponRepo.UpdateStatus(ctx, id, status)
}

// Analytics aggregates coupon counters and the five most recent coupons.
func (s *CouponService) Analytics(ctx context.Context) (*model.AnalyticsSummary, error) {
	total, err := s.couponRepo.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.couponRepo.CountByStatus(ctx, model.StatusActive)
	if err != nil {
		return nil, err
	}
	used, err := s.couponRepo.CountByStatus(ctx, model.StatusUsed)
	if err != nil {
		return nil, err
	}
	expired, err := s.couponRepo.CountByStatus(ctx, model.StatusExpired)
	if err != nil {
		return nil, err
	}
	totalUsage, err := s.usageRepo.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.couponRepo.Recent(ctx, 5)
	if err != nil {
		return nil, err
	}

	usageRate := 0.0
	if total > 0 {
		usageRate = math.Round(float64(used)/float64(total)*100*100) / 100
	}

	return &model.AnalyticsSummary{
		TotalCoupons:   total,
		ActiveCoupons:  active,
		UsedCoupons:    used,
		ExpiredCoupons: expired,
		TotalUsage:     totalUsage,
		UsageRate:      usageRate,
		RecentCoupons:  recent,
	}, nil
}
