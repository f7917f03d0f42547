package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printhub/coupon-platform/internal/model"
	"github.com/printhub/coupon-platform/internal/notify"
)

// mockCouponAfterPurchase is a mock implementation of CouponAfterPurchase.
type mockCouponAfterPurchase struct {
	createAfterPurchaseFn func(ctx context.Context, orderID string) (*model.Coupon, error)
}

func (m *mockCouponAfterPurchase) CreateAfterPurchase(ctx context.Context, orderID string) (*model.Coupon, error) {
	if m.createAfterPurchaseFn != nil {
		return m.createAfterPurchaseFn(ctx, orderID)
	}
	return &model.Coupon{ID: "coupon-1", Code: "AUTO-CODE-AB", Status: model.StatusActive}, nil
}

func purchaseRequest() *model.CreatePurchaseRequest {
	return &model.CreatePurchaseRequest{
		CustomerName: "Ada Lovelace",
		Email:        "ada@example.com",
		Phone:        strPtr("+15551234567"),
		ProductID:    "product-1",
		TotalAmount:  floatPtr(150),
	}
}

func TestPurchaseService_CreatePurchase_Success(t *testing.T) {
	var capturedOrder *model.PurchaseOrder
	mockOrderRepo := &mockOrderRepository{
		insertFn: func(ctx context.Context, order *model.PurchaseOrder) error {
			capturedOrder = order
			return nil
		},
	}
	mockProductRepo := &mockProductRepository{
		getByIDFn: func(ctx context.Context, id string) (*model.Product, error) {
			return &model.Product{ID: "product-1", Category: "Printers", IsActive: true}, nil
		},
	}
	var emailedTo string
	notifier := &mockNotifier{
		sendCouponEmailFn: func(ctx context.Context, email, name string, coupon *model.Coupon, order *model.PurchaseOrder) error {
			emailedTo = email
			return nil
		},
	}

	svc := NewPurchaseService(mockOrderRepo, mockProductRepo, &mockCouponAfterPurchase{}, notifier)

	resp, err := svc.CreatePurchase(context.Background(), purchaseRequest())

	require.NoError(t, err)
	require.NotNil(t, capturedOrder)
	assert.Regexp(t, `^PAN-\d+-[0-9A-Z]{6}$`, capturedOrder.OrderNumber)
	assert.Equal(t, "Ada Lovelace", capturedOrder.CustomerName)
	assert.Equal(t, 150.0, capturedOrder.TotalAmount)
	assert.Equal(t, "product-1", capturedOrder.ProductID)

	assert.Equal(t, capturedOrder, resp.PurchaseOrder)
	assert.Equal(t, "AUTO-CODE-AB", resp.Coupon.Code)
	assert.Equal(t, "Purchase created successfully! Coupon has been sent to your email.", resp.Message)
	assert.Equal(t, "ada@example.com", emailedTo)
}

func TestPurchaseService_CreatePurchase_UnknownProductFallsBack(t *testing.T) {
	mockProductRepo := &mockProductRepository{
		firstActiveFn: func(ctx context.Context) (*model.Product, error) {
			return &model.Product{ID: "product-any", Category: "Paper", IsActive: true}, nil
		},
	}
	var capturedOrder *model.PurchaseOrder
	mockOrderRepo := &mockOrderRepository{
		insertFn: func(ctx context.Context, order *model.PurchaseOrder) error {
			capturedOrder = order
			return nil
		},
	}
	svc := NewPurchaseService(mockOrderRepo, mockProductRepo, &mockCouponAfterPurchase{}, &mockNotifier{})

	req := purchaseRequest()
	req.ProductID = "no-such-product"
	_, err := svc.CreatePurchase(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "product-any", capturedOrder.ProductID, "unknown product falls back to any active one")
}

func TestPurchaseService_CreatePurchase_EmptyCatalog(t *testing.T) {
	svc := NewPurchaseService(&mockOrderRepository{}, &mockProductRepository{}, &mockCouponAfterPurchase{}, &mockNotifier{})

	_, err := svc.CreatePurchase(context.Background(), purchaseRequest())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProductNotFound))
}

func TestPurchaseService_CreatePurchase_NilAmount(t *testing.T) {
	svc := NewPurchaseService(&mockOrderRepository{}, &mockProductRepository{}, &mockCouponAfterPurchase{}, &mockNotifier{})

	req := purchaseRequest()
	req.TotalAmount = nil
	_, err := svc.CreatePurchase(context.Background(), req)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestPurchaseService_CreatePurchase_EmailFailureDoesNotRollBack(t *testing.T) {
	mockProductRepo := &mockProductRepository{
		getByIDFn: func(ctx context.Context, id string) (*model.Product, error) {
			return &model.Product{ID: "product-1", Category: "Printers", IsActive: true}, nil
		},
	}
	notifier := &mockNotifier{
		sendCouponEmailFn: func(ctx context.Context, email, name string, coupon *model.Coupon, order *model.PurchaseOrder) error {
			return fmt.Errorf("%w: smtp: connection refused", notify.ErrNotificationFailed)
		},
	}
	svc := NewPurchaseService(&mockOrderRepository{}, mockProductRepo, &mockCouponAfterPurchase{}, notifier)

	resp, err := svc.CreatePurchase(context.Background(), purchaseRequest())

	require.NoError(t, err, "a failed email never fails the purchase")
	assert.NotNil(t, resp.Coupon)
	assert.Equal(t, "Purchase created successfully, but the coupon email could not be delivered.", resp.Message)
}

func TestPurchaseService_CreatePurchase_CouponFailureFailsPurchase(t *testing.T) {
	mockProductRepo := &mockProductRepository{
		getByIDFn: func(ctx context.Context, id string) (*model.Product, error) {
			return &model.Product{ID: "product-1", Category: "Printers", IsActive: true}, nil
		},
	}
	creator := &mockCouponAfterPurchase{
		createAfterPurchaseFn: func(ctx context.Context, orderID string) (*model.Coupon, error) {
			return nil, errors.New("database connection failed")
		},
	}
	svc := NewPurchaseService(&mockOrderRepository{}, mockProductRepo, creator, &mockNotifier{})

	_, err := svc.CreatePurchase(context.Background(), purchaseRequest())

	require.Error(t, err)
}

func TestPurchaseService_GetProduct_NotFound(t *testing.T) {
	svc := NewPurchaseService(&mockOrderRepository{}, &mockProductRepository{}, &mockCouponAfterPurchase{}, &mockNotifier{})

	_, err := svc.GetProduct(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProductNotFound))
}

func TestPurchaseService_ListProducts(t *testing.T) {
	mockProductRepo := &mockProductRepository{
		listActiveFn: func(ctx context.Context) ([]*model.Product, error) {
			return []*model.Product{
				{ID: "product-1", Name: "P2502W Wireless Laser Printer", Category: "Printers"},
				{ID: "product-2", Name: "TL-410 Toner Cartridge", Category: "Cartridges"},
			}, nil
		},
	}
	svc := NewPurchaseService(&mockOrderRepository{}, mockProductRepo, &mockCouponAfterPurchase{}, &mockNotifier{})

	products, err := svc.ListProducts(context.Background())

	require.NoError(t, err)
	assert.Len(t, products, 2)
}
