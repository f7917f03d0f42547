package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printhub/coupon-platform/internal/model"
	"github.com/printhub/coupon-platform/internal/notify"
	"github.com/printhub/coupon-platform/internal/otp"
)

// mockNotifier is a mock implementation of notify.Notifier.
type mockNotifier struct {
	sendSMSFn         func(ctx context.Context, phone, message string) error
	sendCouponEmailFn func(ctx context.Context, email, name string, coupon *model.Coupon, order *model.PurchaseOrder) error
}

func (m *mockNotifier) SendSMS(ctx context.Context, phone, message string) error {
	if m.sendSMSFn != nil {
		return m.sendSMSFn(ctx, phone, message)
	}
	return nil
}

func (m *mockNotifier) SendCouponEmail(ctx context.Context, email, name string, coupon *model.Coupon, order *model.PurchaseOrder) error {
	if m.sendCouponEmailFn != nil {
		return m.sendCouponEmailFn(ctx, email, name, coupon, order)
	}
	return nil
}

// mockCouponCreator is a mock implementation of CouponCreator.
type mockCouponCreator struct {
	createFn func(ctx context.Context, spec CouponSpec) (*model.Coupon, error)
}

func (m *mockCouponCreator) Create(ctx context.Context, spec CouponSpec) (*model.Coupon, error) {
	if m.createFn != nil {
		return m.createFn(ctx, spec)
	}
	return &model.Coupon{ID: "coupon-new", Code: "NEWC-ODE0-AB"}, nil
}

type issuanceFixture struct {
	couponRepo *mockCouponRepository
	orderRepo  *mockOrderRepository
	creator    *mockCouponCreator
	sessions   *otp.MemoryStore
	notifier   *mockNotifier
	clock      *time.Time
	svc        *IssuanceService
}

func newIssuanceFixture() *issuanceFixture {
	clock := testNow
	f := &issuanceFixture{
		couponRepo: &mockCouponRepository{},
		orderRepo: &mockOrderRepository{
			getByOrderNumberFn: func(ctx context.Context, orderNumber string) (*model.PurchaseOrder, error) {
				if orderNumber != "PAN-1748779200000-ABC123" {
					return nil, nil
				}
				return &model.PurchaseOrder{
					ID:           "order-1",
					OrderNumber:  orderNumber,
					CustomerName: "Ada Lovelace",
					Email:        "ada@example.com",
					Phone:        strPtr("+15551234567"),
					TotalAmount:  150,
					ProductID:    "product-1",
				}, nil
			},
		},
		creator:  &mockCouponCreator{},
		notifier: &mockNotifier{},
		clock:    &clock,
	}
	now := func() time.Time { return *f.clock }
	f.sessions = otp.NewMemoryStoreWithClock(now)
	f.svc = NewIssuanceServiceWithClock(f.couponRepo, f.orderRepo, f.creator, f.sessions, otp.NewFixedSource(), f.notifier, now)
	return f
}

const testInvoice = "PAN-1748779200000-ABC123"

func TestIssuanceService_InvoiceContact(t *testing.T) {
	f := newIssuanceFixture()

	contact, err := f.svc.InvoiceContact(context.Background(), testInvoice)

	require.NoError(t, err)
	assert.Equal(t, testInvoice, contact.OrderNumber)
	assert.Equal(t, "Ada Lovelace", contact.CustomerName)
	assert.Equal(t, "ada@example.com", contact.Email)
	require.NotNil(t, contact.Phone)
	assert.Equal(t, "+15551234567", *contact.Phone)
}

func TestIssuanceService_InvoiceContact_NotFound(t *testing.T) {
	f := newIssuanceFixture()

	_, err := f.svc.InvoiceContact(context.Background(), "PAN-0-MISSING")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOrderNotFound))
}

func TestIssuanceService_RequestOTP_Success(t *testing.T) {
	f := newIssuanceFixture()
	var sentPhone, sentMessage string
	f.notifier.sendSMSFn = func(ctx context.Context, phone, message string) error {
		sentPhone = phone
		sentMessage = message
		return nil
	}

	info, err := f.svc.RequestOTP(context.Background(), "+15551234567", testInvoice)

	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("+15551234567-%d", testNow.UnixMilli()), info.SessionID)
	assert.Equal(t, 300, info.ExpiresIn)
	assert.Equal(t, "123456", info.DevCode, "demo code source echoes the code back")
	assert.Equal(t, "+15551234567", sentPhone)
	assert.Contains(t, sentMessage, "123456")

	session, err := f.sessions.Get(context.Background(), info.SessionID)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "123456", session.Code)
	assert.Equal(t, testInvoice, session.InvoiceNumber)
	assert.Equal(t, testNow.Add(otp.DefaultTTL), session.ExpiresAt)
}

func TestIssuanceService_RequestOTP_InvoiceNotFound(t *testing.T) {
	f := newIssuanceFixture()

	_, err := f.svc.RequestOTP(context.Background(), "+15551234567", "PAN-0-MISSING")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOrderNotFound))
	assert.Equal(t, 0, f.sessions.Len(), "no session for an unknown invoice")
}

func TestIssuanceService_RequestOTP_AlreadyIssued(t *testing.T) {
	f := newIssuanceFixture()
	f.couponRepo.activeByOrderFn = func(ctx context.Context, orderID string) (*model.Coupon, error) {
		return &model.Coupon{ID: "coupon-1", Code: "OLDC-ODE0-AB", Status: model.StatusActive}, nil
	}

	_, err := f.svc.RequestOTP(context.Background(), "+15551234567", testInvoice)

	require.Error(t, err)
	var issued *AlreadyIssuedError
	require.True(t, errors.As(err, &issued))
	assert.Equal(t, "OLDC-ODE0-AB", issued.ExistingCode)
	assert.True(t, errors.Is(err, ErrCouponAlreadyIssued))
}

func TestIssuanceService_RequestOTP_SMSFailureKeepsSession(t *testing.T) {
	f := newIssuanceFixture()
	smsErr := fmt.Errorf("%w: twilio: unreachable", notify.ErrNotificationFailed)
	f.notifier.sendSMSFn = func(ctx context.Context, phone, message string) error {
		return smsErr
	}

	_, err := f.svc.RequestOTP(context.Background(), "+15551234567", testInvoice)

	require.Error(t, err)
	assert.True(t, errors.Is(err, notify.ErrNotificationFailed))
	assert.Equal(t, 1, f.sessions.Len(), "session survives a delivery failure so it can be resent")
}

func TestIssuanceService_ResendOTP_RefreshesExpiry(t *testing.T) {
	f := newIssuanceFixture()
	info, err := f.svc.RequestOTP(context.Background(), "+15551234567", testInvoice)
	require.NoError(t, err)

	*f.clock = testNow.Add(4 * time.Minute)

	resent, err := f.svc.ResendOTP(context.Background(), info.SessionID)

	require.NoError(t, err)
	assert.Equal(t, info.SessionID, resent.SessionID)
	assert.Equal(t, 300, resent.ExpiresIn)

	session, err := f.sessions.Get(context.Background(), info.SessionID)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, testNow.Add(4*time.Minute).Add(otp.DefaultTTL), session.ExpiresAt, "resend resets the expiry window")
}

func TestIssuanceService_ResendOTP_InvalidSession(t *testing.T) {
	f := newIssuanceFixture()

	_, err := f.svc.ResendOTP(context.Background(), "unknown-session")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSession))
}

func TestIssuanceService_VerifyAndGenerate_Success(t *testing.T) {
	f := newIssuanceFixture()
	var capturedSpec CouponSpec
	f.creator.createFn = func(ctx context.Context, spec CouponSpec) (*model.Coupon, error) {
		capturedSpec = spec
		return &model.Coupon{ID: "coupon-new", Code: "NEWC-ODE0-AB", Status: model.StatusActive}, nil
	}

	info, err := f.svc.RequestOTP(context.Background(), "+15551234567", testInvoice)
	require.NoError(t, err)

	result, err := f.svc.VerifyAndGenerate(context.Background(), info.SessionID, "123456")

	require.NoError(t, err)
	assert.False(t, result.Existing)
	assert.Equal(t, "NEWC-ODE0-AB", result.Coupon.Code)

	assert.Equal(t, model.DiscountPercentage, capturedSpec.DiscountType)
	assert.Equal(t, float64(ManualCouponPercent), capturedSpec.DiscountValue)
	assert.Equal(t, DefaultExpiryDays, capturedSpec.ExpiryDays)
	assert.Equal(t, 1, capturedSpec.UsageLimit)
	require.NotNil(t, capturedSpec.ProductID)
	assert.Equal(t, "product-1", *capturedSpec.ProductID)
	require.NotNil(t, capturedSpec.PurchaseOrderID)
	assert.Equal(t, "order-1", *capturedSpec.PurchaseOrderID)

	assert.Equal(t, 0, f.sessions.Len(), "session is consumed on success")
}

func TestIssuanceService_VerifyAndGenerate_SecondUseFails(t *testing.T) {
	f := newIssuanceFixture()
	info, err := f.svc.RequestOTP(context.Background(), "+15551234567", testInvoice)
	require.NoError(t, err)

	_, err = f.svc.VerifyAndGenerate(context.Background(), info.SessionID, "123456")
	require.NoError(t, err)

	_, err = f.svc.VerifyAndGenerate(context.Background(), info.SessionID, "123456")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSession))
}

func TestIssuanceService_VerifyAndGenerate_Expired(t *testing.T) {
	f := newIssuanceFixture()
	info, err := f.svc.RequestOTP(context.Background(), "+15551234567", testInvoice)
	require.NoError(t, err)

	*f.clock = testNow.Add(6 * time.Minute)

	_, err = f.svc.VerifyAndGenerate(context.Background(), info.SessionID, "123456")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOTPExpired))
	assert.Equal(t, 0, f.sessions.Len(), "expired session is deleted on verification")
}

func TestIssuanceService_VerifyAndGenerate_Mismatch(t *testing.T) {
	f := newIssuanceFixture()
	info, err := f.svc.RequestOTP(context.Background(), "+15551234567", testInvoice)
	require.NoError(t, err)

	_, err = f.svc.VerifyAndGenerate(context.Background(), info.SessionID, "999999")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOTPMismatch))
	assert.Equal(t, 1, f.sessions.Len(), "mismatch leaves the session for another attempt")
}

func TestIssuanceService_VerifyAndGenerate_InvalidSession(t *testing.T) {
	f := newIssuanceFixture()

	_, err := f.svc.VerifyAndGenerate(context.Background(), "unknown-session", "123456")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSession))
}

func TestIssuanceService_VerifyAndGenerate_RaceGuardReturnsExisting(t *testing.T) {
	f := newIssuanceFixture()
	info, err := f.svc.RequestOTP(context.Background(), "+15551234567", testInvoice)
	require.NoError(t, err)

	// A coupon appeared between the OTP request and the verification.
	f.couponRepo.activeByOrderFn = func(ctx context.Context, orderID string) (*model.Coupon, error) {
		return &model.Coupon{ID: "coupon-1", Code: "OLDC-ODE0-AB", Status: model.StatusActive}, nil
	}
	created := false
	f.creator.createFn = func(ctx context.Context, spec CouponSpec) (*model.Coupon, error) {
		created = true
		return nil, errors.New("should not be called")
	}

	result, err := f.svc.VerifyAndGenerate(context.Background(), info.SessionID, "123456")

	require.NoError(t, err)
	assert.True(t, result.Existing)
	assert.Equal(t, "OLDC-ODE0-AB", result.Coupon.Code)
	assert.False(t, created, "no second coupon for the same order")
	assert.Equal(t, 0, f.sessions.Len())
}
