package notify

import (
	"context"
	"errors"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printhub/coupon-platform/internal/model"
)

func floatPtr(f float64) *float64 { return &f }

func emailFixture() (*model.Coupon, *model.PurchaseOrder) {
	coupon := &model.Coupon{
		Code:              "SAVE-MORE-15",
		DiscountType:      model.DiscountPercentage,
		DiscountValue:     15,
		MinimumOrderValue: floatPtr(100),
		MaxDiscountAmount: floatPtr(50),
		ExpiresAt:         time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	}
	order := &model.PurchaseOrder{
		OrderNumber:  "PAN-1748779200000-ABC123",
		CustomerName: "Ada Lovelace",
		Email:        "ada@example.com",
	}
	return coupon, order
}

func TestSMTPNotifier_SendCouponEmail(t *testing.T) {
	var gotFrom string
	var gotTo []string
	var gotMsg []byte
	n := NewSMTPNotifier("smtp.example.com", 587, "user", "pass", "noreply@example.com", "Coupon Platform")
	n.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		assert.Equal(t, "smtp.example.com:587", addr)
		gotFrom = from
		gotTo = to
		gotMsg = msg
		return nil
	}

	coupon, order := emailFixture()
	err := n.SendCouponEmail(context.Background(), "ada@example.com", "Ada Lovelace", coupon, order)

	require.NoError(t, err)
	assert.Equal(t, "noreply@example.com", gotFrom)
	assert.Equal(t, []string{"ada@example.com"}, gotTo)

	body := string(gotMsg)
	assert.Contains(t, body, "Subject: Your discount coupon SAVE-MORE-15")
	assert.Contains(t, body, "Ada Lovelace")
	assert.Contains(t, body, "SAVE-MORE-15")
	assert.Contains(t, body, "15% off your order (up to $50.00)")
	assert.Contains(t, body, "Minimum order value: $100.00")
	assert.Contains(t, body, "July 1, 2025")
}

func TestSMTPNotifier_SendCouponEmail_FixedDiscountText(t *testing.T) {
	var gotMsg []byte
	n := NewSMTPNotifier("smtp.example.com", 587, "user", "pass", "noreply@example.com", "Coupon Platform")
	n.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotMsg = msg
		return nil
	}

	coupon, order := emailFixture()
	coupon.DiscountType = model.DiscountFixed
	coupon.DiscountValue = 10
	coupon.MaxDiscountAmount = nil
	err := n.SendCouponEmail(context.Background(), "ada@example.com", "Ada Lovelace", coupon, order)

	require.NoError(t, err)
	assert.Contains(t, string(gotMsg), "$10.00 off your order")
}

func TestSMTPNotifier_SendCouponEmail_DeliveryFailure(t *testing.T) {
	n := NewSMTPNotifier("smtp.example.com", 587, "user", "pass", "noreply@example.com", "Coupon Platform")
	n.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		return errors.New("connection refused")
	}

	coupon, order := emailFixture()
	err := n.SendCouponEmail(context.Background(), "ada@example.com", "Ada Lovelace", coupon, order)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotificationFailed), "delivery failures must be distinguishable from hard errors")
}

func TestSMTPNotifier_SendSMS_Unsupported(t *testing.T) {
	n := NewSMTPNotifier("smtp.example.com", 587, "user", "pass", "noreply@example.com", "Coupon Platform")

	err := n.SendSMS(context.Background(), "+15551234567", "hello")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotificationFailed))
}

func TestLogNotifier(t *testing.T) {
	n := LogNotifier{}
	coupon, order := emailFixture()

	assert.NoError(t, n.SendSMS(context.Background(), "+15551234567", "hello"))
	assert.NoError(t, n.SendCouponEmail(context.Background(), "ada@example.com", "Ada Lovelace", coupon, order))
}
