package notify

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/printhub/coupon-platform/internal/model"
)

// LogNotifier logs messages instead of delivering them. Wired in demo mode
// and as the email delegate when SMTP is not configured.
type LogNotifier struct{}

func (LogNotifier) SendSMS(_ context.Context, phoneNumber, message string) error {
	log.Info().
		Str("phone_number", phoneNumber).
		Str("message", message).
		Msg("[mock sms] message logged instead of sent")
	return nil
}

func (LogNotifier) SendCouponEmail(_ context.Context, email, customerName string, coupon *model.Coupon, order *model.PurchaseOrder) error {
	log.Info().
		Str("email", email).
		Str("customer_name", customerName).
		Str("coupon_code", coupon.Code).
		Str("order_number", order.OrderNumber).
		Msg("[mock email] coupon email logged instead of sent")
	return nil
}
