// Package notify holds the outbound notification collaborators. Delivery is
// fire-and-forget from the coupon engine's perspective: failures surface as a
// distinct condition but never roll back coupon creation.
package notify

import (
	"context"
	"errors"

	"github.com/printhub/coupon-platform/internal/model"
)

// ErrNotificationFailed wraps any transport failure from a notifier.
var ErrNotificationFailed = errors.New("notification delivery failed")

// Notifier dispatches coupon-related messages to customers.
type Notifier interface {
	SendSMS(ctx context.Context, phoneNumber, message string) error
	SendCouponEmail(ctx context.Context, email, customerName string, coupon *model.Coupon, order *model.PurchaseOrder) error
}
