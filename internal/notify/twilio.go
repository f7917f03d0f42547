package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/printhub/coupon-platform/internal/model"
)

// TwilioNotifier sends SMS through Twilio and email through a delegate
// Notifier (Twilio does not carry email).
type TwilioNotifier struct {
	client     *twilio.RestClient
	fromNumber string
	email      Notifier
}

// NewTwilioNotifier creates a notifier with Twilio credentials. The email
// delegate handles SendCouponEmail; pass a LogNotifier if email is disabled.
func NewTwilioNotifier(accountSID, authToken, fromNumber string, email Notifier) *TwilioNotifier {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioNotifier{
		client:     client,
		fromNumber: fromNumber,
		email:      email,
	}
}

// SendSMS delivers a message through the Twilio Messages API.
func (t *TwilioNotifier) SendSMS(_ context.Context, phoneNumber, message string) error {
	params := &api.CreateMessageParams{}
	params.SetTo(phoneNumber)
	params.SetFrom(t.fromNumber)
	params.SetBody(message)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("%w: twilio: %s", ErrNotificationFailed, err)
	}

	if resp.Sid != nil {
		log.Info().Str("message_sid", *resp.Sid).Str("to", phoneNumber).Msg("sms dispatched")
	}
	return nil
}

// SendCouponEmail delegates to the configured email notifier.
func (t *TwilioNotifier) SendCouponEmail(ctx context.Context, email, customerName string, coupon *model.Coupon, order *model.PurchaseOrder) error {
	return t.email.SendCouponEmail(ctx, email, customerName, coupon, order)
}
