package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/printhub/coupon-platform/internal/model"
)

// SMTPNotifier sends coupon emails over plain SMTP. SMS is not supported and
// should be layered via TwilioNotifier.
type SMTPNotifier struct {
	addr      string
	auth      smtp.Auth
	fromEmail string
	fromName  string
	send      func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPNotifier creates an SMTP notifier. Auth is PLAIN against the given
// host.
func NewSMTPNotifier(host string, port int, username, password, fromEmail, fromName string) *SMTPNotifier {
	return &SMTPNotifier{
		addr:      fmt.Sprintf("%s:%d", host, port),
		auth:      smtp.PlainAuth("", username, password, host),
		fromEmail: fromEmail,
		fromName:  fromName,
		send:      smtp.SendMail,
	}
}

var couponEmailTmpl = template.Must(template.New("coupon").Parse(`<html>
<body style="font-family: Arial, sans-serif;">
  <h2>Thank you for your purchase, {{.CustomerName}}!</h2>
  <p>Your order <strong>{{.OrderNumber}}</strong> has earned you a discount coupon.</p>
  <div style="border: 2px dashed #333; padding: 16px; text-align: center;">
    <h1>{{.Code}}</h1>
    <p>{{.DiscountText}}</p>
    {{if .MinimumText}}<p>{{.MinimumText}}</p>{{end}}
    <p>Valid until {{.ExpiresAt}}</p>
  </div>
  <p>Use this code on your next order.</p>
</body>
</html>`))

// SendSMS always fails; SMTP carries no SMS transport.
func (s *SMTPNotifier) SendSMS(_ context.Context, _, _ string) error {
	return fmt.Errorf("%w: smtp notifier cannot send sms", ErrNotificationFailed)
}

// SendCouponEmail renders the coupon template and delivers it.
func (s *SMTPNotifier) SendCouponEmail(_ context.Context, email, customerName string, coupon *model.Coupon, order *model.PurchaseOrder) error {
	discountText := fmt.Sprintf("$%.2f off your order", coupon.DiscountValue)
	if coupon.DiscountType == model.DiscountPercentage {
		discountText = fmt.Sprintf("%.0f%% off your order", coupon.DiscountValue)
		if coupon.MaxDiscountAmount != nil {
			discountText += fmt.Sprintf(" (up to $%.2f)", *coupon.MaxDiscountAmount)
		}
	}

	minimumText := ""
	if coupon.MinimumOrderValue != nil {
		minimumText = fmt.Sprintf("Minimum order value: $%.2f", *coupon.MinimumOrderValue)
	}

	var body bytes.Buffer
	err := couponEmailTmpl.Execute(&body, map[string]string{
		"CustomerName": customerName,
		"OrderNumber":  order.OrderNumber,
		"Code":         coupon.Code,
		"DiscountText": discountText,
		"MinimumText":  minimumText,
		"ExpiresAt":    coupon.ExpiresAt.Format("January 2, 2006"),
	})
	if err != nil {
		return fmt.Errorf("render coupon email: %w", err)
	}

	msg := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: Your discount coupon %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.fromName, s.fromEmail, email, coupon.Code, body.String())

	if err := s.send(s.addr, s.auth, s.fromEmail, []string{email}, []byte(msg)); err != nil {
		return fmt.Errorf("%w: smtp: %s", ErrNotificationFailed, err)
	}
	return nil
}
