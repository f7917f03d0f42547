package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/printhub/coupon-platform/internal/model"
	"github.com/printhub/coupon-platform/internal/notify"
	"github.com/printhub/coupon-platform/internal/otp"
)

// ManualCouponPercent is the fixed discount for OTP-verified manual issuance.
const ManualCouponPercent = 15

// CouponCreator is the slice of the coupon engine the issuance flow needs.
type CouponCreator interface {
	Create(ctx context.Context, spec CouponSpec) (*model.Coupon, error)
}

// OTPSessionInfo is returned from RequestOTP and ResendOTP. DevCode is only
// populated when the wired code source is visible (demo mode).
type OTPSessionInfo struct {
	SessionID string `json:"session_id"`
	ExpiresIn int    `json:"expires_in"` // seconds
	DevCode   string `json:"dev_otp,omitempty"`
}

// IssuanceResult is the outcome of a successful verification. Existing is
// true when the race guard found a coupon issued since the initial check.
type IssuanceResult struct {
	Coupon   *model.Coupon
	Existing bool
}

// IssuanceService orchestrates the OTP-gated manual coupon flow:
// invoice lookup, OTP request/resend/verify, coupon creation.
type IssuanceService struct {
	couponRepo CouponRepositoryInterface
	orderRepo  OrderRepositoryInterface
	coupons    CouponCreator
	sessions   otp.SessionStore
	codes      otp.CodeSource
	notifier   notify.Notifier
	now        func() time.Time
}

// NewIssuanceService wires the issuance flow. Demo versus production behavior
// comes entirely from the injected code source and notifier.
func NewIssuanceService(couponRepo CouponRepositoryInterface, orderRepo OrderRepositoryInterface, coupons CouponCreator, sessions otp.SessionStore, codes otp.CodeSource, notifier notify.Notifier) *IssuanceService {
	return &IssuanceService{
		couponRepo: couponRepo,
		orderRepo:  orderRepo,
		coupons:    coupons,
		sessions:   sessions,
		codes:      codes,
		notifier:   notifier,
		now:        time.Now,
	}
}

// NewIssuanceServiceWithClock is NewIssuanceService with an injected clock.
// Primarily used for testing expiry behavior.
func NewIssuanceServiceWithClock(couponRepo CouponRepositoryInterface, orderRepo OrderRepositoryInterface, coupons CouponCreator, sessions otp.SessionStore, codes otp.CodeSource, notifier notify.Notifier, now func() time.Time) *IssuanceService {
	s := NewIssuanceService(couponRepo, orderRepo, coupons, sessions, codes, notifier)
	s.now = now
	return s
}

// InvoiceContact returns the contact details stored for an invoice, used by
// the issuance UI to confirm where the code will be sent.
// Returns ErrOrderNotFound if the invoice is unknown.
func (s *IssuanceService) InvoiceContact(ctx context.Context, orderNumber string) (*model.InvoiceContact, error) {
	order, err := s.orderRepo.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, fmt.Errorf("get purchase order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return &model.InvoiceContact{
		OrderNumber:  order.OrderNumber,
		CustomerName: order.CustomerName,
		Email:        order.Email,
		Phone:        order.Phone,
	}, nil
}

// RequestOTP starts a verification session for an invoice. Fails with
// ErrOrderNotFound for unknown invoices and *AlreadyIssuedError when the
// order already carries an ACTIVE coupon. The session is stored before SMS
// dispatch, so a delivery failure can be retried via ResendOTP.
func (s *IssuanceService) RequestOTP(ctx context.Context, phoneNumber, invoiceNumber string) (*OTPSessionInfo, error) {
	order, err := s.orderRepo.GetByOrderNumber(ctx, invoiceNumber)
	if err != nil {
		return nil, fmt.Errorf("get purchase order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	existing, err := s.couponRepo.ActiveByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("check existing coupon: %w", err)
	}
	if existing != nil {
		return nil, &AlreadyIssuedError{ExistingCode: existing.Code}
	}

	code, err := s.codes.NewCode()
	if err != nil {
		return nil, fmt.Errorf("generate otp code: %w", err)
	}

	now := s.now()
	session := &otp.Session{
		ID:            fmt.Sprintf("%s-%d", phoneNumber, now.UnixMilli()),
		Code:          code,
		PhoneNumber:   phoneNumber,
		InvoiceNumber: invoiceNumber,
		ExpiresAt:     now.Add(otp.DefaultTTL),
	}
	if err := s.sessions.Put(ctx, session); err != nil {
		return nil, fmt.Errorf("store otp session: %w", err)
	}

	message := fmt.Sprintf("Your coupon verification code is: %s. Valid for 5 minutes.", code)
	if err := s.notifier.SendSMS(ctx, phoneNumber, message); err != nil {
		// Session stays stored; the caller can resend. Surface the delivery
		// failure distinctly.
		log.Warn().Err(err).Str("session_id", session.ID).Msg("otp sms dispatch failed")
		return nil, err
	}

	info := &OTPSessionInfo{
		SessionID: session.ID,
		ExpiresIn: int(otp.DefaultTTL.Seconds()),
	}
	if s.codes.Visible() {
		info.DevCode = code
	}
	return info, nil
}

// ResendOTP replaces the session's code and resets its expiry window.
// Returns ErrInvalidSession if the session is unknown.
func (s *IssuanceService) ResendOTP(ctx context.Context, sessionID string) (*OTPSessionInfo, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get otp session: %w", err)
	}
	if session == nil {
		return nil, ErrInvalidSession
	}

	code, err := s.codes.NewCode()
	if err != nil {
		return nil, fmt.Errorf("generate otp code: %w", err)
	}

	session.Code = code
	session.ExpiresAt = s.now().Add(otp.DefaultTTL)
	if err := s.sessions.Put(ctx, session); err != nil {
		return nil, fmt.Errorf("refresh otp session: %w", err)
	}

	message := fmt.Sprintf("Your new coupon verification code is: %s. Valid for 5 minutes.", code)
	if err := s.notifier.SendSMS(ctx, session.PhoneNumber, message); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("otp sms redispatch failed")
		return nil, err
	}

	info := &OTPSessionInfo{
		SessionID: sessionID,
		ExpiresIn: int(otp.DefaultTTL.Seconds()),
	}
	if s.codes.Visible() {
		info.DevCode = code
	}
	return info, nil
}

// VerifyAndGenerate consumes a session and issues the manual coupon: fixed
// 15% percentage discount, single use, 30-day expiry, linked to the order's
// product. An ACTIVE coupon created since the request (the re-check guards
// that race) is returned instead of a new one.
func (s *IssuanceService) VerifyAndGenerate(ctx context.Context, sessionID, submittedCode string) (*IssuanceResult, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get otp session: %w", err)
	}
	if session == nil {
		return nil, ErrInvalidSession
	}

	if s.now().After(session.ExpiresAt) {
		_ = s.sessions.Delete(ctx, sessionID)
		return nil, ErrOTPExpired
	}

	if session.Code != submittedCode {
		return nil, ErrOTPMismatch
	}

	order, err := s.orderRepo.GetByOrderNumber(ctx, session.InvoiceNumber)
	if err != nil {
		return nil, fmt.Errorf("get purchase order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	existing, err := s.couponRepo.ActiveByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("check existing coupon: %w", err)
	}
	if existing != nil {
		_ = s.sessions.Delete(ctx, sessionID)
		return &IssuanceResult{Coupon: existing, Existing: true}, nil
	}

	coupon, err := s.coupons.Create(ctx, CouponSpec{
		DiscountType:    model.DiscountPercentage,
		DiscountValue:   ManualCouponPercent,
		ExpiryDays:      DefaultExpiryDays,
		UsageLimit:      1,
		ProductID:       &order.ProductID,
		PurchaseOrderID: &order.ID,
	})
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to delete consumed otp session")
	}

	log.Info().
		Str("invoice_number", session.InvoiceNumber).
		Str("coupon_code", coupon.Code).
		Msg("coupon generated for invoice")

	return &IssuanceResult{Coupon: coupon}, nil
}
