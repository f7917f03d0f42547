package service

import "errors"

var (
	// ErrCouponExists is returned when a generated or supplied coupon code
	// collides with an existing one at insert time.
	ErrCouponExists = errors.New("coupon code already exists")

	// ErrCouponNotFound is returned when a coupon cannot be found
	ErrCouponNotFound = errors.New("coupon not found")

	// ErrOrderNotFound is returned when a purchase order cannot be found
	ErrOrderNotFound = errors.New("purchase order not found")

	// ErrOrderExists is returned when an order number is already taken
	ErrOrderExists = errors.New("purchase order already exists")

	// ErrProductNotFound is returned when a product cannot be found
	ErrProductNotFound = errors.New("product not found")

	// ErrInvalidRequest is returned when request data is invalid or incomplete
	ErrInvalidRequest = errors.New("invalid request")

	// ErrCouponAlreadyIssued is returned when an invoice already has an
	// ACTIVE coupon; the existing code travels in AlreadyIssuedError.
	ErrCouponAlreadyIssued = errors.New("a coupon has already been generated for this invoice")

	// ErrInvalidSession is returned for an unknown or consumed OTP session
	ErrInvalidSession = errors.New("invalid or expired session")

	// ErrOTPExpired is returned when the session's code window has lapsed
	ErrOTPExpired = errors.New("otp has expired, please request a new one")

	// ErrOTPMismatch is returned when the submitted code does not match
	ErrOTPMismatch = errors.New("invalid otp")
)

// ValidationError is a business-rule rejection of a coupon. The reason is the
// user-facing message ("Coupon has expired", "Coupon usage limit reached", ...).
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// AlreadyIssuedError carries the existing ACTIVE coupon code so the caller
// can present it. Unwraps to ErrCouponAlreadyIssued.
type AlreadyIssuedError struct {
	ExistingCode string
}

func (e *AlreadyIssuedError) Error() string {
	return ErrCouponAlreadyIssued.Error()
}

func (e *AlreadyIssuedError) Unwrap() error {
	return ErrCouponAlreadyIssued
}
