package model

import "time"

// Product is a catalog entry; its category drives the default discount rule.
type Product struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	IsActive bool    `json:"is_active"`
}

// PurchaseOrder is a completed purchase that may carry generated coupons.
type PurchaseOrder struct {
	ID           string    `json:"id"`
	OrderNumber  string    `json:"order_number"`
	CustomerName string    `json:"customer_name"`
	Email        string    `json:"email"`
	Phone        *string   `json:"phone,omitempty"`
	TotalAmount  float64   `json:"total_amount"`
	SerialNumber *string   `json:"serial_number,omitempty"`
	ProductID    string    `json:"product_id"`
	CreatedAt    time.Time `json:"-"`
}

// CreatePurchaseRequest is the DTO for the demo purchase endpoint.
type CreatePurchaseRequest struct {
	CustomerName string   `json:"customer_name" validate:"required,notblank,min=2,max=255"`
	Email        string   `json:"email" validate:"required,email"`
	Phone        *string  `json:"phone" validate:"omitempty,phone"`
	ProductID    string   `json:"product_id" validate:"required,notblank"`
	TotalAmount  *float64 `json:"total_amount" validate:"required,gte=0"`
	SerialNumber *string  `json:"serial_number" validate:"omitempty,max=255"`
}

// CreatePurchaseResponse bundles the new order with its auto-generated coupon.
type CreatePurchaseResponse struct {
	PurchaseOrder *PurchaseOrder `json:"purchase_order"`
	Coupon        *Coupon        `json:"coupon"`
	Message       string         `json:"message"`
}

// InvoiceContact is the contact subset exposed for the issuance flow lookup.
type InvoiceContact struct {
	OrderNumber  string  `json:"order_number"`
	CustomerName string  `json:"customer_name"`
	Email        string  `json:"email"`
	Phone        *string `json:"phone,omitempty"`
}

// RequestOTPRequest starts a manual coupon issuance session.
type RequestOTPRequest struct {
	PhoneNumber   string `json:"phone_number" validate:"required,phone"`
	InvoiceNumber string `json:"invoice_number" validate:"required,notblank,min=3"`
}

// VerifyOTPRequest completes an issuance session.
type VerifyOTPRequest struct {
	SessionID string `json:"session_id" validate:"required,notblank"`
	OTP       string `json:"otp" validate:"required,len=6,numeric"`
}

// ResendOTPRequest refreshes the code of an existing session.
type ResendOTPRequest struct {
	SessionID string `json:"session_id" validate:"required,notblank"`
}
