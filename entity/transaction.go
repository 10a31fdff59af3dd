// Package entity defines data models for the checkout signing service.
package entity

import (
	"github.com/shopspring/decimal"
)

// RedirectMode selects whether the gateway returns the payer automatically after payment.
type RedirectMode string

const (
	RedirectAuto   RedirectMode = "auto"
	RedirectManual RedirectMode = "manual"
)

// TransactionRequest is the merchant-originated intent to pay.
// It is built by the caller at checkout time and consumed once by the field builder.
type TransactionRequest struct {
	// Amount in major currency units (e.g., 110.00 PKR)
	Amount decimal.Decimal `json:"amount"`
	// Reference must be unique per attempt; generated when empty
	Reference string `json:"reference"`
	// BillReference defaults to Reference on gateways that carry one
	BillReference string `json:"bill_reference,omitempty"`
	Description   string `json:"description,omitempty"`
	// MobileNumber in local format: 03XXXXXXXXX
	MobileNumber string `json:"mobile_number,omitempty"`
	Email        string `json:"email,omitempty"`
	// CNICLast6 is the last six digits of the payer's national id card (JazzCash MWALLET)
	CNICLast6 string `json:"cnic_last6,omitempty"`
	// PaymentMethod overrides the configured Easypaisa payment method
	PaymentMethod string       `json:"payment_method,omitempty"`
	Redirect      RedirectMode `json:"redirect,omitempty"`
}
