package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the state of a recorded payment
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// IsValid reports whether s is a known payment status
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusCompleted, PaymentStatusPending, PaymentStatusFailed:
		return true
	}
	return false
}

// Common payment methods. The set is open.
const (
	MethodUPI          = "UPI"
	MethodBankTransfer = "Bank Transfer"
	MethodCash         = "Cash"
	MethodCard         = "Card"
)

// UnknownCustomerName is shown for payments whose customer no longer exists
const UnknownCustomerName = "Unknown"

// Payment is a single recorded payment against a customer.
// CustomerID is not enforced as a foreign key.
type Payment struct {
	Date         time.Time       `json:"date"`
	CreatedAt    time.Time       `json:"created_at"`
	Amount       decimal.Decimal `json:"amount"`
	ID           string          `json:"id"`
	CustomerID   string          `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	Method       string          `json:"method"`
	Status       PaymentStatus   `json:"status"`
	ReferenceID  string          `json:"reference_id,omitempty"`
}

// IsCompleted returns true for completed payments
func (p *Payment) IsCompleted() bool {
	return p.Status == PaymentStatusCompleted
}

// PaymentDraft carries the fields for recording a payment
type PaymentDraft struct {
	Date        time.Time
	Amount      decimal.Decimal
	CustomerID  string
	Method      string
	Status      PaymentStatus
	ReferenceID string
}

// ApplyDefaults fills omitted status, method and date
func (d *PaymentDraft) ApplyDefaults(now time.Time) {
	d.Method = strings.TrimSpace(d.Method)
	if d.Method == "" {
		d.Method = MethodUPI
	}
	if d.Status == "" {
		d.Status = PaymentStatusCompleted
	}
	if d.Date.IsZero() {
		d.Date = now
	}
}

// Validate checks the payment invariants
func (d *PaymentDraft) Validate() error {
	if strings.TrimSpace(d.CustomerID) == "" {
		return NewDomainError(ErrorCodeValidationMissingField, "customer_id is required").WithDetail("field", "customer_id")
	}
	if !d.Amount.IsPositive() {
		return NewDomainError(ErrorCodeValidationAmountInvalid, "amount must be positive").
			WithDetail("amount", d.Amount.String())
	}
	if d.Status != "" && !d.Status.IsValid() {
		return NewDomainError(ErrorCodeValidationFailed, "invalid payment status").WithDetail("status", string(d.Status))
	}
	return nil
}

// PaymentPatch is a partial payment update, normally a status correction
type PaymentPatch struct {
	Amount      *decimal.Decimal
	Date        *time.Time
	Method      *string
	Status      *PaymentStatus
	ReferenceID *string
}

// Validate checks the fields present in the patch
func (p *PaymentPatch) Validate() error {
	if p.Amount != nil && !p.Amount.IsPositive() {
		return NewDomainError(ErrorCodeValidationAmountInvalid, "amount must be positive")
	}
	if p.Status != nil && !p.Status.IsValid() {
		return NewDomainError(ErrorCodeValidationFailed, "invalid payment status").WithDetail("status", string(*p.Status))
	}
	return nil
}

// Apply writes the patch onto p
func (p *PaymentPatch) Apply(payment *Payment) {
	if p.Amount != nil {
		payment.Amount = *p.Amount
	}
	if p.Date != nil {
		payment.Date = *p.Date
	}
	if p.Method != nil {
		payment.Method = *p.Method
	}
	if p.Status != nil {
		payment.Status = *p.Status
	}
	if p.ReferenceID != nil {
		payment.ReferenceID = *p.ReferenceID
	}
}
