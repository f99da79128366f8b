package fixtures

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kevin07696/recurringhub/internal/domain"
)

// PaymentBuilder provides fluent API for building test payments.
type PaymentBuilder struct {
	payment domain.Payment
}

// NewPayment creates a completed UPI payment of 3000.
func NewPayment() *PaymentBuilder {
	on := Date(2025, 11, 1)
	return &PaymentBuilder{
		payment: domain.Payment{
			ID:           uuid.New().String(),
			CustomerID:   uuid.New().String(),
			CustomerName: "Test Customer",
			Amount:       decimal.NewFromInt(3000),
			Date:         on,
			Method:       domain.MethodUPI,
			Status:       domain.PaymentStatusCompleted,
			CreatedAt:    on,
		},
	}
}

// For ties the payment to c.
func (b *PaymentBuilder) For(c domain.Customer) *PaymentBuilder {
	b.payment.CustomerID = c.ID
	b.payment.CustomerName = c.Name
	return b
}

func (b *PaymentBuilder) WithCustomerID(id string) *PaymentBuilder {
	b.payment.CustomerID = id
	return b
}

func (b *PaymentBuilder) WithAmount(amount int64) *PaymentBuilder {
	b.payment.Amount = decimal.NewFromInt(amount)
	return b
}

func (b *PaymentBuilder) On(t time.Time) *PaymentBuilder {
	b.payment.Date = t
	b.payment.CreatedAt = t
	return b
}

func (b *PaymentBuilder) WithMethod(method string) *PaymentBuilder {
	b.payment.Method = method
	return b
}

func (b *PaymentBuilder) WithStatus(status domain.PaymentStatus) *PaymentBuilder {
	b.payment.Status = status
	return b
}

// Build returns the payment value.
func (b *PaymentBuilder) Build() domain.Payment {
	return b.payment
}
