package fixtures

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kevin07696/recurringhub/internal/domain"
)

// CustomerBuilder provides fluent API for building test customers.
type CustomerBuilder struct {
	customer domain.Customer
}

// NewCustomer creates an active Standard customer due on the 5th.
func NewCustomer() *CustomerBuilder {
	created := Date(2025, 1, 15)
	return &CustomerBuilder{
		customer: domain.Customer{
			ID:         uuid.New().String(),
			Name:       "Test Customer",
			Phone:      "9876543210",
			Plan:       domain.PlanStandard,
			MonthlyFee: decimal.NewFromInt(3000),
			DueDay:     5,
			Status:     domain.AccountStatusActive,
			StartDate:  created,
			CreatedAt:  created,
			UpdatedAt:  created,
		},
	}
}

func (b *CustomerBuilder) WithID(id string) *CustomerBuilder {
	b.customer.ID = id
	return b
}

func (b *CustomerBuilder) WithName(name string) *CustomerBuilder {
	b.customer.Name = name
	return b
}

func (b *CustomerBuilder) WithPhone(phone string) *CustomerBuilder {
	b.customer.Phone = phone
	return b
}

func (b *CustomerBuilder) WithEmail(email string) *CustomerBuilder {
	b.customer.Email = email
	return b
}

func (b *CustomerBuilder) WithPlan(plan string, fee int64) *CustomerBuilder {
	b.customer.Plan = plan
	b.customer.MonthlyFee = decimal.NewFromInt(fee)
	return b
}

func (b *CustomerBuilder) WithDueDay(day int) *CustomerBuilder {
	b.customer.DueDay = day
	return b
}

func (b *CustomerBuilder) WithStatus(status domain.AccountStatus) *CustomerBuilder {
	b.customer.Status = status
	return b
}

func (b *CustomerBuilder) Suspended() *CustomerBuilder {
	return b.WithStatus(domain.AccountStatusSuspended)
}

func (b *CustomerBuilder) Inactive() *CustomerBuilder {
	return b.WithStatus(domain.AccountStatusInactive)
}

func (b *CustomerBuilder) WithLastPayment(t time.Time) *CustomerBuilder {
	b.customer.LastPaymentDate = &t
	return b
}

func (b *CustomerBuilder) CreatedOn(t time.Time) *CustomerBuilder {
	b.customer.CreatedAt = t
	b.customer.StartDate = t
	return b
}

// Build returns the customer value.
func (b *CustomerBuilder) Build() domain.Customer {
	return b.customer
}
