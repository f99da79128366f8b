package httputil

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kevin07696/recurringhub/internal/domain"
	"github.com/kevin07696/recurringhub/pkg/timeutil"
)

// CustomerView is the wire form of a customer with calendar dates as
// YYYY-MM-DD and the derived cycle status at the time of the request
type CustomerView struct {
	CreatedAt       time.Time            `json:"created_at"`
	LastPaymentDate *string              `json:"last_payment_date"`
	MonthlyFee      decimal.Decimal      `json:"monthly_fee"`
	ID              string               `json:"id"`
	Name            string               `json:"name"`
	Phone           string               `json:"phone"`
	Email           string               `json:"email,omitempty"`
	Plan            string               `json:"plan"`
	Status          domain.AccountStatus `json:"status"`
	PaymentStatus   domain.CycleStatus   `json:"payment_status"`
	StartDate       string               `json:"start_date"`
	DueDay          int                  `json:"due_day"`
}

// NewCustomerView converts c, classifying it at now
func NewCustomerView(c domain.Customer, now time.Time) CustomerView {
	v := CustomerView{
		CreatedAt:     c.CreatedAt,
		MonthlyFee:    c.MonthlyFee,
		ID:            c.ID,
		Name:          c.Name,
		Phone:         c.Phone,
		Email:         c.Email,
		Plan:          c.Plan,
		Status:        c.Status,
		PaymentStatus: c.CycleStatus(now),
		StartDate:     timeutil.FormatDate(c.StartDate),
		DueDay:        c.DueDay,
	}
	if c.LastPaymentDate != nil {
		d := timeutil.FormatDate(*c.LastPaymentDate)
		v.LastPaymentDate = &d
	}
	return v
}

// NewCustomerViews converts a slice
func NewCustomerViews(customers []domain.Customer, now time.Time) []CustomerView {
	out := make([]CustomerView, len(customers))
	for i, c := range customers {
		out[i] = NewCustomerView(c, now)
	}
	return out
}

// PaymentView is the wire form of a payment
type PaymentView struct {
	CreatedAt    time.Time            `json:"created_at"`
	Amount       decimal.Decimal      `json:"amount"`
	ID           string               `json:"id"`
	CustomerID   string               `json:"customer_id"`
	CustomerName string               `json:"customer_name"`
	Date         string               `json:"date"`
	Method       string               `json:"method"`
	Status       domain.PaymentStatus `json:"status"`
	ReferenceID  string               `json:"reference_id,omitempty"`
}

// NewPaymentView converts p
func NewPaymentView(p domain.Payment) PaymentView {
	return PaymentView{
		CreatedAt:    p.CreatedAt,
		Amount:       p.Amount,
		ID:           p.ID,
		CustomerID:   p.CustomerID,
		CustomerName: p.CustomerName,
		Date:         timeutil.FormatDate(p.Date),
		Method:       p.Method,
		Status:       p.Status,
		ReferenceID:  p.ReferenceID,
	}
}

// NewPaymentViews converts a slice
func NewPaymentViews(payments []domain.Payment) []PaymentView {
	out := make([]PaymentView, len(payments))
	for i, p := range payments {
		out[i] = NewPaymentView(p)
	}
	return out
}
