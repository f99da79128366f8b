package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountStatus is the stored account state of a customer.
// It is distinct from the derived CycleStatus.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "active"
	AccountStatusInactive  AccountStatus = "inactive"
	AccountStatusSuspended AccountStatus = "suspended"
)

// IsValid reports whether s is a known account status
func (s AccountStatus) IsValid() bool {
	switch s {
	case AccountStatusActive, AccountStatusInactive, AccountStatusSuspended:
		return true
	}
	return false
}

// Known plan names. Any other plan string is tolerated.
const (
	PlanPremium  = "Premium"
	PlanStandard = "Standard"
	PlanBasic    = "Basic"
)

// KnownPlans lists the built-in plans in reporting order
var KnownPlans = []string{PlanPremium, PlanStandard, PlanBasic}

// Intake defaults used when a field is omitted (CSV import, quick add)
const (
	DefaultPlan   = PlanStandard
	DefaultDueDay = 5
	MinDueDay     = 1
	MaxDueDay     = 28
)

// DefaultMonthlyFee is the fee applied when intake omits one
var DefaultMonthlyFee = decimal.NewFromInt(3000)

// Customer is a subscriber on a recurring monthly plan
type Customer struct {
	StartDate       time.Time       `json:"start_date"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	LastPaymentDate *time.Time      `json:"last_payment_date,omitempty"`
	MonthlyFee      decimal.Decimal `json:"monthly_fee"`
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Phone           string          `json:"phone"`
	Email           string          `json:"email,omitempty"`
	Plan            string          `json:"plan"`
	Status          AccountStatus   `json:"status"`
	DueDay          int             `json:"due_day"`
}

// IsActive returns true if the account is active
func (c *Customer) IsActive() bool {
	return c.Status == AccountStatusActive
}

// IsSuspended returns true if the account is suspended
func (c *Customer) IsSuspended() bool {
	return c.Status == AccountStatusSuspended
}

// CycleStatus derives the customer's payment-cycle status at now
func (c *Customer) CycleStatus(now time.Time) CycleStatus {
	return ClassifyStatus(*c, now)
}

// DaysOverdue returns the whole days since the missed due date, 0 if paid this month
func (c *Customer) DaysOverdue(now time.Time) int {
	return DaysOverdue(c.LastPaymentDate, c.DueDay, now)
}

// DaysUntilDue returns the days until the next due date
func (c *Customer) DaysUntilDue(now time.Time) int {
	return DaysUntilDue(c.DueDay, now)
}

// RecordPayment advances LastPaymentDate to paidOn. Older dates never rewind it.
func (c *Customer) RecordPayment(paidOn time.Time) bool {
	if c.LastPaymentDate != nil && !paidOn.After(*c.LastPaymentDate) {
		return false
	}
	d := paidOn
	c.LastPaymentDate = &d
	return true
}

// mobileNumber is a 10-digit mobile number starting with 6-9
var mobileNumber = regexp.MustCompile(`^[6-9]\d{9}$`)

// ValidatePhone checks phone after dropping every non-digit, so
// "98765-43210" passes. The stored value keeps its formatting.
func ValidatePhone(phone string) error {
	if strings.TrimSpace(phone) == "" {
		return NewDomainError(ErrorCodeValidationMissingField, "phone is required").WithDetail("field", "phone")
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if !mobileNumber.MatchString(digits) {
		return NewDomainError(ErrorCodeValidationFailed, "phone must be 10 digits starting with 6-9").
			WithDetail("field", "phone")
	}
	return nil
}

// CustomerDraft carries the intake fields for a new customer
type CustomerDraft struct {
	StartDate       time.Time
	LastPaymentDate *time.Time
	MonthlyFee      decimal.Decimal
	Name            string
	Phone           string
	Email           string
	Plan            string
	DueDay          int
}

// ApplyDefaults fills omitted plan, fee and due day
func (d *CustomerDraft) ApplyDefaults(now time.Time) {
	d.Name = strings.TrimSpace(d.Name)
	d.Phone = strings.TrimSpace(d.Phone)
	d.Plan = strings.TrimSpace(d.Plan)
	if d.Plan == "" {
		d.Plan = DefaultPlan
	}
	if d.MonthlyFee.IsZero() {
		d.MonthlyFee = DefaultMonthlyFee
	}
	if d.DueDay == 0 {
		d.DueDay = DefaultDueDay
	}
	if d.StartDate.IsZero() {
		d.StartDate = now
	}
}

// Validate checks the intake invariants
func (d *CustomerDraft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return NewDomainError(ErrorCodeValidationMissingField, "name is required").WithDetail("field", "name")
	}
	if err := ValidatePhone(d.Phone); err != nil {
		return err
	}
	if err := ValidateDueDay(d.DueDay); err != nil {
		return err
	}
	if !d.MonthlyFee.IsPositive() {
		return NewDomainError(ErrorCodeValidationAmountInvalid, "monthly fee must be positive").
			WithDetail("monthly_fee", d.MonthlyFee.String())
	}
	return nil
}

// CustomerPatch is a partial customer update. Nil fields are left unchanged.
type CustomerPatch struct {
	MonthlyFee      *decimal.Decimal
	StartDate       *time.Time
	LastPaymentDate *time.Time
	Name            *string
	Phone           *string
	Email           *string
	Plan            *string
	Status          *AccountStatus
	DueDay          *int
}

// Validate checks the fields present in the patch
func (p *CustomerPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return NewDomainError(ErrorCodeValidationMissingField, "name cannot be empty").WithDetail("field", "name")
	}
	if p.Phone != nil {
		if err := ValidatePhone(*p.Phone); err != nil {
			return err
		}
	}
	if p.DueDay != nil {
		if err := ValidateDueDay(*p.DueDay); err != nil {
			return err
		}
	}
	if p.MonthlyFee != nil && !p.MonthlyFee.IsPositive() {
		return NewDomainError(ErrorCodeValidationAmountInvalid, "monthly fee must be positive")
	}
	if p.Status != nil && !p.Status.IsValid() {
		return NewDomainError(ErrorCodeValidationFailed, "invalid account status").WithDetail("status", string(*p.Status))
	}
	return nil
}

// Apply writes the patch onto c
func (p *CustomerPatch) Apply(c *Customer) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Plan != nil {
		c.Plan = *p.Plan
	}
	if p.MonthlyFee != nil {
		c.MonthlyFee = *p.MonthlyFee
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.DueDay != nil {
		c.DueDay = *p.DueDay
	}
	if p.StartDate != nil {
		c.StartDate = *p.StartDate
	}
	if p.LastPaymentDate != nil {
		d := *p.LastPaymentDate
		c.LastPaymentDate = &d
	}
}

// ValidateDueDay enforces the 1..28 day-of-month range
func ValidateDueDay(day int) error {
	if day < MinDueDay || day > MaxDueDay {
		return NewDomainError(ErrorCodeValidationDueDayInvalid, "due day must be between 1 and 28").
			WithDetail("due_day", day)
	}
	return nil
}
