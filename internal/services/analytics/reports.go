package analytics

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kevin07696/recurringhub/internal/domain"
	"github.com/kevin07696/recurringhub/pkg/timeutil"
)

// DateRange selects a payment reporting window
type DateRange string

const (
	RangeAll    DateRange = "all"
	RangeToday  DateRange = "today"
	RangeWeek   DateRange = "week"
	RangeMonth  DateRange = "month"
	RangeYear   DateRange = "year"
	RangeCustom DateRange = "custom"
)

// ParseDateRange maps a query value to a range. Empty means all.
func ParseDateRange(s string) (DateRange, error) {
	switch r := DateRange(s); r {
	case "":
		return RangeAll, nil
	case RangeAll, RangeToday, RangeWeek, RangeMonth, RangeYear, RangeCustom:
		return r, nil
	}
	return "", domain.NewDomainError(domain.ErrorCodeValidationFailed, fmt.Sprintf("unknown date range %q", s)).
		WithDetail("range", s)
}

func trailingDays(r DateRange) int {
	switch r {
	case RangeWeek:
		return 7
	case RangeMonth:
		return 30
	case RangeYear:
		return 365
	}
	return 0
}

// FilterPayments keeps payments inside the window. Trailing windows cover the
// last 7, 30 or 365 days up to today. A custom window is inclusive on both
// ends; a missing bound is open.
func FilterPayments(payments []domain.Payment, r DateRange, from, to *time.Time, now time.Time) []domain.Payment {
	today := timeutil.StartOfDay(now)
	keep := func(day time.Time) bool { return true }

	switch r {
	case RangeToday:
		keep = func(day time.Time) bool { return day.Equal(today) }
	case RangeWeek, RangeMonth, RangeYear:
		cutoff := today.AddDate(0, 0, -trailingDays(r))
		keep = func(day time.Time) bool { return day.After(cutoff) }
	case RangeCustom:
		keep = func(day time.Time) bool {
			if from != nil && day.Before(timeutil.StartOfDay(*from)) {
				return false
			}
			if to != nil && day.After(timeutil.StartOfDay(*to)) {
				return false
			}
			return true
		}
	}

	filtered := make([]domain.Payment, 0, len(payments))
	for _, p := range payments {
		if keep(timeutil.StartOfDay(p.Date)) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// CustomerReportRow is one customer's payment history rollup
type CustomerReportRow struct {
	LastPaymentDate *time.Time           `json:"-"`
	MonthlyFee      decimal.Decimal      `json:"monthly_fee"`
	TotalPaid       decimal.Decimal      `json:"total_paid"`
	CustomerID      string               `json:"customer_id"`
	CustomerName    string               `json:"customer_name"`
	Phone           string               `json:"phone"`
	Plan            string               `json:"plan"`
	Status          domain.AccountStatus `json:"status"`
	PaymentStatus   domain.CycleStatus   `json:"payment_status"`
	PaymentCount    int                  `json:"payment_count"`
	DaysOverdue     int                  `json:"days_overdue"`
}

// CustomerReport returns one row per customer, in input order
func CustomerReport(customers []domain.Customer, payments []domain.Payment, now time.Time) []CustomerReportRow {
	type totals struct {
		amount decimal.Decimal
		count  int
	}
	byCustomer := make(map[string]*totals)
	for _, p := range payments {
		t, ok := byCustomer[p.CustomerID]
		if !ok {
			t = &totals{}
			byCustomer[p.CustomerID] = t
		}
		t.amount = t.amount.Add(p.Amount)
		t.count++
	}

	rows := make([]CustomerReportRow, 0, len(customers))
	for _, c := range customers {
		row := CustomerReportRow{
			LastPaymentDate: c.LastPaymentDate,
			MonthlyFee:      c.MonthlyFee,
			CustomerID:      c.ID,
			CustomerName:    c.Name,
			Phone:           c.Phone,
			Plan:            c.Plan,
			Status:          c.Status,
			PaymentStatus:   domain.ClassifyStatus(c, now),
			DaysOverdue:     c.DaysOverdue(now),
		}
		if t, ok := byCustomer[c.ID]; ok {
			row.TotalPaid = t.amount
			row.PaymentCount = t.count
		}
		rows = append(rows, row)
	}
	return rows
}

// ExportFilter narrows exported records. Zero fields do not filter.
type ExportFilter struct {
	DateFrom *time.Time
	DateTo   *time.Time
	Status   string
	Plan     string
}

func (f ExportFilter) inDateRange(t time.Time) bool {
	day := timeutil.StartOfDay(t)
	if f.DateFrom != nil && day.Before(timeutil.StartOfDay(*f.DateFrom)) {
		return false
	}
	if f.DateTo != nil && day.After(timeutil.StartOfDay(*f.DateTo)) {
		return false
	}
	return true
}

// FilterCustomers applies status, plan and a CreatedAt window
func FilterCustomers(customers []domain.Customer, f ExportFilter) []domain.Customer {
	filtered := make([]domain.Customer, 0, len(customers))
	for _, c := range customers {
		if f.Status != "" && string(c.Status) != f.Status {
			continue
		}
		if f.Plan != "" && c.Plan != f.Plan {
			continue
		}
		if !f.inDateRange(c.CreatedAt) {
			continue
		}
		filtered = append(filtered, c)
	}
	return filtered
}

// FilterPaymentRecords applies status and a payment date window. Payments carry
// no plan, so a plan filter matches nothing unless empty.
func FilterPaymentRecords(payments []domain.Payment, f ExportFilter) []domain.Payment {
	filtered := make([]domain.Payment, 0, len(payments))
	for _, p := range payments {
		if f.Status != "" && string(p.Status) != f.Status {
			continue
		}
		if f.Plan != "" {
			continue
		}
		if !f.inDateRange(p.Date) {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered
}
