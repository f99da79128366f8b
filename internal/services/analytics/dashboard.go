package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kevin07696/recurringhub/internal/domain"
)

// Dashboard is the operator's landing summary
type Dashboard struct {
	PlanCounts       map[string]int    `json:"plan_counts"`
	TotalCollected   decimal.Decimal   `json:"total_collected"`
	ExpectedRevenue  decimal.Decimal   `json:"expected_revenue"`
	PendingAmount    decimal.Decimal   `json:"pending_amount"`
	OverdueAmount    decimal.Decimal   `json:"overdue_amount"`
	CollectionRate   decimal.Decimal   `json:"collection_rate"`
	Overdue          []domain.Customer `json:"-"`
	ActiveCustomers  int               `json:"active_customers"`
	OverdueCustomers int               `json:"overdue_customers"`
}

// DashboardSummary totals completed payments against the active book and
// lists overdue customers
func DashboardSummary(payments []domain.Payment, customers []domain.Customer, now time.Time) Dashboard {
	d := Dashboard{PlanCounts: make(map[string]int)}
	for _, plan := range domain.KnownPlans {
		d.PlanCounts[plan] = 0
	}

	for i := range payments {
		if payments[i].IsCompleted() {
			d.TotalCollected = d.TotalCollected.Add(payments[i].Amount)
		}
	}

	for _, c := range customers {
		d.PlanCounts[c.Plan]++
		if c.IsActive() {
			d.ActiveCustomers++
			d.ExpectedRevenue = d.ExpectedRevenue.Add(c.MonthlyFee)
		}
		if domain.ClassifyStatus(c, now) == domain.CycleStatusOverdue {
			d.Overdue = append(d.Overdue, c)
			d.OverdueAmount = d.OverdueAmount.Add(c.MonthlyFee)
		}
	}

	d.OverdueCustomers = len(d.Overdue)
	d.PendingAmount = d.ExpectedRevenue.Sub(d.TotalCollected)
	d.CollectionRate = percent(d.TotalCollected, d.ExpectedRevenue, 1)
	return d
}
