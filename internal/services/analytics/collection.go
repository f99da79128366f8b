package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kevin07696/recurringhub/internal/domain"
	"github.com/kevin07696/recurringhub/pkg/timeutil"
)

// PlanCollection compares expected and collected revenue for one plan this month
type PlanCollection struct {
	ExpectedRevenue  decimal.Decimal `json:"expected_revenue"`
	CollectedRevenue decimal.Decimal `json:"collected_revenue"`
	Rate             decimal.Decimal `json:"rate"`
	Gap              decimal.Decimal `json:"gap"`
	Plan             string          `json:"plan"`
	Customers        int             `json:"customers"`
}

// CollectionReport holds one row per plan. OrphanPayments counts this
// month's payments whose customer no longer exists.
type CollectionReport struct {
	Plans          []PlanCollection `json:"plans"`
	OrphanPayments int              `json:"orphan_payments"`
}

// CollectionRateByPlan reports the known plans first, then any other plan
// found on customers sorted by name
func CollectionRateByPlan(payments []domain.Payment, customers []domain.Customer, now time.Time) CollectionReport {
	planOf := make(map[string]string, len(customers))
	rows := make(map[string]*PlanCollection)
	order := append([]string(nil), domain.KnownPlans...)
	for _, plan := range domain.KnownPlans {
		rows[plan] = &PlanCollection{Plan: plan}
	}

	var extra []string
	for _, c := range customers {
		planOf[c.ID] = c.Plan
		row, ok := rows[c.Plan]
		if !ok {
			row = &PlanCollection{Plan: c.Plan}
			rows[c.Plan] = row
			extra = append(extra, c.Plan)
		}
		if c.IsActive() {
			row.Customers++
			row.ExpectedRevenue = row.ExpectedRevenue.Add(c.MonthlyFee)
		}
	}
	sort.Strings(extra)
	order = append(order, extra...)

	report := CollectionReport{Plans: make([]PlanCollection, 0, len(order))}
	for _, p := range payments {
		if !timeutil.SameMonth(p.Date, now) {
			continue
		}
		plan, ok := planOf[p.CustomerID]
		if !ok {
			report.OrphanPayments++
			continue
		}
		rows[plan].CollectedRevenue = rows[plan].CollectedRevenue.Add(p.Amount)
	}

	for _, plan := range order {
		row := rows[plan]
		row.Rate = percent(row.CollectedRevenue, row.ExpectedRevenue, 2)
		row.Gap = row.ExpectedRevenue.Sub(row.CollectedRevenue)
		report.Plans = append(report.Plans, *row)
	}
	return report
}
