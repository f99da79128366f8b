package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kevin07696/recurringhub/internal/domain"
)

// Churn thresholds
const (
	AtRiskAfterDays    = 30
	HighChurnThreshold = 10

	oneDay = 24 * time.Hour

	RecommendationHighChurn = "High churn - Send reminders"
	RecommendationNormal    = "Churn rate normal"
)

// CustomerSummary counts customers by account status
type CustomerSummary struct {
	ActivePercentage decimal.Decimal `json:"active_percentage"`
	Total            int             `json:"total"`
	Active           int             `json:"active"`
	Inactive         int             `json:"inactive"`
	Suspended        int             `json:"suspended"`
}

// CohortBreakdown buckets customers by tenure
type CohortBreakdown struct {
	VeryNew     int `json:"very_new"`
	New         int `json:"new"`
	Established int `json:"established"`
	Loyal       int `json:"loyal"`
	Total       int `json:"total"`
}

// ChurnReport flags active customers who have stopped paying
type ChurnReport struct {
	ChurnRate      decimal.Decimal `json:"churn_rate"`
	Recommendation string          `json:"recommendation"`
	AtRisk         int             `json:"at_risk"`
	HighChurn      bool            `json:"high_churn"`
}

// CustomerMetrics counts customers per account status
func CustomerMetrics(customers []domain.Customer) CustomerSummary {
	summary := CustomerSummary{Total: len(customers)}
	for _, c := range customers {
		switch c.Status {
		case domain.AccountStatusActive:
			summary.Active++
		case domain.AccountStatusInactive:
			summary.Inactive++
		case domain.AccountStatusSuspended:
			summary.Suspended++
		}
	}
	summary.ActivePercentage = percentOfCount(summary.Active, summary.Total, 1)
	return summary
}

// CustomerCohorts buckets every customer by whole elapsed days since CreatedAt
func CustomerCohorts(customers []domain.Customer, now time.Time) CohortBreakdown {
	cohorts := CohortBreakdown{Total: len(customers)}
	for _, c := range customers {
		days := int(now.Sub(c.CreatedAt) / oneDay)
		switch {
		case days < 30:
			cohorts.VeryNew++
		case days < 90:
			cohorts.New++
		case days < 365:
			cohorts.Established++
		default:
			cohorts.Loyal++
		}
	}
	return cohorts
}

// ChurnRate counts active customers whose last payment is missing or older
// than 30 days as at risk
func ChurnRate(customers []domain.Customer, now time.Time) ChurnReport {
	atRisk := 0
	for i := range customers {
		if isAtRisk(&customers[i], now) {
			atRisk++
		}
	}

	rate := percentOfCount(atRisk, len(customers), 2)
	report := ChurnReport{
		ChurnRate:      rate,
		AtRisk:         atRisk,
		Recommendation: RecommendationNormal,
	}
	if rate.GreaterThan(decimal.NewFromInt(HighChurnThreshold)) {
		report.HighChurn = true
		report.Recommendation = RecommendationHighChurn
	}
	return report
}

func isAtRisk(c *domain.Customer, now time.Time) bool {
	if !c.IsActive() {
		return false
	}
	if c.LastPaymentDate == nil {
		return true
	}
	return c.LastPaymentDate.Before(now.Add(-AtRiskAfterDays * oneDay))
}
