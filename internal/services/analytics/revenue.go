package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kevin07696/recurringhub/internal/domain"
	"github.com/kevin07696/recurringhub/pkg/timeutil"
)

const (
	// TrendDays is the length of the revenue trend window
	TrendDays = 30

	// TopPeriodsLimit caps the number of months TopPeriods returns
	TopPeriodsLimit = 5

	GrowthUp   = "up"
	GrowthDown = "down"
)

// RevenueSummary compares this month's takings with last month's
type RevenueSummary struct {
	ThisMonth       decimal.Decimal `json:"this_month"`
	LastMonth       decimal.Decimal `json:"last_month"`
	Growth          decimal.Decimal `json:"growth"`
	Average         decimal.Decimal `json:"average"`
	GrowthDirection string          `json:"growth_direction"`
}

// MethodShare is one payment method's slice of total volume
type MethodShare struct {
	Amount     decimal.Decimal `json:"amount"`
	Percentage decimal.Decimal `json:"percentage"`
	Method     string          `json:"method"`
	Count      int             `json:"count"`
}

// TrendPoint is one day of the revenue trend
type TrendPoint struct {
	Amount    decimal.Decimal `json:"amount"`
	Date      string          `json:"date"`
	DayOfWeek string          `json:"day_of_week"`
}

// PeriodTotal is the revenue of one calendar month
type PeriodTotal struct {
	Amount decimal.Decimal `json:"amount"`
	Month  string          `json:"month"`
}

// RevenueMetrics sums payments of every status by calendar month relative to now
func RevenueMetrics(payments []domain.Payment, now time.Time) RevenueSummary {
	thisMonth := timeutil.StartOfMonth(now)
	lastMonth := thisMonth.AddDate(0, -1, 0)

	var thisTotal, lastTotal decimal.Decimal
	thisCount := 0
	for _, p := range payments {
		switch {
		case timeutil.SameMonth(p.Date, thisMonth):
			thisTotal = thisTotal.Add(p.Amount)
			thisCount++
		case timeutil.SameMonth(p.Date, lastMonth):
			lastTotal = lastTotal.Add(p.Amount)
		}
	}

	growth := decimal.Zero
	if lastTotal.IsPositive() {
		growth = thisTotal.Sub(lastTotal).Div(lastTotal).Mul(hundred).Round(2)
	}

	direction := GrowthUp
	if growth.IsNegative() {
		direction = GrowthDown
	}

	average := decimal.Zero
	if thisCount > 0 {
		average = thisTotal.Div(decimal.NewFromInt(int64(thisCount))).Round(2)
	}

	return RevenueSummary{
		ThisMonth:       thisTotal,
		LastMonth:       lastTotal,
		Growth:          growth,
		Average:         average,
		GrowthDirection: direction,
	}
}

// PaymentMethodDistribution groups all payments by method in first-seen order
func PaymentMethodDistribution(payments []domain.Payment) []MethodShare {
	shares := make([]MethodShare, 0)
	index := make(map[string]int)
	total := decimal.Zero

	for _, p := range payments {
		total = total.Add(p.Amount)
		i, ok := index[p.Method]
		if !ok {
			i = len(shares)
			index[p.Method] = i
			shares = append(shares, MethodShare{Method: p.Method})
		}
		shares[i].Amount = shares[i].Amount.Add(p.Amount)
		shares[i].Count++
	}

	for i := range shares {
		shares[i].Percentage = percent(shares[i].Amount, total, 2)
	}
	return shares
}

// RevenueTrend returns one point per day for the trailing 30 days ending today
func RevenueTrend(payments []domain.Payment, now time.Time) []TrendPoint {
	today := timeutil.StartOfDay(now)
	first := today.AddDate(0, 0, -(TrendDays - 1))

	byDay := make(map[string]decimal.Decimal, TrendDays)
	for _, p := range payments {
		day := timeutil.StartOfDay(p.Date)
		if day.Before(first) || day.After(today) {
			continue
		}
		key := timeutil.FormatDate(day)
		byDay[key] = byDay[key].Add(p.Amount)
	}

	points := make([]TrendPoint, 0, TrendDays)
	for i := 0; i < TrendDays; i++ {
		day := first.AddDate(0, 0, i)
		key := timeutil.FormatDate(day)
		points = append(points, TrendPoint{
			Amount:    byDay[key],
			Date:      key,
			DayOfWeek: day.Format("Mon"),
		})
	}
	return points
}

// TopPeriods returns the five highest-grossing months, ties broken by month ascending
func TopPeriods(payments []domain.Payment) []PeriodTotal {
	months := make(map[string]decimal.Decimal)
	for _, p := range payments {
		key := timeutil.MonthKey(p.Date)
		months[key] = months[key].Add(p.Amount)
	}

	periods := make([]PeriodTotal, 0, len(months))
	for month, amount := range months {
		periods = append(periods, PeriodTotal{Month: month, Amount: amount})
	}

	sort.Slice(periods, func(i, j int) bool {
		if c := periods[i].Amount.Cmp(periods[j].Amount); c != 0 {
			return c > 0
		}
		return periods[i].Month < periods[j].Month
	})

	if len(periods) > TopPeriodsLimit {
		periods = periods[:TopPeriodsLimit]
	}
	return periods
}
