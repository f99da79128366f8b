package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kevin07696/recurringhub/pkg/timeutil"
)

// ScheduleMonths is the number of entries in a forward payment schedule
const ScheduleMonths = 6

// ScheduleEntry is one month of a customer's forward payment schedule
type ScheduleEntry struct {
	DueDate     time.Time       `json:"due_date"`
	Amount      decimal.Decimal `json:"amount"`
	Month       string          `json:"month"`
	Year        int             `json:"year"`
	IsPast      bool            `json:"is_past"`
	IsThisMonth bool            `json:"is_this_month"`
}

// dueDateIn returns the due date for dueDay in the month offset months from
// year/month. time.Date normalises month overflow across year boundaries.
func dueDateIn(year int, month time.Month, offset, dueDay int) time.Time {
	return time.Date(year, month+time.Month(offset), dueDay, 0, 0, 0, 0, time.UTC)
}

// DaysUntilDue returns whole calendar days until the next occurrence of dueDay.
// Returns 0 when today is the due day.
func DaysUntilDue(dueDay int, now time.Time) int {
	today := timeutil.StartOfDay(now)
	if dueDay == today.Day() {
		return 0
	}

	year, month, day := today.Date()
	next := dueDateIn(year, month, 0, dueDay)
	if dueDay <= day {
		next = dueDateIn(year, month, 1, dueDay)
	}
	return timeutil.DaysBetween(today, next)
}

// DaysOverdue returns whole days elapsed since the most recent due date on or
// before now. A payment in the current month means nothing is overdue.
// Before the due day the previous month's occurrence applies, in every month
// including January.
func DaysOverdue(lastPaymentDate *time.Time, dueDay int, now time.Time) int {
	if lastPaymentDate != nil && timeutil.SameMonth(*lastPaymentDate, now) {
		return 0
	}

	today := timeutil.StartOfDay(now)
	year, month, day := today.Date()
	due := dueDateIn(year, month, 0, dueDay)
	if day < dueDay {
		due = dueDateIn(year, month, -1, dueDay)
	}

	days := timeutil.DaysBetween(due, today)
	if days < 0 {
		return 0
	}
	return days
}

// PaymentSchedule builds the six-month forward schedule starting at now's month
func PaymentSchedule(c Customer, now time.Time) []ScheduleEntry {
	today := timeutil.StartOfDay(now)
	year, month, _ := today.Date()

	schedule := make([]ScheduleEntry, 0, ScheduleMonths)
	for i := 0; i < ScheduleMonths; i++ {
		due := dueDateIn(year, month, i, c.DueDay)
		schedule = append(schedule, ScheduleEntry{
			Month:       due.Month().String(),
			Year:        due.Year(),
			DueDate:     due,
			Amount:      c.MonthlyFee,
			IsPast:      due.Before(now),
			IsThisMonth: i == 0,
		})
	}
	return schedule
}

// AgeInMonths counts calendar months between startDate and now, ignoring the
// day of month. Negative for a future start date.
func AgeInMonths(startDate, now time.Time) int {
	sy, sm, _ := startDate.UTC().Date()
	ny, nm, _ := now.UTC().Date()
	return (ny-sy)*12 + int(nm-sm)
}

// Quarter returns the calendar quarter (1-4) of t
func Quarter(t time.Time) int {
	return (int(t.UTC().Month())-1)/3 + 1
}
