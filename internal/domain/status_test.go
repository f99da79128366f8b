package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestClassifyStatus tests rule precedence of the cycle status classifier
func TestClassifyStatus(t *testing.T) {
	now := date(2025, 11, 10)

	tests := []struct {
		name        string
		status      AccountStatus
		lastPayment *time.Time
		dueDay      int
		expected    CycleStatus
	}{
		{"suspended overrides paid", AccountStatusSuspended, datePtr(2025, 11, 1), 5, CycleStatusSuspended},
		{"suspended overrides overdue", AccountStatusSuspended, nil, 1, CycleStatusSuspended},
		{"paid this month regardless of due day", AccountStatusActive, datePtr(2025, 11, 1), 5, CycleStatusPaid},
		{"paid this month before due day", AccountStatusActive, datePtr(2025, 11, 9), 20, CycleStatusPaid},
		{"past due day without payment", AccountStatusActive, datePtr(2025, 8, 20), 5, CycleStatusOverdue},
		{"on due day is pending", AccountStatusActive, nil, 10, CycleStatusPending},
		{"before due day is pending", AccountStatusActive, datePtr(2025, 10, 3), 25, CycleStatusPending},
		{"inactive still overdue", AccountStatusInactive, nil, 5, CycleStatusOverdue},
		{"inactive still pending", AccountStatusInactive, nil, 15, CycleStatusPending},
		{"same month last year is not paid", AccountStatusActive, datePtr(2024, 11, 1), 5, CycleStatusOverdue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Customer{Status: tt.status, LastPaymentDate: tt.lastPayment, DueDay: tt.dueDay}
			assert.Equal(t, tt.expected, ClassifyStatus(c, now))
			assert.Equal(t, tt.expected, c.CycleStatus(now))
		})
	}
}

func TestClassifyStatus_Total(t *testing.T) {
	statuses := []AccountStatus{AccountStatusActive, AccountStatusInactive, AccountStatusSuspended}
	payments := []*time.Time{nil, datePtr(2025, 1, 15), datePtr(2025, 6, 1)}

	start := date(2025, 1, 1)
	for i := 0; i < 200; i += 7 {
		now := start.AddDate(0, 0, i)
		for _, s := range statuses {
			for _, p := range payments {
				for due := MinDueDay; due <= MaxDueDay; due += 3 {
					got := ClassifyStatus(Customer{Status: s, LastPaymentDate: p, DueDay: due}, now)
					assert.True(t, got.IsValid())
					if s == AccountStatusSuspended {
						assert.Equal(t, CycleStatusSuspended, got)
					}
				}
			}
		}
	}
}
