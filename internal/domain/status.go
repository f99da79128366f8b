package domain

import (
	"time"

	"github.com/kevin07696/recurringhub/pkg/timeutil"
)

// CycleStatus is the derived payment-cycle state of a customer. It is never stored.
type CycleStatus string

const (
	CycleStatusSuspended CycleStatus = "Suspended"
	CycleStatusPaid      CycleStatus = "Paid"
	CycleStatusOverdue   CycleStatus = "Overdue"
	CycleStatusPending   CycleStatus = "Pending"
)

// ClassifyStatus maps a customer to exactly one cycle status at now.
// Rules apply in order and the first match wins:
//  1. suspended account
//  2. last payment in the current calendar month
//  3. past the due day
//  4. pending
//
// Inactive accounts are classified like active ones.
func ClassifyStatus(c Customer, now time.Time) CycleStatus {
	if c.Status == AccountStatusSuspended {
		return CycleStatusSuspended
	}
	if c.LastPaymentDate != nil && timeutil.SameMonth(*c.LastPaymentDate, now) {
		return CycleStatusPaid
	}
	if now.UTC().Day() > c.DueDay {
		return CycleStatusOverdue
	}
	return CycleStatusPending
}

// IsValid reports whether s is one of the four cycle states
func (s CycleStatus) IsValid() bool {
	switch s {
	case CycleStatusSuspended, CycleStatusPaid, CycleStatusOverdue, CycleStatusPending:
		return true
	}
	return false
}
