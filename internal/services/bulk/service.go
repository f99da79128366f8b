package bulk

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/kevin07696/recurringhub/internal/domain"
	"github.com/kevin07696/recurringhub/internal/domain/ports"
	"github.com/kevin07696/recurringhub/internal/services/customer"
	"github.com/kevin07696/recurringhub/internal/services/payment"
	"github.com/kevin07696/recurringhub/internal/services/reminder"
	"github.com/kevin07696/recurringhub/pkg/timeutil"
)

// Operation names used in results, logs and metrics
const (
	OpImportCustomers      = "import_customers"
	OpSendReminders        = "send_reminders"
	OpUpdateCustomerStatus = "update_customer_status"
	OpUpdatePaymentStatus  = "update_payment_status"
)

// Service runs bulk operations on top of the single-item services
type Service struct {
	runner    *Runner
	customers *customer.Service
	payments  *payment.Service
	reminders *reminder.Service
	logger    ports.Logger
}

// NewService creates a bulk service
func NewService(
	runner *Runner,
	customers *customer.Service,
	payments *payment.Service,
	reminders *reminder.Service,
	logger ports.Logger,
) *Service {
	return &Service{
		runner:    runner,
		customers: customers,
		payments:  payments,
		reminders: reminders,
		logger:    logger,
	}
}

// ImportCustomers creates one customer per CSV row. Invalid rows are counted
// as failures without touching the store.
func (s *Service) ImportCustomers(ctx context.Context, r io.Reader) (Result, error) {
	rows, err := parseCustomerCSV(r)
	if err != nil {
		return Result{}, err
	}

	drafts := make(map[string]domain.CustomerDraft, len(rows))
	items := make([]Item, len(rows))
	for i, row := range rows {
		items[i] = row.item
		drafts[row.item.ID] = row.draft
	}

	return s.runner.Run(ctx, OpImportCustomers, items, func(ctx context.Context, item Item) error {
		_, err := s.customers.Create(ctx, drafts[item.ID])
		return err
	}), nil
}

func reminderRequest(req reminder.Request, kind domain.ReminderKind) reminder.Request {
	if req.Kind == "" {
		req.Kind = kind
	}
	return req
}

func customerItems(customers []domain.Customer) ([]Item, map[string]domain.Customer) {
	items := make([]Item, len(customers))
	byID := make(map[string]domain.Customer, len(customers))
	for i, c := range customers {
		items[i] = Item{ID: c.ID, Label: c.Name}
		byID[c.ID] = c
	}
	return items, byID
}

func (s *Service) sendTo(ctx context.Context, customers []domain.Customer, req reminder.Request) Result {
	items, byID := customerItems(customers)
	return s.runner.Run(ctx, OpSendReminders, items, func(ctx context.Context, item Item) error {
		_, err := s.reminders.Send(ctx, byID[item.ID], req)
		return err
	})
}

// SendReminders sends req to each customer id. Unknown ids count as failures.
func (s *Service) SendReminders(ctx context.Context, customerIDs []string, req reminder.Request) Result {
	req = reminderRequest(req, domain.ReminderKindBulk)

	items := make([]Item, len(customerIDs))
	for i, id := range customerIDs {
		items[i] = Item{ID: id}
	}
	return s.runner.Run(ctx, OpSendReminders, items, func(ctx context.Context, item Item) error {
		_, err := s.reminders.SendToCustomer(ctx, item.ID, req)
		return err
	})
}

// SendOverdueReminders sends req to every customer classified Overdue at now.
// Scheduled runs (kind due) skip customers already reminded that day.
func (s *Service) SendOverdueReminders(ctx context.Context, req reminder.Request, now time.Time) (Result, error) {
	req = reminderRequest(req, domain.ReminderKindDue)

	all, err := s.customers.List(ctx, customer.ListFilter{})
	if err != nil {
		return Result{}, err
	}

	var already map[string]bool
	if req.Kind == domain.ReminderKindDue {
		already, err = s.reminders.RemindedSince(ctx, domain.ReminderKindDue, timeutil.StartOfDay(now))
		if err != nil {
			return Result{}, err
		}
	}

	targets := make([]domain.Customer, 0, len(all))
	skipped := 0
	for _, c := range all {
		if domain.ClassifyStatus(c, now) != domain.CycleStatusOverdue {
			continue
		}
		if already[c.ID] {
			skipped++
			continue
		}
		targets = append(targets, c)
	}

	if skipped > 0 {
		s.logger.Info("Skipping customers already reminded today", ports.Int("count", skipped))
	}
	return s.sendTo(ctx, targets, req), nil
}

// SendPlanReminders sends req to every active customer on plan
func (s *Service) SendPlanReminders(ctx context.Context, plan string, req reminder.Request) (Result, error) {
	if strings.TrimSpace(plan) == "" {
		return Result{}, domain.NewDomainError(domain.ErrorCodeValidationMissingField, "plan is required").
			WithDetail("field", "plan")
	}
	req = reminderRequest(req, domain.ReminderKindBulk)

	targets, err := s.customers.List(ctx, customer.ListFilter{Plan: plan, Status: domain.AccountStatusActive})
	if err != nil {
		return Result{}, err
	}
	return s.sendTo(ctx, targets, req), nil
}

// UpdateCustomerStatus sets the account status of each customer id
func (s *Service) UpdateCustomerStatus(ctx context.Context, ids []string, status domain.AccountStatus) (Result, error) {
	if !status.IsValid() {
		return Result{}, domain.NewDomainError(domain.ErrorCodeValidationFailed, "invalid account status").
			WithDetail("status", string(status))
	}

	return s.runner.Run(ctx, OpUpdateCustomerStatus, idItems(ids), func(ctx context.Context, item Item) error {
		_, err := s.customers.Update(ctx, item.ID, domain.CustomerPatch{Status: &status})
		return err
	}), nil
}

// UpdatePaymentStatus sets the status of each payment id
func (s *Service) UpdatePaymentStatus(ctx context.Context, ids []string, status domain.PaymentStatus) (Result, error) {
	if !status.IsValid() {
		return Result{}, domain.NewDomainError(domain.ErrorCodeValidationFailed, "invalid payment status").
			WithDetail("status", string(status))
	}

	return s.runner.Run(ctx, OpUpdatePaymentStatus, idItems(ids), func(ctx context.Context, item Item) error {
		_, err := s.payments.Update(ctx, item.ID, domain.PaymentPatch{Status: &status})
		return err
	}), nil
}

func idItems(ids []string) []Item {
	items := make([]Item, len(ids))
	for i, id := range ids {
		items[i] = Item{ID: id}
		if strings.TrimSpace(id) == "" {
			items[i].Err = domain.NewDomainError(domain.ErrorCodeValidationMissingField, "id is required")
		}
	}
	return items
}
