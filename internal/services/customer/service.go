package customer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kevin07696/recurringhub/internal/domain"
	"github.com/kevin07696/recurringhub/internal/domain/ports"
	"github.com/kevin07696/recurringhub/pkg/timeutil"
)

// Service manages customer accounts
type Service struct {
	store  ports.CustomerRepository
	logger ports.Logger
	now    func() time.Time
}

// NewService creates a new customer service
func NewService(store ports.CustomerRepository, logger ports.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
		now:    timeutil.Now,
	}
}

// WithClock overrides the time source used for intake defaults
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create applies intake defaults, validates and stores a new active customer
func (s *Service) Create(ctx context.Context, draft domain.CustomerDraft) (*domain.Customer, error) {
	draft.ApplyDefaults(s.now())
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	c, err := s.store.AddCustomer(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("add customer: %w", err)
	}

	s.logger.Info("Customer created",
		ports.String("customer_id", c.ID),
		ports.String("plan", c.Plan),
		ports.Int("due_day", c.DueDay))
	return c, nil
}

// Get returns a customer by id
func (s *Service) Get(ctx context.Context, id string) (*domain.Customer, error) {
	return s.store.GetCustomer(ctx, id)
}

// ListFilter narrows List. Zero values match everything.
type ListFilter struct {
	Status domain.AccountStatus
	Plan   string
	// Query matches a case-insensitive substring of name, phone or email
	Query string
}

func (f ListFilter) matches(c domain.Customer) bool {
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.Plan != "" && !strings.EqualFold(c.Plan, f.Plan) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		return strings.Contains(strings.ToLower(c.Name), q) ||
			strings.Contains(c.Phone, q) ||
			strings.Contains(strings.ToLower(c.Email), q)
	}
	return true
}

// List returns customers matching filter in store order
func (s *Service) List(ctx context.Context, filter ListFilter) ([]domain.Customer, error) {
	all, err := s.store.ListCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}

	out := make([]domain.Customer, 0, len(all))
	for _, c := range all {
		if filter.matches(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Update validates and applies a partial update
func (s *Service) Update(ctx context.Context, id string, patch domain.CustomerPatch) (*domain.Customer, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}

	c, err := s.store.UpdateCustomer(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Customer updated",
		ports.String("customer_id", id),
		ports.String("status", string(c.Status)))
	return c, nil
}

// Delete removes a customer. Their payments remain as orphans.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteCustomer(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Customer deleted", ports.String("customer_id", id))
	return nil
}

// StatusView is the derived billing state of one customer
type StatusView struct {
	Customer     domain.Customer    `json:"customer"`
	Status       domain.CycleStatus `json:"status"`
	DaysOverdue  int                `json:"days_overdue"`
	DaysUntilDue int                `json:"days_until_due"`
	AgeInMonths  int                `json:"age_in_months"`
}

// Status derives the customer's cycle status at now
func (s *Service) Status(ctx context.Context, id string, now time.Time) (*StatusView, error) {
	c, err := s.store.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	return &StatusView{
		Customer:     *c,
		Status:       c.CycleStatus(now),
		DaysOverdue:  c.DaysOverdue(now),
		DaysUntilDue: c.DaysUntilDue(now),
		AgeInMonths:  domain.AgeInMonths(c.StartDate, now),
	}, nil
}

// Schedule returns the next six due dates starting with the current month
func (s *Service) Schedule(ctx context.Context, id string, now time.Time) ([]domain.ScheduleEntry, error) {
	c, err := s.store.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	return domain.PaymentSchedule(*c, now), nil
}
