// Package memory is a process-local data store. It backs development runs and
// tests, and reproduces the single-writer snapshot semantics of the store port.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kevin07696/recurringhub/internal/domain"
	"github.com/kevin07696/recurringhub/internal/domain/ports"
	"github.com/kevin07696/recurringhub/pkg/timeutil"
)

// Store implements ports.Store in memory. All reads return copies.
type Store struct {
	now       func() time.Time
	customers []domain.Customer
	payments  []domain.Payment
	reminders []domain.Reminder
	mu        sync.RWMutex
}

var _ ports.Store = (*Store)(nil)

// Option configures a Store
type Option func(*Store)

// WithClock overrides the time source used for CreatedAt/UpdatedAt/SentAt
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates an empty store
func NewStore(opts ...Option) *Store {
	s := &Store{now: timeutil.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListCustomers returns all customers in insertion order
func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyCustomers(s.customers), nil
}

// GetCustomer returns a customer by id
func (s *Store) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.customerIndex(id)
	if i < 0 {
		return nil, domain.NotFound(domain.ErrorCodeCustomerNotFound, "customer not found", id)
	}
	c := cloneCustomer(s.customers[i])
	return &c, nil
}

// AddCustomer stores a new active customer
func (s *Store) AddCustomer(ctx context.Context, draft domain.CustomerDraft) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c := domain.Customer{
		ID:         uuid.New().String(),
		Name:       draft.Name,
		Phone:      draft.Phone,
		Email:      draft.Email,
		Plan:       draft.Plan,
		MonthlyFee: draft.MonthlyFee,
		Status:     domain.AccountStatusActive,
		DueDay:     draft.DueDay,
		StartDate:  timeutil.StartOfDay(draft.StartDate),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if draft.LastPaymentDate != nil {
		c.RecordPayment(timeutil.StartOfDay(*draft.LastPaymentDate))
	}

	s.customers = append(s.customers, c)
	out := cloneCustomer(c)
	return &out, nil
}

// UpdateCustomer applies a partial update
func (s *Store) UpdateCustomer(ctx context.Context, id string, patch domain.CustomerPatch) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.customerIndex(id)
	if i < 0 {
		return nil, domain.NotFound(domain.ErrorCodeCustomerNotFound, "customer not found", id)
	}

	patch.Apply(&s.customers[i])
	s.customers[i].UpdatedAt = s.now()

	out := cloneCustomer(s.customers[i])
	return &out, nil
}

// DeleteCustomer removes a customer. Its payments stay behind as orphans.
func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.customerIndex(id)
	if i < 0 {
		return domain.NotFound(domain.ErrorCodeCustomerNotFound, "customer not found", id)
	}
	s.customers = append(s.customers[:i], s.customers[i+1:]...)
	return nil
}

// ListPayments returns all payments in insertion order
func (s *Store) ListPayments(ctx context.Context) ([]domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Payment(nil), s.payments...), nil
}

// GetPayment returns a payment by id
func (s *Store) GetPayment(ctx context.Context, id string) (*domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.paymentIndex(id)
	if i < 0 {
		return nil, domain.NotFound(domain.ErrorCodePaymentNotFound, "payment not found", id)
	}
	p := s.payments[i]
	return &p, nil
}

// AddPayment stores a payment and advances the customer's last payment date
func (s *Store) AddPayment(ctx context.Context, draft domain.PaymentDraft) (*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := domain.Payment{
		ID:           uuid.New().String(),
		CustomerID:   draft.CustomerID,
		CustomerName: domain.UnknownCustomerName,
		Amount:       draft.Amount,
		Date:         timeutil.StartOfDay(draft.Date),
		Method:       draft.Method,
		Status:       draft.Status,
		ReferenceID:  draft.ReferenceID,
		CreatedAt:    s.now(),
	}

	if i := s.customerIndex(draft.CustomerID); i >= 0 {
		p.CustomerName = s.customers[i].Name
		if s.customers[i].RecordPayment(p.Date) {
			s.customers[i].UpdatedAt = p.CreatedAt
		}
	}

	s.payments = append(s.payments, p)
	return &p, nil
}

// UpdatePayment applies a partial update, normally a status correction
func (s *Store) UpdatePayment(ctx context.Context, id string, patch domain.PaymentPatch) (*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.paymentIndex(id)
	if i < 0 {
		return nil, domain.NotFound(domain.ErrorCodePaymentNotFound, "payment not found", id)
	}
	patch.Apply(&s.payments[i])
	p := s.payments[i]
	return &p, nil
}

// DeletePayment removes a payment from every later aggregate
func (s *Store) DeletePayment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.paymentIndex(id)
	if i < 0 {
		return domain.NotFound(domain.ErrorCodePaymentNotFound, "payment not found", id)
	}
	s.payments = append(s.payments[:i], s.payments[i+1:]...)
	return nil
}

// AddReminder records a reminder
func (s *Store) AddReminder(ctx context.Context, draft domain.ReminderDraft) (*domain.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := domain.Reminder{
		ID:                uuid.New().String(),
		CustomerID:        draft.CustomerID,
		CustomerName:      draft.CustomerName,
		Message:           draft.Message,
		ProviderMessageID: draft.ProviderMessageID,
		Error:             draft.Error,
		Channel:           draft.Channel,
		Kind:              draft.Kind,
		Status:            draft.Status,
		SentAt:            s.now(),
	}
	s.reminders = append(s.reminders, r)
	return &r, nil
}

// ListReminders returns all reminders in insertion order
func (s *Store) ListReminders(ctx context.Context) ([]domain.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Reminder(nil), s.reminders...), nil
}

// Snapshot copies customers and payments under one lock
func (s *Store) Snapshot(ctx context.Context) (*ports.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &ports.Snapshot{
		Customers: copyCustomers(s.customers),
		Payments:  append([]domain.Payment(nil), s.payments...),
	}, nil
}

// Ping always succeeds
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// Reset drops all data
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers = nil
	s.payments = nil
	s.reminders = nil
}

func (s *Store) customerIndex(id string) int {
	for i := range s.customers {
		if s.customers[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) paymentIndex(id string) int {
	for i := range s.payments {
		if s.payments[i].ID == id {
			return i
		}
	}
	return -1
}

// cloneCustomer deep-copies the LastPaymentDate pointer
func cloneCustomer(c domain.Customer) domain.Customer {
	if c.LastPaymentDate != nil {
		d := *c.LastPaymentDate
		c.LastPaymentDate = &d
	}
	return c
}

func copyCustomers(in []domain.Customer) []domain.Customer {
	out := make([]domain.Customer, len(in))
	for i, c := range in {
		out[i] = cloneCustomer(c)
	}
	return out
}
