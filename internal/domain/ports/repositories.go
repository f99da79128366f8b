package ports

import (
	"context"

	"github.com/kevin07696/recurringhub/internal/domain"
)

// CustomerRepository is the customer half of the data store.
// List returns a snapshot; callers may mutate the returned slice freely.
type CustomerRepository interface {
	ListCustomers(ctx context.Context) ([]domain.Customer, error)

	// GetCustomer returns domain.ErrCustomerNotFound (matched with errors.Is) when id is unknown
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)

	// AddCustomer assigns ID and CreatedAt and stores the customer as active
	AddCustomer(ctx context.Context, draft domain.CustomerDraft) (*domain.Customer, error)

	UpdateCustomer(ctx context.Context, id string, patch domain.CustomerPatch) (*domain.Customer, error)

	// DeleteCustomer hard-deletes. Payments referencing the customer are kept as orphans.
	DeleteCustomer(ctx context.Context, id string) error
}

// PaymentRepository is the payment half of the data store
type PaymentRepository interface {
	ListPayments(ctx context.Context) ([]domain.Payment, error)

	GetPayment(ctx context.Context, id string) (*domain.Payment, error)

	// AddPayment stores the payment and advances the customer's last payment
	// date in the same unit of work. CustomerName is resolved at insert time.
	AddPayment(ctx context.Context, draft domain.PaymentDraft) (*domain.Payment, error)

	UpdatePayment(ctx context.Context, id string, patch domain.PaymentPatch) (*domain.Payment, error)

	DeletePayment(ctx context.Context, id string) error
}

// ReminderRepository stores sent reminders. Records are write-only side artifacts.
type ReminderRepository interface {
	AddReminder(ctx context.Context, draft domain.ReminderDraft) (*domain.Reminder, error)
	ListReminders(ctx context.Context) ([]domain.Reminder, error)
}

// Snapshot is a consistent read of both collections
type Snapshot struct {
	Customers []domain.Customer
	Payments  []domain.Payment
}

// Store is the full data store collaborator
type Store interface {
	CustomerRepository
	PaymentRepository
	ReminderRepository

	// Snapshot reads customers and payments together so aggregates see one state
	Snapshot(ctx context.Context) (*Snapshot, error)

	// Ping reports whether the store is reachable
	Ping(ctx context.Context) error
}
