// Package mocks provides shared mock implementations for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/kevin07696/recurringhub/internal/domain"
	"github.com/kevin07696/recurringhub/internal/domain/ports"
)

// MockStore is a testify mock of ports.Store
type MockStore struct {
	mock.Mock
}

var _ ports.Store = (*MockStore)(nil)

func (m *MockStore) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]domain.Customer), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*domain.Customer), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) AddCustomer(ctx context.Context, draft domain.CustomerDraft) (*domain.Customer, error) {
	args := m.Called(ctx, draft)
	if v := args.Get(0); v != nil {
		return v.(*domain.Customer), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) UpdateCustomer(ctx context.Context, id string, patch domain.CustomerPatch) (*domain.Customer, error) {
	args := m.Called(ctx, id, patch)
	if v := args.Get(0); v != nil {
		return v.(*domain.Customer), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) DeleteCustomer(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockStore) ListPayments(ctx context.Context) ([]domain.Payment, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]domain.Payment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) GetPayment(ctx context.Context, id string) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*domain.Payment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) AddPayment(ctx context.Context, draft domain.PaymentDraft) (*domain.Payment, error) {
	args := m.Called(ctx, draft)
	if v := args.Get(0); v != nil {
		return v.(*domain.Payment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) UpdatePayment(ctx context.Context, id string, patch domain.PaymentPatch) (*domain.Payment, error) {
	args := m.Called(ctx, id, patch)
	if v := args.Get(0); v != nil {
		return v.(*domain.Payment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) DeletePayment(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockStore) AddReminder(ctx context.Context, draft domain.ReminderDraft) (*domain.Reminder, error) {
	args := m.Called(ctx, draft)
	if v := args.Get(0); v != nil {
		return v.(*domain.Reminder), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) ListReminders(ctx context.Context) ([]domain.Reminder, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]domain.Reminder), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) Snapshot(ctx context.Context) (*ports.Snapshot, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.(*ports.Snapshot), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
