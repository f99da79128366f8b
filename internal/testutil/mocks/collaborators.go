package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/kevin07696/recurringhub/internal/domain/ports"
)

// MockNotifier is a testify mock of ports.Notifier
type MockNotifier struct {
	mock.Mock
}

var _ ports.Notifier = (*MockNotifier)(nil)

func (m *MockNotifier) Name() string { return "mock" }

func (m *MockNotifier) Notify(ctx context.Context, n ports.Notification) (*ports.Delivery, error) {
	args := m.Called(ctx, n)
	if v := args.Get(0); v != nil {
		return v.(*ports.Delivery), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockGateway is a testify mock of ports.PaymentGateway
type MockGateway struct {
	mock.Mock
}

var _ ports.PaymentGateway = (*MockGateway)(nil)

func (m *MockGateway) CreateOrder(ctx context.Context, req ports.OrderRequest) (*ports.Order, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*ports.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGateway) VerifyPayment(ctx context.Context, orderID string) (*ports.PaymentVerification, error) {
	args := m.Called(ctx, orderID)
	if v := args.Get(0); v != nil {
		return v.(*ports.PaymentVerification), args.Error(1)
	}
	return nil, args.Error(1)
}

// NopLogger discards every log entry
type NopLogger struct{}

var _ ports.Logger = NopLogger{}

func (NopLogger) Info(string, ...ports.Field)  {}
func (NopLogger) Error(string, ...ports.Field) {}
func (NopLogger) Warn(string, ...ports.Field)  {}
func (NopLogger) Debug(string, ...ports.Field) {}
