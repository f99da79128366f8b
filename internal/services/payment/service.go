package payment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kevin07696/recurringhub/internal/domain"
	"github.com/kevin07696/recurringhub/internal/domain/ports"
	"github.com/kevin07696/recurringhub/pkg/observability"
	"github.com/kevin07696/recurringhub/pkg/resilience"
	"github.com/kevin07696/recurringhub/pkg/timeutil"
)

// Service records payments and drives the payment-link flow
type Service struct {
	store    ports.Store
	gateway  ports.PaymentGateway
	logger   ports.Logger
	timeouts *resilience.TimeoutConfig
	now      func() time.Time
}

// NewService creates a new payment service
func NewService(
	store ports.Store,
	gateway ports.PaymentGateway,
	logger ports.Logger,
	timeouts *resilience.TimeoutConfig,
) *Service {
	if timeouts == nil {
		timeouts = resilience.DefaultTimeoutConfig()
	}
	return &Service{
		store:    store,
		gateway:  gateway,
		logger:   logger,
		timeouts: timeouts,
		now:      timeutil.Now,
	}
}

// WithClock overrides the time source used for defaults
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// RecordPayment validates and stores a payment. The store advances the
// customer's last payment date.
func (s *Service) RecordPayment(ctx context.Context, draft domain.PaymentDraft) (*domain.Payment, error) {
	draft.ApplyDefaults(s.now())
	draft.Date = timeutil.StartOfDay(draft.Date)

	if err := draft.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.store.GetCustomer(ctx, draft.CustomerID); err != nil {
		if !errors.Is(err, domain.ErrCustomerNotFound) {
			return nil, err
		}
		// Payments are not tied to a live customer; record it as an orphan
		s.logger.Warn("Recording payment for unknown customer",
			ports.String("customer_id", draft.CustomerID))
	}

	payment, err := s.store.AddPayment(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("add payment: %w", err)
	}

	observability.RecordPayment(payment.Method, string(payment.Status), payment.Amount)
	s.logger.Info("Payment recorded",
		ports.String("payment_id", payment.ID),
		ports.String("customer_id", payment.CustomerID),
		ports.Decimal("amount", payment.Amount),
		ports.String("method", payment.Method),
		ports.String("status", string(payment.Status)),
		ports.Date("date", payment.Date))

	return payment, nil
}

// Get returns a payment by id
func (s *Service) Get(ctx context.Context, id string) (*domain.Payment, error) {
	return s.store.GetPayment(ctx, id)
}

// ListFilter narrows List. Zero values match everything.
type ListFilter struct {
	CustomerID string
	Status     domain.PaymentStatus
}

// List returns payments newest first
func (s *Service) List(ctx context.Context, filter ListFilter) ([]domain.Payment, error) {
	all, err := s.store.ListPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	out := make([]domain.Payment, 0, len(all))
	for _, p := range all {
		if filter.CustomerID != "" && p.CustomerID != filter.CustomerID {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

// Update applies a partial update, usually a status correction
func (s *Service) Update(ctx context.Context, id string, patch domain.PaymentPatch) (*domain.Payment, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if patch.Date != nil {
		d := timeutil.StartOfDay(*patch.Date)
		patch.Date = &d
	}

	payment, err := s.store.UpdatePayment(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment updated",
		ports.String("payment_id", id),
		ports.String("status", string(payment.Status)))
	return payment, nil
}

// Delete removes a payment. The customer's last payment date is not rewound.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeletePayment(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Payment deleted", ports.String("payment_id", id))
	return nil
}

// CreatePaymentLink asks the gateway for a payable order covering the
// customer's monthly fee
func (s *Service) CreatePaymentLink(ctx context.Context, customerID string) (*ports.Order, error) {
	c, err := s.store.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	gwCtx, cancel := s.timeouts.ExternalAPIContext(ctx)
	defer cancel()

	order, err := s.gateway.CreateOrder(gwCtx, ports.OrderRequest{
		Amount:       c.MonthlyFee,
		CustomerID:   c.ID,
		CustomerName: c.Name,
		Description:  fmt.Sprintf("%s plan - %s", c.Plan, s.now().Format("January 2006")),
	})
	if err != nil {
		observability.RecordPaymentLink("create", "error")
		s.logger.Error("Failed to create payment link",
			ports.String("customer_id", customerID),
			ports.Err(err))
		return nil, fmt.Errorf("gateway create order: %w", err)
	}

	observability.RecordPaymentLink("create", "success")
	s.logger.Info("Payment link created",
		ports.String("customer_id", c.ID),
		ports.String("order_id", order.OrderID),
		ports.Decimal("amount", order.Amount))
	return order, nil
}

// Verification pairs the gateway verdict with the recorded payment
type Verification struct {
	Verification *ports.PaymentVerification
	Payment      *domain.Payment
}

// VerifyAndRecord verifies an order and, when captured, records the payment.
// Missing draft fields are taken from the gateway verdict.
func (s *Service) VerifyAndRecord(ctx context.Context, orderID string, draft domain.PaymentDraft) (*Verification, error) {
	if orderID == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationMissingField, "order_id is required").
			WithDetail("field", "order_id")
	}

	gwCtx, cancel := s.timeouts.ExternalAPIContext(ctx)
	defer cancel()

	verification, err := s.gateway.VerifyPayment(gwCtx, orderID)
	if err != nil {
		observability.RecordPaymentLink("verify", "error")
		return nil, fmt.Errorf("gateway verify payment: %w", err)
	}

	if !verification.Captured {
		observability.RecordPaymentLink("verify", "declined")
		s.logger.Warn("Payment not captured",
			ports.String("order_id", orderID),
			ports.String("message", verification.Message))
		return &Verification{Verification: verification},
			domain.NewDomainError(domain.ErrorCodeGatewayDeclined, verification.Message).
				WithDetail("order_id", orderID)
	}
	observability.RecordPaymentLink("verify", "success")

	if draft.CustomerID == "" {
		draft.CustomerID = verification.CustomerID
	}
	if draft.Amount.IsZero() {
		draft.Amount = verification.Amount
	}
	if draft.Method == "" {
		draft.Method = verification.Method
	}
	if draft.ReferenceID == "" {
		draft.ReferenceID = verification.PaymentID
	}
	draft.Status = domain.PaymentStatusCompleted

	payment, err := s.RecordPayment(ctx, draft)
	if err != nil {
		return &Verification{Verification: verification}, err
	}
	return &Verification{Verification: verification, Payment: payment}, nil
}
