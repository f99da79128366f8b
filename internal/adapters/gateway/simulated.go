package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kevin07696/recurringhub/internal/domain"
	"github.com/kevin07696/recurringhub/internal/domain/ports"
)

const (
	// DefaultLinkTTL is how long a payment link stays payable
	DefaultLinkTTL = 7 * 24 * time.Hour

	// DefaultLinkBaseURL prefixes simulated payment links
	DefaultLinkBaseURL = "https://pay.recurringhub.in/i/"

	currencyINR = "INR"
)

// Config configures the simulated gateway
type Config struct {
	LinkBaseURL string
	LinkTTL     time.Duration
	// FailureRate in [0,1] makes verification fail at random. 0 keeps it deterministic.
	FailureRate float64
}

// Option customises a Simulated gateway
type Option func(*Simulated)

// WithClock overrides the gateway's time source
func WithClock(now func() time.Time) Option {
	return func(g *Simulated) { g.now = now }
}

// WithRand overrides the random source used for simulated failures
func WithRand(r *rand.Rand) Option {
	return func(g *Simulated) { g.rand = r }
}

// Simulated is an in-process payment gateway. It issues payment links and
// captures them on verification without moving money.
type Simulated struct {
	orders map[string]*ports.Order
	now    func() time.Time
	rand   *rand.Rand
	logger *zap.Logger
	cfg    Config
	mu     sync.Mutex
	randMu sync.Mutex
}

// NewSimulated creates a simulated gateway
func NewSimulated(cfg Config, logger *zap.Logger, opts ...Option) *Simulated {
	if cfg.LinkBaseURL == "" {
		cfg.LinkBaseURL = DefaultLinkBaseURL
	}
	if cfg.LinkTTL <= 0 {
		cfg.LinkTTL = DefaultLinkTTL
	}

	g := &Simulated{
		orders: make(map[string]*ports.Order),
		now:    time.Now,
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: logger,
		cfg:    cfg,
	}
	for _, opt := range opts {
		opt(g)
	}

	if cfg.FailureRate > 0 {
		logger.Warn("Simulated gateway will fail verifications at random",
			zap.Float64("failure_rate", cfg.FailureRate))
	}
	return g
}

// CreateOrder registers a payable order and returns its link
func (g *Simulated) CreateOrder(ctx context.Context, req ports.OrderRequest) (*ports.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeGatewayError, "create order", err)
	}
	if !req.Amount.IsPositive() {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationAmountInvalid, "order amount must be positive").
			WithDetail("amount", req.Amount.String())
	}

	createdAt := g.now().UTC()
	orderID := "order_" + strings.ReplaceAll(uuid.New().String(), "-", "")

	order := &ports.Order{
		ExpiresAt:   createdAt.Add(g.cfg.LinkTTL),
		CreatedAt:   createdAt,
		Amount:      req.Amount,
		OrderID:     orderID,
		PaymentLink: g.cfg.LinkBaseURL + orderID,
		CustomerID:  req.CustomerID,
		Currency:    currencyINR,
	}

	g.mu.Lock()
	g.orders[orderID] = order
	g.mu.Unlock()

	g.logger.Info("Payment order created",
		zap.String("order_id", orderID),
		zap.String("customer_id", req.CustomerID),
		zap.String("amount", req.Amount.StringFixed(2)),
		zap.Time("expires_at", order.ExpiresAt),
	)

	copied := *order
	return &copied, nil
}

// VerifyPayment captures a pending order
func (g *Simulated) VerifyPayment(ctx context.Context, orderID string) (*ports.PaymentVerification, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeGatewayError, "verify payment", err)
	}

	g.mu.Lock()
	order, ok := g.orders[orderID]
	g.mu.Unlock()
	if !ok {
		return nil, domain.NotFound(domain.ErrorCodeGatewayOrderNotFound, "payment order not found", orderID)
	}

	verifiedAt := g.now().UTC()
	result := &ports.PaymentVerification{
		VerifiedAt: verifiedAt,
		Amount:     order.Amount,
		OrderID:    orderID,
		CustomerID: order.CustomerID,
		PaymentID:  fmt.Sprintf("pay_%s", strings.TrimPrefix(orderID, "order_")),
		Method:     string(domain.MethodUPI),
	}

	switch {
	case verifiedAt.After(order.ExpiresAt):
		result.Message = "Payment link expired"
	case g.shouldFail():
		result.Message = "Payment verification failed"
	default:
		result.Captured = true
		result.Message = "Payment verified successfully"
	}

	g.logger.Info("Payment verification",
		zap.String("order_id", orderID),
		zap.Bool("captured", result.Captured),
		zap.String("message", result.Message),
	)
	return result, nil
}

func (g *Simulated) shouldFail() bool {
	if g.cfg.FailureRate <= 0 {
		return false
	}
	g.randMu.Lock()
	defer g.randMu.Unlock()
	return g.rand.Float64() < g.cfg.FailureRate
}
