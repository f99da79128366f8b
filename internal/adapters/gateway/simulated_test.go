package gateway

import (
	"context"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kevin07696/recurringhub/internal/domain"
	"github.com/kevin07696/recurringhub/internal/domain/ports"
)

func TestSimulated_CreateOrder(t *testing.T) {
	now := time.Date(2025, 11, 10, 9, 0, 0, 0, time.UTC)
	g := NewSimulated(Config{}, zap.NewNop(), WithClock(func() time.Time { return now }))

	order, err := g.CreateOrder(context.Background(), ports.OrderRequest{
		Amount:     decimal.NewFromInt(5000),
		CustomerID: "cust-1",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(order.OrderID, "order_"))
	assert.Equal(t, DefaultLinkBaseURL+order.OrderID, order.PaymentLink)
	assert.Equal(t, now.Add(7*24*time.Hour), order.ExpiresAt)
	assert.Equal(t, "INR", order.Currency)
	assert.True(t, decimal.NewFromInt(5000).Equal(order.Amount))
}

func TestSimulated_CreateOrderRejectsNonPositiveAmount(t *testing.T) {
	g := NewSimulated(Config{}, zap.NewNop())

	_, err := g.CreateOrder(context.Background(), ports.OrderRequest{Amount: decimal.Zero, CustomerID: "c"})
	assert.True(t, domain.IsValidationError(err))
}

func TestSimulated_VerifyPayment(t *testing.T) {
	now := time.Date(2025, 11, 10, 9, 0, 0, 0, time.UTC)
	clock := now
	g := NewSimulated(Config{}, zap.NewNop(), WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	order, err := g.CreateOrder(ctx, ports.OrderRequest{Amount: decimal.NewFromInt(1500), CustomerID: "c"})
	require.NoError(t, err)

	t.Run("deterministic capture by default", func(t *testing.T) {
		for i := 0; i < 20; i++ {
			v, err := g.VerifyPayment(ctx, order.OrderID)
			require.NoError(t, err)
			assert.True(t, v.Captured)
		}
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := g.VerifyPayment(ctx, "order_missing")
		assert.True(t, domain.IsDomainError(err, domain.ErrorCodeGatewayOrderNotFound))
	})

	t.Run("expired link is not captured", func(t *testing.T) {
		clock = now.Add(8 * 24 * time.Hour)
		defer func() { clock = now }()

		v, err := g.VerifyPayment(ctx, order.OrderID)
		require.NoError(t, err)
		assert.False(t, v.Captured)
		assert.Equal(t, "Payment link expired", v.Message)
	})
}

func TestSimulated_FailureRate(t *testing.T) {
	g := NewSimulated(Config{FailureRate: 1}, zap.NewNop(), WithRand(rand.New(rand.NewSource(1))))
	ctx := context.Background()

	order, err := g.CreateOrder(ctx, ports.OrderRequest{Amount: decimal.NewFromInt(10), CustomerID: "c"})
	require.NoError(t, err)

	v, err := g.VerifyPayment(ctx, order.OrderID)
	require.NoError(t, err)
	assert.False(t, v.Captured)
}
