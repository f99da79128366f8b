package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// OrderRequest asks the gateway for a payable order for a customer's fee
type OrderRequest struct {
	Amount       decimal.Decimal
	CustomerID   string
	CustomerName string
	Description  string
}

// Order is a gateway order with a shareable payment link
type Order struct {
	ExpiresAt   time.Time
	CreatedAt   time.Time
	Amount      decimal.Decimal
	OrderID     string
	PaymentLink string
	CustomerID  string
	Currency    string
}

// PaymentVerification is the gateway's verdict on an order
type PaymentVerification struct {
	VerifiedAt time.Time
	Amount     decimal.Decimal
	OrderID    string
	CustomerID string
	PaymentID  string
	Method     string
	Captured   bool
	Message    string
}

// PaymentGateway creates payment orders and verifies their capture.
// The shipped implementation is simulated and moves no money.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)

	// VerifyPayment returns domain.ErrGatewayOrderNotFound for unknown orders
	VerifyPayment(ctx context.Context, orderID string) (*PaymentVerification, error)
}
