package ports

import (
	"context"
	"time"

	"github.com/kevin07696/recurringhub/internal/domain"
)

// Notification is a rendered message ready for delivery
type Notification struct {
	CustomerID   string
	CustomerName string
	Phone        string
	Email        string
	Subject      string
	Body         string
	Channel      domain.Channel
	Kind         domain.ReminderKind
}

// Delivery is the notifier's acknowledgement of a handed-off message.
// It does not guarantee the message reached the customer.
type Delivery struct {
	AcceptedAt        time.Time
	ProviderMessageID string
	Provider          string
}

// Notifier hands a notification to a delivery provider
type Notifier interface {
	// Notify returns a NOTIFIER_* domain error when the provider refuses or is unreachable
	Notify(ctx context.Context, n Notification) (*Delivery, error)

	// Name identifies the provider in logs and metrics
	Name() string
}
