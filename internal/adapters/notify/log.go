package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kevin07696/recurringhub/internal/domain/ports"
)

// LogNotifier writes reminders to the log instead of a provider.
// It is the default notifier and always accepts.
type LogNotifier struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewLogNotifier creates a log-only notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger, now: time.Now}
}

// Name identifies the provider
func (n *LogNotifier) Name() string { return "log" }

// Notify logs the rendered message
func (n *LogNotifier) Notify(ctx context.Context, msg ports.Notification) (*ports.Delivery, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(n.Name(), err)
	}

	id := uuid.New().String()
	n.logger.Info("Reminder delivered to log",
		zap.String("message_id", id),
		zap.String("customer_id", msg.CustomerID),
		zap.String("customer_name", msg.CustomerName),
		zap.String("channel", string(msg.Channel)),
		zap.String("kind", string(msg.Kind)),
		zap.String("body", msg.Body),
	)

	return &ports.Delivery{
		AcceptedAt:        n.now().UTC(),
		ProviderMessageID: id,
		Provider:          n.Name(),
	}, nil
}
