package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/kevin07696/recurringhub/internal/domain/ports"
	"github.com/kevin07696/recurringhub/pkg/resilience"
)

// RetryNotifier retries transient provider failures with backoff.
// Rejections are returned immediately.
type RetryNotifier struct {
	next    ports.Notifier
	logger  *zap.Logger
	backoff resilience.BackoffStrategy
	timeout *resilience.TimeoutConfig
	max     int
}

// NewRetryNotifier wraps next. maxAttempts below 1 means a single attempt.
func NewRetryNotifier(next ports.Notifier, maxAttempts int, backoff resilience.BackoffStrategy, timeouts *resilience.TimeoutConfig, logger *zap.Logger) *RetryNotifier {
	if timeouts == nil {
		timeouts = resilience.DefaultTimeoutConfig()
	}
	return &RetryNotifier{
		next:    next,
		logger:  logger,
		backoff: backoff,
		timeout: timeouts,
		max:     maxAttempts,
	}
}

// Name reports the wrapped provider
func (n *RetryNotifier) Name() string { return n.next.Name() }

// Notify gives each attempt its own external call timeout
func (n *RetryNotifier) Notify(ctx context.Context, msg ports.Notification) (*ports.Delivery, error) {
	var delivery *ports.Delivery
	attempt := 0

	err := resilience.Retry(ctx, resilience.RetryPolicy{
		Backoff:     n.backoff,
		MaxAttempts: n.max,
		Retryable:   isTransient,
	}, func(ctx context.Context) error {
		attempt++
		callCtx, cancel := n.timeout.ExternalAPIContext(ctx)
		defer cancel()

		d, err := n.next.Notify(callCtx, msg)
		if err != nil {
			n.logger.Debug("Notify attempt failed",
				zap.String("notifier", n.Name()),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return err
		}
		delivery = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return delivery, nil
}
