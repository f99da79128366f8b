package notify

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/kevin07696/recurringhub/internal/domain/ports"
)

// BreakerConfig configures the circuit breaker around a remote notifier
type BreakerConfig struct {
	// Requests allowed through while half-open
	MaxRequests uint32
	// Closed-state window after which counts reset
	Interval time.Duration
	// How long the breaker stays open before probing
	Timeout time.Duration
	// Consecutive provider failures that trip the breaker
	FailureThreshold uint32
}

// DefaultBreakerConfig returns the production breaker settings
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// BreakerNotifier stops calling a failing provider until it recovers.
// Rejections count as successes: only an unreachable provider trips the breaker.
type BreakerNotifier struct {
	next    ports.Notifier
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerNotifier wraps next with a circuit breaker
func NewBreakerNotifier(next ports.Notifier, cfg BreakerConfig, logger *zap.Logger) *BreakerNotifier {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	settings := gobreaker.Settings{
		Name:        next.Name(),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !isTransient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Notifier circuit breaker state changed",
				zap.String("notifier", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &BreakerNotifier{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// Name reports the wrapped provider
func (n *BreakerNotifier) Name() string { return n.next.Name() }

// State exposes the breaker state for health reporting
func (n *BreakerNotifier) State() gobreaker.State { return n.breaker.State() }

// Notify calls the provider unless the breaker is open
func (n *BreakerNotifier) Notify(ctx context.Context, msg ports.Notification) (*ports.Delivery, error) {
	result, err := n.breaker.Execute(func() (interface{}, error) {
		return n.next.Notify(ctx, msg)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, unavailable(n.Name(), err)
		}
		return nil, err
	}
	return result.(*ports.Delivery), nil
}
