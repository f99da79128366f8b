package resilience

import (
	"context"
	"time"
)

// TimeoutConfig defines timeout values for the application's timeout hierarchy
//
// Timeout Hierarchy (from outermost to innermost):
//
//	HTTP Handler (30s)
//	  ↓
//	Service Layer (25s)
//	  ↓
//	Notifier / Gateway call (10s)
//	  ↓
//	Store snapshot (5s)
//
// Bulk batches and cron runs are detached from the request and bounded by CronJob.
type TimeoutConfig struct {
	HTTPHandler time.Duration
	CronJob     time.Duration
	Service     time.Duration
	ExternalAPI time.Duration
	Snapshot    time.Duration
}

// DefaultTimeoutConfig returns production timeout values
func DefaultTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPHandler: 30 * time.Second,
		CronJob:     10 * time.Minute,
		Service:     25 * time.Second,
		ExternalAPI: 10 * time.Second,
		Snapshot:    5 * time.Second,
	}
}

// TestTimeoutConfig returns shorter timeouts for testing
func TestTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPHandler: 5 * time.Second,
		CronJob:     30 * time.Second,
		Service:     4 * time.Second,
		ExternalAPI: 2 * time.Second,
		Snapshot:    1 * time.Second,
	}
}

// HandlerContext creates a context with timeout for HTTP handlers
func (tc *TimeoutConfig) HandlerContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.HTTPHandler)
}

// CronContext detaches from the caller's cancellation and bounds the run by CronJob
func (tc *TimeoutConfig) CronContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(parent), tc.CronJob)
}

// ServiceContext creates a context with timeout for service layer operations
func (tc *TimeoutConfig) ServiceContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.Service)
}

// ExternalAPIContext creates a context for a single notifier or gateway call
func (tc *TimeoutConfig) ExternalAPIContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.ExternalAPI)
}

// SnapshotContext creates a context for loading a consistent store snapshot
func (tc *TimeoutConfig) SnapshotContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.Snapshot)
}
