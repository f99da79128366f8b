package shutdown

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// InFlightTracker tracks detached work, such as bulk batches that outlive
// their HTTP request, so shutdown can wait for it
type InFlightTracker struct {
	logger     *zap.Logger
	shutdownCh chan struct{}
	name       string
	wg         sync.WaitGroup
	mu         sync.Mutex
	closed     bool
}

// NewInFlightTracker creates a new in-flight work tracker
func NewInFlightTracker(name string, logger *zap.Logger) *InFlightTracker {
	return &InFlightTracker{
		logger:     logger,
		shutdownCh: make(chan struct{}),
		name:       name,
	}
}

// Add registers one unit of work. It returns false once shutdown has begun.
func (ift *InFlightTracker) Add() bool {
	ift.mu.Lock()
	defer ift.mu.Unlock()
	if ift.closed {
		return false
	}
	ift.wg.Add(1)
	return true
}

// Done marks one unit of work complete
func (ift *InFlightTracker) Done() {
	ift.wg.Done()
}

// Run executes fn as tracked work. It returns false without running fn
// during shutdown.
func (ift *InFlightTracker) Run(fn func()) bool {
	if !ift.Add() {
		return false
	}
	defer ift.Done()

	fn()
	return true
}

// IsShuttingDown reports whether new work is being refused
func (ift *InFlightTracker) IsShuttingDown() bool {
	select {
	case <-ift.shutdownCh:
		return true
	default:
		return false
	}
}

// Shutdown refuses new work and waits for tracked work or ctx
func (ift *InFlightTracker) Shutdown(ctx context.Context) error {
	ift.mu.Lock()
	if !ift.closed {
		ift.closed = true
		close(ift.shutdownCh)
	}
	ift.mu.Unlock()

	ift.logger.Info("Waiting for in-flight work", zap.String("tracker", ift.name))

	done := make(chan struct{})
	go func() {
		ift.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		ift.logger.Info("All in-flight work completed", zap.String("tracker", ift.name))
		return nil
	case <-ctx.Done():
		ift.logger.Warn("Shutdown timeout, some work may be incomplete", zap.String("tracker", ift.name))
		return ctx.Err()
	}
}

// PeriodicWorker runs a job on a fixed interval until shut down
type PeriodicWorker struct {
	logger   *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	name     string
	interval time.Duration
	wg       sync.WaitGroup
}

// NewPeriodicWorker creates a new periodic worker
func NewPeriodicWorker(name string, interval time.Duration, logger *zap.Logger) *PeriodicWorker {
	ctx, cancel := context.WithCancel(context.Background())
	return &PeriodicWorker{
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		name:     name,
		interval: interval,
	}
}

// Start runs work once per interval. The first run happens after one interval.
func (pw *PeriodicWorker) Start(work func(ctx context.Context)) {
	pw.wg.Add(1)
	go func() {
		defer pw.wg.Done()

		ticker := time.NewTicker(pw.interval)
		defer ticker.Stop()

		pw.logger.Info("Periodic worker started",
			zap.String("worker", pw.name),
			zap.Duration("interval", pw.interval),
		)
		for {
			select {
			case <-pw.ctx.Done():
				pw.logger.Info("Periodic worker stopped", zap.String("worker", pw.name))
				return
			case <-ticker.C:
				work(pw.ctx)
			}
		}
	}()
}

// Shutdown cancels the worker and waits for the current run or ctx
func (pw *PeriodicWorker) Shutdown(ctx context.Context) error {
	pw.cancel()

	done := make(chan struct{})
	go func() {
		pw.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		pw.logger.Warn("Periodic worker shutdown timeout", zap.String("worker", pw.name))
		return ctx.Err()
	}
}
