// Package bulk applies one mutation across many targets, counting per-item
// outcomes instead of aborting on the first failure.
package bulk

import (
	"context"
	"fmt"
	"time"

	"github.com/kevin07696/recurringhub/internal/domain/ports"
	"github.com/kevin07696/recurringhub/pkg/observability"
)

// Item is one target of a bulk operation. An Item with Err set is counted as
// failed without calling the operation.
type Item struct {
	Err   error
	ID    string
	Label string
}

// ItemError describes one failed item
type ItemError struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
	Error string `json:"error"`
}

// Result summarises a batch
type Result struct {
	Operation  string      `json:"operation"`
	Errors     []ItemError `json:"errors"`
	Successful int         `json:"successful"`
	Failed     int         `json:"failed"`
	Total      int         `json:"total"`
}

// HasFailures reports whether any item failed
func (r Result) HasFailures() bool {
	return r.Failed > 0
}

// Runner processes items one at a time
type Runner struct {
	logger ports.Logger
	sleep  func(time.Duration)
	delay  time.Duration
}

// NewRunner creates a runner that pauses delay between items
func NewRunner(delay time.Duration, logger ports.Logger) *Runner {
	return &Runner{
		logger: logger,
		sleep:  time.Sleep,
		delay:  delay,
	}
}

// Run applies fn to every item in order. Failures and panics are recorded
// and the batch always runs to completion. The pacing delay ignores ctx.
func (r *Runner) Run(ctx context.Context, operation string, items []Item, fn func(ctx context.Context, item Item) error) Result {
	start := time.Now()
	result := Result{
		Operation: operation,
		Errors:    []ItemError{},
		Total:     len(items),
	}

	for i, item := range items {
		err := item.Err
		if err == nil {
			err = r.runItem(ctx, item, fn)
		}

		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, ItemError{ID: item.ID, Label: item.Label, Error: err.Error()})
			r.logger.Warn("Bulk item failed",
				ports.String("operation", operation),
				ports.String("item", item.ID),
				ports.Err(err))
		} else {
			result.Successful++
		}
		observability.RecordBulkItem(operation, err == nil)

		if r.delay > 0 && i < len(items)-1 {
			r.sleep(r.delay)
		}
	}

	elapsed := time.Since(start)
	observability.RecordBulkRun(operation, elapsed.Seconds())
	r.logger.Info("Bulk operation completed",
		ports.String("operation", operation),
		ports.Int("total", result.Total),
		ports.Int("successful", result.Successful),
		ports.Int("failed", result.Failed),
		ports.Duration("elapsed", elapsed))

	return result
}

func (r *Runner) runItem(ctx context.Context, item Item, fn func(ctx context.Context, item Item) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn(ctx, item)
}
