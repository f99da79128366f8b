package resilience

import (
	"context"
	"testing"
	"time"
)

func TestDefaultTimeoutConfig(t *testing.T) {
	config := DefaultTimeoutConfig()

	// Verify timeout hierarchy is correctly ordered
	if config.HTTPHandler <= config.Service {
		t.Errorf("HTTPHandler (%v) must be > Service (%v)", config.HTTPHandler, config.Service)
	}

	if config.Service <= config.ExternalAPI {
		t.Errorf("Service (%v) must be > ExternalAPI (%v)", config.Service, config.ExternalAPI)
	}

	if config.ExternalAPI <= config.Snapshot {
		t.Errorf("ExternalAPI (%v) must be > Snapshot (%v)", config.ExternalAPI, config.Snapshot)
	}

	if config.CronJob <= config.HTTPHandler {
		t.Errorf("CronJob (%v) should have longer timeout than HTTPHandler (%v)",
			config.CronJob, config.HTTPHandler)
	}
}

func TestTestTimeoutConfig(t *testing.T) {
	config := TestTimeoutConfig()

	if config.HTTPHandler >= 10*time.Second {
		t.Errorf("Test timeouts should be < 10s, got %v", config.HTTPHandler)
	}

	if config.HTTPHandler <= config.Service {
		t.Errorf("HTTPHandler (%v) must be > Service (%v)", config.HTTPHandler, config.Service)
	}

	if config.Service <= config.ExternalAPI {
		t.Errorf("Service (%v) must be > ExternalAPI (%v)", config.Service, config.ExternalAPI)
	}
}

func TestTimeoutHierarchyPreservation(t *testing.T) {
	config := DefaultTimeoutConfig()

	parent, parentCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer parentCancel()

	// Child should inherit parent's shorter deadline
	child, childCancel := config.HandlerContext(parent)
	defer childCancel()

	parentDeadline, _ := parent.Deadline()
	childDeadline, _ := child.Deadline()

	if childDeadline.After(parentDeadline) {
		t.Errorf("Child deadline (%v) should not be after parent deadline (%v)",
			childDeadline, parentDeadline)
	}
}

func TestCronContext_SurvivesParentCancellation(t *testing.T) {
	config := TestTimeoutConfig()

	parent, cancel := context.WithCancel(context.Background())
	ctx, cronCancel := config.CronContext(parent)
	defer cronCancel()

	cancel()

	select {
	case <-ctx.Done():
		t.Fatal("Cron context must not be cancelled with its parent")
	case <-time.After(50 * time.Millisecond):
	}

	if _, ok := ctx.Deadline(); !ok {
		t.Error("Cron context should still carry its own deadline")
	}
}

func TestContextTimeout(t *testing.T) {
	config := TestTimeoutConfig()
	config.Service = 100 * time.Millisecond

	ctx, cancel := config.ServiceContext(context.Background())
	defer cancel()

	select {
	case <-ctx.Done():
		if ctx.Err() != context.DeadlineExceeded {
			t.Errorf("Expected context.DeadlineExceeded, got %v", ctx.Err())
		}
	case <-time.After(200 * time.Millisecond):
		t.Error("Context should timeout after 100ms")
	}
}

func TestAllContextCreators(t *testing.T) {
	config := DefaultTimeoutConfig()
	parent := context.Background()

	tests := []struct {
		name    string
		creator func(context.Context) (context.Context, context.CancelFunc)
		timeout time.Duration
	}{
		{"HandlerContext", config.HandlerContext, config.HTTPHandler},
		{"CronContext", config.CronContext, config.CronJob},
		{"ServiceContext", config.ServiceContext, config.Service},
		{"ExternalAPIContext", config.ExternalAPIContext, config.ExternalAPI},
		{"SnapshotContext", config.SnapshotContext, config.Snapshot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := tt.creator(parent)
			defer cancel()

			deadline, ok := ctx.Deadline()
			if !ok {
				t.Fatalf("%s should have deadline", tt.name)
			}

			expectedDeadline := time.Now().Add(tt.timeout)
			diff := deadline.Sub(expectedDeadline).Abs()
			if diff > 100*time.Millisecond {
				t.Errorf("%s: deadline diff too large: %v (expected ~%v)",
					tt.name, diff, tt.timeout)
			}
		})
	}
}
