package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

var (
	// Recorded payment metrics
	paymentsRecordedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_recorded_total",
		Help: "Total payments recorded",
	}, []string{
		"method", // UPI, Cash, Card, Bank Transfer
		"status", // completed, pending, failed
	})

	paymentAmountTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_amount_total",
		Help: "Total recorded payment amount in rupees",
	}, []string{
		"method",
		"status",
	})

	paymentLinksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_links_total",
		Help: "Payment link operations against the gateway",
	}, []string{
		"operation", // create, verify
		"result",    // success, declined, error
	})

	// Reminder metrics
	remindersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reminders_total",
		Help: "Total reminders handed to a notifier",
	}, []string{
		"channel", // sms, whatsapp, email
		"kind",    // manual, bulk, due
		"status",  // sent, failed
	})

	// Bulk operation metrics
	bulkItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bulk_operation_items_total",
		Help: "Items processed by bulk operations",
	}, []string{
		"operation",
		"result", // success, failure
	})

	bulkRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bulk_operation_duration_seconds",
		Help:    "Time to complete a bulk batch",
		Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 15, 60, 300},
	}, []string{
		"operation",
	})

	// Cron metrics
	cronRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cron_runs_total",
		Help: "Scheduled job invocations",
	}, []string{
		"job",
		"result", // success, partial, failure
	})
)

// RecordPayment records a stored payment
func RecordPayment(method, status string, amount decimal.Decimal) {
	paymentsRecordedTotal.WithLabelValues(method, status).Inc()
	paymentAmountTotal.WithLabelValues(method, status).Add(amount.InexactFloat64())
}

// RecordPaymentLink records a gateway create or verify outcome
func RecordPaymentLink(operation, result string) {
	paymentLinksTotal.WithLabelValues(operation, result).Inc()
}

// RecordReminder records a reminder outcome
func RecordReminder(channel, kind, status string) {
	remindersTotal.WithLabelValues(channel, kind, status).Inc()
}

// RecordBulkItem records one bulk item outcome
func RecordBulkItem(operation string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	bulkItemsTotal.WithLabelValues(operation, result).Inc()
}

// RecordBulkRun records the duration of a whole batch
func RecordBulkRun(operation string, seconds float64) {
	bulkRunDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordCronRun records a scheduled job invocation
func RecordCronRun(job, result string) {
	cronRunsTotal.WithLabelValues(job, result).Inc()
}
