package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthChecker(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		h := NewHealthChecker().Register("store", pingFunc(func(context.Context) error { return nil }))

		rec := httptest.NewRecorder()
		h.HealthHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var status HealthStatus
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
		assert.Equal(t, "healthy", status.Status)
		assert.Equal(t, "healthy", status.Checks["store"])
	})

	t.Run("unhealthy dependency", func(t *testing.T) {
		h := NewHealthChecker().
			Register("store", pingFunc(func(context.Context) error { return errors.New("connection refused") }))

		rec := httptest.NewRecorder()
		h.HealthHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "connection refused")
	})
}

func TestHTTPMiddleware_UsesRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(HTTPMiddleware)
	r.HandleFunc("/api/v1/customers/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods(http.MethodGet)

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/v1/customers/{id}", "404"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/customers/abc", nil))

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/v1/customers/{id}", "404"))
	assert.Equal(t, before+1, after)
}

func TestBusinessMetrics(t *testing.T) {
	before := testutil.ToFloat64(bulkItemsTotal.WithLabelValues("import", "failure"))
	RecordBulkItem("import", false)
	assert.Equal(t, before+1, testutil.ToFloat64(bulkItemsTotal.WithLabelValues("import", "failure")))

	beforeAmount := testutil.ToFloat64(paymentAmountTotal.WithLabelValues("Cash", "completed"))
	RecordPayment("Cash", "completed", decimal.RequireFromString("1500.50"))
	assert.InDelta(t, beforeAmount+1500.50, testutil.ToFloat64(paymentAmountTotal.WithLabelValues("Cash", "completed")), 0.001)
}
