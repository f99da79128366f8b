package customer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kevin07696/recurringhub/internal/adapters/gateway"
	"github.com/kevin07696/recurringhub/internal/adapters/memory"
	"github.com/kevin07696/recurringhub/internal/domain"
	"github.com/kevin07696/recurringhub/internal/handlers/httputil"
	customersvc "github.com/kevin07696/recurringhub/internal/services/customer"
	paymentsvc "github.com/kevin07696/recurringhub/internal/services/payment"
	"github.com/kevin07696/recurringhub/internal/testutil/fixtures"
	"github.com/kevin07696/recurringhub/internal/testutil/mocks"
	"github.com/kevin07696/recurringhub/pkg/resilience"
)

var now = time.Date(2025, 11, 10, 9, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*mux.Router, *memory.Store) {
	t.Helper()
	clock := func() time.Time { return now }
	store := memory.NewStore(memory.WithClock(clock))
	gw := gateway.NewSimulated(gateway.Config{}, zap.NewNop(), gateway.WithClock(clock))

	customers := customersvc.NewService(store, mocks.NopLogger{}).WithClock(clock)
	payments := paymentsvc.NewService(store, gw, mocks.NopLogger{}, resilience.TestTimeoutConfig()).WithClock(clock)

	h := NewHandler(customers, payments, zap.NewNop())
	h.now = clock

	r := mux.NewRouter()
	h.RegisterRoutes(r)
	return r, store
}

func seed(t *testing.T, store *memory.Store, name, plan string, lastPaid *time.Time) domain.Customer {
	t.Helper()
	c, err := store.AddCustomer(context.Background(), domain.CustomerDraft{
		Name: name, Phone: "9876543210", Plan: plan,
		MonthlyFee: decimal.NewFromInt(3000), DueDay: 5,
		StartDate: fixtures.Date(2025, 1, 1), LastPaymentDate: lastPaid,
	})
	require.NoError(t, err)
	return *c
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func TestCreate(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		errCode  string
	}{
		{"defaults applied", `{"name":"Rajesh Kumar","phone":"9876543210"}`, http.StatusCreated, ""},
		{"missing phone", `{"name":"Rajesh Kumar"}`, http.StatusBadRequest, "VALIDATION_MISSING_FIELD"},
		{"due day out of range", `{"name":"A","phone":"9876543210","due_day":31}`, http.StatusBadRequest, "VALIDATION_DUE_DAY_INVALID"},
		{"bad start date", `{"name":"A","phone":"9876543210","start_date":"01/02/2025"}`, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"unknown field", `{"name":"A","phone":"9876543210","colour":"red"}`, http.StatusBadRequest, "VALIDATION_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := setup(t)
			rec := do(r, http.MethodPost, "/customers", tt.body)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			if tt.errCode != "" {
				var body httputil.ErrorResponse
				decode(t, rec, &body)
				assert.Equal(t, tt.errCode, body.Code)
				return
			}

			var view httputil.CustomerView
			decode(t, rec, &view)
			assert.NotEmpty(t, view.ID)
			assert.Equal(t, domain.PlanStandard, view.Plan)
			assert.True(t, view.MonthlyFee.Equal(decimal.NewFromInt(3000)))
			assert.Equal(t, 5, view.DueDay)
			assert.Equal(t, "2025-11-10", view.StartDate)
			assert.Equal(t, domain.CycleStatusOverdue, view.PaymentStatus)
		})
	}
}

func TestGetUpdateDelete(t *testing.T) {
	r, store := setup(t)
	c := seed(t, store, "Priya Sharma", domain.PlanBasic, nil)

	rec := do(r, http.MethodGet, "/customers/"+c.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(r, http.MethodPatch, "/customers/"+c.ID, `{"status":"suspended","last_payment_date":"2025-11-02"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var view httputil.CustomerView
	decode(t, rec, &view)
	assert.Equal(t, domain.AccountStatusSuspended, view.Status)
	assert.Equal(t, domain.CycleStatusSuspended, view.PaymentStatus)
	require.NotNil(t, view.LastPaymentDate)
	assert.Equal(t, "2025-11-02", *view.LastPaymentDate)

	rec = do(r, http.MethodPatch, "/customers/"+c.ID, `{"status":"frozen"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodDelete, "/customers/"+c.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(r, http.MethodGet, "/customers/"+c.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestList_Filters(t *testing.T) {
	r, store := setup(t)
	seed(t, store, "Rajesh Kumar", domain.PlanPremium, nil)
	seed(t, store, "Priya Sharma", domain.PlanBasic, nil)
	seed(t, store, "Amit Patel", domain.PlanPremium, nil)

	tests := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"?plan=premium", 2},
		{"?q=priya", 1},
		{"?status=inactive", 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := do(r, http.MethodGet, "/customers"+tt.query, "")
			require.Equal(t, http.StatusOK, rec.Code)
			var body struct {
				Customers []httputil.CustomerView `json:"customers"`
				Total     int                     `json:"total"`
			}
			decode(t, rec, &body)
			assert.Equal(t, tt.want, body.Total)
			assert.Len(t, body.Customers, tt.want)
		})
	}

	rec := do(r, http.MethodGet, "/customers?status=gone", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatus_AsOf(t *testing.T) {
	r, store := setup(t)
	c := seed(t, store, "Rajesh Kumar", domain.PlanPremium, fixtures.DatePtr(2025, 10, 3))

	rec := do(r, http.MethodGet, "/customers/"+c.ID+"/status?as_of=2025-11-10", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body StatusResponse
	decode(t, rec, &body)
	assert.Equal(t, domain.CycleStatusOverdue, body.Status)
	assert.Equal(t, 5, body.DaysOverdue)
	assert.Equal(t, 25, body.DaysUntilDue)
	assert.Equal(t, 10, body.AgeInMonths)
	assert.Equal(t, "2025-11-10", body.AsOf)

	rec = do(r, http.MethodGet, "/customers/"+c.ID+"/status?as_of=2025-10-04", "")
	decode(t, rec, &body)
	assert.Equal(t, domain.CycleStatusPaid, body.Status)
	assert.Equal(t, 0, body.DaysOverdue)
}

func TestSchedule(t *testing.T) {
	r, store := setup(t)
	c := seed(t, store, "Rajesh Kumar", domain.PlanPremium, nil)

	rec := do(r, http.MethodGet, "/customers/"+c.ID+"/schedule?as_of=2025-11-10", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Schedule []ScheduleEntry `json:"schedule"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Schedule, domain.ScheduleMonths)
	assert.Equal(t, "2025-11-05", body.Schedule[0].DueDate)
	assert.True(t, body.Schedule[0].IsPast)
	assert.True(t, body.Schedule[0].IsThisMonth)
	assert.Equal(t, "2026-04-05", body.Schedule[5].DueDate)
	assert.Equal(t, 2026, body.Schedule[5].Year)
}

func TestPaymentLink(t *testing.T) {
	r, store := setup(t)
	c := seed(t, store, "Rajesh Kumar", domain.PlanPremium, nil)

	rec := do(r, http.MethodPost, "/customers/"+c.ID+"/payment-link", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body PaymentLinkResponse
	decode(t, rec, &body)
	assert.True(t, strings.HasPrefix(body.PaymentLink, gateway.DefaultLinkBaseURL))
	assert.Equal(t, "INR", body.Currency)
	assert.True(t, body.Amount.Equal(decimal.NewFromInt(3000)))
	assert.Equal(t, now.Add(gateway.DefaultLinkTTL), body.ExpiresAt)

	rec = do(r, http.MethodPost, "/customers/missing/payment-link", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
