package bulk

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kevin07696/recurringhub/internal/adapters/memory"
	"github.com/kevin07696/recurringhub/internal/domain"
	"github.com/kevin07696/recurringhub/internal/domain/ports"
	bulksvc "github.com/kevin07696/recurringhub/internal/services/bulk"
	"github.com/kevin07696/recurringhub/internal/services/customer"
	"github.com/kevin07696/recurringhub/internal/services/payment"
	"github.com/kevin07696/recurringhub/internal/services/reminder"
	"github.com/kevin07696/recurringhub/internal/testutil/fixtures"
	"github.com/kevin07696/recurringhub/internal/testutil/mocks"
	"github.com/kevin07696/recurringhub/pkg/resilience"
	"github.com/kevin07696/recurringhub/pkg/shutdown"
)

var now = time.Date(2025, 11, 10, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	router   *mux.Router
	store    *memory.Store
	notifier *mocks.MockNotifier
	inflight *shutdown.InFlightTracker
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	log := mocks.NopLogger{}
	clock := func() time.Time { return now }
	store := memory.NewStore(memory.WithClock(clock))
	notifier := new(mocks.MockNotifier)
	timeouts := resilience.TestTimeoutConfig()

	customers := customer.NewService(store, log).WithClock(clock)
	payments := payment.NewService(store, new(mocks.MockGateway), log, timeouts).WithClock(clock)
	reminders := reminder.NewService(store, notifier, log, timeouts)
	svc := bulksvc.NewService(bulksvc.NewRunner(0, log), customers, payments, reminders, log)

	inflight := shutdown.NewInFlightTracker("bulk", zap.NewNop())
	h := NewHandler(svc, inflight, zap.NewNop())
	h.now = clock

	r := mux.NewRouter()
	h.RegisterRoutes(r)
	return &testEnv{router: r, store: store, notifier: notifier, inflight: inflight}
}

func (e *testEnv) addCustomer(t *testing.T, name string, lastPaid *time.Time) domain.Customer {
	t.Helper()
	c, err := e.store.AddCustomer(context.Background(), domain.CustomerDraft{
		Name: name, Phone: "9876543210", Plan: domain.PlanStandard,
		MonthlyFee: decimal.NewFromInt(3000), DueDay: 5,
		StartDate: fixtures.Date(2025, 1, 1), LastPaymentDate: lastPaid,
	})
	require.NoError(t, err)
	return *c
}

func (e *testEnv) post(target, contentType string, body *bytes.Buffer) (*httptest.ResponseRecorder, BulkResponse) {
	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var resp BulkResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

func jsonBody(s string) *bytes.Buffer {
	return bytes.NewBufferString(s)
}

const importCSV = `name,phone,plan,fee,dueDay
Rajesh Kumar,9876543210,Premium,5000,5

,9123456780,Basic,1000,10
Priya Sharma,9123456780,,,
`

func TestImport_RawBody(t *testing.T) {
	env := setup(t)

	rec, resp := env.post("/bulk/import", "text/csv", jsonBody(importCSV))
	require.Equal(t, http.StatusPartialContent, rec.Code, rec.Body.String())
	assert.False(t, resp.Success)
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, 2, resp.Successful)
	assert.Equal(t, 1, resp.Failed)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "line 4", resp.Errors[0].ID)

	all, err := env.store.ListCustomers(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, domain.PlanStandard, all[1].Plan)
	assert.Equal(t, domain.DefaultDueDay, all[1].DueDay)
}

func TestImport_Multipart(t *testing.T) {
	env := setup(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "customers.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("name,phone\nAmit Patel,9988776655\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec, resp := env.post("/bulk/import", mw.FormDataContentType(), &buf)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Successful)
	assert.NotNil(t, resp.Errors)

	var empty bytes.Buffer
	mw = multipart.NewWriter(&empty)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())
	rec, _ = env.post("/bulk/import", mw.FormDataContentType(), &empty)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImport_TooLarge(t *testing.T) {
	oversized := "name,phone,plan,fee,dueDay\n" +
		strings.Repeat("Rajesh Kumar,9876543210,Premium,5000,5\n", MaxImportBytes/30)

	multipartBody := func(t *testing.T) (*bytes.Buffer, string) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", "customers.csv")
		require.NoError(t, err)
		_, err = part.Write([]byte(oversized))
		require.NoError(t, err)
		require.NoError(t, mw.Close())
		return &buf, mw.FormDataContentType()
	}

	tests := []struct {
		name string
		body func(t *testing.T) (*bytes.Buffer, string)
	}{
		{"raw body", func(t *testing.T) (*bytes.Buffer, string) { return jsonBody(oversized), "text/csv" }},
		{"multipart", multipartBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setup(t)
			body, contentType := tt.body(t)

			req := httptest.NewRequest(http.MethodPost, "/bulk/import", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			env.router.ServeHTTP(rec, req)

			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			var resp struct {
				Details map[string]interface{} `json:"details"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.EqualValues(t, MaxImportBytes, resp.Details["limit_bytes"])

			all, err := env.store.ListCustomers(context.Background())
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestReminders_ByIDs(t *testing.T) {
	env := setup(t)
	a := env.addCustomer(t, "Rajesh Kumar", nil)
	b := env.addCustomer(t, "Priya Sharma", nil)

	env.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n ports.Notification) bool {
		return n.Kind == domain.ReminderKindBulk
	})).Return(&ports.Delivery{ProviderMessageID: "m"}, nil)

	body := `{"customer_ids":["` + a.ID + `","missing","` + b.ID + `"]}`
	rec, resp := env.post("/bulk/reminders", "application/json", jsonBody(body))
	require.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, 2, resp.Successful)
	assert.Equal(t, 1, resp.Failed)
	assert.Equal(t, "missing", resp.Errors[0].ID)
	env.notifier.AssertNumberOfCalls(t, "Notify", 2)
}

func TestReminders_Overdue(t *testing.T) {
	env := setup(t)
	env.addCustomer(t, "Overdue One", fixtures.DatePtr(2025, 10, 2))
	env.addCustomer(t, "Paid Up", fixtures.DatePtr(2025, 11, 4))

	env.notifier.On("Notify", mock.Anything, mock.Anything).Return(&ports.Delivery{}, nil)

	rec, resp := env.post("/bulk/reminders", "application/json", jsonBody(`{"overdue":true,"channel":"sms"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, resp.Total)
}

func TestReminders_SelectorValidation(t *testing.T) {
	env := setup(t)

	for _, body := range []string{`{}`, `{"plan":"Basic","overdue":true}`, `{"customer_ids":["a"],"plan":"Basic"}`} {
		rec, _ := env.post("/bulk/reminders", "application/json", jsonBody(body))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestCustomerStatus(t *testing.T) {
	env := setup(t)
	a := env.addCustomer(t, "Rajesh Kumar", nil)

	rec, resp := env.post("/bulk/customer-status", "application/json",
		jsonBody(`{"ids":["`+a.ID+`"],"status":"suspended"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, resp.Successful)

	got, err := env.store.GetCustomer(context.Background(), a.ID)
	require.NoError(t, err)
	assert.True(t, got.IsSuspended())

	rec, _ = env.post("/bulk/customer-status", "application/json", jsonBody(`{"ids":["`+a.ID+`"],"status":"paused"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = env.post("/bulk/customer-status", "application/json", jsonBody(`{"status":"active"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPaymentStatus(t *testing.T) {
	env := setup(t)
	a := env.addCustomer(t, "Rajesh Kumar", nil)
	p, err := env.store.AddPayment(context.Background(), domain.PaymentDraft{
		Date: now, Amount: decimal.NewFromInt(3000), CustomerID: a.ID,
		Method: domain.MethodUPI, Status: domain.PaymentStatusPending,
	})
	require.NoError(t, err)

	rec, resp := env.post("/bulk/payment-status", "application/json",
		jsonBody(`{"ids":["`+p.ID+`",""],"status":"completed"}`))
	require.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, 1, resp.Successful)
	assert.Equal(t, 1, resp.Failed)

	got, err := env.store.GetPayment(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCompleted, got.Status)
}

func TestRefusesWorkDuringShutdown(t *testing.T) {
	env := setup(t)
	require.NoError(t, env.inflight.Shutdown(context.Background()))

	rec, _ := env.post("/bulk/import", "text/csv", jsonBody(importCSV))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "SHUTTING_DOWN"))
}
