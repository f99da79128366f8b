package analytics

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kevin07696/recurringhub/internal/domain"
	"github.com/kevin07696/recurringhub/internal/handlers/httputil"
	analyticssvc "github.com/kevin07696/recurringhub/internal/services/analytics"
	"github.com/kevin07696/recurringhub/pkg/timeutil"
)

// AnalyticsService is what the analytics and report handlers read from
type AnalyticsService interface {
	Revenue(ctx context.Context, now time.Time) (analyticssvc.RevenueSummary, error)
	Customers(ctx context.Context) (analyticssvc.CustomerSummary, error)
	Methods(ctx context.Context) ([]analyticssvc.MethodShare, error)
	Trend(ctx context.Context, now time.Time) ([]analyticssvc.TrendPoint, error)
	TopPeriods(ctx context.Context) ([]analyticssvc.PeriodTotal, error)
	Collection(ctx context.Context, now time.Time) (analyticssvc.CollectionReport, error)
	Churn(ctx context.Context, now time.Time) (analyticssvc.ChurnReport, error)
	Cohorts(ctx context.Context, now time.Time) (analyticssvc.CohortBreakdown, error)
	Dashboard(ctx context.Context, now time.Time) (analyticssvc.Dashboard, error)
	PaymentsReport(ctx context.Context, r analyticssvc.DateRange, from, to *time.Time, now time.Time) ([]domain.Payment, error)
	CustomersReport(ctx context.Context, f analyticssvc.ExportFilter, now time.Time) ([]analyticssvc.CustomerReportRow, error)
}

// Handler serves /api/v1/analytics and /api/v1/reports
type Handler struct {
	service AnalyticsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewHandler creates an analytics handler
func NewHandler(service AnalyticsService, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger, now: timeutil.Now}
}

// RegisterRoutes mounts the analytics routes on r
func (h *Handler) RegisterRoutes(r *mux.Router) {
	a := r.PathPrefix("/analytics").Subrouter()
	a.HandleFunc("/revenue", h.asOf(h.revenue)).Methods(http.MethodGet)
	a.HandleFunc("/customers", h.asOf(h.customers)).Methods(http.MethodGet)
	a.HandleFunc("/methods", h.asOf(h.methods)).Methods(http.MethodGet)
	a.HandleFunc("/trend", h.asOf(h.trend)).Methods(http.MethodGet)
	a.HandleFunc("/collection", h.asOf(h.collection)).Methods(http.MethodGet)
	a.HandleFunc("/top-periods", h.asOf(h.topPeriods)).Methods(http.MethodGet)
	a.HandleFunc("/churn", h.asOf(h.churn)).Methods(http.MethodGet)
	a.HandleFunc("/cohorts", h.asOf(h.cohorts)).Methods(http.MethodGet)
	a.HandleFunc("/dashboard", h.asOf(h.dashboard)).Methods(http.MethodGet)
}

// RegisterReportRoutes mounts the export routes on r, normally a /reports
// subrouter with compression
func (h *Handler) RegisterReportRoutes(r *mux.Router) {
	r.HandleFunc("/payments", h.PaymentsReport).Methods(http.MethodGet)
	r.HandleFunc("/customers", h.CustomersReport).Methods(http.MethodGet)
}

// aggregate computes one analytics payload at asOf
type aggregate func(ctx context.Context, asOf time.Time) (interface{}, error)

// asOf resolves the as_of parameter and writes the aggregate as JSON
func (h *Handler) asOf(fn aggregate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		asOf, err := httputil.AsOf(r, h.now())
		if err != nil {
			httputil.RespondError(w, h.logger, err)
			return
		}

		result, err := fn(r.Context(), asOf)
		if err != nil {
			httputil.RespondError(w, h.logger, err)
			return
		}
		httputil.RespondJSON(w, h.logger, http.StatusOK, result)
	}
}

func (h *Handler) revenue(ctx context.Context, asOf time.Time) (interface{}, error) {
	return h.service.Revenue(ctx, asOf)
}

func (h *Handler) customers(ctx context.Context, _ time.Time) (interface{}, error) {
	return h.service.Customers(ctx)
}

func (h *Handler) methods(ctx context.Context, _ time.Time) (interface{}, error) {
	shares, err := h.service.Methods(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"methods": shares}, nil
}

func (h *Handler) trend(ctx context.Context, asOf time.Time) (interface{}, error) {
	points, err := h.service.Trend(ctx, asOf)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"trend": points}, nil
}

func (h *Handler) topPeriods(ctx context.Context, _ time.Time) (interface{}, error) {
	periods, err := h.service.TopPeriods(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"periods": periods}, nil
}

func (h *Handler) collection(ctx context.Context, asOf time.Time) (interface{}, error) {
	return h.service.Collection(ctx, asOf)
}

func (h *Handler) churn(ctx context.Context, asOf time.Time) (interface{}, error) {
	return h.service.Churn(ctx, asOf)
}

func (h *Handler) cohorts(ctx context.Context, asOf time.Time) (interface{}, error) {
	return h.service.Cohorts(ctx, asOf)
}

// DashboardResponse adds the overdue customer list to the dashboard totals
type DashboardResponse struct {
	analyticssvc.Dashboard
	AsOf    string                  `json:"as_of"`
	Overdue []httputil.CustomerView `json:"overdue"`
}

func (h *Handler) dashboard(ctx context.Context, asOf time.Time) (interface{}, error) {
	d, err := h.service.Dashboard(ctx, asOf)
	if err != nil {
		return nil, err
	}
	return DashboardResponse{
		Dashboard: d,
		AsOf:      timeutil.FormatDate(asOf),
		Overdue:   httputil.NewCustomerViews(d.Overdue, asOf),
	}, nil
}
