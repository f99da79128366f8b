package customer

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kevin07696/recurringhub/internal/domain"
	"github.com/kevin07696/recurringhub/internal/domain/ports"
	"github.com/kevin07696/recurringhub/internal/handlers/httputil"
	customersvc "github.com/kevin07696/recurringhub/internal/services/customer"
	"github.com/kevin07696/recurringhub/pkg/timeutil"
)

// CustomerService is what the handler needs from the customer service
type CustomerService interface {
	Create(ctx context.Context, draft domain.CustomerDraft) (*domain.Customer, error)
	Get(ctx context.Context, id string) (*domain.Customer, error)
	List(ctx context.Context, filter customersvc.ListFilter) ([]domain.Customer, error)
	Update(ctx context.Context, id string, patch domain.CustomerPatch) (*domain.Customer, error)
	Delete(ctx context.Context, id string) error
	Status(ctx context.Context, id string, now time.Time) (*customersvc.StatusView, error)
	Schedule(ctx context.Context, id string, now time.Time) ([]domain.ScheduleEntry, error)
}

// PaymentLinker creates gateway payment links
type PaymentLinker interface {
	CreatePaymentLink(ctx context.Context, customerID string) (*ports.Order, error)
}

// Handler serves /api/v1/customers
type Handler struct {
	service CustomerService
	links   PaymentLinker
	logger  *zap.Logger
	now     func() time.Time
}

// NewHandler creates a customer handler
func NewHandler(service CustomerService, links PaymentLinker, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		links:   links,
		logger:  logger,
		now:     timeutil.Now,
	}
}

// RegisterRoutes mounts the customer routes on r
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/customers", h.List).Methods(http.MethodGet)
	r.HandleFunc("/customers", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/customers/{id}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/customers/{id}", h.Update).Methods(http.MethodPatch)
	r.HandleFunc("/customers/{id}", h.Delete).Methods(http.MethodDelete)
	r.HandleFunc("/customers/{id}/status", h.Status).Methods(http.MethodGet)
	r.HandleFunc("/customers/{id}/schedule", h.Schedule).Methods(http.MethodGet)
	r.HandleFunc("/customers/{id}/payment-link", h.PaymentLink).Methods(http.MethodPost)
}

// CreateCustomerRequest is the body of POST /customers
type CreateCustomerRequest struct {
	MonthlyFee      decimal.Decimal `json:"monthly_fee"`
	Name            string          `json:"name"`
	Phone           string          `json:"phone"`
	Email           string          `json:"email"`
	Plan            string          `json:"plan"`
	StartDate       string          `json:"start_date"`
	LastPaymentDate string          `json:"last_payment_date"`
	DueDay          int             `json:"due_day"`
}

// UpdateCustomerRequest is the body of PATCH /customers/{id}. Absent fields are unchanged.
type UpdateCustomerRequest struct {
	MonthlyFee      *decimal.Decimal      `json:"monthly_fee"`
	Name            *string               `json:"name"`
	Phone           *string               `json:"phone"`
	Email           *string               `json:"email"`
	Plan            *string               `json:"plan"`
	Status          *domain.AccountStatus `json:"status"`
	StartDate       *string               `json:"start_date"`
	LastPaymentDate *string               `json:"last_payment_date"`
	DueDay          *int                  `json:"due_day"`
}

func (req *CreateCustomerRequest) toDraft() (domain.CustomerDraft, error) {
	draft := domain.CustomerDraft{
		MonthlyFee: req.MonthlyFee,
		Name:       req.Name,
		Phone:      req.Phone,
		Email:      req.Email,
		Plan:       req.Plan,
		DueDay:     req.DueDay,
	}

	start, err := httputil.ParseDate("start_date", req.StartDate)
	if err != nil {
		return draft, err
	}
	if start != nil {
		draft.StartDate = *start
	}

	draft.LastPaymentDate, err = httputil.ParseDate("last_payment_date", req.LastPaymentDate)
	return draft, err
}

func (req *UpdateCustomerRequest) toPatch() (domain.CustomerPatch, error) {
	patch := domain.CustomerPatch{
		MonthlyFee: req.MonthlyFee,
		Name:       req.Name,
		Phone:      req.Phone,
		Email:      req.Email,
		Plan:       req.Plan,
		Status:     req.Status,
		DueDay:     req.DueDay,
	}

	var err error
	if req.StartDate != nil {
		if patch.StartDate, err = httputil.ParseDate("start_date", *req.StartDate); err != nil {
			return patch, err
		}
	}
	if req.LastPaymentDate != nil {
		if patch.LastPaymentDate, err = httputil.ParseDate("last_payment_date", *req.LastPaymentDate); err != nil {
			return patch, err
		}
	}
	return patch, nil
}

// List handles GET /customers?status=&plan=&q=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := customersvc.ListFilter{
		Status: domain.AccountStatus(q.Get("status")),
		Plan:   q.Get("plan"),
		Query:  q.Get("q"),
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		httputil.RespondError(w, h.logger, domain.NewDomainError(domain.ErrorCodeValidationFailed, "invalid status filter").
			WithDetail("status", string(filter.Status)))
		return
	}

	customers, err := h.service.List(r.Context(), filter)
	if err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"customers": httputil.NewCustomerViews(customers, h.now()),
		"total":     len(customers),
	})
}

// Create handles POST /customers
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCustomerRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}

	draft, err := req.toDraft()
	if err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}

	c, err := h.service.Create(r.Context(), draft)
	if err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, h.logger, http.StatusCreated, httputil.NewCustomerView(*c, h.now()))
}

// Get handles GET /customers/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, h.logger, http.StatusOK, httputil.NewCustomerView(*c, h.now()))
}

// Update handles PATCH /customers/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateCustomerRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}

	patch, err := req.toPatch()
	if err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}

	c, err := h.service.Update(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, h.logger, http.StatusOK, httputil.NewCustomerView(*c, h.now()))
}

// Delete handles DELETE /customers/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StatusResponse is the body of GET /customers/{id}/status
type StatusResponse struct {
	Customer     httputil.CustomerView `json:"customer"`
	AsOf         string                `json:"as_of"`
	Status       domain.CycleStatus    `json:"status"`
	DaysOverdue  int                   `json:"days_overdue"`
	DaysUntilDue int                   `json:"days_until_due"`
	AgeInMonths  int                   `json:"age_in_months"`
}

// Status handles GET /customers/{id}/status?as_of=
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	asOf, err := httputil.AsOf(r, h.now())
	if err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}

	view, err := h.service.Status(r.Context(), mux.Vars(r)["id"], asOf)
	if err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, h.logger, http.StatusOK, StatusResponse{
		Customer:     httputil.NewCustomerView(view.Customer, asOf),
		AsOf:         timeutil.FormatDate(asOf),
		Status:       view.Status,
		DaysOverdue:  view.DaysOverdue,
		DaysUntilDue: view.DaysUntilDue,
		AgeInMonths:  view.AgeInMonths,
	})
}

// ScheduleEntry is one row of GET /customers/{id}/schedule
type ScheduleEntry struct {
	Amount      decimal.Decimal `json:"amount"`
	Month       string          `json:"month"`
	DueDate     string          `json:"due_date"`
	Year        int             `json:"year"`
	IsPast      bool            `json:"is_past"`
	IsThisMonth bool            `json:"is_this_month"`
}

// Schedule handles GET /customers/{id}/schedule?as_of=
func (h *Handler) Schedule(w http.ResponseWriter, r *http.Request) {
	asOf, err := httputil.AsOf(r, h.now())
	if err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}

	entries, err := h.service.Schedule(r.Context(), mux.Vars(r)["id"], asOf)
	if err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}

	out := make([]ScheduleEntry, len(entries))
	for i, e := range entries {
		out[i] = ScheduleEntry{
			Amount:      e.Amount,
			Month:       e.Month,
			DueDate:     timeutil.FormatDate(e.DueDate),
			Year:        e.Year,
			IsPast:      e.IsPast,
			IsThisMonth: e.IsThisMonth,
		}
	}
	httputil.RespondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"schedule": out})
}

// PaymentLinkResponse is the body of POST /customers/{id}/payment-link
type PaymentLinkResponse struct {
	ExpiresAt   time.Time       `json:"expires_at"`
	Amount      decimal.Decimal `json:"amount"`
	OrderID     string          `json:"order_id"`
	PaymentLink string          `json:"payment_link"`
	Currency    string          `json:"currency"`
}

// PaymentLink handles POST /customers/{id}/payment-link
func (h *Handler) PaymentLink(w http.ResponseWriter, r *http.Request) {
	order, err := h.links.CreatePaymentLink(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, h.logger, http.StatusCreated, PaymentLinkResponse{
		ExpiresAt:   order.ExpiresAt,
		Amount:      order.Amount,
		OrderID:     order.OrderID,
		PaymentLink: order.PaymentLink,
		Currency:    order.Currency,
	})
}
