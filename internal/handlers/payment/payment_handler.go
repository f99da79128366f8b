package payment

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kevin07696/recurringhub/internal/domain"
	"github.com/kevin07696/recurringhub/internal/handlers/httputil"
	paymentsvc "github.com/kevin07696/recurringhub/internal/services/payment"
)

// PaymentService is what the handler needs from the payment service
type PaymentService interface {
	RecordPayment(ctx context.Context, draft domain.PaymentDraft) (*domain.Payment, error)
	Get(ctx context.Context, id string) (*domain.Payment, error)
	List(ctx context.Context, filter paymentsvc.ListFilter) ([]domain.Payment, error)
	Update(ctx context.Context, id string, patch domain.PaymentPatch) (*domain.Payment, error)
	Delete(ctx context.Context, id string) error
	VerifyAndRecord(ctx context.Context, orderID string, draft domain.PaymentDraft) (*paymentsvc.Verification, error)
}

// Handler serves /api/v1/payments
type Handler struct {
	service PaymentService
	logger  *zap.Logger
}

// NewHandler creates a payment handler
func NewHandler(service PaymentService, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes mounts the payment routes on r
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/payments", h.List).Methods(http.MethodGet)
	r.HandleFunc("/payments", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/payments/verify", h.Verify).Methods(http.MethodPost)
	r.HandleFunc("/payments/{id}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/payments/{id}", h.Update).Methods(http.MethodPatch)
	r.HandleFunc("/payments/{id}", h.Delete).Methods(http.MethodDelete)
}

// RecordPaymentRequest is the body of POST /payments
type RecordPaymentRequest struct {
	Amount      decimal.Decimal      `json:"amount"`
	CustomerID  string               `json:"customer_id"`
	Date        string               `json:"date"`
	Method      string               `json:"method"`
	Status      domain.PaymentStatus `json:"status"`
	ReferenceID string               `json:"reference_id"`
}

func (req *RecordPaymentRequest) toDraft() (domain.PaymentDraft, error) {
	draft := domain.PaymentDraft{
		Amount:      req.Amount,
		CustomerID:  req.CustomerID,
		Method:      req.Method,
		Status:      req.Status,
		ReferenceID: req.ReferenceID,
	}
	date, err := httputil.ParseDate("date", req.Date)
	if err != nil {
		return draft, err
	}
	if date != nil {
		draft.Date = *date
	}
	return draft, nil
}

// UpdatePaymentRequest is the body of PATCH /payments/{id}
type UpdatePaymentRequest struct {
	Amount      *decimal.Decimal      `json:"amount"`
	Date        *string               `json:"date"`
	Method      *string               `json:"method"`
	Status      *domain.PaymentStatus `json:"status"`
	ReferenceID *string               `json:"reference_id"`
}

// VerifyPaymentRequest is the body of POST /payments/verify. Fields other
// than order_id override what the gateway reports.
type VerifyPaymentRequest struct {
	RecordPaymentRequest
	OrderID string `json:"order_id"`
}

// VerifyPaymentResponse reports the gateway verdict and the recorded payment
type VerifyPaymentResponse struct {
	Payment  *httputil.PaymentView `json:"payment,omitempty"`
	OrderID  string                `json:"order_id"`
	Message  string                `json:"message"`
	Captured bool                  `json:"captured"`
}

// List handles GET /payments?customer_id=&status=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := paymentsvc.ListFilter{
		CustomerID: q.Get("customer_id"),
		Status:     domain.PaymentStatus(q.Get("status")),
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		httputil.RespondError(w, h.logger, domain.NewDomainError(domain.ErrorCodeValidationFailed, "invalid status filter").
			WithDetail("status", string(filter.Status)))
		return
	}

	payments, err := h.service.List(r.Context(), filter)
	if err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"payments": httputil.NewPaymentViews(payments),
		"total":    len(payments),
	})
}

// Create handles POST /payments
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req RecordPaymentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}
	draft, err := req.toDraft()
	if err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}

	p, err := h.service.RecordPayment(r.Context(), draft)
	if err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, h.logger, http.StatusCreated, httputil.NewPaymentView(*p))
}

// Get handles GET /payments/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, h.logger, http.StatusOK, httputil.NewPaymentView(*p))
}

// Update handles PATCH /payments/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdatePaymentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}

	patch := domain.PaymentPatch{
		Amount:      req.Amount,
		Method:      req.Method,
		Status:      req.Status,
		ReferenceID: req.ReferenceID,
	}
	if req.Date != nil {
		date, err := httputil.ParseDate("date", *req.Date)
		if err != nil {
			httputil.RespondError(w, h.logger, err)
			return
		}
		patch.Date = date
	}

	p, err := h.service.Update(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, h.logger, http.StatusOK, httputil.NewPaymentView(*p))
}

// Delete handles DELETE /payments/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Verify handles POST /payments/verify. A captured order is recorded as a
// completed payment; a declined one answers 402 with the gateway message.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyPaymentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}
	draft, err := req.toDraft()
	if err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}

	result, err := h.service.VerifyAndRecord(r.Context(), req.OrderID, draft)
	if err != nil {
		if result != nil && result.Verification != nil && !result.Verification.Captured {
			httputil.RespondJSON(w, h.logger, http.StatusPaymentRequired, VerifyPaymentResponse{
				OrderID: result.Verification.OrderID,
				Message: result.Verification.Message,
			})
			return
		}
		httputil.RespondError(w, h.logger, err)
		return
	}

	view := httputil.NewPaymentView(*result.Payment)
	httputil.RespondJSON(w, h.logger, http.StatusCreated, VerifyPaymentResponse{
		Payment:  &view,
		OrderID:  result.Verification.OrderID,
		Message:  result.Verification.Message,
		Captured: true,
	})
}
