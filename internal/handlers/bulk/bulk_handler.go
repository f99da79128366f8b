package bulk

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kevin07696/recurringhub/internal/domain"
	"github.com/kevin07696/recurringhub/internal/handlers/httputil"
	bulksvc "github.com/kevin07696/recurringhub/internal/services/bulk"
	"github.com/kevin07696/recurringhub/internal/services/reminder"
	"github.com/kevin07696/recurringhub/pkg/shutdown"
	"github.com/kevin07696/recurringhub/pkg/timeutil"
)

// MaxImportBytes caps an uploaded CSV
const MaxImportBytes = 5 << 20

// BulkService is what the handler needs from the bulk service
type BulkService interface {
	ImportCustomers(ctx context.Context, r io.Reader) (bulksvc.Result, error)
	SendReminders(ctx context.Context, customerIDs []string, req reminder.Request) bulksvc.Result
	SendOverdueReminders(ctx context.Context, req reminder.Request, now time.Time) (bulksvc.Result, error)
	SendPlanReminders(ctx context.Context, plan string, req reminder.Request) (bulksvc.Result, error)
	UpdateCustomerStatus(ctx context.Context, ids []string, status domain.AccountStatus) (bulksvc.Result, error)
	UpdatePaymentStatus(ctx context.Context, ids []string, status domain.PaymentStatus) (bulksvc.Result, error)
}

// Handler serves /api/v1/bulk. Batches are detached from request
// cancellation and tracked so shutdown waits for them.
type Handler struct {
	service  BulkService
	inflight *shutdown.InFlightTracker
	logger   *zap.Logger
	now      func() time.Time
}

// NewHandler creates a bulk handler
func NewHandler(service BulkService, inflight *shutdown.InFlightTracker, logger *zap.Logger) *Handler {
	return &Handler{
		service:  service,
		inflight: inflight,
		logger:   logger,
		now:      timeutil.Now,
	}
}

// RegisterRoutes mounts the bulk routes on r
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/bulk/import", h.Import).Methods(http.MethodPost)
	r.HandleFunc("/bulk/reminders", h.Reminders).Methods(http.MethodPost)
	r.HandleFunc("/bulk/customer-status", h.CustomerStatus).Methods(http.MethodPost)
	r.HandleFunc("/bulk/payment-status", h.PaymentStatus).Methods(http.MethodPost)
}

// BulkResponse reports a finished batch
type BulkResponse struct {
	bulksvc.Result
	ProcessedAt time.Time `json:"processed_at"`
	Success     bool      `json:"success"`
}

// run executes batch detached from the request and writes its result:
// 200 when every item succeeded, 206 when some failed.
func (h *Handler) run(w http.ResponseWriter, r *http.Request, batch func(ctx context.Context) (bulksvc.Result, error)) {
	var (
		result bulksvc.Result
		err    error
	)
	ctx := context.WithoutCancel(r.Context())
	ran := h.inflight.Run(func() {
		result, err = batch(ctx)
	})
	if !ran {
		httputil.RespondJSON(w, h.logger, http.StatusServiceUnavailable, httputil.ErrorResponse{
			Code:  "SHUTTING_DOWN",
			Error: "server is shutting down",
		})
		return
	}
	if err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}

	status := http.StatusOK
	if result.HasFailures() {
		status = http.StatusPartialContent
	}
	httputil.RespondJSON(w, h.logger, status, BulkResponse{
		Result:      result,
		ProcessedAt: h.now(),
		Success:     !result.HasFailures(),
	})
}

// Import handles POST /bulk/import. The CSV is either the multipart field
// "file" or the raw request body.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxImportBytes)

	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if tooLarge := importTooLarge(err); tooLarge != nil {
			httputil.RespondError(w, h.logger, tooLarge)
			return
		}
		if err != nil {
			httputil.RespondError(w, h.logger, domain.WrapError(domain.ErrorCodeValidationMissingField,
				"multipart field \"file\" is required", err).WithDetail("field", "file"))
			return
		}
		defer file.Close()
		src = file
	}

	h.run(w, r, func(ctx context.Context) (bulksvc.Result, error) {
		result, err := h.service.ImportCustomers(ctx, src)
		if tooLarge := importTooLarge(err); tooLarge != nil {
			return result, tooLarge
		}
		return result, err
	})
}

// importTooLarge maps a body that hit MaxImportBytes to a validation error
func importTooLarge(err error) error {
	var tooLarge *http.MaxBytesError
	if !errors.As(err, &tooLarge) {
		return nil
	}
	return domain.NewDomainError(domain.ErrorCodeValidationFailed, "import file too large").
		WithDetail("limit_bytes", tooLarge.Limit)
}

// RemindersRequest is the body of POST /bulk/reminders. Exactly one target
// selector applies: customer_ids, plan, or overdue.
type RemindersRequest struct {
	Plan        string         `json:"plan"`
	Template    string         `json:"template"`
	Channel     domain.Channel `json:"channel"`
	CustomerIDs []string       `json:"customer_ids"`
	Overdue     bool           `json:"overdue"`
}

func (req *RemindersRequest) validate() error {
	selectors := 0
	if len(req.CustomerIDs) > 0 {
		selectors++
	}
	if req.Plan != "" {
		selectors++
	}
	if req.Overdue {
		selectors++
	}
	if selectors != 1 {
		return domain.NewDomainError(domain.ErrorCodeValidationFailed,
			"exactly one of customer_ids, plan or overdue is required")
	}
	return nil
}

// Reminders handles POST /bulk/reminders
func (h *Handler) Reminders(w http.ResponseWriter, r *http.Request) {
	var req RemindersRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}
	if err := req.validate(); err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}

	send := reminder.Request{Template: req.Template, Channel: req.Channel, Kind: domain.ReminderKindBulk}
	h.run(w, r, func(ctx context.Context) (bulksvc.Result, error) {
		switch {
		case req.Overdue:
			return h.service.SendOverdueReminders(ctx, send, h.now())
		case req.Plan != "":
			return h.service.SendPlanReminders(ctx, req.Plan, send)
		default:
			return h.service.SendReminders(ctx, req.CustomerIDs, send), nil
		}
	})
}

// StatusRequest is the body of the bulk status endpoints
type StatusRequest struct {
	Status string   `json:"status"`
	IDs    []string `json:"ids"`
}

func decodeStatusRequest(r *http.Request) (StatusRequest, error) {
	var req StatusRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		return req, err
	}
	if len(req.IDs) == 0 {
		return req, domain.NewDomainError(domain.ErrorCodeValidationMissingField, "ids is required").
			WithDetail("field", "ids")
	}
	return req, nil
}

// CustomerStatus handles POST /bulk/customer-status
func (h *Handler) CustomerStatus(w http.ResponseWriter, r *http.Request) {
	req, err := decodeStatusRequest(r)
	if err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}
	h.run(w, r, func(ctx context.Context) (bulksvc.Result, error) {
		return h.service.UpdateCustomerStatus(ctx, req.IDs, domain.AccountStatus(req.Status))
	})
}

// PaymentStatus handles POST /bulk/payment-status
func (h *Handler) PaymentStatus(w http.ResponseWriter, r *http.Request) {
	req, err := decodeStatusRequest(r)
	if err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}
	h.run(w, r, func(ctx context.Context) (bulksvc.Result, error) {
		return h.service.UpdatePaymentStatus(ctx, req.IDs, domain.PaymentStatus(req.Status))
	})
}
