package reminder

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kevin07696/recurringhub/internal/domain"
	"github.com/kevin07696/recurringhub/internal/handlers/httputil"
	remindersvc "github.com/kevin07696/recurringhub/internal/services/reminder"
)

// ReminderService is what the handler needs from the reminder service
type ReminderService interface {
	SendToCustomer(ctx context.Context, customerID string, req remindersvc.Request) (*domain.Reminder, error)
	List(ctx context.Context, customerID string) ([]domain.Reminder, error)
	Templates() []domain.ReminderTemplate
}

// CustomerGetter loads the customer a preview is rendered for
type CustomerGetter interface {
	Get(ctx context.Context, id string) (*domain.Customer, error)
}

// Handler serves /api/v1/reminders
type Handler struct {
	service   ReminderService
	customers CustomerGetter
	logger    *zap.Logger
}

// NewHandler creates a reminder handler
func NewHandler(service ReminderService, customers CustomerGetter, logger *zap.Logger) *Handler {
	return &Handler{service: service, customers: customers, logger: logger}
}

// RegisterRoutes mounts the reminder routes on r
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/reminders", h.List).Methods(http.MethodGet)
	r.HandleFunc("/reminders", h.Send).Methods(http.MethodPost)
	r.HandleFunc("/reminders/templates", h.Templates).Methods(http.MethodGet)
	r.HandleFunc("/reminders/preview", h.Preview).Methods(http.MethodPost)
}

// SendReminderRequest is the body of POST /reminders
type SendReminderRequest struct {
	CustomerID string         `json:"customer_id"`
	Template   string         `json:"template"`
	Channel    domain.Channel `json:"channel"`
}

// SendReminderResponse reports a single send. Error is set when delivery failed.
type SendReminderResponse struct {
	Reminder *domain.Reminder `json:"reminder"`
	Error    string           `json:"error,omitempty"`
	Success  bool             `json:"success"`
}

// List handles GET /reminders?customer_id=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	reminders, err := h.service.List(r.Context(), r.URL.Query().Get("customer_id"))
	if err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"reminders": reminders,
		"total":     len(reminders),
	})
}

// Send handles POST /reminders. A delivery failure is still recorded and
// answers 502 with the failed reminder.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var req SendReminderRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}
	if req.CustomerID == "" {
		httputil.RespondError(w, h.logger, domain.NewDomainError(domain.ErrorCodeValidationMissingField, "customer_id is required").
			WithDetail("field", "customer_id"))
		return
	}

	reminder, err := h.service.SendToCustomer(r.Context(), req.CustomerID, remindersvc.Request{
		Template: req.Template,
		Channel:  req.Channel,
		Kind:     domain.ReminderKindManual,
	})
	if err != nil {
		if reminder == nil {
			httputil.RespondError(w, h.logger, err)
			return
		}
		h.logger.Warn("Reminder stored as failed",
			zap.String("reminder_id", reminder.ID),
			zap.Error(err))
		httputil.RespondJSON(w, h.logger, http.StatusBadGateway, SendReminderResponse{
			Reminder: reminder,
			Error:    "reminder delivery failed",
		})
		return
	}

	httputil.RespondJSON(w, h.logger, http.StatusCreated, SendReminderResponse{Reminder: reminder, Success: true})
}

// Templates handles GET /reminders/templates
func (h *Handler) Templates(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"templates": h.service.Templates(),
		"default":   domain.DefaultReminderTemplate,
	})
}

// PreviewRequest is the body of POST /reminders/preview
type PreviewRequest struct {
	CustomerID string `json:"customer_id"`
	Template   string `json:"template"`
}

// Preview handles POST /reminders/preview, rendering without sending
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}

	c, err := h.customers.Get(r.Context(), req.CustomerID)
	if err != nil {
		httputil.RespondError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, h.logger, http.StatusOK, map[string]string{
		"customer_id": c.ID,
		"message":     remindersvc.Preview(req.Template, *c),
	})
}
