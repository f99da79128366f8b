package cron

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kevin07696/recurringhub/internal/domain"
	"github.com/kevin07696/recurringhub/internal/services/bulk"
	"github.com/kevin07696/recurringhub/internal/services/reminder"
	"github.com/kevin07696/recurringhub/pkg/observability"
	"github.com/kevin07696/recurringhub/pkg/timeutil"
)

// JobOverdueReminders is the cron job label used in metrics
const JobOverdueReminders = "overdue_reminders"

// OverdueSender sends the scheduled overdue reminders
type OverdueSender interface {
	SendOverdueReminders(ctx context.Context, req reminder.Request, now time.Time) (bulk.Result, error)
}

// ReminderHandler handles cron endpoints for scheduled reminders
type ReminderHandler struct {
	sender     OverdueSender
	logger     *zap.Logger
	now        func() time.Time
	cronSecret string // Secret token for authenticating cron requests
}

// NewReminderHandler creates a new reminder cron handler
func NewReminderHandler(sender OverdueSender, logger *zap.Logger, cronSecret string) *ReminderHandler {
	return &ReminderHandler{
		sender:     sender,
		logger:     logger,
		now:        timeutil.Now,
		cronSecret: cronSecret,
	}
}

// RegisterRoutes mounts the cron routes on r
func (h *ReminderHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/cron/overdue-reminders", h.OverdueReminders).Methods(http.MethodPost)
	r.HandleFunc("/cron/health", h.HealthCheck).Methods(http.MethodGet)
}

// OverdueRemindersRequest is the optional body of POST /cron/overdue-reminders
type OverdueRemindersRequest struct {
	AsOfDate *string        `json:"as_of_date"` // Optional: ISO date string, defaults to today
	Template string         `json:"template"`
	Channel  domain.Channel `json:"channel"`
}

// OverdueRemindersResponse represents the outcome of a scheduled run
type OverdueRemindersResponse struct {
	Errors       []bulk.ItemError `json:"errors,omitempty"`
	ProcessedAt  string           `json:"processed_at"`
	Processed    int              `json:"processed"`
	SuccessCount int              `json:"success_count"`
	FailureCount int              `json:"failure_count"`
	Success      bool             `json:"success"`
}

// Run sends due reminders for asOf. It is shared by the HTTP trigger and the
// in-process scheduler.
func (h *ReminderHandler) Run(ctx context.Context, asOf time.Time, req reminder.Request) (bulk.Result, error) {
	req.Kind = domain.ReminderKindDue

	result, err := h.sender.SendOverdueReminders(ctx, req, asOf)
	switch {
	case err != nil:
		observability.RecordCronRun(JobOverdueReminders, "error")
		h.logger.Error("Overdue reminder run failed", zap.Error(err))
		return result, err
	case result.HasFailures():
		observability.RecordCronRun(JobOverdueReminders, "partial")
	default:
		observability.RecordCronRun(JobOverdueReminders, "success")
	}

	h.logger.Info("Overdue reminder run completed",
		zap.String("as_of", timeutil.FormatDate(asOf)),
		zap.Int("processed", result.Total),
		zap.Int("success", result.Successful),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// OverdueReminders handles POST /cron/overdue-reminders.
// It is called by the external scheduler.
func (h *ReminderHandler) OverdueReminders(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("Overdue reminder cron triggered",
		zap.String("remote_addr", r.RemoteAddr),
		zap.String("user_agent", r.UserAgent()),
	)

	if !h.authenticateRequest(r) {
		h.logger.Warn("Unauthorized cron request", zap.String("remote_addr", r.RemoteAddr))
		h.respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req OverdueRemindersRequest
	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	asOf := h.now()
	if req.AsOfDate != nil {
		parsed, err := timeutil.ParseISODate(*req.AsOfDate)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid as_of_date format, expected YYYY-MM-DD")
			return
		}
		asOf = parsed
	}

	// The run completes even if the scheduler hangs up
	ctx := context.WithoutCancel(r.Context())
	result, err := h.Run(ctx, asOf, reminder.Request{Template: req.Template, Channel: req.Channel})
	if err != nil {
		status := http.StatusInternalServerError
		message := "overdue reminder run failed"
		if domain.IsValidationError(err) {
			status = http.StatusBadRequest
			message = err.Error()
		}
		h.respondError(w, status, message)
		return
	}

	resp := OverdueRemindersResponse{
		Errors:       result.Errors,
		ProcessedAt:  h.now().Format(time.RFC3339),
		Processed:    result.Total,
		SuccessCount: result.Successful,
		FailureCount: result.Failed,
		Success:      !result.HasFailures(),
	}

	status := http.StatusOK
	if !resp.Success {
		status = http.StatusPartialContent // 206 indicates partial success
	}
	h.respond(w, status, resp)
}

// authenticateRequest accepts the secret in X-Cron-Secret or as a Bearer token
func (h *ReminderHandler) authenticateRequest(r *http.Request) bool {
	if h.cronSecret == "" {
		return false
	}

	if secret := r.Header.Get("X-Cron-Secret"); secret != "" && h.matches(secret) {
		return true
	}

	const bearer = "Bearer "
	if auth := r.Header.Get("Authorization"); len(auth) > len(bearer) && auth[:len(bearer)] == bearer {
		return h.matches(auth[len(bearer):])
	}
	return false
}

func (h *ReminderHandler) matches(candidate string) bool {
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(h.cronSecret)) == 1
}

func (h *ReminderHandler) respond(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// respondError sends an error response
func (h *ReminderHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respond(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// HealthCheck handles GET /cron/health for monitoring
func (h *ReminderHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   h.now().Format(time.RFC3339),
	})
}
