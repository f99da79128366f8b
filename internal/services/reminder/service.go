// Package reminder renders reminder templates, hands them to a notifier and
// records the outcome.
package reminder

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kevin07696/recurringhub/internal/domain"
	"github.com/kevin07696/recurringhub/internal/domain/ports"
	"github.com/kevin07696/recurringhub/pkg/observability"
	"github.com/kevin07696/recurringhub/pkg/resilience"
)

// Store is the slice of the data store the reminder service needs
type Store interface {
	ports.CustomerRepository
	ports.ReminderRepository
}

// Service sends reminders
type Service struct {
	store    Store
	notifier ports.Notifier
	logger   ports.Logger
	timeouts *resilience.TimeoutConfig
}

// NewService creates a reminder service
func NewService(store Store, notifier ports.Notifier, logger ports.Logger, timeouts *resilience.TimeoutConfig) *Service {
	if timeouts == nil {
		timeouts = resilience.DefaultTimeoutConfig()
	}
	return &Service{
		store:    store,
		notifier: notifier,
		logger:   logger,
		timeouts: timeouts,
	}
}

// Request describes a reminder to send. Empty Template and Channel fall back
// to the default template and SMS.
type Request struct {
	Template string
	Channel  domain.Channel
	Kind     domain.ReminderKind
}

func (r *Request) normalize() error {
	if strings.TrimSpace(r.Template) == "" {
		r.Template = domain.DefaultReminderTemplate
	}
	if r.Channel == "" {
		r.Channel = domain.ChannelSMS
	}
	if !r.Channel.IsValid() {
		return domain.NewDomainError(domain.ErrorCodeValidationFailed, "unsupported reminder channel").
			WithDetail("channel", string(r.Channel))
	}
	if r.Kind == "" {
		r.Kind = domain.ReminderKindManual
	}
	return nil
}

// Send renders the template for c, notifies, and stores the reminder.
// A notifier failure is stored as a failed reminder and returned.
func (s *Service) Send(ctx context.Context, c domain.Customer, req Request) (*domain.Reminder, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	message := domain.RenderTemplate(req.Template, c)
	notification := ports.Notification{
		CustomerID:   c.ID,
		CustomerName: c.Name,
		Phone:        c.Phone,
		Email:        c.Email,
		Subject:      domain.ReminderSubject(c),
		Body:         message,
		Channel:      req.Channel,
		Kind:         req.Kind,
	}

	draft := domain.ReminderDraft{
		CustomerID:   c.ID,
		CustomerName: c.Name,
		Message:      message,
		Channel:      req.Channel,
		Kind:         req.Kind,
		Status:       domain.ReminderStatusSent,
	}

	delivery, notifyErr := s.notifier.Notify(ctx, notification)
	if notifyErr != nil {
		draft.Status = domain.ReminderStatusFailed
		draft.Error = notifyErr.Error()
		s.logger.Warn("Reminder delivery failed",
			ports.String("customer_id", c.ID),
			ports.String("channel", string(req.Channel)),
			ports.String("notifier", s.notifier.Name()),
			ports.Err(notifyErr))
	} else if delivery != nil {
		draft.ProviderMessageID = delivery.ProviderMessageID
	}
	observability.RecordReminder(string(req.Channel), string(req.Kind), string(draft.Status))

	// Persist even when the caller has gone away so the attempt is never lost
	storeCtx, cancel := s.timeouts.ServiceContext(context.WithoutCancel(ctx))
	defer cancel()

	reminder, err := s.store.AddReminder(storeCtx, draft)
	if err != nil {
		return nil, fmt.Errorf("store reminder: %w", err)
	}

	if notifyErr != nil {
		return reminder, notifyErr
	}

	s.logger.Info("Reminder sent",
		ports.String("reminder_id", reminder.ID),
		ports.String("customer_id", c.ID),
		ports.String("channel", string(req.Channel)),
		ports.String("kind", string(req.Kind)))
	return reminder, nil
}

// SendToCustomer loads the customer by id and sends
func (s *Service) SendToCustomer(ctx context.Context, customerID string, req Request) (*domain.Reminder, error) {
	c, err := s.store.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return s.Send(ctx, *c, req)
}

// List returns stored reminders, newest first. A non-empty customerID filters.
func (s *Service) List(ctx context.Context, customerID string) ([]domain.Reminder, error) {
	all, err := s.store.ListReminders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}

	out := make([]domain.Reminder, 0, len(all))
	for _, r := range all {
		if customerID != "" && r.CustomerID != customerID {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SentAt.After(out[j].SentAt)
	})
	return out, nil
}

// Templates returns the built-in templates
func (s *Service) Templates() []domain.ReminderTemplate {
	return append([]domain.ReminderTemplate(nil), domain.BuiltinTemplates...)
}

// Preview renders template for c without sending
func Preview(template string, c domain.Customer) string {
	if strings.TrimSpace(template) == "" {
		template = domain.DefaultReminderTemplate
	}
	return domain.RenderTemplate(template, c)
}

// RemindedSince returns the ids of customers that were successfully sent a
// reminder of kind at or after cutoff
func (s *Service) RemindedSince(ctx context.Context, kind domain.ReminderKind, cutoff time.Time) (map[string]bool, error) {
	all, err := s.store.ListReminders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}

	seen := make(map[string]bool)
	for _, r := range all {
		if r.Kind == kind && r.Status == domain.ReminderStatusSent && !r.SentAt.Before(cutoff) {
			seen[r.CustomerID] = true
		}
	}
	return seen, nil
}
