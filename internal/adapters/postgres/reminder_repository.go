package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/kevin07696/recurringhub/internal/domain"
)

// AddReminder stores a reminder record
func (s *Store) AddReminder(ctx context.Context, draft domain.ReminderDraft) (*domain.Reminder, error) {
	r := &domain.Reminder{
		ID:                uuid.New().String(),
		CustomerID:        draft.CustomerID,
		CustomerName:      draft.CustomerName,
		Message:           draft.Message,
		ProviderMessageID: draft.ProviderMessageID,
		Error:             draft.Error,
		Channel:           draft.Channel,
		Kind:              draft.Kind,
		Status:            draft.Status,
		SentAt:            s.now(),
	}

	_, err := s.db.GetDB().Exec(ctx, `
		INSERT INTO reminders (id, customer_id, customer_name, channel, kind, message, status,
			provider_message_id, error, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.MustParse(r.ID), r.CustomerID, r.CustomerName, string(r.Channel), string(r.Kind), r.Message,
		string(r.Status), nullText(r.ProviderMessageID), nullText(r.Error), r.SentAt,
	)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "create reminder", err)
	}
	return r, nil
}

// ListReminders returns all reminders, oldest first
func (s *Store) ListReminders(ctx context.Context) ([]domain.Reminder, error) {
	rows, err := s.db.GetDB().Query(ctx, `
		SELECT id, customer_id, customer_name, channel, kind, message, status, provider_message_id, error, sent_at
		FROM reminders ORDER BY sent_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	reminders := make([]domain.Reminder, 0)
	for rows.Next() {
		var (
			id                uuid.UUID
			channel           string
			kind              string
			status            string
			providerMessageID pgtype.Text
			errText           pgtype.Text
			sentAt            time.Time
			r                 domain.Reminder
		)
		if err := rows.Scan(&id, &r.CustomerID, &r.CustomerName, &channel, &kind, &r.Message, &status,
			&providerMessageID, &errText, &sentAt); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		r.ID = id.String()
		r.Channel = domain.Channel(channel)
		r.Kind = domain.ReminderKind(kind)
		r.Status = domain.ReminderStatus(status)
		r.ProviderMessageID = providerMessageID.String
		r.Error = errText.String
		r.SentAt = sentAt.UTC()
		reminders = append(reminders, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reminders: %w", err)
	}
	return reminders, nil
}
