package reminder_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kevin07696/recurringhub/internal/adapters/memory"
	"github.com/kevin07696/recurringhub/internal/domain"
	"github.com/kevin07696/recurringhub/internal/domain/ports"
	"github.com/kevin07696/recurringhub/internal/services/reminder"
	"github.com/kevin07696/recurringhub/internal/testutil/mocks"
	"github.com/kevin07696/recurringhub/pkg/resilience"
)

func tickingClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func setup(t *testing.T) (*reminder.Service, *memory.Store, *mocks.MockNotifier, domain.Customer) {
	t.Helper()
	store := memory.NewStore(memory.WithClock(tickingClock(time.Date(2025, 11, 10, 9, 0, 0, 0, time.UTC))))
	c, err := store.AddCustomer(context.Background(), domain.CustomerDraft{
		Name:       "Rajesh Kumar",
		Phone:      "9876543210",
		Email:      "rajesh@example.com",
		Plan:       domain.PlanPremium,
		MonthlyFee: decimal.NewFromInt(5000),
		DueDay:     22,
		StartDate:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	notifier := new(mocks.MockNotifier)
	svc := reminder.NewService(store, notifier, mocks.NopLogger{}, resilience.TestTimeoutConfig())
	return svc, store, notifier, *c
}

func TestSend_Success(t *testing.T) {
	svc, store, notifier, c := setup(t)
	ctx := context.Background()

	notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n ports.Notification) bool {
		return n.Channel == domain.ChannelWhatsApp && n.Phone == "9876543210" &&
			n.Body == "Rajesh Kumar: Premium 5000 due 22nd, again Rajesh Kumar"
	})).Return(&ports.Delivery{ProviderMessageID: "msg-1", Provider: "log"}, nil).Once()

	r, err := svc.Send(ctx, c, reminder.Request{
		Template: "{NAME}: {PLAN} {FEE} due {DUE_DATE}, again {NAME}",
		Channel:  domain.ChannelWhatsApp,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ReminderStatusSent, r.Status)
	assert.Equal(t, domain.ReminderKindManual, r.Kind)
	assert.Equal(t, "msg-1", r.ProviderMessageID)

	stored, err := store.ListReminders(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, c.ID, stored[0].CustomerID)
	notifier.AssertExpectations(t)
}

func TestSend_Defaults(t *testing.T) {
	svc, _, notifier, c := setup(t)

	notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n ports.Notification) bool {
		return n.Channel == domain.ChannelSMS &&
			n.Body == "Hi Rajesh Kumar, your Premium plan fee of ₹5000 is due on 22nd. Please pay to avoid service interruption."
	})).Return(&ports.Delivery{ProviderMessageID: "msg-2"}, nil).Once()

	_, err := svc.Send(context.Background(), c, reminder.Request{})
	require.NoError(t, err)
	notifier.AssertExpectations(t)
}

func TestSend_NotifierFailureIsStored(t *testing.T) {
	svc, store, notifier, c := setup(t)
	ctx := context.Background()

	notifyErr := domain.WrapError(domain.ErrorCodeNotifierUnavailable, "notifier unavailable", errors.New("connection reset"))
	notifier.On("Notify", mock.Anything, mock.Anything).Return(nil, notifyErr).Once()

	r, err := svc.Send(ctx, c, reminder.Request{Channel: domain.ChannelSMS, Kind: domain.ReminderKindBulk})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotifierUnavailable))

	require.NotNil(t, r)
	assert.Equal(t, domain.ReminderStatusFailed, r.Status)
	assert.Contains(t, r.Error, "connection reset")

	stored, err := store.ListReminders(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, domain.ReminderStatusFailed, stored[0].Status)
}

func TestSend_RejectsUnknownChannel(t *testing.T) {
	svc, _, notifier, c := setup(t)

	_, err := svc.Send(context.Background(), c, reminder.Request{Channel: "pigeon"})
	assert.True(t, domain.IsValidationError(err))
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestSendToCustomer_NotFound(t *testing.T) {
	svc, _, _, _ := setup(t)

	_, err := svc.SendToCustomer(context.Background(), "missing", reminder.Request{})
	assert.True(t, errors.Is(err, domain.ErrCustomerNotFound))
}

func TestListAndRemindedSince(t *testing.T) {
	svc, store, notifier, c := setup(t)
	ctx := context.Background()

	other, err := store.AddCustomer(ctx, domain.CustomerDraft{
		Name: "Priya Sharma", Phone: "9123456780", Plan: domain.PlanBasic,
		MonthlyFee: decimal.NewFromInt(1500), DueDay: 10,
	})
	require.NoError(t, err)

	notifier.On("Notify", mock.Anything, mock.Anything).Return(&ports.Delivery{ProviderMessageID: "x"}, nil)

	_, err = svc.Send(ctx, c, reminder.Request{Kind: domain.ReminderKindDue})
	require.NoError(t, err)
	_, err = svc.Send(ctx, *other, reminder.Request{Kind: domain.ReminderKindManual})
	require.NoError(t, err)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, other.ID, all[0].CustomerID, "newest first")

	mine, err := svc.List(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	seen, err := svc.RemindedSince(ctx, domain.ReminderKindDue, time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, seen[c.ID])
	assert.False(t, seen[other.ID])
}

func TestTemplatesAndPreview(t *testing.T) {
	svc, _, _, c := setup(t)

	templates := svc.Templates()
	require.Len(t, templates, 4)
	assert.Equal(t, "Payment Due", templates[0].Name)

	templates[0].Name = "mutated"
	assert.Equal(t, "Payment Due", domain.BuiltinTemplates[0].Name)

	assert.Equal(t, "URGENT: Your payment of ₹5000 is overdue! Please pay immediately.",
		reminder.Preview(domain.BuiltinTemplates[1].Content, c))
}
