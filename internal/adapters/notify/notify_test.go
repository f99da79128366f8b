package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kevin07696/recurringhub/internal/domain"
	"github.com/kevin07696/recurringhub/internal/domain/ports"
	"github.com/kevin07696/recurringhub/pkg/resilience"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Name() string { return "mock" }

func (m *mockNotifier) Notify(ctx context.Context, n ports.Notification) (*ports.Delivery, error) {
	args := m.Called(ctx, n)
	if d := args.Get(0); d != nil {
		return d.(*ports.Delivery), args.Error(1)
	}
	return nil, args.Error(1)
}

func sampleNotification(channel domain.Channel) ports.Notification {
	return ports.Notification{
		CustomerID:   "cust-1",
		CustomerName: "Rajesh Kumar",
		Phone:        "9876543210",
		Email:        "rajesh@example.com",
		Subject:      "Payment reminder",
		Body:         "Hi Rajesh Kumar, your fee is due",
		Channel:      channel,
		Kind:         domain.ReminderKindManual,
	}
}

func TestLogNotifier_AlwaysAccepts(t *testing.T) {
	n := NewLogNotifier(zap.NewNop())

	d, err := n.Notify(context.Background(), sampleNotification(domain.ChannelSMS))
	require.NoError(t, err)
	assert.Equal(t, "log", d.Provider)
	assert.NotEmpty(t, d.ProviderMessageID)
}

func TestLogNotifier_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLogNotifier(zap.NewNop()).Notify(ctx, sampleNotification(domain.ChannelSMS))
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeNotifierUnavailable))
}

type fakeWriter struct {
	err      error
	messages []kafka.Message
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaNotifier_Notify(t *testing.T) {
	w := &fakeWriter{}
	n := newKafkaNotifier(w, "reminders", zap.NewNop())

	d, err := n.Notify(context.Background(), sampleNotification(domain.ChannelWhatsApp))
	require.NoError(t, err)
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, "cust-1", string(msg.Key))

	var event reminderEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, d.ProviderMessageID, event.MessageID)
	assert.Equal(t, "whatsapp", event.Channel)
	assert.Equal(t, "9876543210", event.Phone)

	require.NoError(t, n.Close())
	assert.True(t, w.closed)
}

func TestKafkaNotifier_Errors(t *testing.T) {
	t.Run("writer failure is transient", func(t *testing.T) {
		n := newKafkaNotifier(&fakeWriter{err: errors.New("broker down")}, "reminders", zap.NewNop())
		_, err := n.Notify(context.Background(), sampleNotification(domain.ChannelSMS))
		assert.True(t, domain.IsDomainError(err, domain.ErrorCodeNotifierUnavailable))
	})

	t.Run("missing phone is rejected", func(t *testing.T) {
		n := newKafkaNotifier(&fakeWriter{}, "reminders", zap.NewNop())
		msg := sampleNotification(domain.ChannelSMS)
		msg.Phone = ""
		_, err := n.Notify(context.Background(), msg)
		assert.True(t, domain.IsDomainError(err, domain.ErrorCodeNotifierRejected))
	})
}

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("ses-123")}, nil
}

func TestSESNotifier_Notify(t *testing.T) {
	client := &fakeSES{}
	n := newSESNotifier(client, "billing@recurringhub.in", zap.NewNop())

	d, err := n.Notify(context.Background(), sampleNotification(domain.ChannelEmail))
	require.NoError(t, err)
	assert.Equal(t, "ses-123", d.ProviderMessageID)
	assert.Equal(t, []string{"rajesh@example.com"}, client.input.Destination.ToAddresses)
	assert.Equal(t, "Payment reminder", aws.ToString(client.input.Content.Simple.Subject.Data))

	msg := sampleNotification(domain.ChannelEmail)
	msg.Email = ""
	_, err = n.Notify(context.Background(), msg)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeNotifierRejected))
}

func TestBreakerNotifier_TripsOnTransientFailures(t *testing.T) {
	next := new(mockNotifier)
	next.On("Notify", mock.Anything, mock.Anything).
		Return(nil, unavailable("mock", errors.New("timeout")))

	n := NewBreakerNotifier(next, BreakerConfig{
		MaxRequests:      1,
		Timeout:          time.Minute,
		FailureThreshold: 2,
	}, zap.NewNop())

	for i := 0; i < 2; i++ {
		_, err := n.Notify(context.Background(), sampleNotification(domain.ChannelSMS))
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, n.State())

	_, err := n.Notify(context.Background(), sampleNotification(domain.ChannelSMS))
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeNotifierUnavailable))
	next.AssertNumberOfCalls(t, "Notify", 2)
}

func TestBreakerNotifier_RejectionsDoNotTrip(t *testing.T) {
	next := new(mockNotifier)
	next.On("Notify", mock.Anything, mock.Anything).
		Return(nil, rejected("mock", "bad number"))

	n := NewBreakerNotifier(next, BreakerConfig{FailureThreshold: 1}, zap.NewNop())

	for i := 0; i < 3; i++ {
		_, err := n.Notify(context.Background(), sampleNotification(domain.ChannelSMS))
		assert.True(t, domain.IsDomainError(err, domain.ErrorCodeNotifierRejected))
	}
	assert.Equal(t, gobreaker.StateClosed, n.State())
}

func TestRetryNotifier(t *testing.T) {
	backoff := &resilience.FixedBackoff{Delay: time.Millisecond}
	delivery := &ports.Delivery{Provider: "mock", ProviderMessageID: "m-1"}

	t.Run("retries transient then succeeds", func(t *testing.T) {
		next := new(mockNotifier)
		next.On("Notify", mock.Anything, mock.Anything).Return(nil, unavailable("mock", errors.New("503"))).Once()
		next.On("Notify", mock.Anything, mock.Anything).Return(delivery, nil).Once()

		n := NewRetryNotifier(next, 3, backoff, resilience.TestTimeoutConfig(), zap.NewNop())
		d, err := n.Notify(context.Background(), sampleNotification(domain.ChannelSMS))
		require.NoError(t, err)
		assert.Equal(t, "m-1", d.ProviderMessageID)
		next.AssertNumberOfCalls(t, "Notify", 2)
	})

	t.Run("does not retry rejections", func(t *testing.T) {
		next := new(mockNotifier)
		next.On("Notify", mock.Anything, mock.Anything).Return(nil, rejected("mock", "no phone"))

		n := NewRetryNotifier(next, 3, backoff, resilience.TestTimeoutConfig(), zap.NewNop())
		_, err := n.Notify(context.Background(), sampleNotification(domain.ChannelSMS))
		assert.True(t, domain.IsDomainError(err, domain.ErrorCodeNotifierRejected))
		next.AssertNumberOfCalls(t, "Notify", 1)
	})
}

func TestRouter(t *testing.T) {
	fallback := new(mockNotifier)
	email := new(mockNotifier)
	fallback.On("Notify", mock.Anything, mock.Anything).Return(&ports.Delivery{Provider: "fallback"}, nil)
	email.On("Notify", mock.Anything, mock.Anything).Return(&ports.Delivery{Provider: "email"}, nil)

	r := NewRouter(fallback).Route(domain.ChannelEmail, email)

	d, err := r.Notify(context.Background(), sampleNotification(domain.ChannelEmail))
	require.NoError(t, err)
	assert.Equal(t, "email", d.Provider)

	d, err = r.Notify(context.Background(), sampleNotification(domain.ChannelSMS))
	require.NoError(t, err)
	assert.Equal(t, "fallback", d.Provider)
}
