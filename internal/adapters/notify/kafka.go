package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/kevin07696/recurringhub/internal/domain/ports"
)

// KafkaConfig configures the reminder topic writer
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
	WriteTimeout time.Duration
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes reminders to a topic consumed by the SMS and
// WhatsApp delivery workers
type KafkaNotifier struct {
	writer messageWriter
	logger *zap.Logger
	now    func() time.Time
	topic  string
}

// reminderEvent is the message value on the reminders topic
type reminderEvent struct {
	QueuedAt     time.Time `json:"queued_at"`
	MessageID    string    `json:"message_id"`
	CustomerID   string    `json:"customer_id"`
	CustomerName string    `json:"customer_name"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email,omitempty"`
	Subject      string    `json:"subject,omitempty"`
	Body         string    `json:"body"`
	Channel      string    `json:"channel"`
	Kind         string    `json:"kind"`
}

// NewKafkaNotifier creates a notifier backed by a kafka.Writer
func NewKafkaNotifier(cfg KafkaConfig, logger *zap.Logger) *KafkaNotifier {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
	}

	logger.Info("Kafka notifier initialized",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic),
	)
	return newKafkaNotifier(writer, cfg.Topic, logger)
}

func newKafkaNotifier(writer messageWriter, topic string, logger *zap.Logger) *KafkaNotifier {
	return &KafkaNotifier{writer: writer, topic: topic, logger: logger, now: time.Now}
}

// Name identifies the provider
func (n *KafkaNotifier) Name() string { return "kafka" }

// Notify publishes one reminder keyed by customer ID
func (n *KafkaNotifier) Notify(ctx context.Context, msg ports.Notification) (*ports.Delivery, error) {
	if msg.Phone == "" {
		return nil, rejected(n.Name(), "customer has no phone number")
	}

	queuedAt := n.now().UTC()
	event := reminderEvent{
		QueuedAt:     queuedAt,
		MessageID:    uuid.New().String(),
		CustomerID:   msg.CustomerID,
		CustomerName: msg.CustomerName,
		Phone:        msg.Phone,
		Email:        msg.Email,
		Subject:      msg.Subject,
		Body:         msg.Body,
		Channel:      string(msg.Channel),
		Kind:         string(msg.Kind),
	}

	value, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal reminder event: %w", err)
	}

	err = n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.CustomerID),
		Value: value,
		Time:  queuedAt,
		Headers: []kafka.Header{
			{Key: "channel", Value: []byte(msg.Channel)},
			{Key: "message_id", Value: []byte(event.MessageID)},
		},
	})
	if err != nil {
		n.logger.Warn("Failed to publish reminder",
			zap.String("topic", n.topic),
			zap.String("customer_id", msg.CustomerID),
			zap.Error(err),
		)
		return nil, unavailable(n.Name(), err)
	}

	return &ports.Delivery{
		AcceptedAt:        queuedAt,
		ProviderMessageID: event.MessageID,
		Provider:          n.Name(),
	}, nil
}

// Close flushes pending messages
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
