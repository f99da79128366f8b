package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"

	"github.com/kevin07696/recurringhub/internal/domain/ports"
)

// SESConfig configures the email notifier
type SESConfig struct {
	Region    string
	FromEmail string
	// Optional: custom endpoint (for LocalStack testing)
	Endpoint string
}

type emailSender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESNotifier delivers email reminders through Amazon SES v2
type SESNotifier struct {
	client emailSender
	logger *zap.Logger
	now    func() time.Time
	from   string
}

// NewSESNotifier creates an SES client from the default credential chain
func NewSESNotifier(ctx context.Context, cfg SESConfig, logger *zap.Logger) (*SESNotifier, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var opts []func(*sesv2.Options)
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *sesv2.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	logger.Info("SES notifier initialized",
		zap.String("region", cfg.Region),
		zap.String("from", cfg.FromEmail),
	)
	return newSESNotifier(sesv2.NewFromConfig(awsCfg, opts...), cfg.FromEmail, logger), nil
}

func newSESNotifier(client emailSender, from string, logger *zap.Logger) *SESNotifier {
	return &SESNotifier{client: client, from: from, logger: logger, now: time.Now}
}

// Name identifies the provider
func (n *SESNotifier) Name() string { return "ses" }

// Notify sends the reminder as a plain text email
func (n *SESNotifier) Notify(ctx context.Context, msg ports.Notification) (*ports.Delivery, error) {
	if msg.Email == "" {
		return nil, rejected(n.Name(), "customer has no email address")
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(n.from),
		Destination: &types.Destination{
			ToAddresses: []string{msg.Email},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(msg.Body)},
				},
			},
		},
	}

	result, err := n.client.SendEmail(ctx, input)
	if err != nil {
		n.logger.Warn("SES send failed",
			zap.String("customer_id", msg.CustomerID),
			zap.Error(err),
		)
		return nil, unavailable(n.Name(), err)
	}

	return &ports.Delivery{
		AcceptedAt:        n.now().UTC(),
		ProviderMessageID: aws.ToString(result.MessageId),
		Provider:          n.Name(),
	}, nil
}
