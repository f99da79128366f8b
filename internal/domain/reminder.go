package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Channel is the delivery channel of a reminder
type Channel string

const (
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelEmail    Channel = "email"
)

// IsValid reports whether c is a supported channel
func (c Channel) IsValid() bool {
	switch c {
	case ChannelSMS, ChannelWhatsApp, ChannelEmail:
		return true
	}
	return false
}

// ReminderKind records how a reminder was triggered
type ReminderKind string

const (
	ReminderKindManual ReminderKind = "manual"
	ReminderKindBulk   ReminderKind = "bulk"
	ReminderKindDue    ReminderKind = "due"
)

// ReminderStatus is the outcome of handing a reminder to the notifier
type ReminderStatus string

const (
	ReminderStatusSent   ReminderStatus = "sent"
	ReminderStatusFailed ReminderStatus = "failed"
)

// Reminder is a write-only record of a message sent to a customer
type Reminder struct {
	SentAt            time.Time      `json:"sent_at"`
	ID                string         `json:"id"`
	CustomerID        string         `json:"customer_id"`
	CustomerName      string         `json:"customer_name"`
	Message           string         `json:"message"`
	ProviderMessageID string         `json:"provider_message_id,omitempty"`
	Error             string         `json:"error,omitempty"`
	Channel           Channel        `json:"channel"`
	Kind              ReminderKind   `json:"kind"`
	Status            ReminderStatus `json:"status"`
}

// ReminderDraft carries the fields of a reminder about to be stored
type ReminderDraft struct {
	CustomerID        string
	CustomerName      string
	Message           string
	ProviderMessageID string
	Error             string
	Channel           Channel
	Kind              ReminderKind
	Status            ReminderStatus
}

// Template placeholders
const (
	PlaceholderName    = "{NAME}"
	PlaceholderPlan    = "{PLAN}"
	PlaceholderFee     = "{FEE}"
	PlaceholderDueDate = "{DUE_DATE}"
)

// ReminderTemplate is a named message template
type ReminderTemplate struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// DefaultReminderTemplate is used when a send request carries no template
const DefaultReminderTemplate = "Hi {NAME}, your {PLAN} plan fee of ₹{FEE} is due on {DUE_DATE}. Please pay to avoid service interruption."

// BuiltinTemplates are the saved templates offered to operators
var BuiltinTemplates = []ReminderTemplate{
	{Name: "Payment Due", Content: "Hi {NAME}, your {PLAN} plan fee of ₹{FEE} is due on {DUE_DATE}."},
	{Name: "Urgent Overdue", Content: "URGENT: Your payment of ₹{FEE} is overdue! Please pay immediately."},
	{Name: "Friendly Reminder", Content: "Hi {NAME}, friendly reminder that your {PLAN} subscription fee is coming up soon!"},
	{Name: "Final Notice", Content: "{NAME}, your account will be suspended if ₹{FEE} is not paid by {DUE_DATE}."},
}

// RenderTemplate substitutes every placeholder occurrence with the customer's values
func RenderTemplate(template string, c Customer) string {
	r := strings.NewReplacer(
		PlaceholderName, c.Name,
		PlaceholderPlan, c.Plan,
		PlaceholderFee, c.MonthlyFee.String(),
		PlaceholderDueDate, Ordinal(c.DueDay),
	)
	return r.Replace(template)
}

// Ordinal renders n with its English suffix (1st, 2nd, 3rd, 11th, 22nd)
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}

// ReminderSubject is the email subject line for a customer's reminder
func ReminderSubject(c Customer) string {
	return fmt.Sprintf("Payment reminder: %s plan", c.Plan)
}
