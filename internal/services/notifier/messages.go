package notifier

import (
	"strings"

	"github.com/NordCoder/pingerus-notifier/internal/domain/channel"
	"github.com/NordCoder/pingerus-notifier/internal/domain/monitor"
)

// Payload is a rendered message ready for the sink of its kind.
type Payload interface {
	Kind() channel.Kind
}

type MailMessage struct {
	To         string
	Subject    string
	Greeting   string
	IntroLines []string
	ActionText string
	ActionURL  string
}

func (MailMessage) Kind() channel.Kind { return channel.KindMail }

// Text is the plain-text body: greeting, intro lines, then the action link.
func (m MailMessage) Text() string {
	var b strings.Builder
	b.WriteString(m.Greeting)
	b.WriteString("\n\n")
	for _, l := range m.IntroLines {
		b.WriteString(l)
		b.WriteString("\n")
	}
	if m.ActionURL != "" {
		b.WriteString("\n")
		b.WriteString(m.ActionText)
		b.WriteString(": ")
		b.WriteString(m.ActionURL)
		b.WriteString("\n")
	}
	return b.String()
}

// TelegramMessage is Markdown text for a single chat.
type TelegramMessage struct {
	ChatID     string
	Text       string
	ButtonText string
	ButtonURL  string
}

func (TelegramMessage) Kind() channel.Kind { return channel.KindTelegram }

// ChatMessage goes to an incoming-webhook URL (slack, discord or generic).
// IdempotencyKey is fixed at render time and sent on every attempt.
type ChatMessage struct {
	Channel        channel.Kind
	URL            string
	Text           string
	Record         DeliveryRecord
	IdempotencyKey string
}

func (m ChatMessage) Kind() channel.Kind { return m.Channel }

// DeliveryRecord is the serialisable snapshot stored in notification history
// and posted to generic webhooks.
type DeliveryRecord struct {
	MonitorID int64          `json:"id"`
	URL       string         `json:"url"`
	Status    monitor.Status `json:"status"`
	Message   string         `json:"message"`
	UserID    int64          `json:"user_id,omitempty"`
}
