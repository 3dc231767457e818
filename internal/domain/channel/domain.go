package channel

import "time"

type Kind string

const (
	KindMail     Kind = "mail"
	KindTelegram Kind = "telegram"
	KindSlack    Kind = "slack"
	KindDiscord  Kind = "discord"
	KindWebhook  Kind = "webhook"
)

func (k Kind) String() string { return string(k) }

// Record is a user's stored notification channel. Destination holds an e-mail
// address, a Telegram chat id or a webhook URL depending on Type; it may be
// empty for mail, in which case the user's own address is used.
type Record struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Type        string    `json:"type"`
	Enabled     bool      `json:"is_enabled"`
	Destination string    `json:"destination"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (r Record) Kind() Kind { return Canonical(r.Type) }
