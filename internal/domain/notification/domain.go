package notification

import (
	"encoding/json"
	"time"
)

// Notification is one delivered alert as kept in the history table.
type Notification struct {
	ID        int64           `json:"id"`
	MonitorID int64           `json:"monitor_id"`
	UserID    int64           `json:"user_id"`
	Type      string          `json:"type"` // mail, telegram, slack, discord, webhook
	SentAt    time.Time       `json:"sent_at"`
	Payload   json.RawMessage `json:"payload"`
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
