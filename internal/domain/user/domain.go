package user

import (
	"time"

	"github.com/NordCoder/pingerus-notifier/internal/domain/channel"
)

type User struct {
	ID        int64            `json:"id"`
	Name      string           `json:"name"`
	Email     string           `json:"email"`
	Channels  []channel.Record `json:"channels,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
