package ratelimit

import (
	"context"
	"fmt"

	"github.com/NordCoder/pingerus-notifier/internal/domain/channel"
	"github.com/NordCoder/pingerus-notifier/internal/domain/user"
)

// Limiter throttles repeated deliveries to the same user channel. A missing
// record, or a store that cannot be reached, always means "allowed".
type Limiter interface {
	ShouldSend(ctx context.Context, u user.User, ch channel.Record) bool
	TrackSuccess(ctx context.Context, u user.User, ch channel.Record)
}

// Locker serialises check-and-track for a single key.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

func Key(u user.User, ch channel.Record) string {
	return fmt.Sprintf("%s:%d:%d", ch.Kind(), u.ID, ch.ID)
}
