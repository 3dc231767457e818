package memory

import (
	"context"
	"time"

	"github.com/NordCoder/pingerus-notifier/internal/domain/channel"
	"github.com/NordCoder/pingerus-notifier/internal/domain/ratelimit"
	"github.com/NordCoder/pingerus-notifier/internal/domain/user"
	gocache "github.com/patrickmn/go-cache"
)

var _ ratelimit.Limiter = (*Limiter)(nil)

// Limiter keeps the last successful send per key in process memory. Entries
// expire after the cool-down so an absent key means "allowed".
type Limiter struct {
	c        *gocache.Cache
	cooldown time.Duration
	now      func() time.Time
}

func NewLimiter(cooldown time.Duration) *Limiter {
	cleanup := cooldown
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	return &Limiter{
		c:        gocache.New(cooldown, cleanup),
		cooldown: cooldown,
		now:      time.Now,
	}
}

func (l *Limiter) ShouldSend(_ context.Context, u user.User, ch channel.Record) bool {
	v, ok := l.c.Get(ratelimit.Key(u, ch))
	if !ok {
		return true
	}
	last, ok := v.(time.Time)
	if !ok {
		return true
	}
	return l.now().Sub(last) >= l.cooldown
}

func (l *Limiter) TrackSuccess(_ context.Context, u user.User, ch channel.Record) {
	l.c.Set(ratelimit.Key(u, ch), l.now(), l.cooldown)
}
