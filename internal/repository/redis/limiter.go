package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/NordCoder/pingerus-notifier/internal/domain/channel"
	"github.com/NordCoder/pingerus-notifier/internal/domain/ratelimit"
	"github.com/NordCoder/pingerus-notifier/internal/domain/user"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ ratelimit.Limiter = (*Limiter)(nil)

// Limiter stores the last successful send under a key that expires with the
// cool-down. Redis errors are logged and treated as "allowed".
type Limiter struct {
	cmd       redis.Cmdable
	cooldown  time.Duration
	keyPrefix string
	log       *zap.Logger
}

func NewLimiter(cmd redis.Cmdable, cooldown time.Duration) *Limiter {
	return &Limiter{
		cmd:       cmd,
		cooldown:  cooldown,
		keyPrefix: "ratelimit:",
		log:       zap.L().With(zap.String("component", "ratelimit.redis")),
	}
}

func (l *Limiter) WithLogger(log *zap.Logger) *Limiter {
	if log == nil {
		return l
	}
	cp := *l
	cp.log = log.With(zap.String("component", "ratelimit.redis"))
	return &cp
}

func (l *Limiter) key(u user.User, ch channel.Record) string {
	return l.keyPrefix + ratelimit.Key(u, ch)
}

func (l *Limiter) ShouldSend(ctx context.Context, u user.User, ch channel.Record) bool {
	n, err := l.cmd.Exists(ctx, l.key(u, ch)).Result()
	if err != nil {
		l.log.Warn("rate limit lookup failed; allowing", zap.String("key", l.key(u, ch)), zap.Error(err))
		return true
	}
	return n == 0
}

func (l *Limiter) TrackSuccess(ctx context.Context, u user.User, ch channel.Record) {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	if err := l.cmd.Set(ctx, l.key(u, ch), now, l.cooldown).Err(); err != nil {
		l.log.Warn("rate limit track failed", zap.String("key", l.key(u, ch)), zap.Error(err))
	}
}
