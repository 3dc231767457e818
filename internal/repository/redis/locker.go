package redis

import (
	"context"
	"time"

	"github.com/NordCoder/pingerus-notifier/internal/domain/ratelimit"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ ratelimit.Locker = (*Locker)(nil)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker is a best-effort distributed lock: SET NX PX with a random token,
// released only by the holder. When Redis is unreachable the caller proceeds
// without the lock.
type Locker struct {
	cmd       redis.Cmdable
	ttl       time.Duration
	retry     time.Duration
	keyPrefix string
	log       *zap.Logger
}

func NewLocker(cmd redis.Cmdable, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Locker{
		cmd:       cmd,
		ttl:       ttl,
		retry:     25 * time.Millisecond,
		keyPrefix: "lock:",
		log:       zap.L().With(zap.String("component", "ratelimit.redis_lock")),
	}
}

func (l *Locker) WithLogger(log *zap.Logger) *Locker {
	if log == nil {
		return l
	}
	cp := *l
	cp.log = log.With(zap.String("component", "ratelimit.redis_lock"))
	return &cp
}

func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	k := l.keyPrefix + key
	token := uuid.NewString()

	for {
		ok, err := l.cmd.SetNX(ctx, k, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			l.log.Warn("lock unavailable; continuing unlocked", zap.String("key", k), zap.Error(err))
			return func() {}, nil
		}
		if ok {
			return func() {
				rctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if err := releaseScript.Run(rctx, l.cmd, []string{k}, token).Err(); err != nil && err != redis.Nil {
					l.log.Warn("lock release failed", zap.String("key", k), zap.Error(err))
				}
			}, nil
		}

		t := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}
