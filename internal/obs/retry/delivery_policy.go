package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// DefaultDeliveryPolicy retries transient channel failures a few times. A
// cancelled context is never retried.
func DefaultDeliveryPolicy(name string, log *zap.Logger) Policy {
	return Policy{
		Name:     name,
		Attempts: 3,
		Backoff:  ExpoJitter{Base: 300 * time.Millisecond, Max: 5 * time.Second, Jitter: 0.2},
		Retryable: func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("delivery retry", zap.String("channel", name), zap.Int("attempt", i+1), zap.Error(err))
			}
		},
		OnExhaust: func(err error) {
			if log != nil && !errors.Is(err, context.Canceled) {
				log.Error("delivery retries exhausted", zap.String("channel", name), zap.Error(err))
			}
		},
	}
}
