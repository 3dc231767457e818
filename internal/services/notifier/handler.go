package notifier

import (
	"context"
	"fmt"

	"github.com/NordCoder/pingerus-notifier/internal/domain/monitor"
	"github.com/NordCoder/pingerus-notifier/internal/domain/ratelimit"
	"github.com/NordCoder/pingerus-notifier/internal/domain/user"
	"go.uber.org/zap"
)

type SubscriberSource interface {
	ListSubscribers(ctx context.Context, monitorID int64) ([]*user.User, error)
}

type Handler struct {
	Subscribers SubscriberSource
	Dispatcher  *Dispatcher
	Limiter     ratelimit.Limiter
	Locker      ratelimit.Locker
	BaseURL     string
	Log         *zap.Logger
}

func (h *Handler) HandleStatusChange(ctx context.Context, ev monitor.ChangeEvent) error {
	users, err := h.Subscribers.ListSubscribers(ctx, ev.ID)
	if err != nil {
		return fmt.Errorf("load subscribers: %w", err)
	}
	log := h.logger()
	if len(users) == 0 {
		log.Debug("no subscribers", zap.Int64("monitor_id", ev.ID))
		return nil
	}

	sc := NewStatusChanged(ev, Deps{
		Limiter: h.Limiter,
		Locker:  h.Locker,
		BaseURL: h.BaseURL,
		Log:     log,
	})
	if err := h.Dispatcher.Dispatch(ctx, sc, users); err != nil {
		// not redelivered; a replay would re-alert users already notified
		log.Warn("status change partially delivered", zap.Int64("monitor_id", ev.ID), zap.Error(err))
	}
	return nil
}

func (h *Handler) logger() *zap.Logger {
	if h.Log == nil {
		return zap.L()
	}
	return h.Log
}
