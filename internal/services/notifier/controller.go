package notifier

import (
	"context"

	"github.com/NordCoder/pingerus-notifier/internal/domain/monitor"
	kafkax "github.com/NordCoder/pingerus-notifier/internal/repository/kafka"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	mConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifier_events_consumed_total",
		Help: "Status change events consumed",
	})
	mInvalid = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifier_events_invalid_total",
		Help: "Status change events dropped by validation",
	})
)

type Controller struct {
	Log      *zap.Logger
	Sub      *kafkax.Consumer
	UC       *Handler
	Validate *validator.Validate
}

func (c *Controller) Handle(ctx context.Context, _ []byte, ev monitor.ChangeEvent) error {
	mConsumed.Inc()
	v := c.Validate
	if v == nil {
		v = validator.New()
	}
	if err := v.Struct(ev); err != nil {
		mInvalid.Inc()
		c.logger().Warn("status-change: invalid event", zap.Int64("monitor_id", ev.ID), zap.Error(err))
		return nil
	}
	if !ev.Status.Known() {
		c.logger().Warn("status-change: unknown status, rendering neutrally",
			zap.Int64("monitor_id", ev.ID), zap.String("status", string(ev.Status)))
	}
	return c.UC.HandleStatusChange(ctx, ev)
}

func (c *Controller) Run(ctx context.Context) error {
	return c.Sub.Consume(ctx, kafkax.JSONHandler(c.Handle))
}

func (c *Controller) logger() *zap.Logger {
	if c.Log == nil {
		return zap.L()
	}
	return c.Log
}
