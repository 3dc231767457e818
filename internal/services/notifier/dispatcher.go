package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/NordCoder/pingerus-notifier/internal/domain/channel"
	"github.com/NordCoder/pingerus-notifier/internal/domain/notification"
	"github.com/NordCoder/pingerus-notifier/internal/domain/user"
	"github.com/NordCoder/pingerus-notifier/internal/obs"
	"github.com/NordCoder/pingerus-notifier/internal/obs/retry"
	"github.com/NordCoder/pingerus-notifier/internal/repository/postgres"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	mRendered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_rendered_total",
		Help: "Payloads rendered, by channel kind.",
	}, []string{"kind"})
	mSuppressed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_suppressed_total",
		Help: "Renders that produced nothing (rate limited, no destination or unsupported kind).",
	}, []string{"kind"})
	mDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_delivered_total",
		Help: "Payloads accepted by a sink.",
	}, []string{"kind"})
	mFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_delivery_failed_total",
		Help: "Payloads the sink gave up on.",
	}, []string{"kind"})
)

// Dispatcher fans a status change out to every subscriber and hands the
// rendered payloads to the sinks.
type Dispatcher struct {
	Sinks      map[channel.Kind]Sink
	Store      notification.Repo   // optional history
	Transactor postgres.Transactor // optional, wraps one user's history rows
	Clock      notification.Clock
	Workers    int
	Attempts   int
	Log        *zap.Logger
}

type delivery struct {
	kind    channel.Kind
	payload Payload
}

// Dispatch never stops early: every user gets a full pass and the delivery
// errors come back aggregated.
func (d *Dispatcher) Dispatch(ctx context.Context, sc *StatusChanged, users []*user.User) error {
	ev := sc.Event()
	ctx, span := otel.Tracer("notifier.dispatcher").Start(ctx, "notifier.dispatch")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("monitor.id", ev.ID),
		attribute.String("monitor.status", string(ev.Status)),
		attribute.Int("users", len(users)),
	)

	workers := d.Workers
	if workers <= 0 {
		workers = 4
	}

	var (
		mu   sync.Mutex
		errs *multierror.Error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, u := range users {
		if u == nil {
			continue
		}
		u := *u
		g.Go(func() error {
			if err := d.dispatchUser(gctx, sc, u); err != nil {
				mu.Lock()
				errs = multierror.Append(errs, fmt.Errorf("user %d: %w", u.ID, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := errs.ErrorOrNil(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "some deliveries failed")
		return err
	}
	return nil
}

func (d *Dispatcher) dispatchUser(ctx context.Context, sc *StatusChanged, u user.User) error {
	log := obs.WithTrace(ctx, d.logger()).With(zap.Int64("user_id", u.ID), zap.Int64("monitor_id", sc.Event().ID))

	kinds := sc.Via(u)
	if len(kinds) == 0 {
		log.Debug("no enabled channels")
		return nil
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs *multierror.Error
		sent []channel.Kind
	)
	for _, k := range kinds {
		sink, ok := d.Sinks[k]
		if !ok || !Supported(k) {
			mSuppressed.WithLabelValues(string(k)).Inc()
			log.Debug("no sink for channel kind", zap.String("kind", string(k)))
			continue
		}
		wg.Add(1)
		go func(k channel.Kind, sink Sink) {
			defer wg.Done()
			p, ok := sc.Render(ctx, u, k)
			if !ok {
				mSuppressed.WithLabelValues(string(k)).Inc()
				log.Debug("render suppressed", zap.String("kind", string(k)))
				return
			}
			mRendered.WithLabelValues(string(k)).Inc()

			err := d.deliver(ctx, sink, delivery{kind: k, payload: p}, log)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("%s: %w", k, err))
				return
			}
			sent = append(sent, k)
		}(k, sink)
	}
	wg.Wait()

	if err := d.record(ctx, sc, u, sent); err != nil {
		log.Warn("history write failed", zap.Error(err))
	}
	return errs.ErrorOrNil()
}

func (d *Dispatcher) deliver(ctx context.Context, sink Sink, dl delivery, log *zap.Logger) error {
	ctx, span := otel.Tracer("notifier.dispatcher").Start(ctx, "notifier.deliver "+string(dl.kind))
	defer span.End()

	p := retry.DefaultDeliveryPolicy(string(dl.kind), log)
	if d.Attempts > 0 {
		p.Attempts = d.Attempts
	}
	err := retry.Do(ctx, func() error { return sink.Deliver(ctx, dl.payload) }, p)
	if err != nil {
		mFailed.WithLabelValues(string(dl.kind)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "delivery failed")
		return err
	}
	mDelivered.WithLabelValues(string(dl.kind)).Inc()
	return nil
}

func (d *Dispatcher) record(ctx context.Context, sc *StatusChanged, u user.User, sent []channel.Kind) error {
	if d.Store == nil || len(sent) == 0 {
		return nil
	}
	payload, err := json.Marshal(sc.ToRecord(u))
	if err != nil {
		return fmt.Errorf("marshal history payload: %w", err)
	}
	now := d.now()
	write := func(ctx context.Context) error {
		for _, k := range sent {
			if err := d.Store.Create(ctx, &notification.Notification{
				MonitorID: sc.Event().ID,
				UserID:    u.ID,
				Type:      string(k),
				SentAt:    now,
				Payload:   payload,
			}); err != nil {
				return fmt.Errorf("insert notification: %w", err)
			}
		}
		return nil
	}
	if d.Transactor == nil {
		return write(ctx)
	}
	return d.Transactor.WithTx(ctx, write)
}

func (d *Dispatcher) now() time.Time {
	if d.Clock == nil {
		return notification.SystemClock{}.Now()
	}
	return d.Clock.Now().UTC()
}

func (d *Dispatcher) logger() *zap.Logger {
	if d.Log == nil {
		return zap.L()
	}
	return d.Log
}
