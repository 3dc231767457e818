package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	config "github.com/NordCoder/pingerus-notifier/internal/config/notifier"
	"github.com/NordCoder/pingerus-notifier/internal/domain/channel"
	"github.com/NordCoder/pingerus-notifier/internal/domain/notification"
	"github.com/NordCoder/pingerus-notifier/internal/domain/ratelimit"
	"github.com/NordCoder/pingerus-notifier/internal/obs"
	"github.com/NordCoder/pingerus-notifier/internal/repository/kafka"
	"github.com/NordCoder/pingerus-notifier/internal/repository/memory"
	pg "github.com/NordCoder/pingerus-notifier/internal/repository/postgres"
	redisinfra "github.com/NordCoder/pingerus-notifier/internal/repository/redis"
	notifier "github.com/NordCoder/pingerus-notifier/internal/services/notifier"
	"github.com/NordCoder/pingerus-notifier/internal/services/notifier/repo"
)

func limiter(ctx context.Context, cfg *config.Config, l *zap.Logger) (ratelimit.Limiter, ratelimit.Locker, func(), error) {
	if cfg.RateLimit.Backend != "redis" {
		l.Info("rate limit backend: memory", zap.Duration("cooldown", cfg.RateLimit.Cooldown))
		return memory.NewLimiter(cfg.RateLimit.Cooldown), memory.NewLocker(), func() {}, nil
	}

	rc, err := redisinfra.NewClient(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, nil, err
	}
	l.Info("rate limit backend: redis",
		zap.String("addr", cfg.Redis.Addr),
		zap.Duration("cooldown", cfg.RateLimit.Cooldown),
	)
	var cmd goredis.Cmdable = rc
	lim := redisinfra.NewLimiter(cmd, cfg.RateLimit.Cooldown).WithLogger(l)
	lock := redisinfra.NewLocker(cmd, cfg.RateLimit.LockTTL).WithLogger(l)
	return lim, lock, func() { _ = rc.Close() }, nil
}

func sinks(cfg *config.Config, l *zap.Logger) (map[channel.Kind]notifier.Sink, error) {
	out := map[channel.Kind]notifier.Sink{}
	if cfg.SMTP.Enable {
		m, err := notifier.NewMailer(cfg.SMTP)
		if err != nil {
			return nil, err
		}
		out[channel.KindMail] = m.WithLogger(l)
	}
	if cfg.Telegram.Enable {
		t, err := notifier.NewTelegramSender(cfg.Telegram)
		if err != nil {
			return nil, err
		}
		out[channel.KindTelegram] = t.WithLogger(l)
	}
	if cfg.Webhook.Enable {
		w := notifier.NewWebhookSender(cfg.Webhook).WithLogger(l)
		out[channel.KindSlack] = w
		out[channel.KindDiscord] = w
		out[channel.KindWebhook] = w
	}
	return out, nil
}

func wiring(db *pg.DB, cfg *config.Config, cons *kafka.Consumer, lim ratelimit.Limiter, lock ratelimit.Locker, out map[channel.Kind]notifier.Sink, l *zap.Logger) *notifier.Controller {
	users := pg.NewUserRepo(db)
	channels := pg.NewChannelRepo(db)
	notifs := pg.NewNotificationRepo(db)

	uc := &notifier.Handler{
		Subscribers: repo.Subscribers{Users: users, Channels: channels},
		Dispatcher: &notifier.Dispatcher{
			Sinks:      out,
			Store:      notifs,
			Transactor: pg.NewTransactor(db, l),
			Clock:      notification.SystemClock{},
			Workers:    cfg.Dispatch.Workers,
			Attempts:   cfg.Dispatch.Attempts,
			Log:        l.With(zap.String("component", "notifier.dispatcher")),
		},
		Limiter: lim,
		Locker:  lock,
		BaseURL: cfg.Dispatch.BaseURL,
		Log:     l.With(zap.String("component", "notifier.handler")),
	}

	return &notifier.Controller{Log: l, Sub: cons, UC: uc, Validate: validator.New()}
}

func main() {
	cfgPath := flag.String("config", "configs/notifier.yaml", "path to yaml config")
	flag.Parse()

	// init
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	// logger
	l, err := obs.NewLogger(cfg.AsLoggerConfig())
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Sync() }()

	l.Info("starting notifier",
		zap.Any("kafka_in", cfg.In),
		zap.String("metrics_addr", cfg.Server.MetricsAddr),
		zap.String("ratelimit_backend", cfg.RateLimit.Backend),
		zap.Int("workers", cfg.Dispatch.Workers),
	)

	// otel
	otelCloser, err := obs.SetupOTel(rootCtx, cfg.OTEL.AsOTELConfig())
	if err != nil {
		l.Warn("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	// db
	db, err := pg.NewDB(rootCtx, cfg.DB)
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	l.Info("db connected")

	// rate limit
	lim, lock, closeLimiter, err := limiter(rootCtx, cfg, l)
	if err != nil {
		l.Fatal("rate limit backend", zap.Error(err))
	}
	defer closeLimiter()

	// sinks
	out, err := sinks(cfg, l)
	if err != nil {
		l.Fatal("sinks", zap.Error(err))
	}

	// metrics
	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, db.Ping, l)

	// kafka
	cons := kafka.BootstrapConsumer(rootCtx, cfg.In.AsConsumerConfig(), cfg.In.Partitions, l).WithLogger(l)
	defer func() { _ = cons.Close() }()
	l.Info("kafka consumer initialized",
		zap.Strings("brokers", cfg.In.Brokers),
		zap.String("group_id", cfg.In.GroupID),
		zap.String("topic", cfg.In.Topic),
	)

	// start
	ctrl := wiring(db, cfg, cons, lim, lock, out, l)
	errCh := make(chan error, 1)
	go func() {
		l.Info("controller starting")
		errCh <- ctrl.Run(rootCtx)
	}()

	// main loop
	select {
	case <-rootCtx.Done():
		l.Info("shutdown signal")
	case runErr := <-errCh:
		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			l.Error("controller error", zap.Error(runErr))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
