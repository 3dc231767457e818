package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	config "github.com/NordCoder/pingerus-notifier/internal/config/notifier"
	"github.com/NordCoder/pingerus-notifier/internal/obs/retry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"
)

// chatRecipient accepts numeric chat ids as well as @channel names.
type chatRecipient string

func (r chatRecipient) Recipient() string { return string(r) }

type TelegramSender struct {
	bot     *tele.Bot
	limiter *rate.Limiter
	log     *zap.Logger
}

func NewTelegramSender(cfg config.Telegram) (*TelegramSender, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		Token:   cfg.Token,
		URL:     cfg.APIURL,
		Offline: true,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}

	lim := rate.NewLimiter(rate.Inf, 0)
	if cfg.RatePerSec > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst)
	}
	return &TelegramSender{
		bot:     b,
		limiter: lim,
		log:     zap.L().With(zap.String("component", "notifier.telegram")),
	}, nil
}

func (s *TelegramSender) WithLogger(l *zap.Logger) *TelegramSender {
	if l == nil {
		return s
	}
	cp := *s
	cp.log = l.With(zap.String("component", "notifier.telegram"))
	return &cp
}

func (s *TelegramSender) Deliver(ctx context.Context, p Payload) error {
	msg, ok := p.(TelegramMessage)
	if !ok || msg.ChatID == "" {
		return unexpectedPayload("telegram", p)
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	opts := &tele.SendOptions{
		ParseMode:             tele.ModeMarkdown,
		DisableWebPagePreview: true,
	}
	if msg.ButtonURL != "" {
		rm := &tele.ReplyMarkup{}
		rm.Inline(rm.Row(tele.Btn{Text: msg.ButtonText, URL: msg.ButtonURL}))
		opts.ReplyMarkup = rm
	}

	start := time.Now()
	if _, err := s.bot.Send(chatRecipient(msg.ChatID), msg.Text, opts); err != nil {
		s.log.Warn("telegram send failed", zap.String("chat_id", msg.ChatID), zap.Error(err))
		if permanentTelegramError(err) {
			return retry.Permanent(err)
		}
		return fmt.Errorf("telegram send: %w", err)
	}
	s.log.Info("telegram sent", zap.String("chat_id", msg.ChatID), zap.Duration("elapsed", time.Since(start)))
	return nil
}

// permanentTelegramError covers bad requests and blocked or missing chats.
func permanentTelegramError(err error) bool {
	var te *tele.Error
	if errors.As(err, &te) {
		return te.Code == http.StatusBadRequest || te.Code == http.StatusForbidden
	}
	return false
}
