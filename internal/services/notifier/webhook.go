package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	config "github.com/NordCoder/pingerus-notifier/internal/config/notifier"
	"github.com/NordCoder/pingerus-notifier/internal/domain/channel"
	"github.com/NordCoder/pingerus-notifier/internal/obs/retry"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type WebhookSender struct {
	httpc   *http.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

func NewWebhookSender(cfg config.Webhook) *WebhookSender {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	lim := rate.NewLimiter(rate.Inf, 0)
	if cfg.RatePerSec > 0 {
		lim = rate.NewLimiter(rate.Limit(cfg.RatePerSec), max(1, int(cfg.RatePerSec)))
	}
	return &WebhookSender{
		httpc: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: lim,
		log:     zap.L().With(zap.String("component", "notifier.webhook")),
	}
}

func (s *WebhookSender) WithLogger(l *zap.Logger) *WebhookSender {
	if l == nil {
		return s
	}
	cp := *s
	cp.log = l.With(zap.String("component", "notifier.webhook"))
	return &cp
}

type slackBody struct {
	Text string `json:"text"`
}

type discordBody struct {
	Content string `json:"content"`
}

type genericBody struct {
	Event string         `json:"event"`
	Text  string         `json:"text"`
	Data  DeliveryRecord `json:"data"`
}

func webhookBody(m ChatMessage) any {
	switch m.Channel {
	case channel.KindSlack:
		return slackBody{Text: m.Text}
	case channel.KindDiscord:
		return discordBody{Content: m.Text}
	default:
		return genericBody{Event: "monitor.status_changed", Text: m.Text, Data: m.Record}
	}
}

func (s *WebhookSender) Deliver(ctx context.Context, p Payload) error {
	msg, ok := p.(ChatMessage)
	if !ok || msg.URL == "" {
		return unexpectedPayload("webhook", p)
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(webhookBody(msg))
	if err != nil {
		return retry.Permanent(fmt.Errorf("marshal webhook body: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, msg.URL, bytes.NewReader(body))
	if err != nil {
		return retry.Permanent(fmt.Errorf("build webhook request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "pingerus-notifier")
	key := msg.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}
	req.Header.Set("Idempotency-Key", key)

	log := s.log.With(zap.String("kind", string(msg.Channel)), zap.String("host", req.URL.Host))
	resp, err := s.httpc.Do(req)
	if err != nil {
		log.Warn("webhook post failed", zap.Error(err))
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		log.Info("webhook delivered", zap.Int("code", resp.StatusCode))
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		log.Warn("webhook rejected; retrying", zap.Int("code", resp.StatusCode))
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	default:
		log.Warn("webhook rejected", zap.Int("code", resp.StatusCode))
		return retry.Permanent(fmt.Errorf("webhook status %d", resp.StatusCode))
	}
}
