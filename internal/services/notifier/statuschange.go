package notifier

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/NordCoder/pingerus-notifier/internal/domain/channel"
	"github.com/NordCoder/pingerus-notifier/internal/domain/monitor"
	"github.com/NordCoder/pingerus-notifier/internal/domain/ratelimit"
	"github.com/NordCoder/pingerus-notifier/internal/domain/user"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Deps struct {
	Limiter ratelimit.Limiter
	Locker  ratelimit.Locker // optional
	BaseURL string
	Log     *zap.Logger
}

// StatusChanged renders one monitor status change for any subscriber. It is
// safe for concurrent use; the event is never mutated after construction.
type StatusChanged struct {
	ev      monitor.ChangeEvent
	limiter ratelimit.Limiter
	locker  ratelimit.Locker
	baseURL string
	log     *zap.Logger
}

func NewStatusChanged(ev monitor.ChangeEvent, d Deps) *StatusChanged {
	log := d.Log
	if log == nil {
		log = zap.L()
	}
	lim := d.Limiter
	if lim == nil {
		lim = unlimited{}
	}
	ev.Status = ev.Status.Normalize()
	return &StatusChanged{
		ev:      ev,
		limiter: lim,
		locker:  d.Locker,
		baseURL: strings.TrimRight(d.BaseURL, "/"),
		log:     log.With(zap.String("component", "notifier.status_changed"), zap.Int64("monitor_id", ev.ID)),
	}
}

func (s *StatusChanged) Event() monitor.ChangeEvent { return s.ev }

func (s *StatusChanged) Via(u user.User) []channel.Kind {
	return channel.Resolve(u.Channels)
}

func (s *StatusChanged) detailURL() string {
	return s.baseURL + "/monitors/" + strconv.FormatInt(s.ev.ID, 10)
}

func (s *StatusChanged) ToMail(u user.User) MailMessage {
	to := u.Email
	if rec, ok := channel.FirstEnabled(u.Channels, channel.KindMail); ok && rec.Destination != "" {
		to = rec.Destination
	}
	lines := []string{
		"Website berikut mengalami perubahan status:",
		"🔗 URL: " + s.ev.URL,
		"⚠️ Status: " + string(s.ev.Status),
	}
	if s.ev.Message != "" {
		lines = append(lines, s.ev.Message)
	}
	return MailMessage{
		To:         to,
		Subject:    "Website Status: " + string(s.ev.Status),
		Greeting:   "Halo, " + u.Name,
		IntroLines: lines,
		ActionText: "Lihat Detail",
		ActionURL:  s.detailURL(),
	}
}

// ToTelegram returns nil when the user has no enabled telegram channel or the
// limiter denies the send. It is also nil if ctx ends while waiting for the
// key lock. A returned message has already been tracked.
func (s *StatusChanged) ToTelegram(ctx context.Context, u user.User) *TelegramMessage {
	rec, ok := channel.FirstEnabled(u.Channels, channel.KindTelegram)
	if !ok {
		return nil
	}

	key := ratelimit.Key(u, rec)
	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, key)
		switch {
		case err != nil && ctx.Err() != nil:
			// gave up waiting on another holder; never check+track outside the lock
			s.log.Debug("telegram suppressed; lock wait ended", zap.String("key", key), zap.Error(err))
			return nil
		case err != nil:
			s.log.Warn("rate limit lock failed; continuing unlocked", zap.String("key", key), zap.Error(err))
		default:
			defer unlock()
		}
	}

	if !s.limiter.ShouldSend(ctx, u, rec) {
		s.log.Debug("telegram suppressed by rate limit", zap.Int64("user_id", u.ID), zap.String("key", key))
		return nil
	}

	icon, title := headline(s.ev.Status)
	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s*\n\n", icon, title)
	fmt.Fprintf(&b, "🔗 %s\n", escapeMarkdown(s.ev.URL))
	fmt.Fprintf(&b, "Status: *%s*", escapeMarkdown(string(s.ev.Status)))
	if s.ev.Message != "" {
		fmt.Fprintf(&b, "\n\n%s", escapeMarkdown(s.ev.Message))
	}
	msg := &TelegramMessage{
		ChatID:     rec.Destination,
		Text:       b.String(),
		ButtonText: "Lihat Detail",
		ButtonURL:  s.detailURL(),
	}

	s.limiter.TrackSuccess(ctx, u, rec)
	return msg
}

// ToChat renders for webhook based chat channels. It is not rate limited.
func (s *StatusChanged) ToChat(u user.User, kind channel.Kind) *ChatMessage {
	rec, ok := channel.FirstEnabled(u.Channels, kind)
	if !ok || rec.Destination == "" {
		return nil
	}
	icon, title := headline(s.ev.Status)
	bold := "*"
	if kind == channel.KindDiscord {
		bold = "**"
	}
	text := fmt.Sprintf("%s %s%s%s\n%s\nStatus: %s%s%s\n%s",
		icon, bold, title, bold,
		s.ev.URL,
		bold, s.ev.Status, bold,
		s.detailURL(),
	)
	return &ChatMessage{
		Channel:        kind,
		URL:            rec.Destination,
		Text:           text,
		Record:         s.ToRecord(u),
		IdempotencyKey: uuid.NewString(),
	}
}

func (s *StatusChanged) ToRecord(u user.User) DeliveryRecord {
	return DeliveryRecord{
		MonitorID: s.ev.ID,
		URL:       s.ev.URL,
		Status:    s.ev.Status,
		Message:   s.ev.Message,
		UserID:    u.ID,
	}
}

type renderFunc func(s *StatusChanged, ctx context.Context, u user.User) Payload

var renderers = map[channel.Kind]renderFunc{
	channel.KindMail: func(s *StatusChanged, _ context.Context, u user.User) Payload {
		return s.ToMail(u)
	},
	channel.KindTelegram: func(s *StatusChanged, ctx context.Context, u user.User) Payload {
		if m := s.ToTelegram(ctx, u); m != nil {
			return *m
		}
		return nil
	},
	channel.KindSlack:   chatRenderer(channel.KindSlack),
	channel.KindDiscord: chatRenderer(channel.KindDiscord),
	channel.KindWebhook: chatRenderer(channel.KindWebhook),
}

func chatRenderer(kind channel.Kind) renderFunc {
	return func(s *StatusChanged, _ context.Context, u user.User) Payload {
		if m := s.ToChat(u, kind); m != nil {
			return *m
		}
		return nil
	}
}

// Render produces the payload for one channel kind. The second result is
// false when the kind has no renderer or delivery is suppressed.
func (s *StatusChanged) Render(ctx context.Context, u user.User, kind channel.Kind) (Payload, bool) {
	r, ok := renderers[kind]
	if !ok {
		return nil, false
	}
	p := r(s, ctx, u)
	return p, p != nil
}

// Supported reports whether kind has a render path.
func Supported(kind channel.Kind) bool {
	_, ok := renderers[kind]
	return ok
}

func headline(st monitor.Status) (icon, title string) {
	switch st {
	case monitor.StatusDown:
		return "🔴", "Website DOWN"
	case monitor.StatusUp:
		return "🟢", "Website UP"
	default:
		return "⚪", "Website status changed"
	}
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func escapeMarkdown(s string) string { return markdownEscaper.Replace(s) }

type unlimited struct{}

func (unlimited) ShouldSend(context.Context, user.User, channel.Record) bool { return true }
func (unlimited) TrackSuccess(context.Context, user.User, channel.Record)    {}
