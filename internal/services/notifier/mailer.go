package notifier

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"net"
	"strconv"
	"strings"
	"time"

	config "github.com/NordCoder/pingerus-notifier/internal/config/notifier"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type dialSender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Mailer struct {
	d          dialSender
	addr       string
	timeout    time.Duration
	from       string
	subjPrefix string

	log *zap.Logger
}

func NewMailer(cfg config.SMTP) (*Mailer, error) {
	host, portStr, err := net.SplitHostPort(cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("smtp addr %q: %w", cfg.Addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("smtp port %q: %w", portStr, err)
	}

	d := gomail.NewDialer(host, port, cfg.User, cfg.Password)
	d.SSL = cfg.UseTLS
	if cfg.UseTLS {
		d.TLSConfig = &tls.Config{ServerName: host}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Mailer{
		d:          d,
		addr:       cfg.Addr,
		timeout:    timeout,
		from:       cfg.From,
		subjPrefix: cfg.SubjPrefix,
		log:        zap.L().With(zap.String("component", "notifier.mailer")),
	}, nil
}

func (m *Mailer) WithLogger(l *zap.Logger) *Mailer {
	if l == nil {
		return m
	}
	cp := *m
	cp.log = l.With(zap.String("component", "notifier.mailer"))
	return &cp
}

func (m *Mailer) Deliver(ctx context.Context, p Payload) error {
	msg, ok := p.(MailMessage)
	if !ok {
		return unexpectedPayload("mailer", p)
	}
	if msg.To == "" {
		return unexpectedPayload("mailer", p)
	}
	return m.Send(ctx, msg)
}

// Send dials the SMTP server per message. gomail has no context support, so
// the send runs in the background and the call returns on ctx expiry or timeout.
func (m *Mailer) Send(ctx context.Context, msg MailMessage) error {
	subj := strings.TrimSpace(m.subjPrefix + " " + msg.Subject)
	log := m.log.With(
		zap.String("smtp_addr", m.addr),
		zap.String("to", msg.To),
		zap.String("subject", subj),
	)

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", subj)
	gm.SetBody("text/plain", msg.Text())
	gm.AddAlternative("text/html", mailHTML(msg))

	start := time.Now()
	done := make(chan error, 1)
	go func() { done <- m.d.DialAndSend(gm) }()

	t := time.NewTimer(m.timeout)
	defer t.Stop()
	select {
	case err := <-done:
		if err != nil {
			log.Error("sendmail failed", zap.Error(err))
			return fmt.Errorf("send mail: %w", err)
		}
		log.Info("email sent", zap.Duration("elapsed", time.Since(start)))
		return nil
	case <-t.C:
		log.Error("sendmail timed out", zap.Duration("timeout", m.timeout))
		return fmt.Errorf("send mail: timeout after %s", m.timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func mailHTML(msg MailMessage) string {
	var b strings.Builder
	b.WriteString("<p>")
	b.WriteString(html.EscapeString(msg.Greeting))
	b.WriteString("</p>\n")
	for _, l := range msg.IntroLines {
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(l))
		b.WriteString("</p>\n")
	}
	if msg.ActionURL != "" {
		fmt.Fprintf(&b, "<p><a href=\"%s\">%s</a></p>\n",
			html.EscapeString(msg.ActionURL), html.EscapeString(msg.ActionText))
	}
	return b.String()
}
