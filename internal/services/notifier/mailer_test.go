package notifier

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	config "github.com/NordCoder/pingerus-notifier/internal/config/notifier"
	"github.com/NordCoder/pingerus-notifier/internal/obs/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type fakeDialer struct {
	sent []*gomail.Message
	err  error
	wait time.Duration
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if f.wait > 0 {
		time.Sleep(f.wait)
	}
	f.sent = append(f.sent, m...)
	return f.err
}

func newTestMailer(t *testing.T, d dialSender) *Mailer {
	t.Helper()
	m, err := NewMailer(config.SMTP{Addr: "localhost:1025", From: "noreply@pingerus.dev", SubjPrefix: "[Pingerus]", Timeout: time.Second})
	require.NoError(t, err)
	m.d = d
	return m
}

func TestMailer_SendsRenderedMessage(t *testing.T) {
	fd := &fakeDialer{}
	m := newTestMailer(t, fd)
	msg := newSC(downEvent, &mockLimiter{}).ToMail(johnDoe(mailRec(true)))

	require.NoError(t, m.Deliver(context.Background(), msg))
	require.Len(t, fd.sent, 1)

	gm := fd.sent[0]
	assert.Equal(t, []string{"[Pingerus] Website Status: DOWN"}, gm.GetHeader("Subject"))
	assert.Equal(t, []string{"john@example.com"}, gm.GetHeader("To"))
	var buf bytes.Buffer
	_, err := gm.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Halo, John Doe")
}

func TestMailer_PropagatesError(t *testing.T) {
	boom := errors.New("421 try later")
	m := newTestMailer(t, &fakeDialer{err: boom})

	err := m.Deliver(context.Background(), MailMessage{To: "a@x.test", Subject: "s"})
	assert.ErrorIs(t, err, boom)
}

func TestMailer_Timeout(t *testing.T) {
	m := newTestMailer(t, &fakeDialer{wait: 200 * time.Millisecond})
	m.timeout = 20 * time.Millisecond

	err := m.Deliver(context.Background(), MailMessage{To: "a@x.test", Subject: "s"})
	assert.ErrorContains(t, err, "timeout")
}

func TestMailer_RejectsMissingRecipient(t *testing.T) {
	m := newTestMailer(t, &fakeDialer{})

	err := m.Deliver(context.Background(), MailMessage{Subject: "s"})
	assert.True(t, retry.IsPermanent(err))
}

func TestNewMailer_BadAddr(t *testing.T) {
	_, err := NewMailer(config.SMTP{Addr: "no-port"})
	assert.Error(t, err)
}

func TestMailHTML_Escapes(t *testing.T) {
	out := mailHTML(MailMessage{Greeting: "Halo, <b>", ActionText: "Lihat Detail", ActionURL: "https://x.test/monitors/1"})
	assert.Contains(t, out, "Halo, &lt;b&gt;")
	assert.Contains(t, out, `<a href="https://x.test/monitors/1">Lihat Detail</a>`)
}
