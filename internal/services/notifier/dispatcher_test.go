package notifier

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/NordCoder/pingerus-notifier/internal/domain/channel"
	"github.com/NordCoder/pingerus-notifier/internal/domain/notification"
	"github.com/NordCoder/pingerus-notifier/internal/domain/user"
	"github.com/NordCoder/pingerus-notifier/internal/obs/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const defaultTestCooldown = time.Hour

type fakeSink struct {
	mu       sync.Mutex
	got      []Payload
	failures int
	err      error
}

func (f *fakeSink) Deliver(_ context.Context, p Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return errors.New("transient")
	}
	if f.err != nil {
		return f.err
	}
	f.got = append(f.got, p)
	return nil
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.got)
}

type fakeStore struct {
	mu   sync.Mutex
	rows []*notification.Notification
}

func (s *fakeStore) Create(_ context.Context, n *notification.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, n)
	return nil
}

func (s *fakeStore) ListByUser(context.Context, int64, int) ([]*notification.Notification, error) {
	return nil, nil
}

type fakeTx struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return fn(ctx)
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func allowAll() *mockLimiter {
	lim := &mockLimiter{}
	lim.On("ShouldSend", anyArgs()...).Return(true)
	lim.On("TrackSuccess", anyArgs()...).Return()
	return lim
}

func TestDispatch_FansOutAndRecords(t *testing.T) {
	mail, tg := &fakeSink{}, &fakeSink{}
	store, tx := &fakeStore{}, &fakeTx{}
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	d := &Dispatcher{
		Sinks:      map[channel.Kind]Sink{channel.KindMail: mail, channel.KindTelegram: tg},
		Store:      store,
		Transactor: tx,
		Clock:      fixedClock{t: at},
		Workers:    2,
		Log:        zap.NewNop(),
	}
	users := []*user.User{
		{ID: 1, Name: "A", Email: "a@x.test", Channels: []channel.Record{
			{ID: 1, Type: "email", Enabled: true},
			{ID: 2, Type: "telegram", Enabled: true, Destination: "11"},
		}},
		{ID: 2, Name: "B", Email: "b@x.test", Channels: []channel.Record{{ID: 3, Type: "email", Enabled: true}}},
		{ID: 3, Name: "C", Email: "c@x.test"},
	}
	sc := NewStatusChanged(downEvent, Deps{Limiter: allowAll(), Log: zap.NewNop()})

	require.NoError(t, d.Dispatch(context.Background(), sc, users))

	assert.Equal(t, 2, mail.count())
	assert.Equal(t, 1, tg.count())
	assert.Len(t, store.rows, 3)
	assert.Equal(t, 2, tx.calls)
	for _, r := range store.rows {
		assert.Equal(t, int64(1), r.MonitorID)
		assert.Equal(t, at, r.SentAt)
		assert.JSONEq(t, `{"id":1,"url":"https://example.com","status":"DOWN","message":"Website https://example.com is DOWN","user_id":`+itoa(r.UserID)+`}`, string(r.Payload))
	}
}

func TestDispatch_SkipsKindsWithoutSink(t *testing.T) {
	mail := &fakeSink{}
	lim := &mockLimiter{}
	d := &Dispatcher{Sinks: map[channel.Kind]Sink{channel.KindMail: mail}, Log: zap.NewNop()}
	users := []*user.User{{ID: 1, Channels: []channel.Record{
		{ID: 1, Type: "email", Enabled: true},
		{ID: 2, Type: "telegram", Enabled: true, Destination: "11"},
		{ID: 3, Type: "pager", Enabled: true, Destination: "x"},
	}}}
	sc := NewStatusChanged(downEvent, Deps{Limiter: lim, Log: zap.NewNop()})

	require.NoError(t, d.Dispatch(context.Background(), sc, users))
	assert.Equal(t, 1, mail.count())
	lim.AssertNotCalled(t, "ShouldSend", anyArgs()...)
}

func TestDispatch_RetriesTransientFailures(t *testing.T) {
	mail := &fakeSink{failures: 1}
	d := &Dispatcher{Sinks: map[channel.Kind]Sink{channel.KindMail: mail}, Attempts: 3, Log: zap.NewNop()}
	users := []*user.User{{ID: 1, Email: "a@x.test", Channels: []channel.Record{{ID: 1, Type: "email", Enabled: true}}}}
	sc := NewStatusChanged(downEvent, Deps{Log: zap.NewNop()})

	require.NoError(t, d.Dispatch(context.Background(), sc, users))
	assert.Equal(t, 1, mail.count())
}

func TestDispatch_AggregatesFailuresWithoutStoppingOthers(t *testing.T) {
	boom := errors.New("smtp rejected")
	mail := &fakeSink{err: retry.Permanent(boom)}
	tg := &fakeSink{}
	store := &fakeStore{}
	d := &Dispatcher{
		Sinks: map[channel.Kind]Sink{channel.KindMail: mail, channel.KindTelegram: tg},
		Store: store,
		Log:   zap.NewNop(),
	}
	users := []*user.User{
		{ID: 1, Email: "a@x.test", Channels: []channel.Record{
			{ID: 1, Type: "email", Enabled: true},
			{ID: 2, Type: "telegram", Enabled: true, Destination: "11"},
		}},
		{ID: 2, Email: "b@x.test", Channels: []channel.Record{{ID: 3, Type: "email", Enabled: true}}},
	}
	sc := NewStatusChanged(downEvent, Deps{Limiter: allowAll(), Log: zap.NewNop()})

	err := d.Dispatch(context.Background(), sc, users)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, tg.count())
	require.Len(t, store.rows, 1)
	assert.Equal(t, "telegram", store.rows[0].Type)
}

func TestDispatch_NoUsers(t *testing.T) {
	d := &Dispatcher{Log: zap.NewNop()}
	sc := NewStatusChanged(downEvent, Deps{Log: zap.NewNop()})

	assert.NoError(t, d.Dispatch(context.Background(), sc, nil))
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
