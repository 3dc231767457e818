package memory

import (
	"context"
	"testing"
	"time"

	"github.com/NordCoder/pingerus-notifier/internal/domain/channel"
	"github.com/NordCoder/pingerus-notifier/internal/domain/user"
	"github.com/stretchr/testify/assert"
)

func TestLimiter_FirstSendAllowed(t *testing.T) {
	l := NewLimiter(time.Minute)
	u := user.User{ID: 1}
	ch := channel.Record{ID: 10, Type: "telegram", Enabled: true}

	assert.True(t, l.ShouldSend(context.Background(), u, ch))
}

func TestLimiter_CooldownAfterTrack(t *testing.T) {
	l := NewLimiter(time.Minute)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	u := user.User{ID: 1}
	ch := channel.Record{ID: 10, Type: "telegram", Enabled: true}
	ctx := context.Background()

	l.TrackSuccess(ctx, u, ch)
	assert.False(t, l.ShouldSend(ctx, u, ch))

	now = now.Add(30 * time.Second)
	assert.False(t, l.ShouldSend(ctx, u, ch), "still inside the window")

	now = now.Add(31 * time.Second)
	assert.True(t, l.ShouldSend(ctx, u, ch), "window elapsed")
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	l := NewLimiter(time.Hour)
	ctx := context.Background()
	ch := channel.Record{ID: 10, Type: "telegram", Enabled: true}
	other := channel.Record{ID: 11, Type: "telegram", Enabled: true}

	l.TrackSuccess(ctx, user.User{ID: 1}, ch)

	assert.False(t, l.ShouldSend(ctx, user.User{ID: 1}, ch))
	assert.True(t, l.ShouldSend(ctx, user.User{ID: 2}, ch))
	assert.True(t, l.ShouldSend(ctx, user.User{ID: 1}, other))
}

func TestLimiter_TrackOverwrites(t *testing.T) {
	l := NewLimiter(time.Minute)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()
	u := user.User{ID: 1}
	ch := channel.Record{ID: 10, Type: "telegram", Enabled: true}

	l.TrackSuccess(ctx, u, ch)
	now = now.Add(50 * time.Second)
	l.TrackSuccess(ctx, u, ch)
	now = now.Add(50 * time.Second)

	assert.False(t, l.ShouldSend(ctx, u, ch), "window restarts from the last send")
}
