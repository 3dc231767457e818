package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_AcquireRelease(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewLocker(rdb, time.Second)

	unlock, err := l.Lock(context.Background(), "telegram:1:2")
	require.NoError(t, err)
	assert.True(t, mr.Exists("lock:telegram:1:2"))

	unlock()
	assert.False(t, mr.Exists("lock:telegram:1:2"))
}

func TestLocker_BlocksSecondHolder(t *testing.T) {
	_, rdb := newTestRedis(t)
	l := NewLocker(rdb, 5*time.Second)

	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock2, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	unlock2()
}

func TestLocker_ReleaseKeepsForeignToken(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewLocker(rdb, time.Second)

	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	// lock expired and was taken by someone else
	require.NoError(t, mr.Set("lock:k", "other"))
	unlock()

	v, err := mr.Get("lock:k")
	require.NoError(t, err)
	assert.Equal(t, "other", v)
}

func TestLocker_FailOpen(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewLocker(rdb, time.Second)
	mr.Close()

	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	assert.NotNil(t, unlock)
	unlock()
}
