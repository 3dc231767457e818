package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/NordCoder/pingerus-notifier/internal/domain/channel"
	"github.com/NordCoder/pingerus-notifier/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	subs []*user.User
	err  error
}

func (f fakeUsers) ListSubscribers(context.Context, int64) ([]*user.User, error) {
	return f.subs, f.err
}

type fakeChannels struct {
	byUser map[int64][]channel.Record
	gotIDs []int64
}

func (f *fakeChannels) ListByUsers(_ context.Context, ids []int64) (map[int64][]channel.Record, error) {
	f.gotIDs = ids
	return f.byUser, nil
}

func TestSubscribers_AttachesChannels(t *testing.T) {
	chs := &fakeChannels{byUser: map[int64][]channel.Record{
		1: {{ID: 10, UserID: 1, Type: "email", Enabled: true}},
	}}
	a := Subscribers{
		Users:    fakeUsers{subs: []*user.User{{ID: 1, Name: "Ann"}, {ID: 2, Name: "Bob"}}},
		Channels: chs,
	}

	got, err := a.ListSubscribers(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []int64{1, 2}, chs.gotIDs)
	assert.Len(t, got[0].Channels, 1)
	assert.Empty(t, got[1].Channels)
}

func TestSubscribers_NoUsersSkipsChannelLookup(t *testing.T) {
	chs := &fakeChannels{}
	a := Subscribers{Users: fakeUsers{}, Channels: chs}

	got, err := a.ListSubscribers(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Nil(t, chs.gotIDs)
}

func TestSubscribers_UserError(t *testing.T) {
	boom := errors.New("db down")
	a := Subscribers{Users: fakeUsers{err: boom}, Channels: &fakeChannels{}}

	_, err := a.ListSubscribers(context.Background(), 5)
	assert.ErrorIs(t, err, boom)
}
