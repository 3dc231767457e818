package ratelimit

import (
	"testing"

	"github.com/NordCoder/pingerus-notifier/internal/domain/channel"
	"github.com/NordCoder/pingerus-notifier/internal/domain/user"
	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	u := user.User{ID: 7}
	assert.Equal(t, "telegram:7:3", Key(u, channel.Record{ID: 3, Type: "telegram"}))
	assert.Equal(t, "mail:7:4", Key(u, channel.Record{ID: 4, Type: "email"}))
}
