package repo

import (
	"context"
	"fmt"

	"github.com/NordCoder/pingerus-notifier/internal/domain/channel"
	"github.com/NordCoder/pingerus-notifier/internal/domain/user"
)

// Subscribers joins a monitor's subscribers with their channel records.
type Subscribers struct {
	Users    user.Repo
	Channels channel.Repo
}

func (a Subscribers) ListSubscribers(ctx context.Context, monitorID int64) ([]*user.User, error) {
	us, err := a.Users.ListSubscribers(ctx, monitorID)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	if len(us) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(us))
	for _, u := range us {
		ids = append(ids, u.ID)
	}
	byUser, err := a.Channels.ListByUsers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}

	out := make([]*user.User, 0, len(us))
	for _, u := range us {
		cp := *u
		cp.Channels = byUser[u.ID]
		out = append(out, &cp)
	}
	return out, nil
}
