package user

import "context"

type Repo interface {
	ListSubscribers(ctx context.Context, monitorID int64) ([]*User, error)
}
