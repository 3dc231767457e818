package channel

import "context"

type Repo interface {
	ListByUsers(ctx context.Context, userIDs []int64) (map[int64][]Record, error)
}
