package postgres

import (
	"context"
	"fmt"

	"github.com/NordCoder/pingerus-notifier/internal/domain/channel"
)

var _ channel.Repo = (*ChannelRepo)(nil)

type ChannelRepo struct{ db *DB }

func NewChannelRepo(db *DB) *ChannelRepo { return &ChannelRepo{db: db} }

const qChannelsByUsers = `
SELECT id, user_id, type, is_enabled, COALESCE(destination, ''), created_at, updated_at
FROM notification_channels
WHERE user_id = ANY($1)
ORDER BY user_id, id;`

// ListByUsers returns every channel record of the given users, keyed by user
// id, each slice in insertion order.
func (r *ChannelRepo) ListByUsers(ctx context.Context, userIDs []int64) (map[int64][]channel.Record, error) {
	out := make(map[int64][]channel.Record, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qChannelsByUsers, userIDs)
	if err != nil {
		return nil, fmt.Errorf("query channels: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c channel.Record
		if err := rows.Scan(&c.ID, &c.UserID, &c.Type, &c.Enabled, &c.Destination, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		out[c.UserID] = append(out[c.UserID], c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
