package postgres

import (
	"context"
	"fmt"

	"github.com/NordCoder/pingerus-notifier/internal/domain/user"
	"github.com/jackc/pgx/v5"
)

var _ user.Repo = (*UserRepo)(nil)

type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

// owner of the monitor plus everyone subscribed to it
const qUserSubscribers = `
SELECT u.id, u.name, u.email, u.created_at, u.updated_at
FROM users u
WHERE u.id IN (
    SELECT m.user_id FROM monitors m WHERE m.id = $1
    UNION
    SELECT s.user_id FROM monitor_subscriptions s WHERE s.monitor_id = $1
)
ORDER BY u.id;`

func (r *UserRepo) ListSubscribers(ctx context.Context, monitorID int64) ([]*user.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qUserSubscribers, monitorID)
	if err != nil {
		return nil, fmt.Errorf("query subscribers: %w", err)
	}
	defer rows.Close()

	var out []*user.User
	for rows.Next() {
		var u user.User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func scanUser(row pgx.Row, out *user.User) error {
	if err := row.Scan(&out.ID, &out.Name, &out.Email, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return fmt.Errorf("scan user: %w", err)
	}
	return nil
}
