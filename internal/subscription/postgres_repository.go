// AngelaMos | 2026
// postgres_repository.go

package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/go-backend/internal/core"
)

type memberRow struct {
	ID           string    `db:"id"`
	Username     string    `db:"username"`
	FullName     string    `db:"full_name"`
	Avatar       string    `db:"avatar"`
	SubscribedAt time.Time `db:"subscribed_at"`
}

type postgresRepository struct {
	db core.DBTX
}

func NewPostgresRepository(db core.DBTX) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Find(
	ctx context.Context,
	subscriberID, channelID string,
) (*Subscription, error) {
	if err := validIDs(subscriberID, channelID); err != nil {
		return nil, fmt.Errorf("find subscription: %w", err)
	}

	query := `
		SELECT id, subscriber_id, channel_id, created_at, updated_at
		FROM subscriptions
		WHERE subscriber_id = $1 AND channel_id = $2
		ORDER BY created_at
		LIMIT 1`

	var row struct {
		ID         string    `db:"id"`
		Subscriber string    `db:"subscriber_id"`
		Channel    string    `db:"channel_id"`
		CreatedAt  time.Time `db:"created_at"`
		UpdatedAt  time.Time `db:"updated_at"`
	}
	if err := r.db.GetContext(ctx, &row, query, subscriberID, channelID); err != nil {
		return nil, core.PostgresError("find subscription", err)
	}

	return &Subscription{
		ID:         row.ID,
		Subscriber: row.Subscriber,
		Channel:    row.Channel,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}, nil
}

func (r *postgresRepository) Create(ctx context.Context, sub *Subscription) error {
	if err := validIDs(sub.Subscriber, sub.Channel); err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}

	query := `
		INSERT INTO subscriptions (id, subscriber_id, channel_id)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`

	id := uuid.NewString()

	var ts struct {
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}
	if err := r.db.GetContext(ctx, &ts, query, id, sub.Subscriber, sub.Channel); err != nil {
		return core.PostgresError("create subscription", err)
	}

	sub.ID = id
	sub.CreatedAt = ts.CreatedAt
	sub.UpdatedAt = ts.UpdatedAt
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id string) error {
	if err := core.ValidUUID(id); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return core.PostgresError("delete subscription", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return core.PostgresError("delete subscription", err)
	}
	if affected == 0 {
		return fmt.Errorf("delete subscription: %w", core.ErrNotFound)
	}

	return nil
}

func (r *postgresRepository) ListSubscribers(ctx context.Context, channelID string) ([]Member, error) {
	return r.members(ctx, "list subscribers", `
		SELECT u.id, u.username, u.full_name, u.avatar, s.created_at AS subscribed_at
		FROM subscriptions s
		JOIN users u ON u.id = s.subscriber_id
		WHERE s.channel_id = $1
		ORDER BY s.created_at DESC`, channelID)
}

func (r *postgresRepository) ListSubscribedChannels(
	ctx context.Context,
	subscriberID string,
) ([]Member, error) {
	return r.members(ctx, "list subscribed channels", `
		SELECT u.id, u.username, u.full_name, u.avatar, s.created_at AS subscribed_at
		FROM subscriptions s
		JOIN users u ON u.id = s.channel_id
		WHERE s.subscriber_id = $1
		ORDER BY s.created_at DESC`, subscriberID)
}

func (r *postgresRepository) members(ctx context.Context, op, query, id string) ([]Member, error) {
	if err := core.ValidUUID(id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var rows []memberRow
	if err := r.db.SelectContext(ctx, &rows, query, id); err != nil {
		return nil, core.PostgresError(op, err)
	}

	members := make([]Member, 0, len(rows))
	for _, row := range rows {
		members = append(members, Member(row))
	}

	return members, nil
}

func validIDs(ids ...string) error {
	for _, id := range ids {
		if err := core.ValidUUID(id); err != nil {
			return err
		}
	}
	return nil
}
