package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

const subscriptionColumns = `id, subscriber_id, channel_id, created_at`

// PostgresSubscriptionRepository provides PostgreSQL-backed persistence for
// channel subscriptions.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository
// backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Toggle unsubscribes when the (subscriber, channel) pair exists and
// subscribes otherwise. The pair carries a unique constraint, so a
// concurrent duplicate toggle resolves to the already-present row.
func (r *PostgresSubscriptionRepository) Toggle(ctx context.Context, subscriberID, channelID string) (models.Subscription, bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Subscription{}, false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	deleted, err := scanSubscription(conn.QueryRow(ctx, `
        DELETE FROM subscriptions
        WHERE subscriber_id = $1 AND channel_id = $2
        RETURNING `+subscriptionColumns, subscriberID, channelID))
	if err == nil {
		return deleted, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return models.Subscription{}, false, err
	}

	created, err := scanSubscription(conn.QueryRow(ctx, `
        INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
        VALUES ($1, $2, $3, now())
        RETURNING `+subscriptionColumns, uuid.NewString(), subscriberID, channelID))
	if err == nil {
		return created, true, nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			existing, selErr := scanSubscription(conn.QueryRow(ctx, `
                SELECT `+subscriptionColumns+` FROM subscriptions
                WHERE subscriber_id = $1 AND channel_id = $2
            `, subscriberID, channelID))
			if selErr != nil {
				return models.Subscription{}, false, selErr
			}
			return existing, true, nil
		case "23503":
			return models.Subscription{}, false, ErrNotFound
		}
	}

	return models.Subscription{}, false, err
}

func scanSubscription(row rowScanner) (models.Subscription, error) {
	var (
		sub       models.Subscription
		createdAt time.Time
	)
	if err := row.Scan(&sub.ID, &sub.SubscriberID, &sub.ChannelID, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Subscription{}, ErrNotFound
		}
		return models.Subscription{}, err
	}

	sub.CreatedAt = createdAt.UTC()
	return sub, nil
}

var _ SubscriptionRepository = (*PostgresSubscriptionRepository)(nil)
