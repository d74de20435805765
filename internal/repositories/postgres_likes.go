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

const likeColumns = `id, liked_by, COALESCE(video_id, ''), COALESCE(comment_id, ''), COALESCE(tweet_id, ''), created_at`

// likeTargetColumns whitelists the column per target kind; the target kind
// is never interpolated into SQL directly.
var likeTargetColumns = map[string]string{
	models.LikeTargetVideo:   "video_id",
	models.LikeTargetComment: "comment_id",
	models.LikeTargetTweet:   "tweet_id",
}

// PostgresLikeRepository provides PostgreSQL-backed persistence for likes.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

// Toggle removes the (user, target) like when it exists and creates it
// otherwise. Uniqueness is enforced by a partial unique index per target,
// so a concurrent duplicate toggle resolves to the already-present row
// instead of double-creating.
func (r *PostgresLikeRepository) Toggle(ctx context.Context, likedBy, target, targetID string) (models.Like, bool, error) {
	column, ok := likeTargetColumns[target]
	if !ok {
		return models.Like{}, false, fmt.Errorf("unknown like target %q", target)
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Like{}, false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	deleted, err := scanLike(conn.QueryRow(ctx, `
        DELETE FROM likes
        WHERE liked_by = $1 AND `+column+` = $2
        RETURNING `+likeColumns, likedBy, targetID))
	if err == nil {
		return deleted, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return models.Like{}, false, err
	}

	created, err := scanLike(conn.QueryRow(ctx, `
        INSERT INTO likes (id, liked_by, `+column+`, created_at)
        VALUES ($1, $2, $3, now())
        RETURNING `+likeColumns, uuid.NewString(), likedBy, targetID))
	if err == nil {
		return created, true, nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		// A concurrent toggle won the insert; report its row as present.
		existing, selErr := scanLike(conn.QueryRow(ctx, `
            SELECT `+likeColumns+` FROM likes
            WHERE liked_by = $1 AND `+column+` = $2
        `, likedBy, targetID))
		if selErr != nil {
			return models.Like{}, false, selErr
		}
		return existing, true, nil
	}

	return models.Like{}, false, err
}

func scanLike(row rowScanner) (models.Like, error) {
	var (
		like      models.Like
		createdAt time.Time
	)
	if err := row.Scan(&like.ID, &like.LikedBy, &like.VideoID, &like.CommentID, &like.TweetID, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Like{}, ErrNotFound
		}
		return models.Like{}, err
	}

	like.CreatedAt = createdAt.UTC()
	return like, nil
}

var _ LikeRepository = (*PostgresLikeRepository)(nil)
