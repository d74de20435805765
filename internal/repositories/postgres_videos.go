package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

const videoColumns = `id, owner_id, title, description, video_url, thumbnail_url,
        duration, views, is_published, created_at, updated_at`

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, title, description, video_url, thumbnail_url, duration, views, is_published, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, video.ID, video.OwnerID, video.Title, video.Description, video.VideoURL, video.ThumbnailURL,
		video.Duration, video.Views, video.IsPublished, video.CreatedAt, video.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

// FindByID fetches a video by its identifier.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id)
	return scanVideo(row)
}

// SearchByTitle returns videos whose title contains the provided text,
// case-insensitively.
func (r *PostgresVideoRepository) SearchByTitle(ctx context.Context, title string) ([]models.Video, error) {
	return r.list(ctx, `
        SELECT `+videoColumns+` FROM videos
        WHERE title ILIKE '%' || $1 || '%'
        ORDER BY created_at DESC
    `, title)
}

// ListByOwner returns the owner's videos, newest first.
func (r *PostgresVideoRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Video, error) {
	return r.list(ctx, `
        SELECT `+videoColumns+` FROM videos
        WHERE owner_id = $1
        ORDER BY created_at DESC
    `, ownerID)
}

// UpdateDetails modifies the video's title and description.
func (r *PostgresVideoRepository) UpdateDetails(ctx context.Context, id, title, description string) (models.Video, error) {
	return r.updateReturning(ctx, `
        UPDATE videos SET title = $2, description = $3, updated_at = now()
        WHERE id = $1
        RETURNING `+videoColumns, id, title, description)
}

// UpdateThumbnail replaces the video's thumbnail URL.
func (r *PostgresVideoRepository) UpdateThumbnail(ctx context.Context, id, thumbnailURL string) (models.Video, error) {
	return r.updateReturning(ctx, `
        UPDATE videos SET thumbnail_url = $2, updated_at = now()
        WHERE id = $1
        RETURNING `+videoColumns, id, thumbnailURL)
}

// IncrementViews atomically bumps the view counter by one and returns the
// new count. The increment happens in the store, never as a
// read-modify-write in application code.
func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, id string) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var views int64
	err = conn.QueryRow(ctx, `
        UPDATE videos SET views = views + 1
        WHERE id = $1
        RETURNING views
    `, id).Scan(&views)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("increment views: %w", err)
	}

	return views, nil
}

// TogglePublish flips the publish flag in a single statement.
func (r *PostgresVideoRepository) TogglePublish(ctx context.Context, id string) (models.Video, error) {
	return r.updateReturning(ctx, `
        UPDATE videos SET is_published = NOT is_published, updated_at = now()
        WHERE id = $1
        RETURNING `+videoColumns, id)
}

// Delete removes a video. References in likes, comments, playlists, and
// watch histories are left dangling; reads skip them.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *PostgresVideoRepository) list(ctx context.Context, sql string, args ...any) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, nil
}

func (r *PostgresVideoRepository) updateReturning(ctx context.Context, sql string, args ...any) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return scanVideo(conn.QueryRow(ctx, sql, args...))
}

func scanVideo(row rowScanner) (models.Video, error) {
	var (
		video     models.Video
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&video.ID, &video.OwnerID, &video.Title, &video.Description, &video.VideoURL,
		&video.ThumbnailURL, &video.Duration, &video.Views, &video.IsPublished, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("scan video: %w", err)
	}

	video.CreatedAt = createdAt.UTC()
	video.UpdatedAt = updatedAt.UTC()
	return video, nil
}

var _ VideoRepository = (*PostgresVideoRepository)(nil)
