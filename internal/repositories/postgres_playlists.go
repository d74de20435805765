package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// playlistQuery aggregates membership into an ordered array in the same
// statement that reads the playlist row.
const playlistQuery = `
        SELECT p.id, p.owner_id, p.name, p.description, p.created_at, p.updated_at,
               COALESCE(ARRAY(
                   SELECT pv.video_id FROM playlist_videos pv
                   WHERE pv.playlist_id = p.id
                   ORDER BY pv.added_at, pv.video_id
               ), '{}')
        FROM playlists p`

// PostgresPlaylistRepository provides PostgreSQL-backed persistence for playlists.
type PostgresPlaylistRepository struct {
	pool db.Pool
}

// NewPostgresPlaylistRepository constructs a playlist repository backed by PostgreSQL.
func NewPostgresPlaylistRepository(pool db.Pool) *PostgresPlaylistRepository {
	return &PostgresPlaylistRepository{pool: pool}
}

// Create stores a new playlist and its initial membership.
func (r *PostgresPlaylistRepository) Create(ctx context.Context, playlist models.Playlist) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO playlists (id, owner_id, name, description, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, playlist.ID, playlist.OwnerID, playlist.Name, playlist.Description, playlist.CreatedAt, playlist.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert playlist: %w", err)
	}

	for _, videoID := range playlist.VideoIDs {
		if _, err := conn.Exec(ctx, `
            INSERT INTO playlist_videos (playlist_id, video_id, added_at)
            VALUES ($1, $2, now())
            ON CONFLICT DO NOTHING
        `, playlist.ID, videoID); err != nil {
			return fmt.Errorf("insert playlist video: %w", err)
		}
	}

	return nil
}

// FindByID fetches a playlist, including its membership, by identifier.
func (r *PostgresPlaylistRepository) FindByID(ctx context.Context, id string) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return scanPlaylist(conn.QueryRow(ctx, playlistQuery+` WHERE p.id = $1`, id))
}

// SearchByName returns playlists whose name contains the provided text,
// case-insensitively.
func (r *PostgresPlaylistRepository) SearchByName(ctx context.Context, name string) ([]models.Playlist, error) {
	return r.list(ctx, playlistQuery+`
        WHERE p.name ILIKE '%' || $1 || '%'
        ORDER BY p.created_at DESC
    `, name)
}

// ListByOwner returns the owner's playlists, newest first.
func (r *PostgresPlaylistRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error) {
	return r.list(ctx, playlistQuery+`
        WHERE p.owner_id = $1
        ORDER BY p.created_at DESC
    `, ownerID)
}

// UpdateDetails modifies the playlist's name and description.
func (r *PostgresPlaylistRepository) UpdateDetails(ctx context.Context, id, name, description string) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE playlists SET name = $2, description = $3, updated_at = now()
        WHERE id = $1
    `, id, name, description)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("update playlist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.Playlist{}, ErrNotFound
	}

	return scanPlaylist(conn.QueryRow(ctx, playlistQuery+` WHERE p.id = $1`, id))
}

// Delete removes a playlist and its membership rows.
func (r *PostgresPlaylistRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `DELETE FROM playlist_videos WHERE playlist_id = $1`, id); err != nil {
		return fmt.Errorf("delete playlist videos: %w", err)
	}

	tag, err := conn.Exec(ctx, `DELETE FROM playlists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// AddVideo adds a video to the playlist. Adding an existing member is a
// no-op; membership is keyed by (playlist_id, video_id).
func (r *PostgresPlaylistRepository) AddVideo(ctx context.Context, playlistID, videoID string) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `
        INSERT INTO playlist_videos (playlist_id, video_id, added_at)
        VALUES ($1, $2, now())
        ON CONFLICT DO NOTHING
    `, playlistID, videoID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return models.Playlist{}, ErrNotFound
		}
		return models.Playlist{}, fmt.Errorf("add playlist video: %w", err)
	}

	return scanPlaylist(conn.QueryRow(ctx, playlistQuery+` WHERE p.id = $1`, playlistID))
}

// RemoveVideo removes a video from the playlist. Removing an absent member
// is a no-op.
func (r *PostgresPlaylistRepository) RemoveVideo(ctx context.Context, playlistID, videoID string) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `
        DELETE FROM playlist_videos WHERE playlist_id = $1 AND video_id = $2
    `, playlistID, videoID); err != nil {
		return models.Playlist{}, fmt.Errorf("remove playlist video: %w", err)
	}

	return scanPlaylist(conn.QueryRow(ctx, playlistQuery+` WHERE p.id = $1`, playlistID))
}

func (r *PostgresPlaylistRepository) list(ctx context.Context, sql string, args ...any) ([]models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []models.Playlist
	for rows.Next() {
		playlist, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, playlist)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlists: %w", err)
	}

	return playlists, nil
}

func scanPlaylist(row rowScanner) (models.Playlist, error) {
	var (
		playlist  models.Playlist
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&playlist.ID, &playlist.OwnerID, &playlist.Name, &playlist.Description,
		&createdAt, &updatedAt, &playlist.VideoIDs); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Playlist{}, ErrNotFound
		}
		return models.Playlist{}, fmt.Errorf("scan playlist: %w", err)
	}

	playlist.CreatedAt = createdAt.UTC()
	playlist.UpdatedAt = updatedAt.UTC()
	return playlist, nil
}

var _ PlaylistRepository = (*PostgresPlaylistRepository)(nil)
