package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// Sortable columns per feed. Sort keys from requests are resolved through
// these maps and never interpolated into SQL directly.
var (
	videoSortColumns = map[string]string{
		"createdAt": "created_at",
		"views":     "views",
		"title":     "title",
		"duration":  "duration",
	}
	tweetSortColumns = map[string]string{
		"createdAt": "created_at",
		"updatedAt": "updated_at",
	}
)

// PostgresFeedRepository implements the aggregation read model on
// PostgreSQL. Every method issues exactly one SQL statement; paginated
// feeds count the filtered set in a CTE and left-join the page slice onto
// it, so rows and totals come from the same filtered, joined row set and
// the total survives a page request past the last row.
type PostgresFeedRepository struct {
	pool db.Pool
}

// NewPostgresFeedRepository constructs the aggregation read model backed by
// PostgreSQL.
func NewPostgresFeedRepository(pool db.Pool) *PostgresFeedRepository {
	return &PostgresFeedRepository{pool: pool}
}

// ChannelProfile returns the channel's public fields plus derived
// subscription counts and whether the viewer subscribes to the channel.
func (r *PostgresFeedRepository) ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ChannelProfile{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT u.id, u.username, u.fullname, u.email,
               COALESCE(u.avatar_url, ''), COALESCE(u.cover_image_url, ''),
               (SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id),
               (SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id),
               EXISTS (SELECT 1 FROM subscriptions s WHERE s.channel_id = u.id AND s.subscriber_id = $2)
        FROM users u
        WHERE u.username = lower($1)
    `, username, viewerID)

	var profile models.ChannelProfile
	if err := row.Scan(&profile.ID, &profile.Username, &profile.Fullname, &profile.Email,
		&profile.AvatarURL, &profile.CoverImageURL,
		&profile.SubscriberCount, &profile.SubscribedToCount, &profile.ViewerIsSubscribed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ChannelProfile{}, ErrNotFound
		}
		return models.ChannelProfile{}, fmt.Errorf("scan channel profile: %w", err)
	}

	return profile, nil
}

// WatchHistory resolves the user's watch-history references into full video
// records with owner public projections. Order follows the stored sequence
// (insertion order); duplicates are preserved. Dangling references drop out
// through the inner joins.
func (r *PostgresFeedRepository) WatchHistory(ctx context.Context, userID string) ([]models.WatchHistoryEntry, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT v.id, v.owner_id, v.title, v.description, v.video_url, v.thumbnail_url,
               v.duration, v.views, v.is_published, v.created_at, v.updated_at,
               o.id, o.username, o.fullname, COALESCE(o.avatar_url, '')
        FROM watch_history wh
        JOIN videos v ON v.id = wh.video_id
        JOIN users o ON o.id = v.owner_id
        WHERE wh.user_id = $1
        ORDER BY wh.position
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	var entries []models.WatchHistoryEntry
	for rows.Next() {
		var entry models.WatchHistoryEntry
		if err := rows.Scan(&entry.Video.ID, &entry.Video.OwnerID, &entry.Video.Title, &entry.Video.Description,
			&entry.Video.VideoURL, &entry.Video.ThumbnailURL, &entry.Video.Duration, &entry.Video.Views,
			&entry.Video.IsPublished, &entry.Video.CreatedAt, &entry.Video.UpdatedAt,
			&entry.Owner.ID, &entry.Owner.Username, &entry.Owner.Fullname, &entry.Owner.AvatarURL); err != nil {
			return nil, fmt.Errorf("scan watch history entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watch history: %w", err)
	}

	return entries, nil
}

// LikedVideos joins the user's video likes against videos and users into
// flattened rows. An empty result is reported as ErrNotFound so callers can
// distinguish "no likes" from success; this mirrors the platform's
// established behavior and deliberately differs from SubscribedChannels.
func (r *PostgresFeedRepository) LikedVideos(ctx context.Context, userID string) ([]models.LikedVideo, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT l.id, v.id, v.title, v.description, v.thumbnail_url, v.video_url, v.views,
               u.id, u.username, l.created_at
        FROM likes l
        JOIN videos v ON v.id = l.video_id
        JOIN users u ON u.id = l.liked_by
        WHERE l.liked_by = $1 AND l.video_id IS NOT NULL
        ORDER BY l.created_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query liked videos: %w", err)
	}
	defer rows.Close()

	var liked []models.LikedVideo
	for rows.Next() {
		var row models.LikedVideo
		if err := rows.Scan(&row.LikeID, &row.VideoID, &row.Title, &row.Description, &row.ThumbnailURL,
			&row.VideoURL, &row.Views, &row.LikedByID, &row.LikedByName, &row.LikedAt); err != nil {
			return nil, fmt.Errorf("scan liked video: %w", err)
		}
		liked = append(liked, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate liked videos: %w", err)
	}

	if len(liked) == 0 {
		return nil, ErrNotFound
	}

	return liked, nil
}

// SubscribedChannels lists the channels the subscriber follows, projected
// to public fields. An empty result is a successful empty list.
func (r *PostgresFeedRepository) SubscribedChannels(ctx context.Context, subscriberID string) ([]models.PublicUser, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT u.id, u.username, u.fullname, u.email,
               COALESCE(u.avatar_url, ''), COALESCE(u.cover_image_url, '')
        FROM subscriptions s
        JOIN users u ON u.id = s.channel_id
        WHERE s.subscriber_id = $1
        ORDER BY s.created_at DESC
    `, subscriberID)
	if err != nil {
		return nil, fmt.Errorf("query subscribed channels: %w", err)
	}
	defer rows.Close()

	channels := []models.PublicUser{}
	for rows.Next() {
		var channel models.PublicUser
		if err := rows.Scan(&channel.ID, &channel.Username, &channel.Fullname, &channel.Email,
			&channel.AvatarURL, &channel.CoverImageURL); err != nil {
			return nil, fmt.Errorf("scan subscribed channel: %w", err)
		}
		channels = append(channels, channel)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscribed channels: %w", err)
	}

	return channels, nil
}

// VideoFeed returns one page of published videos joined to their owners'
// public fields. Rows and the total count come from the same statement.
func (r *PostgresFeedRepository) VideoFeed(ctx context.Context, page PageRequest) (VideoPage, error) {
	page = page.Normalize("createdAt")

	sortColumn, ok := videoSortColumns[page.SortBy]
	if !ok {
		sortColumn = videoSortColumns["createdAt"]
	}
	direction := "ASC"
	if page.SortDir == SortDesc {
		direction = "DESC"
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return VideoPage{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, fmt.Sprintf(`
        WITH filtered AS (
            SELECT v.id, v.owner_id, v.title, v.description, v.video_url, v.thumbnail_url,
                   v.duration, v.views, v.is_published, v.created_at, v.updated_at,
                   o.id AS owner_uid, o.username AS owner_username, o.fullname AS owner_fullname,
                   COALESCE(o.avatar_url, '') AS owner_avatar
            FROM videos v
            JOIN users o ON o.id = v.owner_id
            WHERE v.is_published
        ),
        page AS (
            SELECT * FROM filtered ORDER BY %[1]s %[2]s, id LIMIT $1 OFFSET $2
        )
        SELECT COALESCE(p.id, ''), COALESCE(p.owner_id, ''), COALESCE(p.title, ''),
               COALESCE(p.description, ''), COALESCE(p.video_url, ''), COALESCE(p.thumbnail_url, ''),
               COALESCE(p.duration, 0), COALESCE(p.views, 0), COALESCE(p.is_published, FALSE),
               COALESCE(p.created_at, now()), COALESCE(p.updated_at, now()),
               COALESCE(p.owner_uid, ''), COALESCE(p.owner_username, ''),
               COALESCE(p.owner_fullname, ''), COALESCE(p.owner_avatar, ''),
               totals.total_count
        FROM (SELECT COUNT(*) AS total_count FROM filtered) totals
        LEFT JOIN page p ON TRUE
        ORDER BY p.%[1]s %[2]s, p.id
    `, sortColumn, direction), page.Limit, page.offset())
	if err != nil {
		return VideoPage{}, fmt.Errorf("query video feed: %w", err)
	}
	defer rows.Close()

	result := VideoPage{Items: []models.FeedVideo{}, Page: page.Page, Limit: page.Limit}
	for rows.Next() {
		var item models.FeedVideo
		if err := rows.Scan(&item.Video.ID, &item.Video.OwnerID, &item.Video.Title, &item.Video.Description,
			&item.Video.VideoURL, &item.Video.ThumbnailURL, &item.Video.Duration, &item.Video.Views,
			&item.Video.IsPublished, &item.Video.CreatedAt, &item.Video.UpdatedAt,
			&item.Owner.ID, &item.Owner.Username, &item.Owner.Fullname, &item.Owner.AvatarURL,
			&result.TotalCount); err != nil {
			return VideoPage{}, fmt.Errorf("scan video feed row: %w", err)
		}
		if item.Video.ID == "" {
			// Count-only row emitted when the requested page is past the end.
			continue
		}
		result.Items = append(result.Items, item)
	}

	if err := rows.Err(); err != nil {
		return VideoPage{}, fmt.Errorf("iterate video feed: %w", err)
	}

	result.TotalPages = totalPages(result.TotalCount, page.Limit)
	return result, nil
}

// TweetFeed returns one page of tweets with the same pagination contract as
// the video feed, defaulting to oldest-first by creation time.
func (r *PostgresFeedRepository) TweetFeed(ctx context.Context, page PageRequest) (TweetPage, error) {
	page = page.Normalize("createdAt")

	sortColumn, ok := tweetSortColumns[page.SortBy]
	if !ok {
		sortColumn = tweetSortColumns["createdAt"]
	}
	direction := "ASC"
	if page.SortDir == SortDesc {
		direction = "DESC"
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return TweetPage{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, fmt.Sprintf(`
        WITH filtered AS (
            SELECT t.id, t.owner_id, t.content, t.created_at, t.updated_at FROM tweets t
        ),
        page AS (
            SELECT * FROM filtered ORDER BY %[1]s %[2]s, id LIMIT $1 OFFSET $2
        )
        SELECT COALESCE(p.id, ''), COALESCE(p.owner_id, ''), COALESCE(p.content, ''),
               COALESCE(p.created_at, now()), COALESCE(p.updated_at, now()),
               totals.total_count
        FROM (SELECT COUNT(*) AS total_count FROM filtered) totals
        LEFT JOIN page p ON TRUE
        ORDER BY p.%[1]s %[2]s, p.id
    `, sortColumn, direction), page.Limit, page.offset())
	if err != nil {
		return TweetPage{}, fmt.Errorf("query tweet feed: %w", err)
	}
	defer rows.Close()

	result := TweetPage{Items: []models.Tweet{}, Page: page.Page, Limit: page.Limit}
	for rows.Next() {
		var tweet models.Tweet
		if err := rows.Scan(&tweet.ID, &tweet.OwnerID, &tweet.Content, &tweet.CreatedAt, &tweet.UpdatedAt,
			&result.TotalCount); err != nil {
			return TweetPage{}, fmt.Errorf("scan tweet feed row: %w", err)
		}
		if tweet.ID == "" {
			continue
		}
		result.Items = append(result.Items, tweet)
	}

	if err := rows.Err(); err != nil {
		return TweetPage{}, fmt.Errorf("iterate tweet feed: %w", err)
	}

	result.TotalPages = totalPages(result.TotalCount, page.Limit)
	return result, nil
}

// VideoComments returns one page of a video's comments joined to their
// owners' public fields, newest first.
func (r *PostgresFeedRepository) VideoComments(ctx context.Context, videoID string, page PageRequest) (CommentPage, error) {
	page = page.Normalize("createdAt")

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return CommentPage{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        WITH filtered AS (
            SELECT c.id, c.video_id, c.owner_id, c.content, c.created_at, c.updated_at,
                   o.id AS owner_uid, o.username AS owner_username, o.fullname AS owner_fullname,
                   COALESCE(o.avatar_url, '') AS owner_avatar
            FROM comments c
            JOIN users o ON o.id = c.owner_id
            WHERE c.video_id = $1
        ),
        page AS (
            SELECT * FROM filtered ORDER BY created_at DESC, id LIMIT $2 OFFSET $3
        )
        SELECT COALESCE(p.id, ''), COALESCE(p.video_id, ''), COALESCE(p.owner_id, ''),
               COALESCE(p.content, ''), COALESCE(p.created_at, now()), COALESCE(p.updated_at, now()),
               COALESCE(p.owner_uid, ''), COALESCE(p.owner_username, ''),
               COALESCE(p.owner_fullname, ''), COALESCE(p.owner_avatar, ''),
               totals.total_count
        FROM (SELECT COUNT(*) AS total_count FROM filtered) totals
        LEFT JOIN page p ON TRUE
        ORDER BY p.created_at DESC, p.id
    `, videoID, page.Limit, page.offset())
	if err != nil {
		return CommentPage{}, fmt.Errorf("query video comments: %w", err)
	}
	defer rows.Close()

	result := CommentPage{Items: []models.VideoComment{}, Page: page.Page, Limit: page.Limit}
	for rows.Next() {
		var item models.VideoComment
		if err := rows.Scan(&item.Comment.ID, &item.Comment.VideoID, &item.Comment.OwnerID, &item.Comment.Content,
			&item.Comment.CreatedAt, &item.Comment.UpdatedAt,
			&item.Owner.ID, &item.Owner.Username, &item.Owner.Fullname, &item.Owner.AvatarURL,
			&result.TotalCount); err != nil {
			return CommentPage{}, fmt.Errorf("scan video comment row: %w", err)
		}
		if item.Comment.ID == "" {
			continue
		}
		result.Items = append(result.Items, item)
	}

	if err := rows.Err(); err != nil {
		return CommentPage{}, fmt.Errorf("iterate video comments: %w", err)
	}

	result.TotalPages = totalPages(result.TotalCount, page.Limit)
	return result, nil
}

var _ FeedRepository = (*PostgresFeedRepository)(nil)
