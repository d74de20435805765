package repositories

import (
	"context"

	"github.com/vidtube/backend/internal/models"
)

// Sort directions accepted by paginated feeds.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// PageRequest carries 1-based pagination and sorting parameters.
type PageRequest struct {
	Page    int
	Limit   int
	SortBy  string
	SortDir string
}

// Normalize clamps the request to usable values: page >= 1, a bounded
// limit, and a recognised sort direction (ascending when unspecified).
func (p PageRequest) Normalize(defaultSort string) PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 10
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	if p.SortBy == "" {
		p.SortBy = defaultSort
	}
	if p.SortDir != SortDesc {
		p.SortDir = SortAsc
	}
	return p
}

func (p PageRequest) offset() int {
	return (p.Page - 1) * p.Limit
}

// VideoPage is one page of the video feed plus totals computed from the
// same query execution as the rows themselves.
type VideoPage struct {
	Items      []models.FeedVideo `json:"items"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalCount int64              `json:"totalCount"`
	TotalPages int64              `json:"totalPages"`
}

// TweetPage is one page of the tweet feed.
type TweetPage struct {
	Items      []models.Tweet `json:"items"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalCount int64          `json:"totalCount"`
	TotalPages int64          `json:"totalPages"`
}

// CommentPage is one page of a video's comments.
type CommentPage struct {
	Items      []models.VideoComment `json:"items"`
	Page       int                   `json:"page"`
	Limit      int                   `json:"limit"`
	TotalCount int64                 `json:"totalCount"`
	TotalPages int64                 `json:"totalPages"`
}

// FeedRepository is the aggregation-based read model. Every method is
// read-only and executes as a single SQL statement, so row sets and totals
// cannot skew under concurrent writes within one call.
type FeedRepository interface {
	// ChannelProfile returns the channel's public fields plus subscriber
	// and subscribed-to counts and whether viewerID subscribes to it.
	// Returns ErrNotFound when no user matches the username exactly.
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)

	// WatchHistory resolves the user's watch-history references into full
	// video records with owner public projections, in insertion order.
	WatchHistory(ctx context.Context, userID string) ([]models.WatchHistoryEntry, error)

	// LikedVideos joins the user's video likes against videos and users.
	// An empty result is reported as ErrNotFound; callers must distinguish
	// "no likes" from success.
	LikedVideos(ctx context.Context, userID string) ([]models.LikedVideo, error)

	// SubscribedChannels lists the channels the subscriber follows. An
	// empty result is a successful empty list, not an error.
	SubscribedChannels(ctx context.Context, subscriberID string) ([]models.PublicUser, error)

	// VideoFeed returns one page of published videos joined to their
	// owners' public fields.
	VideoFeed(ctx context.Context, page PageRequest) (VideoPage, error)

	// TweetFeed returns one page of tweets, defaulting to oldest-first.
	TweetFeed(ctx context.Context, page PageRequest) (TweetPage, error)

	// VideoComments returns one page of a video's comments, newest first.
	VideoComments(ctx context.Context, videoID string, page PageRequest) (CommentPage, error)
}

func totalPages(totalCount int64, limit int) int64 {
	if limit <= 0 {
		return 0
	}
	return (totalCount + int64(limit) - 1) / int64(limit)
}
