package models

import "time"

// User represents an account within the VidTube platform. Usernames and
// emails are stored lower-cased and are globally unique.
type User struct {
	ID            string
	Username      string
	Fullname      string
	Email         string
	Password      string
	RefreshToken  string
	AvatarURL     string
	CoverImageURL string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PublicUser is the subset of a user's fields safe to expose to other
// users. Password hashes and refresh tokens never leave the store through
// this projection.
type PublicUser struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Fullname      string `json:"fullname"`
	Email         string `json:"email"`
	AvatarURL     string `json:"avatar"`
	CoverImageURL string `json:"coverImage"`
}

// Public reduces a full user record to its public projection.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Username:      u.Username,
		Fullname:      u.Fullname,
		Email:         u.Email,
		AvatarURL:     u.AvatarURL,
		CoverImageURL: u.CoverImageURL,
	}
}

// Video is an uploaded video owned by a user.
type Video struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	VideoURL     string    `json:"videoFile"`
	ThumbnailURL string    `json:"thumbnail"`
	Duration     float64   `json:"duration"`
	Views        int64     `json:"views"`
	IsPublished  bool      `json:"isPublished"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Comment is a user's comment on a video. Updates overwrite content in
// place; no edit history is retained.
type Comment struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId"`
	OwnerID   string    `json:"ownerId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Like target kinds. Exactly one target reference is populated per row.
const (
	LikeTargetVideo   = "video"
	LikeTargetComment = "comment"
	LikeTargetTweet   = "tweet"
)

// Like records that a user liked exactly one of a video, comment, or tweet.
type Like struct {
	ID        string    `json:"id"`
	LikedBy   string    `json:"likedBy"`
	VideoID   string    `json:"videoId,omitempty"`
	CommentID string    `json:"commentId,omitempty"`
	TweetID   string    `json:"tweetId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Tweet is a short text post owned by a user.
type Tweet struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Playlist is a named, set-like collection of video references.
type Playlist struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	VideoIDs    []string  `json:"videos"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Subscription records that a subscriber follows a channel (itself a user).
type Subscription struct {
	ID           string    `json:"id"`
	SubscriberID string    `json:"subscriber"`
	ChannelID    string    `json:"channel"`
	CreatedAt    time.Time `json:"createdAt"`
}

/// ChannelProfile is the aggregated public view of a channel: the user's
// public fields plus derived subscription counts and whether the viewer
// is among the channel's subscribers.
type ChannelProfile struct {
	PublicUser
	SubscriberCount    int64 `json:"subscriberCount"`
	SubscribedToCount  int64 `json:"subscribedToCount"`
	ViewerIsSubscribed bool  `json:"isSubscribed"`
}

/// WatchHistoryEntry is a resolved watch-history reference: the full video
// record with its owner reduced to a public projection.
type WatchHistoryEntry struct {
	Video Video      `json:"video"`
	Owner PublicUser `json:"owner"`
}

// LikedVideo is a flattened liked-videos feed row joining the like, the
// video, and the liker's identity.
type LikedVideo struct {
	LikeID       string    `json:"likeId"`
	VideoID      string    `json:"videoId"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ThumbnailURL string    `json:"thumbnail"`
	VideoURL     string    `json:"videoFile"`
	Views        int64     `json:"views"`
	LikedByID    string    `json:"likedById"`
	LikedByName  string    `json:"likedByUsername"`
	LikedAt      time.Time `json:"likedAt"`
}

// FeedVideo joins a video to its owner's public fields for feed listings.
type FeedVideo struct {
	Video Video      `json:"video"`
	Owner PublicUser `json:"owner"`
}

// VideoComment joins a comment to its owner's public fields.
type VideoComment struct {
	Comment Comment    `json:"comment"`
	Owner   PublicUser `json:"owner"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
