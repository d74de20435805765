package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/models"
)

// LikeHandler implements the like toggles and the liked-video listing.
type LikeHandler struct {
	Likes LikeStore
	Feeds FeedStore
}

type toggleResponse struct {
	Liked bool        `json:"liked"`
	Like  models.Like `json:"like"`
}

// ToggleVideo handles POST /api/v1/likes/video/{videoId}.
func (h LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeTargetVideo, r.PathValue("videoId"), "video")
}

// ToggleComment handles POST /api/v1/likes/comment/{commentId}.
func (h LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeTargetComment, r.PathValue("commentId"), "comment")
}

// ToggleTweet handles POST /api/v1/likes/tweet/{tweetId}.
func (h LikeHandler) ToggleTweet(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeTargetTweet, r.PathValue("tweetId"), "tweet")
}

func (h LikeHandler) toggle(w http.ResponseWriter, r *http.Request, target, targetID, label string) {
	ctx := r.Context()

	if targetID == "" {
		respondError(ctx, w, http.StatusBadRequest, label+" id is required")
		return
	}

	like, liked, err := h.Likes.Toggle(ctx, currentUserID(r), target, targetID)
	if err != nil {
		respondStoreError(ctx, w, err, label+" not found", "failed to toggle like")
		return
	}

	message := label + " unliked"
	if liked {
		message = label + " liked"
	}
	respondData(ctx, w, http.StatusOK, toggleResponse{Liked: liked, Like: like}, message)
}

// LikedVideos handles GET /api/v1/likes/videos. An actor with no liked
// videos gets a 404, matching the read model contract.
func (h LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	videos, err := h.Feeds.LikedVideos(ctx, currentUserID(r))
	if err != nil {
		respondStoreError(ctx, w, err, "no liked videos found", "failed to fetch liked videos")
		return
	}

	respondData(ctx, w, http.StatusOK, videos, "liked videos fetched successfully")
}
