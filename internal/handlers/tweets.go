package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/models"
)

// TweetHandler implements short-post endpoints.
type TweetHandler struct {
	Tweets  TweetStore
	Feeds   FeedStore
	NowFunc func() time.Time
}

type tweetRequest struct {
	Content string `json:"content"`
}

// Feed handles GET /api/v1/tweets: the paginated tweet feed.
func (h TweetHandler) Feed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page := pageRequestFromQuery(r, "createdAt")
	result, err := h.Feeds.TweetFeed(ctx, page)
	if err != nil {
		respondStoreError(ctx, w, err, "tweets not found", "failed to fetch tweets")
		return
	}

	respondData(ctx, w, http.StatusOK, result, "tweets fetched successfully")
}

// ListByUser handles GET /api/v1/tweets/user/{userId}.
func (h TweetHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tweets, err := h.Tweets.ListByOwner(ctx, r.PathValue("userId"))
	if err != nil {
		respondStoreError(ctx, w, err, "tweets not found", "failed to fetch tweets")
		return
	}

	if tweets == nil {
		tweets = []models.Tweet{}
	}
	respondData(ctx, w, http.StatusOK, tweets, "tweets fetched successfully")
}

// Create handles POST /api/v1/tweets.
func (h TweetHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req tweetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, http.StatusBadRequest, "content is required")
		return
	}

	now := h.now()
	tweet := models.Tweet{
		ID:        uuid.NewString(),
		Content:   req.Content,
		OwnerID:   currentUserID(r),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Tweets.Create(ctx, tweet); err != nil {
		respondStoreError(ctx, w, err, "owner not found", "failed to create tweet")
		return
	}

	respondData(ctx, w, http.StatusCreated, tweet, "tweet created successfully")
}

// Update handles PATCH /api/v1/tweets/{tweetId}, owner only.
func (h TweetHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req tweetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, http.StatusBadRequest, "content is required")
		return
	}

	tweetID := r.PathValue("tweetId")
	if !h.requireOwner(w, r, tweetID) {
		return
	}

	tweet, err := h.Tweets.UpdateContent(ctx, tweetID, req.Content)
	if err != nil {
		respondStoreError(ctx, w, err, "tweet not found", "failed to update tweet")
		return
	}

	respondData(ctx, w, http.StatusOK, tweet, "tweet updated successfully")
}

// Delete handles DELETE /api/v1/tweets/{tweetId}, owner only.
func (h TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tweetID := r.PathValue("tweetId")
	if !h.requireOwner(w, r, tweetID) {
		return
	}

	if err := h.Tweets.Delete(ctx, tweetID); err != nil {
		respondStoreError(ctx, w, err, "tweet not found", "failed to delete tweet")
		return
	}

	respondData(ctx, w, http.StatusOK, struct{}{}, "tweet deleted successfully")
}

func (h TweetHandler) requireOwner(w http.ResponseWriter, r *http.Request, tweetID string) bool {
	ctx := r.Context()

	tweet, err := h.Tweets.FindByID(ctx, tweetID)
	if err != nil {
		respondStoreError(ctx, w, err, "tweet not found", "failed to fetch tweet")
		return false
	}

	if tweet.OwnerID != currentUserID(r) {
		respondError(ctx, w, http.StatusForbidden, "only the owner can modify this tweet")
		return false
	}
	return true
}

func (h TweetHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
