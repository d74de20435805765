package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/models"
)

// CommentHandler implements comment creation and mutation endpoints. Reads
// live on the video routes; comments are always fetched per video.
type CommentHandler struct {
	Comments CommentStore
	NowFunc  func() time.Time
}

type commentRequest struct {
	Content string `json:"content"`
}

// Create handles POST /api/v1/videos/{videoId}/comments.
func (h CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req commentRequest
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
	comment := models.Comment{
		ID:        uuid.NewString(),
		Content:   req.Content,
		VideoID:   r.PathValue("videoId"),
		OwnerID:   currentUserID(r),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Comments.Create(ctx, comment); err != nil {
		respondStoreError(ctx, w, err, "video not found", "failed to add comment")
		return
	}

	respondData(ctx, w, http.StatusCreated, comment, "comment added successfully")
}

// Update handles PATCH /api/v1/comments/{commentId}, owner only.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, http.StatusBadRequest, "content is required")
		return
	}

	commentID := r.PathValue("commentId")
	if !h.requireOwner(w, r, commentID) {
		return
	}

	comment, err := h.Comments.UpdateContent(ctx, commentID, req.Content)
	if err != nil {
		respondStoreError(ctx, w, err, "comment not found", "failed to update comment")
		return
	}

	respondData(ctx, w, http.StatusOK, comment, "comment updated successfully")
}

// Delete handles DELETE /api/v1/comments/{commentId}, owner only.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	commentID := r.PathValue("commentId")
	if !h.requireOwner(w, r, commentID) {
		return
	}

	if err := h.Comments.Delete(ctx, commentID); err != nil {
		respondStoreError(ctx, w, err, "comment not found", "failed to delete comment")
		return
	}

	respondData(ctx, w, http.StatusOK, struct{}{}, "comment deleted successfully")
}

func (h CommentHandler) requireOwner(w http.ResponseWriter, r *http.Request, commentID string) bool {
	ctx := r.Context()

	comment, err := h.Comments.FindByID(ctx, commentID)
	if err != nil {
		respondStoreError(ctx, w, err, "comment not found", "failed to fetch comment")
		return false
	}

	if comment.OwnerID != currentUserID(r) {
		respondError(ctx, w, http.StatusForbidden, "only the owner can modify this comment")
		return false
	}
	return true
}

func (h CommentHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
