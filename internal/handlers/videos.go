package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/storage"
)

// VideoHandler implements video publishing, discovery, and mutation endpoints.
type VideoHandler struct {
	Videos  VideoStore
	Feeds   FeedStore
	Media   storage.MediaStore
	Prober  storage.DurationProber
	NowFunc func() time.Time
}

type updateVideoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Feed handles GET /api/v1/videos: the paginated published-video feed.
func (h VideoHandler) Feed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page := pageRequestFromQuery(r, "createdAt")
	result, err := h.Feeds.VideoFeed(ctx, page)
	if err != nil {
		respondStoreError(ctx, w, err, "videos not found", "failed to fetch videos")
		return
	}

	respondData(ctx, w, http.StatusOK, result, "videos fetched successfully")
}

// Search handles GET /api/v1/videos/search?title=...
func (h VideoHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if title == "" {
		respondError(ctx, w, http.StatusBadRequest, "title query is required")
		return
	}

	videos, err := h.Videos.SearchByTitle(ctx, title)
	if err != nil {
		respondStoreError(ctx, w, err, "videos not found", "failed to search videos")
		return
	}

	if videos == nil {
		videos = []models.Video{}
	}
	respondData(ctx, w, http.StatusOK, videos, "videos fetched successfully")
}

// ListMine handles GET /api/v1/videos/mine.
func (h VideoHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	videos, err := h.Videos.ListByOwner(ctx, currentUserID(r))
	if err != nil {
		respondStoreError(ctx, w, err, "videos not found", "failed to fetch videos")
		return
	}

	if videos == nil {
		videos = []models.Video{}
	}
	respondData(ctx, w, http.StatusOK, videos, "videos fetched successfully")
}

// Publish handles POST /api/v1/videos: a multipart upload carrying the
// videoFile and thumbnail parts plus title and description fields.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" || description == "" {
		respondError(ctx, w, http.StatusBadRequest, "title and description are required")
		return
	}

	videoFile, videoHeader, err := formFile(r, "videoFile")
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	if videoFile == nil {
		respondError(ctx, w, http.StatusBadRequest, "videoFile is required")
		return
	}
	defer videoFile.Close()

	thumbFile, thumbHeader, err := formFile(r, "thumbnail")
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	if thumbFile == nil {
		respondError(ctx, w, http.StatusBadRequest, "thumbnail is required")
		return
	}
	defer thumbFile.Close()

	// The video part is spooled locally so its duration can be probed
	// before the bytes are shipped to the object store.
	localPath, cleanup, err := spoolToTemp(videoFile, "vidtube-upload-*"+videoHeader.Filename)
	if err != nil {
		logger.Error("spool video upload", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to process video upload")
		return
	}
	defer cleanup()

	duration, err := h.Prober.Probe(ctx, localPath)
	if err != nil {
		logger.Warn("probe video duration", "error", err)
		duration = 0
	}

	local, err := os.Open(localPath)
	if err != nil {
		logger.Error("reopen spooled video", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to process video upload")
		return
	}
	defer local.Close()

	videoURL, err := h.Media.Store(ctx, assetKey("videos", videoHeader.Filename), local)
	if err != nil {
		logger.Error("store video", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to upload video")
		return
	}

	thumbnailURL, err := h.Media.Store(ctx, assetKey("thumbnails", thumbHeader.Filename), thumbFile)
	if err != nil {
		logger.Error("store thumbnail", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to upload thumbnail")
		return
	}

	now := h.now()
	video := models.Video{
		ID:           uuid.NewString(),
		VideoURL:     videoURL,
		ThumbnailURL: thumbnailURL,
		Title:        title,
		Description:  description,
		Duration:     duration,
		OwnerID:      currentUserID(r),
		IsPublished:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		respondStoreError(ctx, w, err, "owner not found", "failed to publish video")
		return
	}

	respondData(ctx, w, http.StatusCreated, video, "video published successfully")
}

// GetByID handles GET /api/v1/videos/{videoId}.
func (h VideoHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	video, err := h.Videos.FindByID(ctx, r.PathValue("videoId"))
	if err != nil {
		respondStoreError(ctx, w, err, "video not found", "failed to fetch video")
		return
	}

	respondData(ctx, w, http.StatusOK, video, "video fetched successfully")
}

// Update handles PATCH /api/v1/videos/{videoId}, owner only.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if req.Title == "" || req.Description == "" {
		respondError(ctx, w, http.StatusBadRequest, "title and description are required")
		return
	}

	videoID := r.PathValue("videoId")
	if !h.requireOwner(w, r, videoID) {
		return
	}

	video, err := h.Videos.UpdateDetails(ctx, videoID, req.Title, req.Description)
	if err != nil {
		respondStoreError(ctx, w, err, "video not found", "failed to update video")
		return
	}

	respondData(ctx, w, http.StatusOK, video, "video updated successfully")
}

// UpdateThumbnail handles PATCH /api/v1/videos/{videoId}/thumbnail, owner only.
func (h VideoHandler) UpdateThumbnail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	file, header, err := formFile(r, "thumbnail")
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	if file == nil {
		respondError(ctx, w, http.StatusBadRequest, "thumbnail file is required")
		return
	}
	defer file.Close()

	videoID := r.PathValue("videoId")
	previous, ok := h.ownedVideo(w, r, videoID)
	if !ok {
		return
	}

	url, err := h.Media.Store(ctx, assetKey("thumbnails", header.Filename), file)
	if err != nil {
		logger.Error("store thumbnail", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to upload thumbnail")
		return
	}

	video, err := h.Videos.UpdateThumbnail(ctx, videoID, url)
	if err != nil {
		respondStoreError(ctx, w, err, "video not found", "failed to update thumbnail")
		return
	}

	if assetID := storage.AssetIDFromURL(previous.ThumbnailURL); assetID != "" {
		if err := h.Media.Delete(ctx, assetID); err != nil {
			logger.Warn("delete replaced thumbnail", "assetId", assetID, "error", err)
		}
	}

	respondData(ctx, w, http.StatusOK, video, "thumbnail updated successfully")
}

// RecordView handles POST /api/v1/videos/{videoId}/views: a single atomic
// increment with no read-then-write window.
func (h VideoHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	views, err := h.Videos.IncrementViews(ctx, r.PathValue("videoId"))
	if err != nil {
		respondStoreError(ctx, w, err, "video not found", "failed to record view")
		return
	}

	respondData(ctx, w, http.StatusOK, map[string]int64{"views": views}, "view recorded")
}

// TogglePublish handles PATCH /api/v1/videos/{videoId}/toggle-publish, owner only.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	videoID := r.PathValue("videoId")
	if !h.requireOwner(w, r, videoID) {
		return
	}

	video, err := h.Videos.TogglePublish(ctx, videoID)
	if err != nil {
		respondStoreError(ctx, w, err, "video not found", "failed to toggle publish state")
		return
	}

	respondData(ctx, w, http.StatusOK, video, "publish state toggled")
}

// Delete handles DELETE /api/v1/videos/{videoId}, owner only. Stored media
// assets are removed best-effort after the row is gone.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	videoID := r.PathValue("videoId")
	video, ok := h.ownedVideo(w, r, videoID)
	if !ok {
		return
	}

	if err := h.Videos.Delete(ctx, videoID); err != nil {
		respondStoreError(ctx, w, err, "video not found", "failed to delete video")
		return
	}

	for _, url := range []string{video.VideoURL, video.ThumbnailURL} {
		if assetID := storage.AssetIDFromURL(url); assetID != "" {
			if err := h.Media.Delete(ctx, assetID); err != nil {
				logger.Warn("delete video asset", "assetId", assetID, "error", err)
			}
		}
	}

	respondData(ctx, w, http.StatusOK, struct{}{}, "video deleted successfully")
}

// Comments handles GET /api/v1/videos/{videoId}/comments.
func (h VideoHandler) Comments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page := pageRequestFromQuery(r, "createdAt")
	result, err := h.Feeds.VideoComments(ctx, r.PathValue("videoId"), page)
	if err != nil {
		respondStoreError(ctx, w, err, "video not found", "failed to fetch comments")
		return
	}

	respondData(ctx, w, http.StatusOK, result, "comments fetched successfully")
}

// ownedVideo loads the video and enforces that the authenticated actor owns
// it, writing the failure response itself when the check does not pass.
func (h VideoHandler) ownedVideo(w http.ResponseWriter, r *http.Request, videoID string) (models.Video, bool) {
	ctx := r.Context()

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		respondStoreError(ctx, w, err, "video not found", "failed to fetch video")
		return models.Video{}, false
	}

	if video.OwnerID != currentUserID(r) {
		respondError(ctx, w, http.StatusForbidden, "only the owner can modify this video")
		return models.Video{}, false
	}
	return video, true
}

func (h VideoHandler) requireOwner(w http.ResponseWriter, r *http.Request, videoID string) bool {
	_, ok := h.ownedVideo(w, r, videoID)
	return ok
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

// pageRequestFromQuery builds pagination parameters from the request query,
// leaving range clamping to Normalize.
func pageRequestFromQuery(r *http.Request, defaultSort string) repositories.PageRequest {
	query := r.URL.Query()

	page := repositories.PageRequest{
		SortBy:  strings.TrimSpace(query.Get("sortBy")),
		SortDir: strings.TrimSpace(query.Get("sortDir")),
	}
	if n, err := strconv.Atoi(query.Get("page")); err == nil {
		page.Page = n
	}
	if n, err := strconv.Atoi(query.Get("limit")); err == nil {
		page.Limit = n
	}
	return page.Normalize(defaultSort)
}
