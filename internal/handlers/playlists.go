package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/models"
)

// PlaylistHandler implements playlist and membership endpoints.
type PlaylistHandler struct {
	Playlists PlaylistStore
	NowFunc   func() time.Time
}

type createPlaylistRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	VideoIDs    []string `json:"videoIds"`
}

type updatePlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Create handles POST /api/v1/playlists.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createPlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" || req.Description == "" {
		respondError(ctx, w, http.StatusBadRequest, "name and description are required")
		return
	}

	now := h.now()
	playlist := models.Playlist{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     currentUserID(r),
		VideoIDs:    req.VideoIDs,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if playlist.VideoIDs == nil {
		playlist.VideoIDs = []string{}
	}

	if err := h.Playlists.Create(ctx, playlist); err != nil {
		respondStoreError(ctx, w, err, "video not found", "failed to create playlist")
		return
	}

	respondData(ctx, w, http.StatusCreated, playlist, "playlist created successfully")
}

// GetByID handles GET /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlist, err := h.Playlists.FindByID(ctx, r.PathValue("playlistId"))
	if err != nil {
		respondStoreError(ctx, w, err, "playlist not found", "failed to fetch playlist")
		return
	}

	respondData(ctx, w, http.StatusOK, playlist, "playlist fetched successfully")
}

// Search handles GET /api/v1/playlists/search?name=...
func (h PlaylistHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		respondError(ctx, w, http.StatusBadRequest, "name query is required")
		return
	}

	playlists, err := h.Playlists.SearchByName(ctx, name)
	if err != nil {
		respondStoreError(ctx, w, err, "playlists not found", "failed to search playlists")
		return
	}

	if playlists == nil {
		playlists = []models.Playlist{}
	}
	respondData(ctx, w, http.StatusOK, playlists, "playlists fetched successfully")
}

// ListByUser handles GET /api/v1/playlists/user/{userId}.
func (h PlaylistHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlists, err := h.Playlists.ListByOwner(ctx, r.PathValue("userId"))
	if err != nil {
		respondStoreError(ctx, w, err, "playlists not found", "failed to fetch playlists")
		return
	}

	if playlists == nil {
		playlists = []models.Playlist{}
	}
	respondData(ctx, w, http.StatusOK, playlists, "playlists fetched successfully")
}

// Update handles PATCH /api/v1/playlists/{playlistId}, owner only.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updatePlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" || req.Description == "" {
		respondError(ctx, w, http.StatusBadRequest, "name and description are required")
		return
	}

	playlistID := r.PathValue("playlistId")
	if !h.requireOwner(w, r, playlistID) {
		return
	}

	playlist, err := h.Playlists.UpdateDetails(ctx, playlistID, req.Name, req.Description)
	if err != nil {
		respondStoreError(ctx, w, err, "playlist not found", "failed to update playlist")
		return
	}

	respondData(ctx, w, http.StatusOK, playlist, "playlist updated successfully")
}

// Delete handles DELETE /api/v1/playlists/{playlistId}, owner only.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlistID := r.PathValue("playlistId")
	if !h.requireOwner(w, r, playlistID) {
		return
	}

	if err := h.Playlists.Delete(ctx, playlistID); err != nil {
		respondStoreError(ctx, w, err, "playlist not found", "failed to delete playlist")
		return
	}

	respondData(ctx, w, http.StatusOK, struct{}{}, "playlist deleted successfully")
}

// AddVideo handles POST /api/v1/playlists/{playlistId}/videos/{videoId}.
// Adding a member twice leaves the playlist unchanged.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlistID := r.PathValue("playlistId")
	if !h.requireOwner(w, r, playlistID) {
		return
	}

	playlist, err := h.Playlists.AddVideo(ctx, playlistID, r.PathValue("videoId"))
	if err != nil {
		respondStoreError(ctx, w, err, "playlist or video not found", "failed to add video to playlist")
		return
	}

	respondData(ctx, w, http.StatusOK, playlist, "video added to playlist")
}

// RemoveVideo handles DELETE /api/v1/playlists/{playlistId}/videos/{videoId}.
// Removing an absent member succeeds.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlistID := r.PathValue("playlistId")
	if !h.requireOwner(w, r, playlistID) {
		return
	}

	playlist, err := h.Playlists.RemoveVideo(ctx, playlistID, r.PathValue("videoId"))
	if err != nil {
		respondStoreError(ctx, w, err, "playlist not found", "failed to remove video from playlist")
		return
	}

	respondData(ctx, w, http.StatusOK, playlist, "video removed from playlist")
}

func (h PlaylistHandler) requireOwner(w http.ResponseWriter, r *http.Request, playlistID string) bool {
	ctx := r.Context()

	playlist, err := h.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		respondStoreError(ctx, w, err, "playlist not found", "failed to fetch playlist")
		return false
	}

	if playlist.OwnerID != currentUserID(r) {
		respondError(ctx, w, http.StatusForbidden, "only the owner can modify this playlist")
		return false
	}
	return true
}

func (h PlaylistHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
