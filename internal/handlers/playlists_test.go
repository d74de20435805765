package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vidtube/backend/internal/models"
)

func TestPlaylistHandlerCreate(t *testing.T) {
	store := newInMemoryPlaylistStore()
	handler := PlaylistHandler{Playlists: store}

	body := []byte(`{"name":"Favorites","description":"Keepers.","videoIds":["v-1","v-2"]}`)
	req := authedRequest(httptest.NewRequest(http.MethodPost, "/api/v1/playlists", bytes.NewReader(body)), "u-1")
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var resp struct {
		Data models.Playlist `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.OwnerID != "u-1" {
		t.Fatalf("expected owner from claims, got %q", resp.Data.OwnerID)
	}
	if len(resp.Data.VideoIDs) != 2 {
		t.Fatalf("expected seeded members, got %v", resp.Data.VideoIDs)
	}
}

func TestPlaylistHandlerAddVideoIdempotent(t *testing.T) {
	store := newInMemoryPlaylistStore()
	store.playlists["p-1"] = models.Playlist{ID: "p-1", OwnerID: "u-1", VideoIDs: []string{}}
	handler := PlaylistHandler{Playlists: store}

	add := func() models.Playlist {
		req := authedRequest(httptest.NewRequest(http.MethodPost, "/api/v1/playlists/p-1/videos/v-1", nil), "u-1")
		req.SetPathValue("playlistId", "p-1")
		req.SetPathValue("videoId", "v-1")
		rec := httptest.NewRecorder()

		handler.AddVideo(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
		}

		var resp struct {
			Data models.Playlist `json:"data"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		return resp.Data
	}

	first := add()
	second := add()

	if len(first.VideoIDs) != 1 || len(second.VideoIDs) != 1 {
		t.Fatalf("expected membership to stay a set: first %v second %v", first.VideoIDs, second.VideoIDs)
	}
}

func TestPlaylistHandlerRemoveAbsentVideoSucceeds(t *testing.T) {
	store := newInMemoryPlaylistStore()
	store.playlists["p-1"] = models.Playlist{ID: "p-1", OwnerID: "u-1", VideoIDs: []string{"v-1"}}
	handler := PlaylistHandler{Playlists: store}

	req := authedRequest(httptest.NewRequest(http.MethodDelete, "/api/v1/playlists/p-1/videos/v-absent", nil), "u-1")
	req.SetPathValue("playlistId", "p-1")
	req.SetPathValue("videoId", "v-absent")
	rec := httptest.NewRecorder()

	handler.RemoveVideo(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected removing an absent member to succeed, got %d", rec.Code)
	}
	if len(store.playlists["p-1"].VideoIDs) != 1 {
		t.Fatalf("expected existing members untouched, got %v", store.playlists["p-1"].VideoIDs)
	}
}

func TestPlaylistHandlerMutationsRequireOwner(t *testing.T) {
	store := newInMemoryPlaylistStore()
	store.playlists["p-1"] = models.Playlist{ID: "p-1", OwnerID: "u-1", Name: "Favorites"}
	handler := PlaylistHandler{Playlists: store}

	body := []byte(`{"name":"Hijacked","description":"nope"}`)
	req := authedRequest(httptest.NewRequest(http.MethodPatch, "/api/v1/playlists/p-1", bytes.NewReader(body)), "u-2")
	req.SetPathValue("playlistId", "p-1")
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d got %d", http.StatusForbidden, rec.Code)
	}
	if store.playlists["p-1"].Name != "Favorites" {
		t.Fatalf("expected playlist unchanged")
	}

	req = authedRequest(httptest.NewRequest(http.MethodDelete, "/api/v1/playlists/p-1", nil), "u-2")
	req.SetPathValue("playlistId", "p-1")
	rec = httptest.NewRecorder()

	handler.Delete(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d got %d", http.StatusForbidden, rec.Code)
	}
}

func TestPlaylistHandlerGetByID(t *testing.T) {
	store := newInMemoryPlaylistStore()
	store.playlists["p-1"] = models.Playlist{ID: "p-1", OwnerID: "u-1", Name: "Favorites", VideoIDs: []string{"v-1"}}
	handler := PlaylistHandler{Playlists: store}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/playlists/p-1", nil)
	req.SetPathValue("playlistId", "p-1")
	rec := httptest.NewRecorder()

	handler.GetByID(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var resp struct {
		Data models.Playlist `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Name != "Favorites" || len(resp.Data.VideoIDs) != 1 {
		t.Fatalf("unexpected payload: %+v", resp.Data)
	}
}
