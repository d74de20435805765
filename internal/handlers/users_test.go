package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vidtube/backend/internal/models"
)

func TestUserHandlerRegister(t *testing.T) {
	store := newInMemoryUserStore()
	now := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	handler := UserHandler{Users: store, NowFunc: func() time.Time { return now }}

	body := []byte(`{"username":"Alice","fullname":"Alice Carter","email":"Alice@Example.com","password":"supersecret"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Register(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var resp struct {
		Data    models.PublicUser `json:"data"`
		Success bool              `json:"success"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if !resp.Success {
		t.Fatalf("expected success envelope")
	}
	if resp.Data.Username != "alice" || resp.Data.Email != "alice@example.com" {
		t.Fatalf("expected lower-cased identity, got %+v", resp.Data)
	}

	stored, err := store.FindByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("expected stored user: %v", err)
	}
	if stored.Password == "supersecret" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("supersecret")); err != nil {
		t.Fatalf("expected bcrypt hash of password: %v", err)
	}
	if !stored.CreatedAt.Equal(now) {
		t.Fatalf("expected createdAt to use NowFunc")
	}
}

func TestUserHandlerRegisterFailures(t *testing.T) {
	populated := newInMemoryUserStore()
	populated.users["u-1"] = models.User{ID: "u-1", Username: "alice", Email: "alice@example.com"}

	cases := []struct {
		name       string
		store      UserStore
		body       string
		wantStatus int
	}{
		{"badJSON", newInMemoryUserStore(), "{", http.StatusBadRequest},
		{"missingFields", newInMemoryUserStore(), `{"username":"a"}`, http.StatusBadRequest},
		{"badEmail", newInMemoryUserStore(), `{"username":"a","fullname":"A","email":"not-an-email","password":"supersecret"}`, http.StatusBadRequest},
		{"shortPassword", newInMemoryUserStore(), `{"username":"a","fullname":"A","email":"a@example.com","password":"short"}`, http.StatusBadRequest},
		{"duplicate", populated, `{"username":"alice","fullname":"A","email":"alice@example.com","password":"supersecret"}`, http.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := UserHandler{Users: tc.store}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", bytes.NewReader([]byte(tc.body)))
			rec := httptest.NewRecorder()

			handler.Register(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected status %d got %d", tc.wantStatus, rec.Code)
			}
		})
	}
}

func TestUserHandlerLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("supersecret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	store := newInMemoryUserStore()
	store.users["u-1"] = models.User{ID: "u-1", Username: "alice", Email: "alice@example.com", Password: string(hash)}

	sessions := &stubSessionManager{tokens: models.SessionTokens{AccessToken: "access", RefreshToken: "refresh"}}
	handler := UserHandler{Users: store, Sessions: sessions}

	body := []byte(`{"username":"alice","password":"supersecret"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var resp struct {
		Data sessionResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Tokens.AccessToken != "access" {
		t.Fatalf("expected issued tokens in payload, got %+v", resp.Data)
	}
	if resp.Data.UserData.Username != "alice" {
		t.Fatalf("expected public user in payload, got %+v", resp.Data.UserData)
	}

	cookies := rec.Result().Cookies()
	var names []string
	for _, cookie := range cookies {
		names = append(names, cookie.Name)
		if !cookie.HttpOnly {
			t.Fatalf("expected %s cookie to be HttpOnly", cookie.Name)
		}
	}
	if len(names) != 2 {
		t.Fatalf("expected accessToken and refreshToken cookies, got %v", names)
	}
}

func TestUserHandlerLoginRejectsBadCredentials(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("supersecret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	store := newInMemoryUserStore()
	store.users["u-1"] = models.User{ID: "u-1", Username: "alice", Password: string(hash)}
	handler := UserHandler{Users: store, Sessions: &stubSessionManager{}}

	cases := []struct {
		name string
		body string
	}{
		{"wrongPassword", `{"username":"alice","password":"wrong"}`},
		{"unknownUser", `{"username":"nobody","password":"supersecret"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", bytes.NewReader([]byte(tc.body)))
			rec := httptest.NewRecorder()

			handler.Login(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
			}
		})
	}
}

func TestUserHandlerRefreshReadsCookie(t *testing.T) {
	sessions := &stubSessionManager{
		user:   models.User{ID: "u-1", Username: "alice"},
		tokens: models.SessionTokens{AccessToken: "rotated-access", RefreshToken: "rotated-refresh"},
	}
	handler := UserHandler{Sessions: sessions}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: "old-refresh"})
	rec := httptest.NewRecorder()

	handler.Refresh(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var resp struct {
		Data sessionResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Tokens.RefreshToken != "rotated-refresh" {
		t.Fatalf("expected rotated tokens, got %+v", resp.Data.Tokens)
	}
}

func TestUserHandlerRefreshRequiresToken(t *testing.T) {
	handler := UserHandler{Sessions: &stubSessionManager{}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()

	handler.Refresh(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestUserHandlerLogout(t *testing.T) {
	sessions := &stubSessionManager{}
	handler := UserHandler{Sessions: sessions}

	req := authedRequest(httptest.NewRequest(http.MethodPost, "/api/v1/users/logout", nil), "u-1")
	rec := httptest.NewRecorder()

	handler.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "u-1" {
		t.Fatalf("expected session revocation for u-1, got %v", sessions.revoked)
	}

	for _, cookie := range rec.Result().Cookies() {
		if cookie.MaxAge != -1 {
			t.Fatalf("expected %s cookie to be cleared", cookie.Name)
		}
	}
}

func TestUserHandlerChangePassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("oldpassword"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	store := newInMemoryUserStore()
	store.users["u-1"] = models.User{ID: "u-1", Username: "alice", Password: string(hash)}
	handler := UserHandler{Users: store}

	body := []byte(`{"oldPassword":"oldpassword","newPassword":"brandnewpass"}`)
	req := authedRequest(httptest.NewRequest(http.MethodPost, "/api/v1/users/change-password", bytes.NewReader(body)), "u-1")
	rec := httptest.NewRecorder()

	handler.ChangePassword(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	updated := store.users["u-1"]
	if err := bcrypt.CompareHashAndPassword([]byte(updated.Password), []byte("brandnewpass")); err != nil {
		t.Fatalf("expected stored hash to match new password: %v", err)
	}
}

func TestUserHandlerChangePasswordRejectsWrongOld(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("oldpassword"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	store := newInMemoryUserStore()
	store.users["u-1"] = models.User{ID: "u-1", Password: string(hash)}
	handler := UserHandler{Users: store}

	body := []byte(`{"oldPassword":"wrong","newPassword":"brandnewpass"}`)
	req := authedRequest(httptest.NewRequest(http.MethodPost, "/api/v1/users/change-password", bytes.NewReader(body)), "u-1")
	rec := httptest.NewRecorder()

	handler.ChangePassword(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestUserHandlerUpdateScopedToActor(t *testing.T) {
	store := newInMemoryUserStore()
	store.users["u-1"] = models.User{ID: "u-1", Username: "alice", Fullname: "Alice"}
	store.users["u-2"] = models.User{ID: "u-2", Username: "bob", Fullname: "Bob"}
	handler := UserHandler{Users: store}

	body := []byte(`{"fullname":"Alice Updated","email":"alice2@example.com"}`)
	req := authedRequest(httptest.NewRequest(http.MethodPatch, "/api/v1/users/me", bytes.NewReader(body)), "u-1")
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if store.users["u-1"].Fullname != "Alice Updated" {
		t.Fatalf("expected actor's record to change")
	}
	if store.users["u-2"].Fullname != "Bob" {
		t.Fatalf("expected other records untouched")
	}
}

func TestUserHandlerUpdateAvatarReplacesAsset(t *testing.T) {
	store := newInMemoryUserStore()
	store.users["u-1"] = models.User{ID: "u-1", Username: "alice", AvatarURL: "https://media.test/avatars/old-asset.png"}
	media := &fakeMediaStore{}
	handler := UserHandler{Users: store, Media: media}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("avatar", "new.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("png-bytes")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := authedRequest(httptest.NewRequest(http.MethodPatch, "/api/v1/users/avatar", &buf), "u-1")
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()

	handler.UpdateAvatar(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if len(media.stored) != 1 {
		t.Fatalf("expected one stored asset, got %v", media.stored)
	}
	if len(media.deleted) != 1 || media.deleted[0] != "avatars/old-asset.png" {
		t.Fatalf("expected old asset removed under its uploaded key, got %v", media.deleted)
	}
	if store.users["u-1"].AvatarURL == "https://media.test/avatars/old-asset.png" {
		t.Fatalf("expected avatar URL to change")
	}
}

// A replaced asset must be deleted under the exact key its own upload went
// in under, derived back from the stored public URL.
func TestUserHandlerAvatarDeleteTargetsUploadedKey(t *testing.T) {
	store := newInMemoryUserStore()
	store.users["u-1"] = models.User{ID: "u-1", Username: "alice"}
	media := &fakeMediaStore{}
	handler := UserHandler{Users: store, Media: media}

	upload := func() {
		t.Helper()
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		part, err := writer.CreateFormFile("avatar", "pic.png")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write([]byte("png-bytes")); err != nil {
			t.Fatalf("write form file: %v", err)
		}
		if err := writer.Close(); err != nil {
			t.Fatalf("close multipart writer: %v", err)
		}

		req := authedRequest(httptest.NewRequest(http.MethodPatch, "/api/v1/users/avatar", &buf), "u-1")
		req.Header.Set("Content-Type", writer.FormDataContentType())
		rec := httptest.NewRecorder()

		handler.UpdateAvatar(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
		}
	}

	upload()
	if len(media.deleted) != 0 {
		t.Fatalf("expected no delete on first upload, got %v", media.deleted)
	}

	upload()
	if len(media.stored) != 2 || len(media.deleted) != 1 {
		t.Fatalf("expected second upload to delete one asset, got stored=%v deleted=%v", media.stored, media.deleted)
	}
	if media.deleted[0] != media.stored[0] {
		t.Fatalf("delete targeted key %q but the replaced asset was uploaded as %q", media.deleted[0], media.stored[0])
	}
}

func TestUserHandlerProfilePassesViewer(t *testing.T) {
	feeds := &stubFeedStore{profile: models.ChannelProfile{
		PublicUser:      models.PublicUser{ID: "u-2", Username: "bob"},
		SubscriberCount: 3,
	}}
	handler := UserHandler{Feeds: feeds}

	req := authedRequest(httptest.NewRequest(http.MethodGet, "/api/v1/users/profile/bob", nil), "u-1")
	req.SetPathValue("username", "bob")
	rec := httptest.NewRecorder()

	handler.Profile(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if feeds.lastUsername != "bob" || feeds.lastViewerID != "u-1" {
		t.Fatalf("expected profile lookup for bob as viewed by u-1, got %q/%q", feeds.lastUsername, feeds.lastViewerID)
	}

	var resp struct {
		Data models.ChannelProfile `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.SubscriberCount != 3 {
		t.Fatalf("expected aggregated counts in payload, got %+v", resp.Data)
	}
}

func TestUserHandlerAppendWatchHistory(t *testing.T) {
	store := newInMemoryUserStore()
	store.users["u-1"] = models.User{ID: "u-1"}
	handler := UserHandler{Users: store}

	body := []byte(`{"videoId":"v-1"}`)
	req := authedRequest(httptest.NewRequest(http.MethodPost, "/api/v1/users/watch-history", bytes.NewReader(body)), "u-1")
	rec := httptest.NewRecorder()

	handler.AppendWatchHistory(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if len(store.history["u-1"]) != 1 || store.history["u-1"][0] != "v-1" {
		t.Fatalf("expected history entry, got %v", store.history["u-1"])
	}
}
