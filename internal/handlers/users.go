package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/storage"
)

// UserHandler implements account, session, and profile endpoints.
type UserHandler struct {
	Users    UserStore
	Sessions SessionManager
	Feeds    FeedStore
	Media    storage.MediaStore
	Limiter  RateLimiter
	NowFunc  func() time.Time
}

type registerRequest struct {
	Username string `json:"username"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateUserRequest struct {
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
}

type watchHistoryRequest struct {
	VideoID string `json:"videoId"`
}

type sessionResponse struct {
	UserData models.PublicUser    `json:"userData"`
	Tokens   models.SessionTokens `json:"tokens"`
}

// Register handles POST /api/v1/users/register.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "register") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many requests")
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Username = strings.TrimSpace(strings.ToLower(req.Username))
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Fullname = strings.TrimSpace(req.Fullname)

	if req.Username == "" || req.Fullname == "" || req.Email == "" || req.Password == "" {
		respondError(ctx, w, http.StatusBadRequest, "username, fullname, email, and password are required")
		return
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid email address")
		return
	}

	if len(req.Password) < 8 {
		respondError(ctx, w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("hash password", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	now := h.now()
	user := models.User{
		ID:        uuid.NewString(),
		Username:  req.Username,
		Fullname:  req.Fullname,
		Email:     req.Email,
		Password:  string(hashed),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusConflict, "username or email is already registered")
			return
		}
		logger.Error("create user", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create account")
		return
	}

	respondData(ctx, w, http.StatusCreated, user.Public(), "user registered successfully")
}

// Login handles POST /api/v1/users/login.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "login") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many requests")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Username = strings.TrimSpace(strings.ToLower(req.Username))
	if req.Username == "" || req.Password == "" {
		respondError(ctx, w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := h.Users.FindByUsername(ctx, req.Username)
	if err != nil {
		logger.Warn("login user lookup failed", "username", req.Username, "error", err)
		respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		logger.Warn("login password mismatch", "userId", user.ID)
		respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	tokens, err := h.Sessions.Issue(ctx, user)
	if err != nil {
		logger.Error("issue session", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	setSessionCookies(w, tokens)
	respondData(ctx, w, http.StatusOK, sessionResponse{UserData: user.Public(), Tokens: tokens}, "user logged in successfully")
}

// Logout handles POST /api/v1/users/logout.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.Sessions.Revoke(ctx, currentUserID(r)); err != nil {
		respondStoreError(ctx, w, err, "user not found", "failed to log out")
		return
	}

	clearSessionCookies(w)
	respondData(ctx, w, http.StatusOK, struct{}{}, "user logged out successfully")
}

// Refresh handles POST /api/v1/users/refresh. The refresh token is read
// from the refreshToken cookie or the request body.
func (h UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := ""
	if cookie, err := r.Cookie("refreshToken"); err == nil {
		token = cookie.Value
	}
	if token == "" {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			token = strings.TrimSpace(req.RefreshToken)
		}
	}

	if token == "" {
		respondError(ctx, w, http.StatusBadRequest, "refresh token is required")
		return
	}

	user, tokens, err := h.Sessions.Refresh(ctx, token)
	if err != nil {
		respondStoreError(ctx, w, err, "user not found", "unable to refresh session")
		return
	}

	setSessionCookies(w, tokens)
	respondData(ctx, w, http.StatusOK, sessionResponse{UserData: user.Public(), Tokens: tokens}, "session refreshed")
}

// Me handles GET /api/v1/users/me.
func (h UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := h.Users.FindByID(ctx, currentUserID(r))
	if err != nil {
		respondStoreError(ctx, w, err, "user not found", "failed to fetch user")
		return
	}

	respondData(ctx, w, http.StatusOK, user.Public(), "user fetched successfully")
}

// GetByID handles GET /api/v1/users/{userId}.
func (h UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := strings.TrimSpace(r.PathValue("userId"))
	if userID == "" {
		respondError(ctx, w, http.StatusBadRequest, "user id is required")
		return
	}

	user, err := h.Users.FindByID(ctx, userID)
	if err != nil {
		respondStoreError(ctx, w, err, "user not found", "failed to fetch user")
		return
	}

	respondData(ctx, w, http.StatusOK, user.Public(), "user fetched")
}

// Update handles PATCH /api/v1/users/me. The mutation is scoped to the
// authenticated actor; ids in the request body are ignored.
func (h UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Fullname = strings.TrimSpace(req.Fullname)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Fullname == "" || req.Email == "" {
		respondError(ctx, w, http.StatusBadRequest, "fullname and email are required")
		return
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid email address")
		return
	}

	user, err := h.Users.UpdateProfile(ctx, currentUserID(r), req.Fullname, req.Email)
	if err != nil {
		respondStoreError(ctx, w, err, "user not found", "failed to update user")
		return
	}

	respondData(ctx, w, http.StatusOK, user.Public(), "user details updated")
}

// ChangePassword handles POST /api/v1/users/change-password, scoped to the
// authenticated actor.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.OldPassword == "" || req.NewPassword == "" {
		respondError(ctx, w, http.StatusBadRequest, "old and new passwords are required")
		return
	}

	if len(req.NewPassword) < 8 {
		respondError(ctx, w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	user, err := h.Users.FindByID(ctx, currentUserID(r))
	if err != nil {
		respondStoreError(ctx, w, err, "user not found", "failed to fetch user")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "old password is invalid")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("hash password", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	if err := h.Users.UpdatePassword(ctx, user.ID, string(hashed)); err != nil {
		respondStoreError(ctx, w, err, "user not found", "failed to change password")
		return
	}

	respondData(ctx, w, http.StatusOK, struct{}{}, "password changed successfully")
}

// UpdateAvatar handles PATCH /api/v1/users/avatar with a multipart body.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", h.Users.UpdateAvatar,
		func(user models.User) string { return user.AvatarURL })
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image with a multipart body.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", h.Users.UpdateCoverImage,
		func(user models.User) string { return user.CoverImageURL })
}

func (h UserHandler) updateImage(w http.ResponseWriter, r *http.Request, field string,
	update func(ctx context.Context, userID, url string) (models.User, error),
	previousURL func(models.User) string) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	file, header, err := formFile(r, field)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	if file == nil {
		respondError(ctx, w, http.StatusBadRequest, field+" file is required")
		return
	}
	defer file.Close()

	userID := currentUserID(r)

	previous, err := h.Users.FindByID(ctx, userID)
	if err != nil {
		respondStoreError(ctx, w, err, "user not found", "failed to fetch user")
		return
	}

	url, err := h.Media.Store(ctx, assetKey(field+"s", header.Filename), file)
	if err != nil {
		logger.Error("store image", "field", field, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to upload "+field)
		return
	}

	user, err := update(ctx, userID, url)
	if err != nil {
		respondStoreError(ctx, w, err, "user not found", "failed to update "+field)
		return
	}

	// Best-effort removal of the replaced asset; a leaked object is not
	// worth failing the request over.
	if prev := previousURL(previous); prev != "" {
		if assetID := storage.AssetIDFromURL(prev); assetID != "" {
			if err := h.Media.Delete(ctx, assetID); err != nil {
				logger.Warn("delete replaced image", "field", field, "assetId", assetID, "error", err)
			}
		}
	}

	respondData(ctx, w, http.StatusOK, user.Public(), field+" updated")
}

// Profile handles GET /api/v1/users/profile/{username}: the channel
// profile aggregation.
func (h UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	username := strings.TrimSpace(r.PathValue("username"))
	if username == "" {
		respondError(ctx, w, http.StatusBadRequest, "username is required")
		return
	}

	profile, err := h.Feeds.ChannelProfile(ctx, username, currentUserID(r))
	if err != nil {
		respondStoreError(ctx, w, err, "channel profile not found", "failed to fetch channel profile")
		return
	}

	respondData(ctx, w, http.StatusOK, profile, "channel profile fetched successfully")
}

// WatchHistory handles GET /api/v1/users/watch-history.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	history, err := h.Feeds.WatchHistory(ctx, currentUserID(r))
	if err != nil {
		respondStoreError(ctx, w, err, "watch history not found", "failed to fetch watch history")
		return
	}

	if history == nil {
		history = []models.WatchHistoryEntry{}
	}

	respondData(ctx, w, http.StatusOK, history, "watch history fetched successfully")
}

// AppendWatchHistory handles POST /api/v1/users/watch-history.
func (h UserHandler) AppendWatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req watchHistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.VideoID) == "" {
		respondError(ctx, w, http.StatusBadRequest, "video id is required")
		return
	}

	if err := h.Users.AppendWatchHistory(ctx, currentUserID(r), req.VideoID); err != nil {
		respondStoreError(ctx, w, err, "video not found", "failed to record watch history")
		return
	}

	respondData(ctx, w, http.StatusOK, struct{}{}, "watch history recorded")
}

func (h UserHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

func setSessionCookies(w http.ResponseWriter, tokens models.SessionTokens) {
	http.SetCookie(w, &http.Cookie{
		Name:     "accessToken",
		Value:    tokens.AccessToken,
		Path:     "/",
		Expires:  tokens.AccessExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "refreshToken",
		Value:    tokens.RefreshToken,
		Path:     "/",
		Expires:  tokens.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{"accessToken", "refreshToken"} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteStrictMode,
		})
	}
}
