package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

func authedRequest(r *http.Request, userID string) *http.Request {
	claims := auth.AccessClaims{UserID: userID, Username: userID, Email: userID + "@example.com"}
	return r.WithContext(middleware.ContextWithClaims(r.Context(), claims))
}

type inMemoryUserStore struct {
	users   map[string]models.User
	history map[string][]string
}

func newInMemoryUserStore() *inMemoryUserStore {
	return &inMemoryUserStore{users: make(map[string]models.User), history: make(map[string][]string)}
}

func (s *inMemoryUserStore) Create(_ context.Context, user models.User) error {
	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *inMemoryUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *inMemoryUserStore) FindByUsername(_ context.Context, username string) (models.User, error) {
	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *inMemoryUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *inMemoryUserStore) UpdateProfile(_ context.Context, id, fullname, email string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	user.Fullname = fullname
	user.Email = email
	s.users[id] = user
	return user, nil
}

func (s *inMemoryUserStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	user, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.Password = passwordHash
	s.users[id] = user
	return nil
}

func (s *inMemoryUserStore) UpdateAvatar(_ context.Context, id, avatarURL string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	user.AvatarURL = avatarURL
	s.users[id] = user
	return user, nil
}

func (s *inMemoryUserStore) UpdateCoverImage(_ context.Context, id, coverImageURL string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	user.CoverImageURL = coverImageURL
	s.users[id] = user
	return user, nil
}

func (s *inMemoryUserStore) AppendWatchHistory(_ context.Context, userID, videoID string) error {
	if _, ok := s.users[userID]; !ok {
		return repositories.ErrNotFound
	}
	s.history[userID] = append(s.history[userID], videoID)
	return nil
}

type stubSessionManager struct {
	tokens     models.SessionTokens
	issueErr   error
	refreshErr error
	user       models.User
	revoked    []string
}

func (s *stubSessionManager) Issue(_ context.Context, user models.User) (models.SessionTokens, error) {
	if s.issueErr != nil {
		return models.SessionTokens{}, s.issueErr
	}
	return s.tokens, nil
}

func (s *stubSessionManager) Refresh(_ context.Context, refreshToken string) (models.User, models.SessionTokens, error) {
	if s.refreshErr != nil {
		return models.User{}, models.SessionTokens{}, s.refreshErr
	}
	return s.user, s.tokens, nil
}

func (s *stubSessionManager) Revoke(_ context.Context, userID string) error {
	s.revoked = append(s.revoked, userID)
	return nil
}

type inMemoryVideoStore struct {
	videos map[string]models.Video
}

func newInMemoryVideoStore() *inMemoryVideoStore {
	return &inMemoryVideoStore{videos: make(map[string]models.Video)}
}

func (s *inMemoryVideoStore) Create(_ context.Context, video models.Video) error {
	s.videos[video.ID] = video
	return nil
}

func (s *inMemoryVideoStore) FindByID(_ context.Context, id string) (models.Video, error) {
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func (s *inMemoryVideoStore) SearchByTitle(_ context.Context, title string) ([]models.Video, error) {
	var out []models.Video
	for _, video := range s.videos {
		if strings.Contains(strings.ToLower(video.Title), strings.ToLower(title)) {
			out = append(out, video)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *inMemoryVideoStore) ListByOwner(_ context.Context, ownerID string) ([]models.Video, error) {
	var out []models.Video
	for _, video := range s.videos {
		if video.OwnerID == ownerID {
			out = append(out, video)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *inMemoryVideoStore) UpdateDetails(_ context.Context, id, title, description string) (models.Video, error) {
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	video.Title = title
	video.Description = description
	s.videos[id] = video
	return video, nil
}

func (s *inMemoryVideoStore) UpdateThumbnail(_ context.Context, id, thumbnailURL string) (models.Video, error) {
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	video.ThumbnailURL = thumbnailURL
	s.videos[id] = video
	return video, nil
}

func (s *inMemoryVideoStore) IncrementViews(_ context.Context, id string) (int64, error) {
	video, ok := s.videos[id]
	if !ok {
		return 0, repositories.ErrNotFound
	}
	video.Views++
	s.videos[id] = video
	return video.Views, nil
}

func (s *inMemoryVideoStore) TogglePublish(_ context.Context, id string) (models.Video, error) {
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	video.IsPublished = !video.IsPublished
	s.videos[id] = video
	return video, nil
}

func (s *inMemoryVideoStore) Delete(_ context.Context, id string) error {
	if _, ok := s.videos[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.videos, id)
	return nil
}

type inMemoryCommentStore struct {
	comments map[string]models.Comment
}

func newInMemoryCommentStore() *inMemoryCommentStore {
	return &inMemoryCommentStore{comments: make(map[string]models.Comment)}
}

func (s *inMemoryCommentStore) Create(_ context.Context, comment models.Comment) error {
	s.comments[comment.ID] = comment
	return nil
}

func (s *inMemoryCommentStore) FindByID(_ context.Context, id string) (models.Comment, error) {
	comment, ok := s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	return comment, nil
}

func (s *inMemoryCommentStore) UpdateContent(_ context.Context, id, content string) (models.Comment, error) {
	comment, ok := s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	comment.Content = content
	s.comments[id] = comment
	return comment, nil
}

func (s *inMemoryCommentStore) Delete(_ context.Context, id string) error {
	if _, ok := s.comments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

type inMemoryTweetStore struct {
	tweets map[string]models.Tweet
}

func newInMemoryTweetStore() *inMemoryTweetStore {
	return &inMemoryTweetStore{tweets: make(map[string]models.Tweet)}
}

func (s *inMemoryTweetStore) Create(_ context.Context, tweet models.Tweet) error {
	s.tweets[tweet.ID] = tweet
	return nil
}

func (s *inMemoryTweetStore) FindByID(_ context.Context, id string) (models.Tweet, error) {
	tweet, ok := s.tweets[id]
	if !ok {
		return models.Tweet{}, repositories.ErrNotFound
	}
	return tweet, nil
}

func (s *inMemoryTweetStore) ListByOwner(_ context.Context, ownerID string) ([]models.Tweet, error) {
	var out []models.Tweet
	for _, tweet := range s.tweets {
		if tweet.OwnerID == ownerID {
			out = append(out, tweet)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *inMemoryTweetStore) UpdateContent(_ context.Context, id, content string) (models.Tweet, error) {
	tweet, ok := s.tweets[id]
	if !ok {
		return models.Tweet{}, repositories.ErrNotFound
	}
	tweet.Content = content
	s.tweets[id] = tweet
	return tweet, nil
}

func (s *inMemoryTweetStore) Delete(_ context.Context, id string) error {
	if _, ok := s.tweets[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.tweets, id)
	return nil
}

// inMemoryLikeStore mirrors the toggle contract: remove when present,
// insert when absent.
type inMemoryLikeStore struct {
	likes map[string]models.Like
	next  int
}

func newInMemoryLikeStore() *inMemoryLikeStore {
	return &inMemoryLikeStore{likes: make(map[string]models.Like)}
}

func (s *inMemoryLikeStore) Toggle(_ context.Context, likedBy, target, targetID string) (models.Like, bool, error) {
	key := likedBy + "/" + target + "/" + targetID
	if like, ok := s.likes[key]; ok {
		delete(s.likes, key)
		return like, false, nil
	}

	s.next++
	like := models.Like{ID: fmt.Sprintf("like-%d", s.next), LikedBy: likedBy}
	switch target {
	case models.LikeTargetVideo:
		like.VideoID = targetID
	case models.LikeTargetComment:
		like.CommentID = targetID
	case models.LikeTargetTweet:
		like.TweetID = targetID
	}
	s.likes[key] = like
	return like, true, nil
}

type inMemoryPlaylistStore struct {
	playlists map[string]models.Playlist
}

func newInMemoryPlaylistStore() *inMemoryPlaylistStore {
	return &inMemoryPlaylistStore{playlists: make(map[string]models.Playlist)}
}

func (s *inMemoryPlaylistStore) Create(_ context.Context, playlist models.Playlist) error {
	s.playlists[playlist.ID] = playlist
	return nil
}

func (s *inMemoryPlaylistStore) FindByID(_ context.Context, id string) (models.Playlist, error) {
	playlist, ok := s.playlists[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	return playlist, nil
}

func (s *inMemoryPlaylistStore) SearchByName(_ context.Context, name string) ([]models.Playlist, error) {
	var out []models.Playlist
	for _, playlist := range s.playlists {
		if strings.Contains(strings.ToLower(playlist.Name), strings.ToLower(name)) {
			out = append(out, playlist)
		}
	}
	return out, nil
}

func (s *inMemoryPlaylistStore) ListByOwner(_ context.Context, ownerID string) ([]models.Playlist, error) {
	var out []models.Playlist
	for _, playlist := range s.playlists {
		if playlist.OwnerID == ownerID {
			out = append(out, playlist)
		}
	}
	return out, nil
}

func (s *inMemoryPlaylistStore) UpdateDetails(_ context.Context, id, name, description string) (models.Playlist, error) {
	playlist, ok := s.playlists[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	playlist.Name = name
	playlist.Description = description
	s.playlists[id] = playlist
	return playlist, nil
}

func (s *inMemoryPlaylistStore) Delete(_ context.Context, id string) error {
	if _, ok := s.playlists[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.playlists, id)
	return nil
}

func (s *inMemoryPlaylistStore) AddVideo(_ context.Context, playlistID, videoID string) (models.Playlist, error) {
	playlist, ok := s.playlists[playlistID]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	for _, existing := range playlist.VideoIDs {
		if existing == videoID {
			return playlist, nil
		}
	}
	playlist.VideoIDs = append(playlist.VideoIDs, videoID)
	s.playlists[playlistID] = playlist
	return playlist, nil
}

func (s *inMemoryPlaylistStore) RemoveVideo(_ context.Context, playlistID, videoID string) (models.Playlist, error) {
	playlist, ok := s.playlists[playlistID]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	kept := playlist.VideoIDs[:0]
	for _, existing := range playlist.VideoIDs {
		if existing != videoID {
			kept = append(kept, existing)
		}
	}
	playlist.VideoIDs = kept
	s.playlists[playlistID] = playlist
	return playlist, nil
}

type inMemorySubscriptionStore struct {
	subs      map[string]models.Subscription
	next      int
	toggleErr error
}

func newInMemorySubscriptionStore() *inMemorySubscriptionStore {
	return &inMemorySubscriptionStore{subs: make(map[string]models.Subscription)}
}

func (s *inMemorySubscriptionStore) Toggle(_ context.Context, subscriberID, channelID string) (models.Subscription, bool, error) {
	if s.toggleErr != nil {
		return models.Subscription{}, false, s.toggleErr
	}

	key := subscriberID + "/" + channelID
	if sub, ok := s.subs[key]; ok {
		delete(s.subs, key)
		return sub, false, nil
	}

	s.next++
	sub := models.Subscription{ID: fmt.Sprintf("sub-%d", s.next), SubscriberID: subscriberID, ChannelID: channelID}
	s.subs[key] = sub
	return sub, true, nil
}

// stubFeedStore returns canned aggregation results.
type stubFeedStore struct {
	profile      models.ChannelProfile
	profileErr   error
	history      []models.WatchHistoryEntry
	historyErr   error
	likedVideos  []models.LikedVideo
	likedErr     error
	channels     []models.PublicUser
	channelsErr  error
	videoPage    repositories.VideoPage
	videoErr     error
	tweetPage    repositories.TweetPage
	tweetErr     error
	commentPage  repositories.CommentPage
	commentErr   error
	lastPage     repositories.PageRequest
	lastVideoID  string
	lastViewerID string
	lastUsername string
}

func (s *stubFeedStore) ChannelProfile(_ context.Context, username, viewerID string) (models.ChannelProfile, error) {
	s.lastUsername = username
	s.lastViewerID = viewerID
	if s.profileErr != nil {
		return models.ChannelProfile{}, s.profileErr
	}
	return s.profile, nil
}

func (s *stubFeedStore) WatchHistory(_ context.Context, userID string) ([]models.WatchHistoryEntry, error) {
	if s.historyErr != nil {
		return nil, s.historyErr
	}
	return s.history, nil
}

func (s *stubFeedStore) LikedVideos(_ context.Context, userID string) ([]models.LikedVideo, error) {
	if s.likedErr != nil {
		return nil, s.likedErr
	}
	return s.likedVideos, nil
}

func (s *stubFeedStore) SubscribedChannels(_ context.Context, subscriberID string) ([]models.PublicUser, error) {
	if s.channelsErr != nil {
		return nil, s.channelsErr
	}
	return s.channels, nil
}

func (s *stubFeedStore) VideoFeed(_ context.Context, page repositories.PageRequest) (repositories.VideoPage, error) {
	s.lastPage = page
	if s.videoErr != nil {
		return repositories.VideoPage{}, s.videoErr
	}
	return s.videoPage, nil
}

func (s *stubFeedStore) TweetFeed(_ context.Context, page repositories.PageRequest) (repositories.TweetPage, error) {
	s.lastPage = page
	if s.tweetErr != nil {
		return repositories.TweetPage{}, s.tweetErr
	}
	return s.tweetPage, nil
}

func (s *stubFeedStore) VideoComments(_ context.Context, videoID string, page repositories.PageRequest) (repositories.CommentPage, error) {
	s.lastVideoID = videoID
	s.lastPage = page
	if s.commentErr != nil {
		return repositories.CommentPage{}, s.commentErr
	}
	return s.commentPage, nil
}

// fakeMediaStore records stored and deleted assets.
type fakeMediaStore struct {
	stored   []string
	deleted  []string
	storeErr error
}

func (s *fakeMediaStore) Store(_ context.Context, name string, r io.Reader) (string, error) {
	if s.storeErr != nil {
		return "", s.storeErr
	}
	_, _ = io.Copy(io.Discard, r)
	s.stored = append(s.stored, name)
	return "https://media.test/" + name, nil
}

func (s *fakeMediaStore) Delete(_ context.Context, assetID string) error {
	s.deleted = append(s.deleted, assetID)
	return nil
}

type stubProber struct {
	duration float64
	err      error
}

func (p stubProber) Probe(_ context.Context, _ string) (float64, error) {
	if p.err != nil {
		return 0, p.err
	}
	return p.duration, nil
}
