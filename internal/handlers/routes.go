package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/middleware"
)

// RegisterRoutes wires HTTP handlers into the provided ServeMux. Route
// patterns are method-scoped, so handlers never check methods themselves.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	users := UserHandler{Users: deps.Users, Sessions: deps.Sessions, Feeds: deps.Feeds, Media: deps.Media, Limiter: deps.AuthLimiter}
	videos := VideoHandler{Videos: deps.Videos, Feeds: deps.Feeds, Media: deps.Media, Prober: deps.Prober}
	comments := CommentHandler{Comments: deps.Comments}
	tweets := TweetHandler{Tweets: deps.Tweets, Feeds: deps.Feeds}
	likes := LikeHandler{Likes: deps.Likes, Feeds: deps.Feeds}
	playlists := PlaylistHandler{Playlists: deps.Playlists}
	subscriptions := SubscriptionHandler{Subscriptions: deps.Subscriptions, Feeds: deps.Feeds}

	authed := middleware.RequireAuth(deps.Verifier)
	protect := func(h http.HandlerFunc) http.Handler { return authed(h) }

	mux.HandleFunc("GET /healthz", health.Handle)

	mux.HandleFunc("POST /api/v1/users/register", users.Register)
	mux.HandleFunc("POST /api/v1/users/login", users.Login)
	mux.HandleFunc("POST /api/v1/users/refresh", users.Refresh)
	mux.Handle("POST /api/v1/users/logout", protect(users.Logout))
	mux.Handle("GET /api/v1/users/me", protect(users.Me))
	mux.Handle("PATCH /api/v1/users/me", protect(users.Update))
	mux.Handle("POST /api/v1/users/change-password", protect(users.ChangePassword))
	mux.Handle("PATCH /api/v1/users/avatar", protect(users.UpdateAvatar))
	mux.Handle("PATCH /api/v1/users/cover-image", protect(users.UpdateCoverImage))
	mux.Handle("GET /api/v1/users/profile/{username}", protect(users.Profile))
	mux.Handle("GET /api/v1/users/watch-history", protect(users.WatchHistory))
	mux.Handle("POST /api/v1/users/watch-history", protect(users.AppendWatchHistory))
	mux.HandleFunc("GET /api/v1/users/{userId}", users.GetByID)

	mux.HandleFunc("GET /api/v1/videos", videos.Feed)
	mux.HandleFunc("GET /api/v1/videos/search", videos.Search)
	mux.Handle("GET /api/v1/videos/mine", protect(videos.ListMine))
	mux.Handle("POST /api/v1/videos", protect(videos.Publish))
	mux.HandleFunc("GET /api/v1/videos/{videoId}", videos.GetByID)
	mux.Handle("PATCH /api/v1/videos/{videoId}", protect(videos.Update))
	mux.Handle("DELETE /api/v1/videos/{videoId}", protect(videos.Delete))
	mux.Handle("PATCH /api/v1/videos/{videoId}/thumbnail", protect(videos.UpdateThumbnail))
	mux.HandleFunc("POST /api/v1/videos/{videoId}/views", videos.RecordView)
	mux.Handle("PATCH /api/v1/videos/{videoId}/toggle-publish", protect(videos.TogglePublish))
	mux.HandleFunc("GET /api/v1/videos/{videoId}/comments", videos.Comments)
	mux.Handle("POST /api/v1/videos/{videoId}/comments", protect(comments.Create))

	mux.Handle("PATCH /api/v1/comments/{commentId}", protect(comments.Update))
	mux.Handle("DELETE /api/v1/comments/{commentId}", protect(comments.Delete))

	mux.HandleFunc("GET /api/v1/tweets", tweets.Feed)
	mux.HandleFunc("GET /api/v1/tweets/user/{userId}", tweets.ListByUser)
	mux.Handle("POST /api/v1/tweets", protect(tweets.Create))
	mux.Handle("PATCH /api/v1/tweets/{tweetId}", protect(tweets.Update))
	mux.Handle("DELETE /api/v1/tweets/{tweetId}", protect(tweets.Delete))

	mux.Handle("POST /api/v1/likes/video/{videoId}", protect(likes.ToggleVideo))
	mux.Handle("POST /api/v1/likes/comment/{commentId}", protect(likes.ToggleComment))
	mux.Handle("POST /api/v1/likes/tweet/{tweetId}", protect(likes.ToggleTweet))
	mux.Handle("GET /api/v1/likes/videos", protect(likes.LikedVideos))

	mux.Handle("POST /api/v1/playlists", protect(playlists.Create))
	mux.HandleFunc("GET /api/v1/playlists/search", playlists.Search)
	mux.HandleFunc("GET /api/v1/playlists/user/{userId}", playlists.ListByUser)
	mux.HandleFunc("GET /api/v1/playlists/{playlistId}", playlists.GetByID)
	mux.Handle("PATCH /api/v1/playlists/{playlistId}", protect(playlists.Update))
	mux.Handle("DELETE /api/v1/playlists/{playlistId}", protect(playlists.Delete))
	mux.Handle("POST /api/v1/playlists/{playlistId}/videos/{videoId}", protect(playlists.AddVideo))
	mux.Handle("DELETE /api/v1/playlists/{playlistId}/videos/{videoId}", protect(playlists.RemoveVideo))

	mux.Handle("POST /api/v1/subscriptions/{channelId}", protect(subscriptions.Toggle))
	mux.Handle("GET /api/v1/subscriptions/channels", protect(subscriptions.Channels))
}
