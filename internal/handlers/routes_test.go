package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/models"
)

type stubVerifier struct {
	claims auth.AccessClaims
	err    error
}

func (v stubVerifier) Verify(token string) (auth.AccessClaims, error) {
	if v.err != nil {
		return auth.AccessClaims{}, v.err
	}
	return v.claims, nil
}

func testDependencies(verifier stubVerifier) Dependencies {
	return Dependencies{
		Users:         newInMemoryUserStore(),
		Sessions:      &stubSessionManager{},
		Videos:        newInMemoryVideoStore(),
		Comments:      newInMemoryCommentStore(),
		Tweets:        newInMemoryTweetStore(),
		Likes:         newInMemoryLikeStore(),
		Playlists:     newInMemoryPlaylistStore(),
		Subscriptions: newInMemorySubscriptionStore(),
		Feeds:         &stubFeedStore{},
		Media:         &fakeMediaStore{},
		Prober:        stubProber{},
		Verifier:      verifier,
	}
}

func TestRoutesRejectUnauthenticated(t *testing.T) {
	mux := http.NewServeMux()
	RegisterRoutes(mux, testDependencies(stubVerifier{err: errors.New("no token")}))

	protected := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/users/me"},
		{http.MethodPost, "/api/v1/users/logout"},
		{http.MethodPost, "/api/v1/tweets"},
		{http.MethodPost, "/api/v1/likes/video/v-1"},
		{http.MethodGet, "/api/v1/subscriptions/channels"},
		{http.MethodDelete, "/api/v1/videos/v-1"},
	}

	for _, tc := range protected {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()

		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected status %d got %d", tc.method, tc.path, http.StatusUnauthorized, rec.Code)
		}
	}
}

func TestRoutesMethodScoping(t *testing.T) {
	deps := testDependencies(stubVerifier{claims: auth.AccessClaims{UserID: "u-1"}})
	mux := http.NewServeMux()
	RegisterRoutes(mux, deps)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/users/register", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status %d got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}

func TestRoutesPathValuesReachHandlers(t *testing.T) {
	deps := testDependencies(stubVerifier{claims: auth.AccessClaims{UserID: "u-1"}})
	videos := deps.Videos.(*inMemoryVideoStore)
	videos.videos["v-1"] = models.Video{ID: "v-1", Views: 1}

	mux := http.NewServeMux()
	RegisterRoutes(mux, deps)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos/v-1/views", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if videos.videos["v-1"].Views != 2 {
		t.Fatalf("expected view recorded through the mux, got %d", videos.videos["v-1"].Views)
	}
}
