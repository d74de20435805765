package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/middleware"
)

// currentClaims returns the verified token claims for the request. Handlers
// behind RequireAuth can rely on ok being true.
func currentClaims(r *http.Request) (auth.AccessClaims, bool) {
	return middleware.ClaimsFromContext(r.Context())
}

// currentUserID returns the authenticated actor's identifier, or "" when
// the request carries no verified claims.
func currentUserID(r *http.Request) string {
	claims, ok := currentClaims(r)
	if !ok {
		return ""
	}
	return claims.UserID
}
