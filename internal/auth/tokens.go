package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vidtube/backend/internal/models"
)

var (
	// ErrInvalidToken indicates the token failed signature or claim checks.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired indicates the token's expiry has passed.
	ErrTokenExpired = errors.New("token expired")
)

// AccessClaims is the claim set carried by access tokens.
type AccessClaims struct {
	UserID   string `json:"uid"`
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

type refreshClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// UserSource provides the user lookups and refresh-token persistence the
// manager needs. Only the latest issued refresh token is valid; it lives on
// the user row.
type UserSource interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	SetRefreshToken(ctx context.Context, id, refreshToken string) error
}

// Manager issues and verifies signed bearer tokens. Access and refresh
// tokens are signed with distinct secrets so one cannot stand in for the
// other.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	users UserSource

	// NowFunc overrides the time source in tests.
	NowFunc func() time.Time
}

// NewManager constructs a Manager with the provided secrets and TTLs.
func NewManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, users UserSource) *Manager {
	if users == nil {
		panic("auth: user source must not be nil")
	}
	return &Manager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		users:         users,
	}
}

// Issue creates a new access/refresh token pair for the user and records
// the refresh token as the user's latest.
func (m *Manager) Issue(ctx context.Context, user models.User) (models.SessionTokens, error) {
	if user.ID == "" {
		return models.SessionTokens{}, errors.New("user id must be provided")
	}

	now := m.now()
	accessExpiry := now.Add(m.accessTTL)
	refreshExpiry := now.Add(m.refreshTTL)

	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExpiry),
		},
	}).SignedString(m.accessSecret)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExpiry),
		},
	}).SignedString(m.refreshSecret)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("sign refresh token: %w", err)
	}

	if err := m.users.SetRefreshToken(ctx, user.ID, refresh); err != nil {
		return models.SessionTokens{}, fmt.Errorf("store refresh token: %w", err)
	}

	return models.SessionTokens{
		AccessToken:      access,
		AccessExpiresAt:  accessExpiry,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExpiry,
	}, nil
}

// Refresh exchanges a refresh token for a new session token pair, rotating
// the stored refresh token. Only the latest issued refresh token is
// accepted.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (models.User, models.SessionTokens, error) {
	if refreshToken == "" {
		return models.User{}, models.SessionTokens{}, ErrInvalidToken
	}

	var claims refreshClaims
	if err := m.parse(refreshToken, m.refreshSecret, &claims); err != nil {
		return models.User{}, models.SessionTokens{}, err
	}

	user, err := m.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return models.User{}, models.SessionTokens{}, fmt.Errorf("load user for refresh: %w", err)
	}

	if user.RefreshToken != refreshToken {
		return models.User{}, models.SessionTokens{}, ErrInvalidToken
	}

	tokens, err := m.Issue(ctx, user)
	if err != nil {
		return models.User{}, models.SessionTokens{}, err
	}

	return user, tokens, nil
}

// Verify checks an access token's signature and expiry and returns its
// claims.
func (m *Manager) Verify(accessToken string) (AccessClaims, error) {
	var claims AccessClaims
	if err := m.parse(accessToken, m.accessSecret, &claims); err != nil {
		return AccessClaims{}, err
	}
	return claims, nil
}

// Revoke clears the user's stored refresh token so no outstanding refresh
// token can be exchanged.
func (m *Manager) Revoke(ctx context.Context, userID string) error {
	return m.users.SetRefreshToken(ctx, userID, "")
}

func (m *Manager) parse(token string, secret []byte, claims jwt.Claims) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrInvalidToken
	}

	if !parsed.Valid {
		return ErrInvalidToken
	}

	return nil
}

func (m *Manager) now() time.Time {
	if m.NowFunc != nil {
		return m.NowFunc()
	}
	return time.Now().UTC()
}
