// AngelaMos | 2026
// jwt.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/vidtube/go-backend/internal/config"
	"github.com/vidtube/go-backend/internal/core"
	"github.com/vidtube/go-backend/internal/middleware"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// SessionStore is the part of the credential store the token service needs
// to keep the single refresh-token slot.
type SessionStore interface {
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	SetRefreshTokenHash(ctx context.Context, id, hash string) error
}

type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// TokenService signs access and refresh tokens with separate HMAC secrets.
// Only a hash of the current refresh token is persisted, so presenting a
// rotated-out token is detected as a mismatch.
type TokenService struct {
	config     config.JWTConfig
	accessKey  []byte
	refreshKey []byte
	store      SessionStore
	now        func() time.Time
}

type TokenOption func(*TokenService)

// WithClock replaces the issuing clock.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		s.now = now
	}
}

func NewTokenService(
	cfg config.JWTConfig,
	store SessionStore,
	opts ...TokenOption,
) (*TokenService, error) {
	if cfg.AccessTokenSecret == "" || cfg.RefreshTokenSecret == "" {
		return nil, fmt.Errorf("token secrets are required: %w", core.ErrInvalidInput)
	}
	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		return nil, fmt.Errorf("token secrets must differ: %w", core.ErrInvalidInput)
	}

	s := &TokenService{
		config:     cfg,
		accessKey:  []byte(cfg.AccessTokenSecret),
		refreshKey: []byte(cfg.RefreshTokenSecret),
		store:      store,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func (s *TokenService) IssueAccessToken(user *UserInfo) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.config.AccessTokenExpire)

	token, err := jwt.NewBuilder().
		JwtID(uuid.NewString()).
		Issuer(s.config.Issuer).
		Audience([]string{s.config.Audience}).
		Subject(user.ID).
		IssuedAt(now).
		Expiration(expiresAt).
		NotBefore(now).
		Claim("email", user.Email).
		Claim("username", user.Username).
		Claim("fullName", user.FullName).
		Claim("type", tokenTypeAccess).
		Build()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("build access token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), s.accessKey))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}

	return string(signed), expiresAt, nil
}

// IssueRefreshToken embeds only the subject. The jti keeps two tokens
// issued in the same second distinct.
func (s *TokenService) IssueRefreshToken(user *UserInfo) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.config.RefreshTokenExpire)

	token, err := jwt.NewBuilder().
		JwtID(uuid.NewString()).
		Issuer(s.config.Issuer).
		Audience([]string{s.config.Audience}).
		Subject(user.ID).
		IssuedAt(now).
		Expiration(expiresAt).
		NotBefore(now).
		Claim("type", tokenTypeRefresh).
		Build()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("build refresh token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), s.refreshKey))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return string(signed), expiresAt, nil
}

// RotateSession issues a fresh pair and overwrites the stored refresh slot,
// which invalidates whatever session the account had before.
func (s *TokenService) RotateSession(
	ctx context.Context,
	user *UserInfo,
) (*TokenPair, error) {
	ctx, span := core.StartSpan(ctx, "auth.rotate_session")
	defer span.End()

	accessToken, accessExp, err := s.IssueAccessToken(user)
	if err != nil {
		return nil, s.rotationFailed(ctx, err)
	}

	refreshToken, refreshExp, err := s.IssueRefreshToken(user)
	if err != nil {
		return nil, s.rotationFailed(ctx, err)
	}

	if err := s.store.SetRefreshTokenHash(ctx, user.ID, core.HashToken(refreshToken)); err != nil {
		return nil, s.rotationFailed(ctx, err)
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *TokenService) rotationFailed(ctx context.Context, err error) error {
	core.SetSpanError(ctx, err)
	slog.ErrorContext(ctx, "rotate session", "error", err)
	return core.InternalError("Something went wrong while generating refresh and access token")
}

// ValidateRefreshToken returns the account a refresh token belongs to. A
// bad signature, expiry or unknown subject is Unauthorized; a token that
// no longer matches the stored slot is a replay.
func (s *TokenService) ValidateRefreshToken(
	ctx context.Context,
	tokenString string,
) (*UserInfo, error) {
	token, err := s.parse(tokenString, s.refreshKey, tokenTypeRefresh)
	if err != nil {
		return nil, core.UnauthorizedError("Invalid refresh token")
	}

	subject, _ := token.Subject()

	user, err := s.store.GetByID(ctx, subject)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrInvalidInput) {
			return nil, core.UnauthorizedError("Invalid refresh token")
		}
		return nil, fmt.Errorf("load refresh token owner: %w", err)
	}

	if !core.CompareTokenHash(tokenString, user.RefreshTokenHash) {
		return nil, core.TokenMismatchError()
	}

	return user, nil
}

func (s *TokenService) VerifyAccessToken(
	_ context.Context,
	tokenString string,
) (*middleware.AccessTokenClaims, error) {
	token, err := s.parse(tokenString, s.accessKey, tokenTypeAccess)
	if err != nil {
		return nil, err
	}

	subject, _ := token.Subject()
	claims := &middleware.AccessTokenClaims{UserID: subject}

	//nolint:errcheck // profile claims are informational
	_ = token.Get("email", &claims.Email)
	//nolint:errcheck // profile claims are informational
	_ = token.Get("username", &claims.Username)
	//nolint:errcheck // profile claims are informational
	_ = token.Get("fullName", &claims.FullName)

	if jti, ok := token.JwtID(); ok {
		claims.TokenID = jti
	}
	if exp, ok := token.Expiration(); ok {
		claims.ExpiresAt = exp
	}

	return claims, nil
}

func (s *TokenService) parse(
	tokenString string,
	key []byte,
	wantType string,
) (jwt.Token, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.HS256(), key),
		jwt.WithValidate(true),
		jwt.WithIssuer(s.config.Issuer),
		jwt.WithAudience(s.config.Audience),
	)
	if err != nil {
		if isTokenExpiredError(err) {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenExpired)
		}
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}

	var tokenType string
	if err := token.Get("type", &tokenType); err != nil || tokenType != wantType {
		return nil, fmt.Errorf("verify token: invalid token type: %w", core.ErrTokenInvalid)
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return nil, fmt.Errorf("verify token: missing subject: %w", core.ErrTokenInvalid)
	}

	return token, nil
}

func isTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "exp") &&
		strings.Contains(errStr, "not satisfied")
}
