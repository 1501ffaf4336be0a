// AngelaMos | 2026
// jwt_test.go

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidtube/go-backend/internal/auth"
	"github.com/vidtube/go-backend/internal/core"
	"github.com/vidtube/go-backend/internal/testutil"
	"github.com/vidtube/go-backend/internal/user"
)

type tokenFixture struct {
	tokens *auth.TokenService
	users  *user.Service
	store  *testutil.Store
	user   *auth.UserInfo
}

func newTokenFixture(t *testing.T, opts ...auth.TokenOption) *tokenFixture {
	t.Helper()

	cfg := testutil.TestConfig(t)
	store := testutil.NewStore()
	users := user.NewService(store.Users(), nil)

	tokens, err := auth.NewTokenService(cfg.JWT, users, opts...)
	require.NoError(t, err)

	seeded := testutil.NewUserBuilder().WithUsername("alice").WithEmail("alice@example.com").
		Build(t, store.Users(), testutil.TestHasher(t))

	info, err := users.GetByID(context.Background(), seeded.ID)
	require.NoError(t, err)

	return &tokenFixture{tokens: tokens, users: users, store: store, user: info}
}

func TestNewTokenService_RejectsBadSecrets(t *testing.T) {
	cfg := testutil.TestConfig(t).JWT

	tests := []struct {
		name   string
		mutate func()
	}{
		{name: "missing access secret", mutate: func() { cfg.AccessTokenSecret = "" }},
		{name: "shared secret", mutate: func() { cfg.RefreshTokenSecret = cfg.AccessTokenSecret }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg = testutil.TestConfig(t).JWT
			tt.mutate()

			_, err := auth.NewTokenService(cfg, nil)
			assert.ErrorIs(t, err, core.ErrInvalidInput)
		})
	}
}

func TestTokenService_AccessTokenRoundTrip(t *testing.T) {
	f := newTokenFixture(t)

	token, expiresAt, err := f.tokens.IssueAccessToken(f.user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := f.tokens.VerifyAccessToken(context.Background(), token)
	require.NoError(t, err)

	assert.Equal(t, f.user.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, f.user.FullName, claims.FullName)
	assert.NotEmpty(t, claims.TokenID)
	assert.WithinDuration(t, expiresAt, claims.ExpiresAt, time.Second)
}

func TestTokenService_VerifyAccessTokenFailures(t *testing.T) {
	f := newTokenFixture(t)

	refresh, _, err := f.tokens.IssueRefreshToken(f.user)
	require.NoError(t, err)

	expiredTokens, err := auth.NewTokenService(testutil.TestConfig(t).JWT, f.users,
		auth.WithClock(func() time.Time { return time.Now().Add(-time.Hour) }))
	require.NoError(t, err)
	expired, _, err := expiredTokens.IssueAccessToken(f.user)
	require.NoError(t, err)

	otherCfg := testutil.TestConfig(t).JWT
	otherCfg.AccessTokenSecret = "some-other-access-secret"
	foreignTokens, err := auth.NewTokenService(otherCfg, f.users)
	require.NoError(t, err)
	foreign, _, err := foreignTokens.IssueAccessToken(f.user)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "garbage", token: "not.a.jwt", wantErr: core.ErrTokenInvalid},
		{name: "refresh token used as access", token: refresh, wantErr: core.ErrTokenInvalid},
		{name: "expired", token: expired, wantErr: core.ErrTokenExpired},
		{name: "signed with another secret", token: foreign, wantErr: core.ErrTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.tokens.VerifyAccessToken(context.Background(), tt.token)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTokenService_RotateSessionStoresHash(t *testing.T) {
	f := newTokenFixture(t)
	ctx := context.Background()

	pair, err := f.tokens.RotateSession(ctx, f.user)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.True(t, pair.RefreshExpiresAt.After(pair.AccessExpiresAt))

	stored := f.store.User(f.user.ID)
	require.NotNil(t, stored)
	assert.Equal(t, core.HashToken(pair.RefreshToken), stored.RefreshTokenHash)
	assert.NotEqual(t, pair.RefreshToken, stored.RefreshTokenHash)

	owner, err := f.tokens.ValidateRefreshToken(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, owner.ID)
}

func TestTokenService_RotatedOutTokenIsMismatch(t *testing.T) {
	f := newTokenFixture(t)
	ctx := context.Background()

	first, err := f.tokens.RotateSession(ctx, f.user)
	require.NoError(t, err)
	second, err := f.tokens.RotateSession(ctx, f.user)
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = f.tokens.ValidateRefreshToken(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, core.ErrTokenMismatch)

	_, err = f.tokens.ValidateRefreshToken(ctx, second.RefreshToken)
	assert.NoError(t, err)
}

func TestTokenService_ValidateRefreshTokenFailures(t *testing.T) {
	f := newTokenFixture(t)
	ctx := context.Background()

	access, _, err := f.tokens.IssueAccessToken(f.user)
	require.NoError(t, err)

	ghost := &auth.UserInfo{ID: "64b7f0c2a1b2c3d4e5f60718", Username: "ghost"}
	ghostRefresh, _, err := f.tokens.IssueRefreshToken(ghost)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "garbage"},
		{name: "access token used as refresh", token: access},
		{name: "unknown subject", token: ghostRefresh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.tokens.ValidateRefreshToken(ctx, tt.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrUnauthorized)
		})
	}
}

func TestTokenService_ClearedSlotRejectsRefresh(t *testing.T) {
	f := newTokenFixture(t)
	ctx := context.Background()

	pair, err := f.tokens.RotateSession(ctx, f.user)
	require.NoError(t, err)

	require.NoError(t, f.users.ClearRefreshToken(ctx, f.user.ID))

	_, err = f.tokens.ValidateRefreshToken(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, core.ErrTokenMismatch)
}
