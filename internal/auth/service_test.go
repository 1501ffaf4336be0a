// AngelaMos | 2026
// service_test.go

package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidtube/go-backend/internal/auth"
	"github.com/vidtube/go-backend/internal/core"
	"github.com/vidtube/go-backend/internal/media"
	"github.com/vidtube/go-backend/internal/testutil"
	"github.com/vidtube/go-backend/internal/user"
)

type serviceFixture struct {
	svc      *auth.Service
	tokens   *auth.TokenService
	users    *user.Service
	store    *testutil.Store
	uploader *testutil.FakeUploader
	denylist *testutil.MemoryDenylist
	hasher   *core.PasswordHasher
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	cfg := testutil.TestConfig(t)
	store := testutil.NewStore()
	uploader := &testutil.FakeUploader{}
	mediaSvc := media.NewService(uploader, cfg.Media.Timeout, slog.New(slog.NewTextHandler(io.Discard, nil)))
	users := user.NewService(store.Users(), mediaSvc)
	hasher := testutil.TestHasher(t)

	tokens, err := auth.NewTokenService(cfg.JWT, users)
	require.NoError(t, err)

	denylist := testutil.NewMemoryDenylist()

	return &serviceFixture{
		svc:      auth.NewService(users, tokens, hasher, mediaSvc, denylist),
		tokens:   tokens,
		users:    users,
		store:    store,
		uploader: uploader,
		denylist: denylist,
		hasher:   hasher,
	}
}

func statusOf(err error) int {
	return core.FromError(err).StatusCode
}

func TestService_Register(t *testing.T) {
	tests := []struct {
		name       string
		input      func(t *testing.T) auth.RegisterInput
		setup      func(t *testing.T, f *serviceFixture)
		wantStatus int
		wantMsg    string
	}{
		{
			name: "success with cover image",
			input: func(t *testing.T) auth.RegisterInput {
				return auth.RegisterInput{
					FullName:       "Alice Doe",
					Email:          "Alice@Example.com",
					Username:       "Alice",
					Password:       "password123",
					AvatarPath:     testutil.TempFile(t, ".png"),
					CoverImagePath: testutil.TempFile(t, ".jpg"),
				}
			},
		},
		{
			name: "blank field",
			input: func(t *testing.T) auth.RegisterInput {
				return auth.RegisterInput{
					FullName:   "   ",
					Email:      "a@example.com",
					Username:   "a",
					Password:   "password123",
					AvatarPath: testutil.TempFile(t, ".png"),
				}
			},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "All fields are required",
		},
		{
			name: "invalid email",
			input: func(t *testing.T) auth.RegisterInput {
				return auth.RegisterInput{
					FullName:   "Bob",
					Email:      "not-an-email",
					Username:   "bob",
					Password:   "password123",
					AvatarPath: testutil.TempFile(t, ".png"),
				}
			},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid email address",
		},
		{
			name: "duplicate username",
			setup: func(t *testing.T, f *serviceFixture) {
				testutil.NewUserBuilder().WithUsername("carol").Build(t, f.store.Users(), f.hasher)
			},
			input: func(t *testing.T) auth.RegisterInput {
				return auth.RegisterInput{
					FullName:   "Carol",
					Email:      "fresh@example.com",
					Username:   "CAROL",
					Password:   "password123",
					AvatarPath: testutil.TempFile(t, ".png"),
				}
			},
			wantStatus: http.StatusConflict,
		},
		{
			name: "missing avatar",
			input: func(t *testing.T) auth.RegisterInput {
				return auth.RegisterInput{
					FullName: "Dan",
					Email:    "dan@example.com",
					Username: "dan",
					Password: "password123",
				}
			},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Avatar file is required",
		},
		{
			name: "avatar upload fails",
			setup: func(t *testing.T, f *serviceFixture) {
				f.uploader.FailOn = func(path string) bool { return strings.HasSuffix(path, ".png") }
			},
			input: func(t *testing.T) auth.RegisterInput {
				return auth.RegisterInput{
					FullName:   "Eve",
					Email:      "eve@example.com",
					Username:   "eve",
					Password:   "password123",
					AvatarPath: testutil.TempFile(t, ".png"),
				}
			},
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Failed to upload avatar",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture(t)
			if tt.setup != nil {
				tt.setup(t, f)
			}
			in := tt.input(t)

			resp, err := f.svc.Register(context.Background(), in)

			if tt.wantStatus != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantStatus, statusOf(err))
				if tt.wantMsg != "" {
					assert.Equal(t, tt.wantMsg, core.FromError(err).Message)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "alice", resp.Username)
			assert.Equal(t, "alice@example.com", resp.Email)
			assert.True(t, strings.HasPrefix(resp.Avatar, "https://media.test/"))
			assert.True(t, strings.HasPrefix(resp.CoverImage, "https://media.test/"))

			stored := f.store.User(resp.ID)
			require.NotNil(t, stored)
			assert.NotEqual(t, in.Password, stored.PasswordHash)
			assert.Empty(t, stored.RefreshTokenHash)

			for _, path := range []string{in.AvatarPath, in.CoverImagePath} {
				_, statErr := os.Stat(path)
				assert.True(t, errors.Is(statErr, os.ErrNotExist), "temp file %s not removed", path)
			}
		})
	}
}

func TestService_RegisterRemovesTempFilesOnFailure(t *testing.T) {
	f := newServiceFixture(t)
	f.uploader.FailOn = func(string) bool { return true }

	avatar := testutil.TempFile(t, ".png")
	cover := testutil.TempFile(t, ".jpg")

	_, err := f.svc.Register(context.Background(), auth.RegisterInput{
		FullName:       "Frank",
		Email:          "frank@example.com",
		Username:       "frank",
		Password:       "password123",
		AvatarPath:     avatar,
		CoverImagePath: cover,
	})
	require.Error(t, err)

	for _, path := range []string{avatar, cover} {
		_, statErr := os.Stat(path)
		assert.True(t, errors.Is(statErr, os.ErrNotExist))
	}
}

func TestService_Login(t *testing.T) {
	f := newServiceFixture(t)
	seeded := testutil.NewUserBuilder().
		WithUsername("grace").
		WithEmail("grace@example.com").
		Build(t, f.store.Users(), f.hasher)

	tests := []struct {
		name       string
		input      auth.LoginInput
		wantStatus int
	}{
		{name: "by username", input: auth.LoginInput{Username: "grace", Password: testutil.DefaultPassword}},
		{name: "by email", input: auth.LoginInput{Email: "GRACE@example.com", Password: testutil.DefaultPassword}},
		{name: "no identifier", input: auth.LoginInput{Password: "x"}, wantStatus: http.StatusBadRequest},
		{name: "unknown user", input: auth.LoginInput{Username: "nobody", Password: "x"}, wantStatus: http.StatusNotFound},
		{name: "wrong password", input: auth.LoginInput{Username: "grace", Password: "nope"}, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := f.svc.Login(context.Background(), tt.input)

			if tt.wantStatus != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantStatus, statusOf(err))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, seeded.ID, result.User.ID)
			assert.NotEmpty(t, result.Tokens.AccessToken)
			assert.Equal(t, core.HashToken(result.Tokens.RefreshToken), f.store.User(seeded.ID).RefreshTokenHash)
		})
	}
}

func TestService_LoginUpgradesLegacyHash(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	seeded := testutil.NewUserBuilder().WithUsername("heidi").Build(t, f.store.Users(), f.hasher)

	legacy, err := bcrypt.GenerateFromPassword([]byte("legacy-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, f.users.UpdatePassword(ctx, seeded.ID, string(legacy)))

	_, err = f.svc.Login(ctx, auth.LoginInput{Username: "heidi", Password: "legacy-pass"})
	require.NoError(t, err)

	upgraded := f.store.User(seeded.ID).PasswordHash
	assert.True(t, strings.HasPrefix(upgraded, "$argon2id$"))

	_, err = f.svc.Login(ctx, auth.LoginInput{Username: "heidi", Password: "legacy-pass"})
	assert.NoError(t, err)
}

func TestService_Logout(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	testutil.NewUserBuilder().WithUsername("ivan").Build(t, f.store.Users(), f.hasher)
	result, err := f.svc.Login(ctx, auth.LoginInput{Username: "ivan", Password: testutil.DefaultPassword})
	require.NoError(t, err)

	claims, err := f.tokens.VerifyAccessToken(ctx, result.Tokens.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, claims.UserID, claims))

	assert.Empty(t, f.store.User(claims.UserID).RefreshTokenHash)

	revoked, err := f.denylist.IsRevoked(ctx, claims.TokenID)
	require.NoError(t, err)
	assert.True(t, revoked)

	_, err = f.svc.Refresh(ctx, result.Tokens.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, statusOf(err))
}

func TestService_Refresh(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	testutil.NewUserBuilder().WithUsername("judy").Build(t, f.store.Users(), f.hasher)
	result, err := f.svc.Login(ctx, auth.LoginInput{Username: "judy", Password: testutil.DefaultPassword})
	require.NoError(t, err)

	_, err = f.svc.Refresh(ctx, "  ")
	assert.Equal(t, http.StatusUnauthorized, statusOf(err))

	pair, err := f.svc.Refresh(ctx, result.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, result.Tokens.RefreshToken, pair.RefreshToken)

	_, err = f.svc.Refresh(ctx, result.Tokens.RefreshToken)
	assert.ErrorIs(t, err, core.ErrTokenMismatch)

	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	assert.NoError(t, err)
}

func TestService_ChangePassword(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	seeded := testutil.NewUserBuilder().WithUsername("mallory").Build(t, f.store.Users(), f.hasher)
	result, err := f.svc.Login(ctx, auth.LoginInput{Username: "mallory", Password: testutil.DefaultPassword})
	require.NoError(t, err)

	err = f.svc.ChangePassword(ctx, seeded.ID, "wrong-old", "new-password-1")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, statusOf(err))
	assert.Equal(t, "Invalid old password", core.FromError(err).Message)

	err = f.svc.ChangePassword(ctx, seeded.ID, testutil.DefaultPassword, "")
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	require.NoError(t, f.svc.ChangePassword(ctx, seeded.ID, testutil.DefaultPassword, "new-password-1"))

	assert.Empty(t, f.store.User(seeded.ID).RefreshTokenHash)
	_, err = f.svc.Refresh(ctx, result.Tokens.RefreshToken)
	assert.Error(t, err)

	_, err = f.svc.Login(ctx, auth.LoginInput{Username: "mallory", Password: testutil.DefaultPassword})
	assert.Equal(t, http.StatusUnauthorized, statusOf(err))

	_, err = f.svc.Login(ctx, auth.LoginInput{Username: "mallory", Password: "new-password-1"})
	assert.NoError(t, err)
}
