// AngelaMos | 2026
// fixtures.go

package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/vidtube/go-backend/internal/config"
	"github.com/vidtube/go-backend/internal/core"
	"github.com/vidtube/go-backend/internal/user"
)

const DefaultPassword = "correct-horse-battery"

// TestConfig returns a configuration suitable for testing. Hash parameters
// are minimal so tests stay fast.
func TestConfig(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{
		App: config.AppConfig{
			Name:        "vidtube-test",
			Version:     "test",
			Environment: "test",
		},
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            0,
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			IdleTimeout:     30 * time.Second,
			ShutdownTimeout: time.Second,
		},
		JWT: config.JWTConfig{
			AccessTokenSecret:  "test-access-secret-for-testing-only",
			AccessTokenExpire:  15 * time.Minute,
			RefreshTokenSecret: "test-refresh-secret-for-testing-only",
			RefreshTokenExpire: 24 * time.Hour,
			Issuer:             "vidtube-test",
			Audience:           "vidtube-test",
		},
		Security: config.SecurityConfig{
			HashTime:    1,
			HashMemory:  8 * 1024,
			HashThreads: 1,
		},
		Cookie: config.CookieConfig{
			SameSite: "lax",
			Path:     "/",
		},
		Upload: config.UploadConfig{
			TempDir:  t.TempDir(),
			MaxBytes: 10 << 20,
		},
		Media: config.MediaConfig{
			Timeout: 5 * time.Second,
		},
	}
}

func TestHasher(t *testing.T) *core.PasswordHasher {
	t.Helper()

	hasher, err := core.NewPasswordHasher(TestConfig(t).Security)
	require.NoError(t, err)
	return hasher
}

// TempFile writes a small file that stands in for a multipart upload.
func TempFile(t *testing.T, ext string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), uuid.NewString()+ext)
	require.NoError(t, os.WriteFile(path, []byte("fixture"), 0o600))
	return path
}

// UserBuilder seeds users straight into a store.
type UserBuilder struct {
	username string
	email    string
	fullName string
	password string
}

func NewUserBuilder() *UserBuilder {
	suffix := uuid.NewString()[:8]
	return &UserBuilder{
		username: "user_" + suffix,
		email:    "user_" + suffix + "@example.com",
		fullName: "Test User " + suffix,
		password: DefaultPassword,
	}
}

func (b *UserBuilder) WithUsername(username string) *UserBuilder {
	b.username = username
	return b
}

func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// Build hashes the password with hasher and stores the user.
func (b *UserBuilder) Build(t *testing.T, repo user.Repository, hasher *core.PasswordHasher) *user.User {
	t.Helper()

	hash, err := hasher.Hash(b.password)
	require.NoError(t, err)

	u := &user.User{
		Username:     b.username,
		Email:        b.email,
		FullName:     b.fullName,
		Avatar:       "https://media.test/" + b.username + ".png",
		PasswordHash: hash,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}
