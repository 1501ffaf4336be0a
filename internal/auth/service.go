// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/vidtube/go-backend/internal/core"
	"github.com/vidtube/go-backend/internal/media"
	"github.com/vidtube/go-backend/internal/middleware"
)

type UserInfo struct {
	ID               string
	Username         string
	Email            string
	FullName         string
	Avatar           string
	CoverImage       string
	PasswordHash     string
	RefreshTokenHash string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type NewUser struct {
	Username     string
	Email        string
	FullName     string
	Avatar       string
	CoverImage   string
	PasswordHash string
}

// UserProvider is the credential store as seen by the account flows.
type UserProvider interface {
	SessionStore
	Create(ctx context.Context, user NewUser) (*UserInfo, error)
	GetByUsernameOrEmail(ctx context.Context, username, email string) (*UserInfo, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	ClearRefreshToken(ctx context.Context, userID string) error
}

type MediaUploader interface {
	UploadLocalFile(ctx context.Context, localPath string) (*media.Asset, bool)
}

// TokenRevoker denylists an access token until it expires.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
}

type Service struct {
	users    UserProvider
	tokens   *TokenService
	hasher   *core.PasswordHasher
	media    MediaUploader
	revoker  TokenRevoker
	validate *validator.Validate
}

func NewService(
	users UserProvider,
	tokens *TokenService,
	hasher *core.PasswordHasher,
	mediaUploader MediaUploader,
	revoker TokenRevoker,
) *Service {
	return &Service{
		users:    users,
		tokens:   tokens,
		hasher:   hasher,
		media:    mediaUploader,
		revoker:  revoker,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

type RegisterInput struct {
	FullName       string
	Email          string
	Username       string
	Password       string
	AvatarPath     string
	CoverImagePath string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*UserResponse, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))

	if in.FullName == "" || in.Email == "" || in.Username == "" ||
		strings.TrimSpace(in.Password) == "" {
		return nil, core.BadRequestError("All fields are required")
	}

	if err := s.validate.Var(in.Email, "email"); err != nil {
		return nil, core.BadRequestError("Invalid email address")
	}

	if len(in.Password) > maxPasswordLen {
		return nil, core.BadRequestError("password must be at most 128 characters")
	}

	exists, err := s.users.ExistsByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if exists {
		return nil, core.DuplicateError("User with email or username")
	}

	if in.AvatarPath == "" {
		return nil, core.BadRequestError("Avatar file is required")
	}

	var avatar, cover *media.Asset
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		avatar, _ = s.media.UploadLocalFile(gctx, in.AvatarPath)
		return nil
	})
	g.Go(func() error {
		cover, _ = s.media.UploadLocalFile(gctx, in.CoverImagePath)
		return nil
	})
	//nolint:errcheck // uploads report absence, not errors
	_ = g.Wait()

	if avatar == nil {
		return nil, core.InternalError("Failed to upload avatar")
	}

	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	newUser := NewUser{
		Username:     in.Username,
		Email:        in.Email,
		FullName:     in.FullName,
		Avatar:       avatar.URL,
		PasswordHash: passwordHash,
	}
	if cover != nil {
		newUser.CoverImage = cover.URL
	}

	user, err := s.users.Create(ctx, newUser)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, core.DuplicateError("User with email or username")
		}
		return nil, core.InternalError("Something went wrong while registering the user")
	}

	resp := ToUserResponse(user)
	return &resp, nil
}

type LoginInput struct {
	Username string
	Email    string
	Password string
}

type LoginResult struct {
	User   UserResponse
	Tokens *TokenPair
}

func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if username == "" && email == "" {
		return nil, core.BadRequestError("username or email is required")
	}

	user, err := s.users.GetByUsernameOrEmail(ctx, username, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // equalize timing with the found path
			_, _, _ = s.hasher.VerifyTimingSafe(in.Password, nil)
			return nil, core.NotFoundError("User")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, newHash, err := s.hasher.VerifyTimingSafe(in.Password, &user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return nil, core.UnauthorizedError("Invalid user credentials")
	}

	if newHash != "" {
		if err := s.users.UpdatePassword(ctx, user.ID, newHash); err != nil {
			slog.WarnContext(ctx, "password rehash failed", "user_id", user.ID, "error", err)
		}
	}

	pair, err := s.tokens.RotateSession(ctx, user)
	if err != nil {
		return nil, err
	}

	return &LoginResult{User: ToUserResponse(user), Tokens: pair}, nil
}

// Logout empties the refresh slot and denylists the access token that made
// the request.
func (s *Service) Logout(
	ctx context.Context,
	userID string,
	claims *middleware.AccessTokenClaims,
) error {
	if userID == "" {
		return fmt.Errorf("logout: %w", core.ErrUnauthorized)
	}

	if err := s.users.ClearRefreshToken(ctx, userID); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}

	if s.revoker != nil && claims != nil && claims.TokenID != "" {
		if err := s.revoker.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
			slog.WarnContext(ctx, "access token denylist failed", "user_id", userID, "error", err)
		}
	}

	return nil
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, core.UnauthorizedError("Unauthorized request")
	}

	user, err := s.tokens.ValidateRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	return s.tokens.RotateSession(ctx, user)
}

// ChangePassword also signs the account out of its refresh session.
func (s *Service) ChangePassword(
	ctx context.Context,
	userID, oldPassword, newPassword string,
) error {
	if strings.TrimSpace(newPassword) == "" {
		return core.BadRequestError("newPassword is required")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	valid, err := s.hasher.Verify(oldPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return core.UnauthorizedError("Invalid old password")
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, newHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.users.ClearRefreshToken(ctx, userID); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}

	return nil
}
