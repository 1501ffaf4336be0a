// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vidtube/go-backend/internal/auth"
	"github.com/vidtube/go-backend/internal/core"
	"github.com/vidtube/go-backend/internal/middleware"
)

type Service struct {
	repo  Repository
	media auth.MediaUploader
}

func NewService(repo Repository, mediaUploader auth.MediaUploader) *Service {
	return &Service{repo: repo, media: mediaUploader}
}

func (s *Service) Create(ctx context.Context, in auth.NewUser) (*auth.UserInfo, error) {
	user := &User{
		Username:     strings.ToLower(in.Username),
		Email:        strings.ToLower(in.Email),
		FullName:     in.FullName,
		Avatar:       in.Avatar,
		CoverImage:   in.CoverImage,
		PasswordHash: in.PasswordHash,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByUsernameOrEmail(
	ctx context.Context,
	username, email string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByUsernameOrEmail(ctx, strings.ToLower(username), strings.ToLower(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) ExistsByUsernameOrEmail(
	ctx context.Context,
	username, email string,
) (bool, error) {
	return s.repo.ExistsByUsernameOrEmail(ctx, strings.ToLower(username), strings.ToLower(email))
}

func (s *Service) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

func (s *Service) SetRefreshTokenHash(ctx context.Context, userID, hash string) error {
	return s.repo.SetRefreshTokenHash(ctx, userID, hash)
}

func (s *Service) ClearRefreshToken(ctx context.Context, userID string) error {
	return s.repo.UnsetRefreshToken(ctx, userID)
}

// ResolveIdentity backs the session middleware. Secrets never leave this
// method.
func (s *Service) ResolveIdentity(ctx context.Context, userID string) (*middleware.Identity, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			return nil, fmt.Errorf("resolve identity: %w", core.ErrNotFound)
		}
		return nil, err
	}

	return &middleware.Identity{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
		Avatar:   user.Avatar,
	}, nil
}

func (s *Service) Exists(ctx context.Context, userID string) (bool, error) {
	return s.repo.Exists(ctx, userID)
}

func (s *Service) GetCurrentUser(ctx context.Context, userID string) (*Response, error) {
	if userID == "" {
		return nil, fmt.Errorf("current user: %w", core.ErrUnauthorized)
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := ToResponse(user)
	return &resp, nil
}

func (s *Service) UpdateAccount(
	ctx context.Context,
	userID string,
	req UpdateAccountRequest,
) (*Response, error) {
	fullName := strings.TrimSpace(req.FullName)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if fullName == "" || email == "" {
		return nil, core.BadRequestError("All fields are required")
	}

	user, err := s.repo.UpdateProfile(ctx, userID, ProfilePatch{
		FullName: &fullName,
		Email:    &email,
	})
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, core.DuplicateError("User with email")
		}
		return nil, err
	}

	resp := ToResponse(user)
	return &resp, nil
}

func (s *Service) UpdateAvatar(ctx context.Context, userID, localPath string) (*Response, error) {
	if localPath == "" {
		return nil, core.BadRequestError("Avatar file is missing")
	}

	asset, ok := s.media.UploadLocalFile(ctx, localPath)
	if !ok {
		return nil, core.InternalError("Error while uploading avatar")
	}

	return s.patchMedia(ctx, userID, ProfilePatch{Avatar: &asset.URL})
}

func (s *Service) UpdateCoverImage(ctx context.Context, userID, localPath string) (*Response, error) {
	if localPath == "" {
		return nil, core.BadRequestError("Cover image file is missing")
	}

	asset, ok := s.media.UploadLocalFile(ctx, localPath)
	if !ok {
		return nil, core.InternalError("Error while uploading cover image")
	}

	return s.patchMedia(ctx, userID, ProfilePatch{CoverImage: &asset.URL})
}

func (s *Service) patchMedia(ctx context.Context, userID string, patch ProfilePatch) (*Response, error) {
	user, err := s.repo.UpdateProfile(ctx, userID, patch)
	if err != nil {
		return nil, err
	}

	resp := ToResponse(user)
	return &resp, nil
}

func (s *Service) ChannelProfile(
	ctx context.Context,
	username, requesterID string,
) (*ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, core.BadRequestError("username is missing")
	}

	ctx, span := core.StartSpan(ctx, "user.channel_profile")
	defer span.End()

	profile, err := s.repo.ChannelProfile(ctx, username, requesterID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("Channel")
		}
		core.SetSpanError(ctx, err)
		return nil, err
	}

	return profile, nil
}

func (s *Service) WatchHistory(ctx context.Context, userID string) ([]WatchedVideo, error) {
	ctx, span := core.StartSpan(ctx, "user.watch_history")
	defer span.End()

	videos, err := s.repo.WatchHistory(ctx, userID)
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	return videos, nil
}

// RecordWatch moves a video to the front of the user's watch history.
func (s *Service) RecordWatch(ctx context.Context, userID, videoID string) error {
	return s.repo.AppendWatchHistory(ctx, userID, videoID)
}

var (
	_ auth.UserProvider           = (*Service)(nil)
	_ middleware.IdentityResolver = (*Service)(nil)
)
