// AngelaMos | 2026
// service.go

package video

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vidtube/go-backend/internal/auth"
	"github.com/vidtube/go-backend/internal/core"
	"github.com/vidtube/go-backend/internal/media"
)

// WatchRecorder keeps the viewer's watch history current.
type WatchRecorder interface {
	RecordWatch(ctx context.Context, userID, videoID string) error
}

type Service struct {
	repo    Repository
	media   auth.MediaUploader
	history WatchRecorder
	logger  *slog.Logger
}

func NewService(
	repo Repository,
	mediaUploader auth.MediaUploader,
	history WatchRecorder,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		media:   mediaUploader,
		history: history,
		logger:  logger,
	}
}

// Publish uploads the video and thumbnail concurrently and stores the record
// only when both made it to the media host.
func (s *Service) Publish(ctx context.Context, ownerID string, in PublishInput) (*Video, error) {
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if title == "" || description == "" {
		return nil, core.BadRequestError("Title and description are required")
	}
	if in.VideoPath == "" {
		return nil, core.BadRequestError("Video file is required")
	}
	if in.ThumbnailPath == "" {
		return nil, core.BadRequestError("Thumbnail is required")
	}
	if math.IsNaN(in.Duration) || math.IsInf(in.Duration, 0) {
		return nil, core.BadRequestError("Duration must be a finite number")
	}
	if in.Duration < 0 {
		return nil, core.BadRequestError("Duration cannot be negative")
	}

	ctx, span := core.StartSpan(ctx, "video.publish")
	defer span.End()

	var videoFile, thumbnail *media.Asset

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		asset, ok := s.media.UploadLocalFile(gctx, in.VideoPath)
		if !ok {
			return fmt.Errorf("video file: %w", core.ErrUploadFailed)
		}
		videoFile = asset
		return nil
	})
	g.Go(func() error {
		asset, ok := s.media.UploadLocalFile(gctx, in.ThumbnailPath)
		if !ok {
			return fmt.Errorf("thumbnail: %w", core.ErrUploadFailed)
		}
		thumbnail = asset
		return nil
	})
	if err := g.Wait(); err != nil {
		core.SetSpanError(ctx, err)
		return nil, core.InternalError("Error while uploading video")
	}

	video := &Video{
		VideoFile:   videoFile.URL,
		Thumbnail:   thumbnail.URL,
		Title:       title,
		Description: description,
		Duration:    in.Duration,
		IsPublished: in.IsPublished,
		Owner:       ownerID,
	}
	if err := s.repo.Create(ctx, video); err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	return video, nil
}

// Watch returns a video for viewerID, counting the view and moving it to the
// front of the viewer's history. Unpublished videos exist only for their
// owner.
func (s *Service) Watch(ctx context.Context, viewerID, videoID string) (*Video, error) {
	ctx, span := core.StartSpan(ctx, "video.watch")
	defer span.End()

	video, err := s.repo.GetByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrInvalidInput) {
			return nil, core.NotFoundError("Video")
		}
		core.SetSpanError(ctx, err)
		return nil, err
	}

	if !video.IsPublished && video.Owner != viewerID {
		return nil, core.NotFoundError("Video")
	}

	video, err = s.repo.IncrementViews(ctx, video.ID)
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	if err := s.history.RecordWatch(ctx, viewerID, video.ID); err != nil {
		core.SetSpanError(ctx, err)
		s.logger.WarnContext(ctx, "record watch failed",
			"video_id", video.ID,
			"error", err,
		)
	}

	return video, nil
}
