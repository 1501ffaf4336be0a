// AngelaMos | 2026
// media.go

package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/vidtube/go-backend/internal/config"
	"github.com/vidtube/go-backend/internal/core"
)

// Asset is a file stored on the media host.
type Asset struct {
	URL      string
	PublicID string
}

// Uploader pushes a local file to a hosted media service.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (*Asset, error)
}

func NewUploader(ctx context.Context, cfg config.MediaConfig) (Uploader, error) {
	switch strings.ToLower(cfg.Provider) {
	case config.MediaCloudinary:
		return NewCloudinaryUploader(cfg.Cloudinary)
	case config.MediaS3:
		return NewS3Uploader(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("media provider %q: %w", cfg.Provider, core.ErrInvalidInput)
	}
}

// Service owns the temporary file handed to it. The file is removed on
// every path, and a failed upload is reported as a missing asset rather
// than the host's error.
type Service struct {
	uploader Uploader
	timeout  time.Duration
	logger   *slog.Logger
}

func NewService(uploader Uploader, timeout time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		uploader: uploader,
		timeout:  timeout,
		logger:   logger.With("component", "media"),
	}
}

func (s *Service) UploadLocalFile(ctx context.Context, localPath string) (*Asset, bool) {
	if localPath == "" {
		return nil, false
	}
	defer s.removeLocal(localPath)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	ctx, span := core.StartSpan(ctx, "media.upload")
	defer span.End()

	asset, err := s.uploader.Upload(ctx, localPath)
	if err != nil {
		core.SetSpanError(ctx, err)
		s.logger.WarnContext(ctx, "media upload failed", "error", err)
		return nil, false
	}

	if asset == nil || asset.URL == "" {
		s.logger.WarnContext(ctx, "media upload returned no url")
		return nil, false
	}

	return asset, true
}

func (s *Service) removeLocal(localPath string) {
	if err := os.Remove(localPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("remove temp file", "path", localPath, "error", err)
	}
}
