// AngelaMos | 2026
// cloudinary.go

package media

import (
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/vidtube/go-backend/internal/config"
	"github.com/vidtube/go-backend/internal/core"
)

type CloudinaryUploader struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryUploader(cfg config.CloudinaryConfig) (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("create cloudinary client: %w", err)
	}
	cld.Config.URL.Secure = true

	return &CloudinaryUploader{cld: cld, folder: cfg.Folder}, nil
}

// Upload lets Cloudinary detect the resource type so images and videos go
// through the same call.
func (u *CloudinaryUploader) Upload(ctx context.Context, localPath string) (*Asset, error) {
	resp, err := u.cld.Upload.Upload(ctx, localPath, uploader.UploadParams{
		ResourceType: "auto",
		Folder:       u.folder,
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload: %w", err)
	}

	if resp.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary upload: %s: %w", resp.Error.Message, core.ErrUploadFailed)
	}

	return &Asset{URL: resp.SecureURL, PublicID: resp.PublicID}, nil
}
