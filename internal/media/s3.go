// AngelaMos | 2026
// s3.go

package media

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/vidtube/go-backend/internal/config"
)

// S3API is the slice of the S3 client the uploader needs.
type S3API interface {
	PutObject(
		ctx context.Context,
		params *s3.PutObjectInput,
		optFns ...func(*s3.Options),
	) (*s3.PutObjectOutput, error)
}

// S3Uploader stores files in any S3-compatible bucket (AWS, R2, MinIO).
type S3Uploader struct {
	client        S3API
	bucket        string
	keyPrefix     string
	publicBaseURL string
}

func NewS3Uploader(ctx context.Context, cfg config.S3Config) (*S3Uploader, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := strings.TrimSuffix(cfg.Endpoint, "/")
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	publicBase := strings.TrimSuffix(cfg.PublicBaseURL, "/")
	if publicBase == "" {
		if endpoint != "" {
			publicBase = endpoint + "/" + cfg.Bucket
		} else {
			publicBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}

	return NewS3UploaderWithClient(client, cfg.Bucket, cfg.KeyPrefix, publicBase), nil
}

func NewS3UploaderWithClient(client S3API, bucket, keyPrefix, publicBaseURL string) *S3Uploader {
	return &S3Uploader{
		client:        client,
		bucket:        bucket,
		keyPrefix:     strings.Trim(keyPrefix, "/"),
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
	}
}

func (u *S3Uploader) Upload(ctx context.Context, localPath string) (*Asset, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only handle

	ext := strings.ToLower(filepath.Ext(localPath))
	key := uuid.NewString() + ext
	if u.keyPrefix != "" {
		key = path.Join(u.keyPrefix, key)
	}

	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if _, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
	}); err != nil {
		return nil, fmt.Errorf("s3 put object: %w", err)
	}

	return &Asset{URL: u.publicBaseURL + "/" + key, PublicID: key}, nil
}
