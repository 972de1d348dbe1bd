package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/socialapp/backend/internal/config"
)

// ErrUnavailable indicates no object store has been configured.
var ErrUnavailable = errors.New("image storage unavailable")

// Uploader stores an image and returns the absolute URL it can be fetched from.
type Uploader interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// S3Uploader implements Uploader backed by an S3-compatible service.
type S3Uploader struct {
	uploader *manager.Uploader
	bucket   string
	baseURL  string
}

// NewS3Uploader configures an uploader targeting the provided object store.
func NewS3Uploader(ctx context.Context, cfg config.ObjectStoreConfig) (*S3Uploader, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 uploader: bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = true
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
		u.LeavePartsOnError = false
	})

	return &S3Uploader{
		uploader: uploader,
		bucket:   cfg.Bucket,
		baseURL:  publicBaseURL(cfg),
	}, nil
}

// publicBaseURL picks the prefix images are served from. An explicit public URL wins,
// then the custom endpoint in path style, then the regional AWS host.
func publicBaseURL(cfg config.ObjectStoreConfig) string {
	if base := strings.TrimSuffix(strings.TrimSpace(cfg.PublicBaseURL), "/"); base != "" {
		return base
	}
	if endpoint := strings.TrimSuffix(strings.TrimSpace(cfg.Endpoint), "/"); endpoint != "" {
		return endpoint + "/" + cfg.Bucket
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, region)
}

// Save uploads the provided content to the configured bucket and returns its public URL.
func (s *S3Uploader) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	key := strings.TrimLeft(path.Clean("/"+name), "/")
	if key == "" {
		return "", fmt.Errorf("s3 uploader: empty key")
	}
	if s == nil || s.uploader == nil {
		return "", ErrUnavailable
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   manager.ReadSeekCloser(r),
		ACL:    s3types.ObjectCannedACLPublicRead,
	}
	if contentType := mime.TypeByExtension(path.Ext(key)); contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return "", fmt.Errorf("s3 uploader upload %s: %w", key, err)
	}

	return s.baseURL + "/" + key, nil
}
