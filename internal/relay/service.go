// Package relay downloads photos attached to inbound messages and re-hosts
// them in durable object storage.
package relay

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"wildguard_backend/platform/apperr"
	"wildguard_backend/platform/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ContentDownloader fetches inbound message binaries from the platform.
type ContentDownloader interface {
	GetMessageContent(ctx context.Context, messageID string) ([]byte, string, error)
}

// Config provides the object storage settings.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOBucketImages() string
	GetMinIOPublicBase() string
}

// Result describes one relayed image.
type Result struct {
	URL string
	// CapturedAt is the EXIF capture time when the photo carries one.
	CapturedAt *time.Time
}

// Service relays platform-hosted images into object storage. Failures
// propagate as retryable upstream errors; the conversation holds the user
// at the photo step instead of dropping the photo.
type Service struct {
	downloader ContentDownloader
	client     *minio.Client
	bucket     string
	publicBase string
	log        *logger.Logger
}

// NewService creates the relay with a MinIO client.
func NewService(cfg Config, downloader ContentDownloader, log *logger.Logger) (*Service, error) {
	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	publicBase := strings.TrimRight(cfg.GetMinIOPublicBase(), "/")
	if publicBase == "" {
		publicBase = client.EndpointURL().String()
	}

	return &Service{
		downloader: downloader,
		client:     client,
		bucket:     cfg.GetMinIOBucketImages(),
		publicBase: publicBase,
		log:        log,
	}, nil
}

// EnsureBucketExists creates the image bucket if it doesn't exist.
func (s *Service) EnsureBucketExists(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// Relay downloads the message content and uploads it under a
// collision-resistant key (source message id + timestamp).
func (s *Service) Relay(ctx context.Context, sourceMessageID string) (Result, error) {
	data, contentType, err := s.downloader.GetMessageContent(ctx, sourceMessageID)
	if err != nil {
		s.log.UpstreamError("line", "message content download", err)
		return Result{}, apperr.Upstream("image download failed", err)
	}

	key := fmt.Sprintf("%s_%d%s", sourceMessageID, time.Now().UnixMilli(), extensionFor(contentType))

	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		s.log.UpstreamError("minio", "image upload", err)
		return Result{}, apperr.Upstream("image upload failed", err)
	}

	return Result{
		URL:        fmt.Sprintf("%s/%s/%s", s.publicBase, s.bucket, key),
		CapturedAt: captureTime(data),
	}, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	default:
		return ".bin"
	}
}
