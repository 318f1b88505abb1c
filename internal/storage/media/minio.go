// Package media stores photo/voice payloads in object storage. The
// engine only ever handles object names; bytes move between the
// transport and the bucket through presigned URLs.
package media

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"roadwatch/internal/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Store interface {
	PresignedUploadURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
	PresignedDownloadURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
	NewObjectName(reporterID, extension string) string
}

type minioStore struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

func NewMinioStore(ctx context.Context, cfg config.MediaConfig, logger *slog.Logger) (Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	s := &minioStore{client: client, bucket: cfg.Bucket, logger: logger}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}

	logger.Info("Connected to media store", slog.String("bucket", cfg.Bucket))
	return s, nil
}

func (s *minioStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

func (s *minioStore) PresignedUploadURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedPutObject(ctx, s.bucket, objectName, expiry)
	if err != nil {
		return "", fmt.Errorf("failed to generate upload URL: %w", err)
	}
	return u.String(), nil
}

func (s *minioStore) PresignedDownloadURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate download URL: %w", err)
	}
	return u.String(), nil
}

func (s *minioStore) NewObjectName(reporterID, extension string) string {
	ext := strings.TrimPrefix(strings.ToLower(extension), ".")
	return fmt.Sprintf("reports/%s/%s.%s", reporterID, uuid.New().String(), ext)
}
