// Package storage wraps the S3-compatible object store that holds uploaded
// media bytes and generated thumbnails.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"gigsnap/internal/config"
	"gigsnap/internal/logging"
)

// Store reads and writes media objects in a single bucket.
type Store struct {
	client        *minio.Client
	bucket        string
	presignExpiry time.Duration
	logger        *slog.Logger
}

// New connects to the object store and ensures the configured bucket exists.
func New(ctx context.Context, cfg config.Storage, logger *slog.Logger) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage connect: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("storage bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("storage bucket create: %w", err)
		}
		logger.Info("created storage bucket", logging.String("bucket", cfg.Bucket))
	}

	expiry := time.Duration(cfg.PresignExpiryMinutes) * time.Minute
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &Store{
		client:        client,
		bucket:        cfg.Bucket,
		presignExpiry: expiry,
		logger:        logging.NewComponentLogger(logger, "storage"),
	}, nil
}

// FetchBytes downloads a whole object into memory. Media items are bounded
// by the upload size limit, so buffering is acceptable.
func (s *Store) FetchBytes(ctx context.Context, key string) ([]byte, error) {
	object, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("storage fetch %s: %w", key, err)
	}
	defer object.Close()
	data, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("storage read %s: %w", key, err)
	}
	return data, nil
}

// PutBytes uploads an object, overwriting any existing one under the key.
func (s *Store) PutBytes(ctx context.Context, key string, data []byte, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("storage put %s: %w", key, err)
	}
	return nil
}

// Remove deletes an object; missing objects are not an error.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("storage remove %s: %w", key, err)
	}
	return nil
}

// PresignedDownloadURL returns a time-limited GET URL for an object, used to
// hand photos to the vision service without proxying the bytes.
func (s *Store) PresignedDownloadURL(ctx context.Context, key string) (string, error) {
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.presignExpiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("storage presign %s: %w", key, err)
	}
	return presigned.String(), nil
}

// ThumbnailKey derives the storage key for a media item's thumbnail.
func ThumbnailKey(mediaKey string) string {
	trimmed := strings.TrimSuffix(mediaKey, "/")
	return "thumbnails/" + trimmed + ".jpg"
}
