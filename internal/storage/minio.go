package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"

	"notestash/pkg/logger"
)

// Sentinel errors for object storage failures. Callers match these with
// errors.Is; the wrapped error carries the offending key.
var (
	ErrWrite  = errors.New("object storage write failed")
	ErrDelete = errors.New("object storage delete failed")
	ErrSign   = errors.New("object storage sign failed")
)

// MinioStore is the ObjectStore backed by a MinIO (S3-compatible) bucket.
// The client handle is safe for concurrent use and shared process-wide.
type MinioStore struct {
	Client *minio.Client
	Bucket string
}

func NewMinioStore(client *minio.Client, bucket string) *MinioStore {
	return &MinioStore{Client: client, Bucket: bucket}
}

func (s *MinioStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.Client.PutObject(ctx, s.Bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		logger.Sugar.Errorf("Failed to write object %s: %v", key, err)
		return fmt.Errorf("%w: key %s: %v", ErrWrite, key, err)
	}
	return nil
}

func (s *MinioStore) Delete(ctx context.Context, key string) error {
	// RemoveObject on an absent key succeeds, so delete is idempotent.
	err := s.Client.RemoveObject(ctx, s.Bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		logger.Sugar.Errorf("Failed to delete object %s: %v", key, err)
		return fmt.Errorf("%w: key %s: %v", ErrDelete, key, err)
	}
	return nil
}

func (s *MinioStore) SignGetURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.Client.PresignedGetObject(ctx, s.Bucket, key, ttl, nil)
	if err != nil {
		logger.Sugar.Errorf("Failed to presign GET for object %s: %v", key, err)
		return "", fmt.Errorf("%w: key %s: %v", ErrSign, key, err)
	}
	return u.String(), nil
}

func (s *MinioStore) SignPutURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.Client.PresignedPutObject(ctx, s.Bucket, key, ttl)
	if err != nil {
		logger.Sugar.Errorf("Failed to presign PUT for object %s: %v", key, err)
		return "", fmt.Errorf("%w: key %s: %v", ErrSign, key, err)
	}
	return u.String(), nil
}
