package s3

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"github.com/ElHadji11/farmconnect-backend/internal/platform/logger"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// MediaStorage persists post photos in an S3-compatible object store and
// hands back stable public URLs.
type MediaStorage struct {
	client *minio.Client
	bucket string
	logger *logger.Logger
}

// NewMediaStorage connects to the object store and ensures the bucket.
func NewMediaStorage(endpoint, accessKey, secretKey, bucketName string, useSSL bool, log *logger.Logger) (*MediaStorage, error) {
	log.Info("Initializing media storage", zap.String("endpoint", endpoint), zap.String("bucket", bucketName), zap.Bool("use_ssl", useSSL))

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for endpoint %s: %w", endpoint, err)
	}

	err = client.MakeBucket(context.Background(), bucketName, minio.MakeBucketOptions{})
	if err != nil {
		exists, errBucketExists := client.BucketExists(context.Background(), bucketName)
		if errBucketExists == nil && exists {
			log.Info("Bucket already exists", zap.String("bucket", bucketName))
		} else {
			return nil, fmt.Errorf("failed to make/verify bucket %s: (make: %v / exists_check: %v)", bucketName, err, errBucketExists)
		}
	}

	return &MediaStorage{
		client: client,
		bucket: bucketName,
		logger: log.Named("MediaStorage"),
	}, nil
}

// Upload stores one photo under a generated object key and returns its URL.
func (s *MediaStorage) Upload(ctx context.Context, fileName, contentType string, data []byte) (string, error) {
	ext := filepath.Ext(fileName)
	objectKey := fmt.Sprintf("posts/%s%s", uuid.New().String(), ext)

	s.logger.Debug("Uploading photo",
		zap.String("bucket", s.bucket),
		zap.String("object_key", objectKey),
		zap.String("original_filename", fileName),
		zap.Int("size_bytes", len(data)))

	info, err := s.client.PutObject(ctx, s.bucket, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		s.logger.Error("PutObject failed", zap.String("bucket", s.bucket), zap.String("key", objectKey), zap.Error(err))
		return "", fmt.Errorf("failed to upload object %s to bucket %s: %w", objectKey, s.bucket, err)
	}

	fileURL := fmt.Sprintf("%s/%s/%s", s.client.EndpointURL().String(), s.bucket, objectKey)
	s.logger.Info("Photo uploaded", zap.String("key", info.Key), zap.String("url", fileURL))
	return fileURL, nil
}
