package storage

import (
	"bytes"
	"context"
	"fmt"

	"chatcal-api/core/config"
	"chatcal-api/core/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Uploader archives opaque blobs for later audit/replay.
type Uploader interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

type s3Uploader struct {
	client *s3.Client
	bucket string
}

func NewS3Uploader(cfg *config.Config) (Uploader, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET not configured")
	}

	client := s3.New(s3.Options{
		Region: cfg.S3Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
	})

	logger.Info("S3 uploader initialized", "bucket", cfg.S3Bucket, "region", cfg.S3Region)
	return &s3Uploader{client: client, bucket: cfg.S3Bucket}, nil
}

func (u *s3Uploader) Put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}
