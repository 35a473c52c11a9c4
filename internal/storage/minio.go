package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore implements BlobStore using a MinIO (or any S3-compatible)
// backend. This is the highest-latency, highest-failure step in the upload
// pipeline, so every call carries a deadline and failures are wrapped with
// the provider's diagnostic message.
type MinioStore struct {
	client     *minio.Client
	bucket     string
	folder     string
	publicBase string
	timeout    time.Duration
}

// NewMinioStore creates a MinIO client, ensures the bucket exists with a
// public-read policy, and returns a ready-to-use MinioStore. Objects are
// stored under folder inside the bucket.
func NewMinioStore(endpoint, accessKey, secretKey, bucket, folder, publicBase string, useSSL bool, timeout time.Duration) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx := context.Background()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", bucket, err)
		}
		log.Printf("storage: created bucket %q", bucket)
	}

	if err := client.SetBucketPolicy(ctx, bucket, publicReadPolicy(bucket)); err != nil {
		return nil, fmt.Errorf("set bucket policy: %w", err)
	}

	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &MinioStore{
		client:     client,
		bucket:     bucket,
		folder:     strings.Trim(folder, "/"),
		publicBase: strings.TrimRight(publicBase, "/"),
		timeout:    timeout,
	}, nil
}

// Upload streams the content to the bucket under a uniquely generated key
// and returns the locator with the durable public URL.
func (s *MinioStore) Upload(ctx context.Context, r io.Reader, size int64, originalName, contentType string) (Locator, error) {
	if size == 0 {
		return Locator{}, ErrEmptyPayload
	}

	key := uniqueName(originalName)
	if s.folder != "" {
		key = s.folder + "/" + key
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return Locator{}, fmt.Errorf("put object %q: %w", key, err)
	}

	return Locator{Key: key, URL: s.URL(key)}, nil
}

// Delete removes the object at key from the bucket.
func (s *MinioStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

// URL returns the browser-accessible URL for the given key.
func (s *MinioStore) URL(key string) string {
	return s.publicBase + "/" + key
}

// publicReadPolicy returns an S3 bucket policy JSON that allows anonymous GET on all objects.
func publicReadPolicy(bucket string) string {
	policy := map[string]interface{}{
		"Version": "2012-10-17",
		"Statement": []map[string]interface{}{
			{
				"Effect":    "Allow",
				"Principal": "*",
				"Action":    "s3:GetObject",
				"Resource":  fmt.Sprintf("arn:aws:s3:::%s/*", bucket),
			},
		},
	}
	b, _ := json.Marshal(policy)
	return string(b)
}
