package minio

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/gfdmit/tierboard/config"
	"github.com/gfdmit/tierboard/internal/repository"
)

type ImageRepository struct {
	cli    *minio.Client
	bucket string
	urlTTL time.Duration
}

var _ repository.ImageStore = (*ImageRepository)(nil)

func New(conf config.MinIO) (*ImageRepository, error) {
	client, err := minio.New(fmt.Sprintf("%s:%s", conf.Host, conf.Port), &minio.Options{
		Creds:  credentials.NewStaticV4(conf.User, conf.Pass, ""),
		Secure: conf.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("minio.New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, conf.Bucket)
	if err != nil {
		return nil, fmt.Errorf("minio.BucketExists: %v", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, conf.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio.MakeBucket: %v", err)
		}
	}

	ttl := conf.URLTTL
	if ttl <= 0 {
		ttl = 3 * time.Minute
	}
	return &ImageRepository{cli: client, bucket: conf.Bucket, urlTTL: ttl}, nil
}

func (r *ImageRepository) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	_, err := r.cli.PutObject(ctx, r.bucket, key, body, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

func (r *ImageRepository) Remove(ctx context.Context, key string) error {
	if err := r.cli.RemoveObject(ctx, r.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	return nil
}

// URL presigns a GET for key, valid for the configured TTL.
func (r *ImageRepository) URL(ctx context.Context, key string) (*url.URL, error) {
	u, err := r.cli.PresignedGetObject(ctx, r.bucket, key, r.urlTTL, nil)
	if err != nil {
		return nil, fmt.Errorf("presign object %s: %w", key, err)
	}
	return u, nil
}
