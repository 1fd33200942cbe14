package storage

import (
	"context"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	"github.com/prhdev222/med-file-case/internal/config"
	"github.com/prhdev222/med-file-case/internal/types"
)

type objectStorage struct {
	client *minio.Client
	bucket string
	region string
}

func NewObjectStorage(cfg config.OffsiteConfig) (Storage, error) {
	if !cfg.S3Enabled() {
		return nil, errors.New("object storage is not configured")
	}

	mn, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create object storage client")
	}

	bucket := cfg.Bucket
	if bucket == "" {
		bucket = "backups"
	}
	return &objectStorage{
		client: mn,
		bucket: bucket,
		region: cfg.Region,
	}, nil
}

func (s objectStorage) Save(ctx context.Context, location string, file types.File) error {
	if err := s.makeBucket(ctx); err != nil {
		return err
	}

	_, err := s.client.PutObject(ctx, s.bucket, location, file.Content, file.Stat.Size, minio.PutObjectOptions{
		ContentType: file.GetContentType(),
		PartSize:    partSize,
	})
	if err != nil {
		return errors.Wrap(err, "failed to upload "+location)
	}
	return nil
}

func (s objectStorage) makeBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return errors.Wrap(err, "failed to check bucket "+s.bucket)
	}

	if exists {
		return nil
	}

	return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{
		Region: s.region,
	})
}

func (s objectStorage) Ping(ctx context.Context) error {
	_, err := s.client.ListBuckets(ctx)
	if err != nil {
		return err
	}
	return nil
}

func (s objectStorage) Type() Type {
	return TypeS3
}
