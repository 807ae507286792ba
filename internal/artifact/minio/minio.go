// Package minio stores artifacts in MinIO or another S3-compatible service.
package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/agenthands/vectordb-crud/internal/core/model"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectPutter is the subset of minio.Client used here.
type ObjectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Prefix    string
}

type Store struct {
	client ObjectPutter
	bucket string
	prefix string
}

// New connects and creates the bucket when it does not exist yet.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Endpoint == "" || opts.Bucket == "" {
		return nil, fmt.Errorf("minio: endpoint and bucket are required")
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: client: %w", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("minio: check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio: make bucket: %w", err)
		}
	}

	return NewStore(client, opts.Bucket, opts.Prefix), nil
}

func NewStore(client ObjectPutter, bucket, prefix string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

func (s *Store) Put(ctx context.Context, name, contentType string, data []byte) (model.Artifact, error) {
	key := s.key(name)

	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return model.Artifact{}, fmt.Errorf("minio: put %s: %w", key, err)
	}

	return model.Artifact{
		Name:        name,
		ContentType: contentType,
		Size:        info.Size,
		Location:    fmt.Sprintf("%s/%s", s.bucket, key),
	}, nil
}
