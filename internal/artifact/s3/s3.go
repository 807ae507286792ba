// Package s3 stores artifacts in an S3 bucket.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/agenthands/vectordb-crud/internal/core/model"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Uploader is the subset of manager.Uploader used here.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type Store struct {
	uploader Uploader
	bucket   string
	prefix   string
}

// New loads the default AWS credential chain. A non-empty endpoint switches
// to path-style addressing for S3-compatible services.
func New(ctx context.Context, bucket, prefix, endpoint string) (*Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3: bucket is required")
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return NewStore(manager.NewUploader(client), bucket, prefix), nil
}

func NewStore(uploader Uploader, bucket, prefix string) *Store {
	return &Store{
		uploader: uploader,
		bucket:   bucket,
		prefix:   prefix,
	}
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

func (s *Store) Put(ctx context.Context, name, contentType string, data []byte) (model.Artifact, error) {
	key := s.key(name)

	out, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return model.Artifact{}, fmt.Errorf("s3: upload %s: %w", key, err)
	}

	location := fmt.Sprintf("s3://%s/%s", s.bucket, key)
	if out != nil && out.Location != "" {
		location = out.Location
	}

	return model.Artifact{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Location:    location,
	}, nil
}
