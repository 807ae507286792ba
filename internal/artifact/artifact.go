// Package artifact persists generated media.
package artifact

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/agenthands/vectordb-crud/internal/artifact/minio"
	"github.com/agenthands/vectordb-crud/internal/artifact/s3"
	"github.com/agenthands/vectordb-crud/internal/config"
	"github.com/agenthands/vectordb-crud/internal/core/model"
	"github.com/google/uuid"
)

// Store writes one named object. Implementations must be safe for
// concurrent use; callers pass unique names.
type Store interface {
	Put(ctx context.Context, name, contentType string, data []byte) (model.Artifact, error)
}

// New builds the store selected by cfg.Provider.
func New(ctx context.Context, cfg config.ArtifactConfig, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch strings.ToLower(cfg.Provider) {
	case "", "local":
		logger.Info("artifacts stored on local disk", "dir", cfg.Dir)
		return NewLocalStore(cfg.Dir), nil
	case "s3":
		logger.Info("artifacts stored in s3", "bucket", cfg.Bucket, "prefix", cfg.Prefix)
		return s3.New(ctx, cfg.Bucket, cfg.Prefix, cfg.Endpoint)
	case "minio":
		logger.Info("artifacts stored in minio", "endpoint", cfg.Endpoint, "bucket", cfg.Bucket)
		return minio.New(ctx, minio.Options{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			UseSSL:    cfg.UseSSL,
			Bucket:    cfg.Bucket,
			Prefix:    cfg.Prefix,
		})
	case "none":
		logger.Info("artifact persistence disabled")
		return Discard{}, nil
	default:
		return nil, fmt.Errorf("unsupported artifact provider: %s", cfg.Provider)
	}
}

// Name returns a per-request object name such as audio/<id>-<uuid>.mp3.
func Name(kind, recordID, contentType string) string {
	return fmt.Sprintf("%s/%s-%s%s", kind, recordID, uuid.NewString(), Extension(contentType))
}

// Extension maps a media type to a file extension.
func Extension(contentType string) string {
	mediaType, _, _ := strings.Cut(strings.ToLower(contentType), ";")

	switch strings.TrimSpace(mediaType) {
	case "audio/mpeg", "audio/mp3", "":
		return ".mp3"
	case "audio/flac", "audio/x-flac":
		return ".flac"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/ogg":
		return ".ogg"
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	return ".bin"
}

// Discard accepts artifacts without storing them.
type Discard struct{}

func (Discard) Put(ctx context.Context, name, contentType string, data []byte) (model.Artifact, error) {
	return model.Artifact{Name: name, ContentType: contentType, Size: int64(len(data))}, nil
}
