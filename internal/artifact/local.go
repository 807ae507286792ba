package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/agenthands/vectordb-crud/internal/core/model"
)

// LocalStore writes artifacts under a root directory.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) *LocalStore {
	if root == "" {
		root = "generated"
	}
	return &LocalStore{root: root}
}

// Put writes to a temp file and renames it into place, so readers never see
// a partial artifact.
func (s *LocalStore) Put(ctx context.Context, name, contentType string, data []byte) (model.Artifact, error) {
	if !filepath.IsLocal(name) {
		return model.Artifact{}, fmt.Errorf("artifact: invalid name %q", name)
	}
	if err := ctx.Err(); err != nil {
		return model.Artifact{}, err
	}

	path := filepath.Join(s.root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return model.Artifact{}, fmt.Errorf("artifact: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return model.Artifact{}, fmt.Errorf("artifact: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return model.Artifact{}, fmt.Errorf("artifact: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return model.Artifact{}, fmt.Errorf("artifact: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return model.Artifact{}, fmt.Errorf("artifact: rename: %w", err)
	}

	return model.Artifact{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Location:    path,
	}, nil
}
