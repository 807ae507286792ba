package artifact

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/agenthands/vectordb-crud/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestName_Unique(t *testing.T) {
	const n = 50
	names := make(chan string, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			names <- Name("audio", "rec-1", "audio/mpeg")
		}()
	}
	wg.Wait()
	close(names)

	seen := map[string]bool{}
	for name := range names {
		assert.True(t, strings.HasPrefix(name, "audio/rec-1-"))
		assert.True(t, strings.HasSuffix(name, ".mp3"))
		assert.False(t, seen[name], "duplicate name %s", name)
		seen[name] = true
	}
	assert.Len(t, seen, n)
}

func TestExtension(t *testing.T) {
	tests := map[string]string{
		"audio/mpeg":               ".mp3",
		"":                         ".mp3",
		"audio/flac":               ".flac",
		"image/jpeg":               ".jpg",
		"image/png; charset=utf-8": ".png",
		"application/octet-stream": ".bin",
	}
	for in, expected := range tests {
		assert.Equal(t, expected, Extension(in), in)
	}
}

func TestLocalStore_Put(t *testing.T) {
	root := t.TempDir()
	s := NewLocalStore(root)

	a, err := s.Put(context.Background(), "images/x.png", "image/png", []byte("png"))

	require.NoError(t, err)
	assert.Equal(t, "images/x.png", a.Name)
	assert.Equal(t, int64(3), a.Size)

	data, err := os.ReadFile(filepath.Join(root, "images", "x.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)

	entries, err := os.ReadDir(filepath.Join(root, "images"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	s := NewLocalStore(t.TempDir())

	_, err := s.Put(context.Background(), "../escape.mp3", "audio/mpeg", []byte("x"))
	assert.Error(t, err)

	_, err = s.Put(context.Background(), "/abs.mp3", "audio/mpeg", []byte("x"))
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, config.ArtifactConfig{Provider: "local", Dir: t.TempDir()}, nil)
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, s)

	s, err = New(ctx, config.ArtifactConfig{Provider: "none"}, nil)
	require.NoError(t, err)
	a, err := s.Put(ctx, "audio/a.mp3", "audio/mpeg", []byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), a.Size)

	_, err = New(ctx, config.ArtifactConfig{Provider: "ftp"}, nil)
	assert.Error(t, err)

	_, err = New(ctx, config.ArtifactConfig{Provider: "minio"}, nil)
	assert.Error(t, err)
}
