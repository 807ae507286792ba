package minio

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPutter struct {
	mock.Mock
}

func (m *MockPutter) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	args := m.Called(bucketName, objectName, objectSize, opts.ContentType)
	return args.Get(0).(minio.UploadInfo), args.Error(1)
}

func TestStore_Put(t *testing.T) {
	putter := new(MockPutter)
	store := NewStore(putter, "media", "generated")

	putter.On("PutObject", "media", "generated/images/x.png", int64(4), "image/png").
		Return(minio.UploadInfo{Bucket: "media", Key: "generated/images/x.png", Size: 4}, nil).Once()

	a, err := store.Put(context.Background(), "images/x.png", "image/png", []byte("\x89PNG"))

	require.NoError(t, err)
	assert.Equal(t, "images/x.png", a.Name)
	assert.Equal(t, int64(4), a.Size)
	assert.Equal(t, "media/generated/images/x.png", a.Location)
	putter.AssertExpectations(t)
}

func TestStore_PutError(t *testing.T) {
	putter := new(MockPutter)
	store := NewStore(putter, "media", "")

	putter.On("PutObject", "media", "audio/a.mp3", int64(1), "audio/mpeg").
		Return(minio.UploadInfo{}, errors.New("bucket gone")).Once()

	_, err := store.Put(context.Background(), "audio/a.mp3", "audio/mpeg", []byte("x"))
	assert.ErrorContains(t, err, "bucket gone")
}

func TestNew_RequiresEndpoint(t *testing.T) {
	_, err := New(context.Background(), Options{Bucket: "media"})
	assert.Error(t, err)
}
