package s3

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*manager.UploadOutput), args.Error(1)
}

func TestStore_Put(t *testing.T) {
	up := new(MockUploader)
	store := NewStore(up, "media", "generated")

	up.On("Upload", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		body, _ := io.ReadAll(in.Body)
		return *in.Bucket == "media" &&
			*in.Key == "generated/audio/a.mp3" &&
			*in.ContentType == "audio/mpeg" &&
			string(body) == "mp3"
	})).Return(&manager.UploadOutput{Location: "https://media.s3.amazonaws.com/generated/audio/a.mp3"}, nil).Once()

	a, err := store.Put(context.Background(), "audio/a.mp3", "audio/mpeg", []byte("mp3"))

	require.NoError(t, err)
	assert.Equal(t, "https://media.s3.amazonaws.com/generated/audio/a.mp3", a.Location)
	assert.Equal(t, int64(3), a.Size)
	up.AssertExpectations(t)
}

func TestStore_PutError(t *testing.T) {
	up := new(MockUploader)
	store := NewStore(up, "media", "")

	up.On("Upload", mock.Anything, mock.Anything).Return(nil, errors.New("access denied")).Once()

	_, err := store.Put(context.Background(), "images/x.jpg", "image/jpeg", []byte("x"))
	assert.ErrorContains(t, err, "access denied")
}
