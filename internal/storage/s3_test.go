package storage

import (
	"context"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", imageContentType(".jpg"))
	assert.Equal(t, "image/jpeg", imageContentType(".jpeg"))
	assert.Equal(t, "image/png", imageContentType(".png"))
	assert.Equal(t, "image/webp", imageContentType(".webp"))
	assert.Equal(t, "image/gif", imageContentType(".gif"))

	assert.Empty(t, imageContentType(".mp3"))
	assert.Empty(t, imageContentType(".exe"))
	assert.Empty(t, imageContentType(""))
}

func TestMockUploader(t *testing.T) {
	mock := NewMockUploader()

	header := &multipart.FileHeader{Filename: "sunset.jpg", Size: 1024}
	result, err := mock.UploadPostImage(context.Background(), nil, header, "user-1")
	require.NoError(t, err)
	assert.Contains(t, result.Key, "posts/user-1/")
	assert.Contains(t, result.URL, mock.BaseURL)
	assert.Equal(t, int64(1024), result.Size)
	assert.Len(t, mock.Uploads, 1)

	// Disallowed extension
	header = &multipart.FileHeader{Filename: "track.mp3"}
	_, err = mock.UploadPostImage(context.Background(), nil, header, "user-1")
	assert.Error(t, err)

	// Forced failure
	mock.FailNext = true
	header = &multipart.FileHeader{Filename: "ok.png"}
	_, err = mock.UploadAvatar(context.Background(), nil, header, "user-1")
	assert.Error(t, err)

	// Delete
	for key := range mock.Uploads {
		require.NoError(t, mock.DeleteFile(context.Background(), key))
	}
	assert.Empty(t, mock.Uploads)
}
