package storage

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MockUploader is an in-memory ImageUploader for tests and local
// development without AWS credentials.
type MockUploader struct {
	mu      sync.Mutex
	Uploads map[string]string // key -> original filename
	BaseURL string

	// FailNext forces the next upload to error, for exercising
	// handler error paths.
	FailNext bool
}

// NewMockUploader creates an empty MockUploader.
func NewMockUploader() *MockUploader {
	return &MockUploader{
		Uploads: make(map[string]string),
		BaseURL: "https://images.test.local",
	}
}

func (m *MockUploader) UploadPostImage(ctx context.Context, file multipart.File, header *multipart.FileHeader, userID string) (*UploadResult, error) {
	return m.upload(header, userID, "posts")
}

func (m *MockUploader) UploadAvatar(ctx context.Context, file multipart.File, header *multipart.FileHeader, userID string) (*UploadResult, error) {
	return m.upload(header, userID, "avatars")
}

func (m *MockUploader) upload(header *multipart.FileHeader, userID, folder string) (*UploadResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailNext {
		m.FailNext = false
		return nil, fmt.Errorf("mock upload failure")
	}

	extension := strings.ToLower(filepath.Ext(header.Filename))
	if imageContentType(extension) == "" {
		return nil, fmt.Errorf("unsupported image type: %q", extension)
	}

	key := fmt.Sprintf("%s/%s/%s%s", folder, userID, uuid.New().String(), extension)
	m.Uploads[key] = header.Filename

	return &UploadResult{
		Key:  key,
		URL:  fmt.Sprintf("%s/%s", m.BaseURL, key),
		Size: header.Size,
	}, nil
}

func (m *MockUploader) DeleteFile(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Uploads, key)
	return nil
}

var _ ImageUploader = (*MockUploader)(nil)
