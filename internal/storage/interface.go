package storage

import (
	"context"
	"mime/multipart"
)

// ImageUploader defines the interface for uploading post images and
// avatars. This interface allows for easy mocking in tests.
type ImageUploader interface {
	UploadPostImage(ctx context.Context, file multipart.File, header *multipart.FileHeader, userID string) (*UploadResult, error)
	UploadAvatar(ctx context.Context, file multipart.File, header *multipart.FileHeader, userID string) (*UploadResult, error)
	DeleteFile(ctx context.Context, key string) error
}

// Ensure S3Uploader implements ImageUploader
var _ ImageUploader = (*S3Uploader)(nil)
