package gcsuploader

import (
	"context"
)

// StorageService provides an interface for cloud storage operations.
// This interface enables mocking and testing of storage functionality.
type StorageService interface {
	// UploadFile uploads a local file to a storage bucket under the given object name.
	UploadFile(ctx context.Context, bucketName, objectName, filePath string) error

	// DownloadFile writes an object to destPath, replacing it only once the
	// download completed.
	DownloadFile(ctx context.Context, bucketName, objectName, destPath string) error

	// ListObjects returns the names of the objects under prefix, sorted.
	ListObjects(ctx context.Context, bucketName, prefix string) ([]string, error)
}

// Snapshotter writes a consistent copy of the database to a new file.
type Snapshotter interface {
	Snapshot(ctx context.Context, dest string) error
}
