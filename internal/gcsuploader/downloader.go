package gcsuploader

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DownloadFile copies an object into destPath. The data lands in a
// temporary file in the same directory first and is renamed into place.
func (s *GCSStorageService) DownloadFile(ctx context.Context, bucketName, objectName, destPath string) error {
	r, err := s.client.Bucket(bucketName).Object(objectName).NewReader(ctx)
	if err != nil {
		return fmt.Errorf("DownloadFile: open GCS object reader: %w", err)
	}
	defer r.Close()

	return writeAtomically(destPath, r)
}

func writeAtomically(destPath string, r io.Reader) error {
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(destPath)+".partial-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("read GCS object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), destPath); err != nil {
		return fmt.Errorf("move download into place: %w", err)
	}
	return nil
}
