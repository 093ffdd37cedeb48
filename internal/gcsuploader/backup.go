package gcsuploader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dvloznov/diane/internal/logger"
)

// BackupPrefix is the object prefix under which backups are written.
const BackupPrefix = "backups/"

// ErrDestinationExists is returned by Restore when the database file exists and force is off.
var ErrDestinationExists = errors.New("destination database already exists")

// BackupObjectName names a backup taken at t, e.g. backups/diane-20250127T150405Z.db.
// Names sort chronologically.
func BackupObjectName(t time.Time) string {
	return BackupPrefix + "diane-" + t.UTC().Format("20060102T150405Z") + ".db"
}

// Backup snapshots the database and uploads the snapshot. It returns the gs:// URI.
func Backup(ctx context.Context, db Snapshotter, svc StorageService, bucket string, now time.Time) (string, error) {
	log := logger.FromContext(ctx)

	dir, err := os.MkdirTemp("", "diane-backup-*")
	if err != nil {
		return "", fmt.Errorf("Backup: create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	snapshot := filepath.Join(dir, "snapshot.db")
	if err := db.Snapshot(ctx, snapshot); err != nil {
		return "", fmt.Errorf("Backup: %w", err)
	}

	object := BackupObjectName(now)
	if err := svc.UploadFile(ctx, bucket, object, snapshot); err != nil {
		return "", fmt.Errorf("Backup: %w", err)
	}

	uri := GCSURI(bucket, object)
	log.Info().Str("uri", uri).Msg("Database backup uploaded")
	return uri, nil
}

// LatestBackup returns the object name of the newest backup in bucket.
func LatestBackup(ctx context.Context, svc StorageService, bucket string) (string, error) {
	names, err := svc.ListObjects(ctx, bucket, BackupPrefix)
	if err != nil {
		return "", fmt.Errorf("LatestBackup: %w", err)
	}
	if len(names) == 0 {
		return "", fmt.Errorf("LatestBackup: no backups in gs://%s/%s", bucket, BackupPrefix)
	}
	return names[len(names)-1], nil
}

// Restore downloads a backup to destPath. An existing file is only
// replaced when force is set. The database must not be open while restoring.
func Restore(ctx context.Context, svc StorageService, bucket, object, destPath string, force bool) error {
	log := logger.FromContext(ctx)

	if _, err := os.Stat(destPath); err == nil && !force {
		return fmt.Errorf("Restore: %w: %s", ErrDestinationExists, destPath)
	}

	if err := svc.DownloadFile(ctx, bucket, object, destPath); err != nil {
		return fmt.Errorf("Restore: %w", err)
	}

	// Stale WAL files would be replayed on top of the restored database.
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(destPath + suffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("Restore: remove %s: %w", destPath+suffix, err)
		}
	}

	log.Info().Str("uri", GCSURI(bucket, object)).Str("path", destPath).Msg("Database restored")
	return nil
}
