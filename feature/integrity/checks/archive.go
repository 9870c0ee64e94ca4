package checks

import (
	"context"
	"fmt"
	"strings"

	"feedsync/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// ArchiveReport is the result of a page archive check.
type ArchiveReport struct {
	Bucket       string         `json:"bucket"`
	BucketExists bool           `json:"bucket_exists"`
	SkippedPages map[string]int `json:"skipped_pages"`
}

// CheckArchive verifies the archive bucket and counts skipped pages per feed.
func CheckArchive(ctx context.Context, client storage.Client, bucket, prefix string) (*ArchiveReport, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	report := &ArchiveReport{Bucket: bucket, BucketExists: exists, SkippedPages: map[string]int{}}
	if !exists {
		return report, nil
	}

	root := strings.TrimSuffix(prefix, "/") + "/"
	for obj := range client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: root, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list archive: %w", obj.Err)
		}
		feed, _, ok := strings.Cut(strings.TrimPrefix(obj.Key, root), "/")
		if !ok {
			continue
		}
		report.SkippedPages[feed]++
	}
	return report, nil
}

// FixArchive creates the archive bucket.
func FixArchive(ctx context.Context, client storage.Client, bucket string, logger *zap.Logger) error {
	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		logger.Error("Failed to create bucket", zap.String("bucket", bucket), zap.Error(err))
		return err
	}
	logger.Info("Created missing bucket", zap.String("bucket", bucket))
	return nil
}
