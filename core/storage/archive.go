package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// Archive stores raw bodies of pages that could not be decoded, one object per page.
type Archive struct {
	client Client
	bucket string
	prefix string
	now    func() time.Time
}

// NewArchive creates an archive writing to cfg.Bucket under cfg.ArchivePrefix.
func NewArchive(client Client, cfg Config) *Archive {
	return &Archive{client: client, bucket: cfg.Bucket, prefix: cfg.ArchivePrefix, now: time.Now}
}

// Bucket returns the archive bucket.
func (a *Archive) Bucket() string {
	return a.bucket
}

// EnsureBucket creates the bucket when it does not exist.
func (a *Archive) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", a.bucket, err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
	}
	return nil
}

// Archive writes body under <prefix>/<feed>/ and returns the object key.
// Keys sort by archive time.
func (a *Archive) Archive(ctx context.Context, feed string, body []byte) (string, error) {
	key := path.Join(a.prefix, feed, fmt.Sprintf("%s-%s.json", a.now().UTC().Format("20060102T150405.000Z"), uuid.NewString()))
	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive page %s: %w", key, err)
	}
	return key, nil
}

// List returns the archived keys of feed in archive order. An empty feed lists all feeds.
func (a *Archive) List(ctx context.Context, feed string) ([]string, error) {
	prefix := a.prefix + "/"
	if feed != "" {
		prefix = path.Join(a.prefix, feed) + "/"
	}
	var keys []string
	for obj := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", prefix, obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	sort.Strings(keys)
	return keys, nil
}

// Get returns the archived body stored under key.
func (a *Archive) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := a.client.GetObject(ctx, a.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	defer obj.Close()
	body, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return body, nil
}
