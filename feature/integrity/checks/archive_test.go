package checks

import (
	"context"
	"errors"
	"testing"

	"feedsync/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCheckArchive(t *testing.T) {
	client := &mocks.Client{}
	client.On("BucketExists", mock.Anything, "feedsync").Return(true, nil)
	client.On("ListObjects", mock.Anything, "feedsync", minio.ListObjectsOptions{Prefix: "skipped/", Recursive: true}).
		Return([]minio.ObjectInfo{
			{Key: "skipped/home/1.json"},
			{Key: "skipped/home/2.json"},
			{Key: "skipped/mentions/1.json"},
			{Key: "skipped/stray.json"},
		})

	report, err := CheckArchive(context.Background(), client, "feedsync", "skipped")
	require.NoError(t, err)
	assert.True(t, report.BucketExists)
	assert.Equal(t, map[string]int{"home": 2, "mentions": 1}, report.SkippedPages)
}

func TestCheckArchive_MissingBucket(t *testing.T) {
	client := &mocks.Client{}
	client.On("BucketExists", mock.Anything, "feedsync").Return(false, nil)

	report, err := CheckArchive(context.Background(), client, "feedsync", "skipped")
	require.NoError(t, err)
	assert.False(t, report.BucketExists)
	client.AssertNotCalled(t, "ListObjects", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckArchive_Errors(t *testing.T) {
	client := &mocks.Client{}
	client.On("BucketExists", mock.Anything, "down").Return(false, errors.New("timeout"))
	_, err := CheckArchive(context.Background(), client, "down", "skipped")
	assert.ErrorContains(t, err, "timeout")

	client.On("BucketExists", mock.Anything, "feedsync").Return(true, nil)
	client.On("ListObjects", mock.Anything, "feedsync", mock.Anything).
		Return([]minio.ObjectInfo{{Err: errors.New("denied")}})
	_, err = CheckArchive(context.Background(), client, "feedsync", "skipped")
	assert.ErrorContains(t, err, "denied")
}

func TestFixArchive(t *testing.T) {
	client := &mocks.Client{}
	client.On("MakeBucket", mock.Anything, "feedsync", minio.MakeBucketOptions{}).Return(nil).Once()
	require.NoError(t, FixArchive(context.Background(), client, "feedsync", zap.NewNop()))

	client.On("MakeBucket", mock.Anything, "other", minio.MakeBucketOptions{}).Return(errors.New("exists"))
	assert.Error(t, FixArchive(context.Background(), client, "other", zap.NewNop()))
}
