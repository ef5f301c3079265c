package minio

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/symfind/storage"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		name     string
		location string
		bucket   string
		prefix   string
		wantErr  bool
	}{
		{name: "bucket only", location: "s3://docs", bucket: "docs"},
		{name: "with prefix", location: "s3://docs/cdl/search/", bucket: "docs", prefix: "cdl/search"},
		{name: "wrong scheme", location: "https://docs/search", wantErr: true},
		{name: "missing bucket", location: "s3:///search", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, prefix, err := ParseLocation(tt.location)
			if tt.wantErr {
				assert.ErrorIs(t, err, storage.ErrInvalidLocation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bucket, bucket)
			assert.Equal(t, tt.prefix, prefix)
		})
	}
}

func TestNewSource(t *testing.T) {
	client, err := NewClient(ClientConfig{Endpoint: "localhost:9000"})
	require.NoError(t, err)

	src, err := NewSource(client, "docs", "/cdl/search/", "")
	require.NoError(t, err)
	assert.Equal(t, "s3://docs/cdl/search", src.Location())
	assert.Equal(t, "cdl/search/a.json", src.(*Source).objectKey("a"))

	src, err = NewSource(client, "docs", "", "all_%s.js")
	require.NoError(t, err)
	assert.Equal(t, "s3://docs", src.Location())
	assert.Equal(t, "all__.js", src.(*Source).objectKey("_"))

	_, err = NewSource(nil, "docs", "", "")
	assert.ErrorIs(t, err, storage.ErrInvalidLocation)
	_, err = NewSource(client, "", "", "")
	assert.ErrorIs(t, err, storage.ErrInvalidLocation)
	_, err = NewClient(ClientConfig{})
	assert.ErrorIs(t, err, storage.ErrInvalidLocation)
}

// TestSource_Integration requires a running MinIO instance named by
// SYMFIND_MINIO_ENDPOINT. Skipped otherwise.
func TestSource_Integration(t *testing.T) {
	endpoint := os.Getenv("SYMFIND_MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("SYMFIND_MINIO_ENDPOINT not set")
	}
	client, err := NewClient(ClientConfig{
		Endpoint:  endpoint,
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	})
	require.NoError(t, err)

	ctx := context.Background()
	if _, err := client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	const bucket = "test-symfind"
	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	payload := []byte(`[{"key":"apple"}]`)
	_, err = client.PutObject(ctx, bucket, "search/a.json", bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{})
	require.NoError(t, err)

	src, err := NewSource(client, bucket, "search", "")
	require.NoError(t, err)

	data, err := src.Fetch(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	_, err = src.Fetch(ctx, "z")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
