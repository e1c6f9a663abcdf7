package publish

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type putCall struct {
	Bucket      string
	Key         string
	Body        string
	ContentType string
}

type fakeObjectStore struct {
	mu      sync.Mutex
	exists  bool
	made    []string
	puts    []putCall
	putErr  error
	listErr error
}

func (f *fakeObjectStore) BucketExists(_ context.Context, _ string) (bool, error) {
	return f.exists, f.listErr
}

func (f *fakeObjectStore) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.made = append(f.made, bucket)
	return nil
}

func (f *fakeObjectStore) PutObject(_ context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, putCall{Bucket: bucket, Key: key, Body: string(body), ContentType: opts.ContentType})
	return minio.UploadInfo{Bucket: bucket, Key: key, Size: size}, nil
}

func docTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"README.md":          "# overview",
		"description.md":     "root",
		"pkg/description.md": "pkg",
	}
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

func TestCollectFilesSorted(t *testing.T) {
	files, err := collectFiles(docTree(t))
	require.NoError(t, err)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"README.md", "description.md", "pkg/description.md"}, paths)
	assert.Equal(t, "pkg", string(files[2].Data))
}

func TestS3PublishCreatesBucketAndUploads(t *testing.T) {
	store := &fakeObjectStore{}
	p := NewS3PublisherWithStore(store, S3Config{Bucket: "docs", Prefix: "generated", Project: "demo"})

	url, err := p.Publish(context.Background(), docTree(t), "RUN1")
	require.NoError(t, err)

	assert.Equal(t, "s3://docs/generated/demo/RUN1", url)
	assert.Equal(t, []string{"docs"}, store.made)
	require.Len(t, store.puts, 3)
	assert.Equal(t, putCall{
		Bucket:      "docs",
		Key:         "generated/demo/RUN1/pkg/description.md",
		Body:        "pkg",
		ContentType: "text/markdown; charset=utf-8",
	}, store.puts[2])
}

func TestS3PublishExistingBucket(t *testing.T) {
	store := &fakeObjectStore{exists: true}
	p := NewS3PublisherWithStore(store, S3Config{Bucket: "docs"})

	url, err := p.Publish(context.Background(), docTree(t), "")
	require.NoError(t, err)

	assert.Empty(t, store.made)
	assert.Regexp(t, `^s3://docs/[0-9A-Z]{26}$`, url)
}

func TestS3PublishErrors(t *testing.T) {
	boom := errors.New("boom")

	_, err := NewS3PublisherWithStore(&fakeObjectStore{listErr: boom}, S3Config{Bucket: "b"}).
		Publish(context.Background(), docTree(t), "r")
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "ensure bucket")

	_, err = NewS3PublisherWithStore(&fakeObjectStore{exists: true, putErr: boom}, S3Config{Bucket: "b"}).
		Publish(context.Background(), docTree(t), "r")
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "put r/README.md")
}

func TestNewS3PublisherValidates(t *testing.T) {
	_, err := NewS3Publisher(S3Config{Bucket: "b"})
	assert.ErrorContains(t, err, "endpoint")

	_, err = NewS3Publisher(S3Config{Endpoint: "localhost:9000"})
	assert.ErrorContains(t, err, "bucket")

	p, err := NewS3Publisher(S3Config{Endpoint: "localhost:9000", Bucket: "b"})
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", p.cfg.Region)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/markdown; charset=utf-8", contentType("a/README.MD"))
	assert.Equal(t, "application/octet-stream", contentType("a/logo.png"))
}
