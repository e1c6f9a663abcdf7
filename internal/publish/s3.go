package publish

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore is the subset of *minio.Client used by S3Publisher.
type ObjectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// S3Config holds S3-compatible storage settings.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	Project   string
	UseSSL    bool
}

// S3Publisher uploads documentation to <prefix>/<project>/<runID>/ in a
// bucket, creating the bucket when missing.
type S3Publisher struct {
	store ObjectStore
	cfg   S3Config
}

// NewS3Publisher builds a minio client for cfg.
func NewS3Publisher(cfg S3Config) (*S3Publisher, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return NewS3PublisherWithStore(client, cfg), nil
}

// NewS3PublisherWithStore uses store for all calls.
func NewS3PublisherWithStore(store ObjectStore, cfg S3Config) *S3Publisher {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	return &S3Publisher{store: store, cfg: cfg}
}

// Publish uploads every file under dir and returns the s3:// URL of the
// uploaded prefix.
func (p *S3Publisher) Publish(ctx context.Context, dir, runID string) (string, error) {
	files, err := collectFiles(dir)
	if err != nil {
		return "", err
	}
	if err := p.ensureBucket(ctx); err != nil {
		return "", fmt.Errorf("ensure bucket: %w", err)
	}

	prefix := path.Join(p.cfg.Prefix, p.cfg.Project, runKey(runID))
	for _, f := range files {
		key := path.Join(prefix, f.Path)
		_, err := p.store.PutObject(ctx, p.cfg.Bucket, key, bytes.NewReader(f.Data), int64(len(f.Data)), minio.PutObjectOptions{
			ContentType: contentType(f.Path),
		})
		if err != nil {
			return "", fmt.Errorf("put %s: %w", key, err)
		}
	}
	log.Printf("publish: uploaded %d files to s3://%s/%s", len(files), p.cfg.Bucket, prefix)
	return fmt.Sprintf("s3://%s/%s", p.cfg.Bucket, prefix), nil
}

func (p *S3Publisher) ensureBucket(ctx context.Context) error {
	exists, err := p.store.BucketExists(ctx, p.cfg.Bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return p.store.MakeBucket(ctx, p.cfg.Bucket, minio.MakeBucketOptions{Region: p.cfg.Region})
}

func contentType(name string) string {
	if strings.EqualFold(path.Ext(name), ".md") {
		return "text/markdown; charset=utf-8"
	}
	return "application/octet-stream"
}
