package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"imagedrop/api/internal/config"
)

// S3Backend stores uploads in a single bucket on any S3-compatible endpoint.
// Like the local backend it keeps no index; List is a fresh bucket scan.
type S3Backend struct {
	client *minio.Client
	bucket string
	region string
}

func NewS3Backend(cfg config.StorageConfig) (*S3Backend, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	return &S3Backend{
		client: client,
		bucket: cfg.Bucket,
		region: cfg.Region,
	}, nil
}

func (b *S3Backend) EnsureReady(ctx context.Context) error {
	exists, err := b.client.BucketExists(ctx, b.bucket)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", b.bucket, err)
	}
	if !exists {
		if err := b.client.MakeBucket(ctx, b.bucket, minio.MakeBucketOptions{Region: b.region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", b.bucket, err)
		}
	}
	return nil
}

func (b *S3Backend) Ping(ctx context.Context) error {
	exists, err := b.client.BucketExists(ctx, b.bucket)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", b.bucket, err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", b.bucket)
	}
	return nil
}

func (b *S3Backend) Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (int64, error) {
	if !validName(name) {
		return 0, fmt.Errorf("invalid file name %q", name)
	}

	info, err := b.client.PutObject(ctx, b.bucket, name, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return 0, fmt.Errorf("put object: %w", err)
	}
	return info.Size, nil
}

func (b *S3Backend) Open(ctx context.Context, name string) (io.ReadCloser, Entry, error) {
	if !validName(name) {
		return nil, Entry{}, ErrNotFound
	}

	obj, err := b.client.GetObject(ctx, b.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, Entry{}, fmt.Errorf("get object: %w", err)
	}

	// GetObject is lazy; Stat performs the request and surfaces missing keys.
	stat, err := obj.Stat()
	if err != nil {
		obj.Close()
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return nil, Entry{}, ErrNotFound
		}
		return nil, Entry{}, fmt.Errorf("stat object: %w", err)
	}

	return obj, Entry{Name: name, Size: stat.Size, ModTime: stat.LastModified}, nil
}

func (b *S3Backend) List(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	for obj := range b.client.ListObjects(ctx, b.bucket, minio.ListObjectsOptions{}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects: %w", obj.Err)
		}
		entries = append(entries, Entry{
			Name:    obj.Key,
			Size:    obj.Size,
			ModTime: obj.LastModified,
		})
	}
	return entries, nil
}
