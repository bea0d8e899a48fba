package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/damacus/s3ducky/internal/models"
	"github.com/minio/madmin-go/v3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"golang.org/x/sync/errgroup"
)

// DefaultDownloadConcurrency bounds parallel object fetches for archives
const DefaultDownloadConcurrency = 4

// MinioAdminClient is an interface for the madmin methods we use
type MinioAdminClient interface {
	DataUsageInfo(ctx context.Context) (madmin.DataUsageInfo, error)
}

// MinioClient is an interface for the standard S3 methods we use
type MinioClient interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) ([]minio.ObjectInfo, error)
	GetObjectReader(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, minio.ObjectInfo, error)
}

// MinioClientFactory creates authenticated clients
type MinioClientFactory interface {
	NewAdminClient(creds models.Credentials) (MinioAdminClient, error)
	NewClient(creds models.Credentials) (MinioClient, error)
}

// WrappedMinioClient wraps minio.Client to implement our interface
type WrappedMinioClient struct {
	client *minio.Client
}

func (c *WrappedMinioClient) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return c.client.BucketExists(ctx, bucketName)
}

func (c *WrappedMinioClient) ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) ([]minio.ObjectInfo, error) {
	// Convert channel to slice
	var objects []minio.ObjectInfo
	for obj := range c.client.ListObjects(ctx, bucketName, opts) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

func (c *WrappedMinioClient) GetObjectReader(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, minio.ObjectInfo, error) {
	obj, err := c.client.GetObject(ctx, bucketName, objectName, opts)
	if err != nil {
		return nil, minio.ObjectInfo{}, err
	}
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, minio.ObjectInfo{}, err
	}
	return obj, info, nil
}

// RealMinioFactory is the production implementation
type RealMinioFactory struct{}

// shouldUseSSL determines if SSL should be used based on the endpoint.
// Returns false for localhost, 127.0.0.1, and docker service names.
func shouldUseSSL(endpoint string) bool {
	// Local development endpoints
	if endpoint == "localhost:9000" || endpoint == "127.0.0.1:9000" {
		return false
	}
	// Docker service names (minio:9000, minio1:9000, ...) but not domain names
	if strings.HasPrefix(endpoint, "minio") && !strings.Contains(strings.Split(endpoint, ":")[0], ".") && strings.Contains(endpoint, ":9000") {
		return false
	}
	return true
}

func (f *RealMinioFactory) NewAdminClient(creds models.Credentials) (MinioAdminClient, error) {
	return madmin.NewWithOptions(creds.Endpoint, &madmin.Options{
		Creds:  credentials.NewStaticV4(creds.AccessKey, creds.SecretKey, ""),
		Secure: shouldUseSSL(creds.Endpoint),
	})
}

func (f *RealMinioFactory) NewClient(creds models.Credentials) (MinioClient, error) {
	client, err := minio.New(creds.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(creds.AccessKey, creds.SecretKey, ""),
		Secure: shouldUseSSL(creds.Endpoint),
		Region: creds.Region,
	})
	if err != nil {
		return nil, err
	}
	return &WrappedMinioClient{client: client}, nil
}

// MinioStorageFactory builds Storage backed by an S3-compatible endpoint
type MinioStorageFactory struct {
	Clients     MinioClientFactory
	Endpoint    string
	Concurrency int
}

func (f *MinioStorageFactory) NewStorage(creds models.Credentials) (Storage, error) {
	creds.Endpoint = f.Endpoint
	client, err := f.Clients.NewClient(creds)
	if err != nil {
		return nil, err
	}

	concurrency := f.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultDownloadConcurrency
	}
	return &MinioStorage{
		creds:       creds,
		client:      client,
		clients:     f.Clients,
		concurrency: concurrency,
	}, nil
}

// MinioStorage implements Storage and UsageReporter against one bucket
type MinioStorage struct {
	creds       models.Credentials
	client      MinioClient
	clients     MinioClientFactory
	concurrency int
}

func (s *MinioStorage) ValidateCredentials(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.creds.BucketName)
	if err != nil {
		return wrap(ErrCredentialValidationFailed, err)
	}
	if !exists {
		return wrap(ErrCredentialValidationFailed, fmt.Errorf("bucket %q not found", s.creds.BucketName))
	}
	return nil
}

func (s *MinioStorage) ListObjects(ctx context.Context) ([]models.FileEntry, error) {
	objects, err := s.client.ListObjects(ctx, s.creds.BucketName, minio.ListObjectsOptions{
		Prefix:    s.creds.Prefix,
		Recursive: true,
	})
	if err != nil {
		return nil, wrap(ErrListingFailed, err)
	}

	files := make([]models.FileEntry, 0, len(objects))
	for _, obj := range objects {
		// Skip folder markers
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		files = append(files, models.FileEntry{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
			ETag:         obj.ETag,
		})
	}
	return filterByPrefix(files, s.creds.Prefix), nil
}

func (s *MinioStorage) DownloadOne(ctx context.Context, key string) (*Blob, error) {
	data, _, err := s.fetch(ctx, key)
	if err != nil {
		return nil, wrap(ErrDownloadFailed, err)
	}
	return &Blob{ContentType: ContentTypeOctetStream, Data: data}, nil
}

// DownloadMany fetches objects in parallel and zips them in request order
func (s *MinioStorage) DownloadMany(ctx context.Context, keys []string) (*Blob, error) {
	entries := make([]archiveEntry, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, key := range keys {
		g.Go(func() error {
			data, info, err := s.fetch(gctx, key)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			entries[i] = archiveEntry{
				name:     archiveName(key, s.creds.Prefix),
				data:     data,
				modified: info.LastModified,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, wrap(ErrDownloadFailed, err)
	}

	blob, err := buildArchive(entries)
	if err != nil {
		return nil, wrap(ErrDownloadFailed, err)
	}
	return blob, nil
}

func (s *MinioStorage) fetch(ctx context.Context, key string) ([]byte, minio.ObjectInfo, error) {
	reader, info, err := s.client.GetObjectReader(ctx, s.creds.BucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, minio.ObjectInfo{}, err
	}
	defer func() { _ = reader.Close() }()
	data, err := io.ReadAll(reader)
	return data, info, err
}

// BucketUsage asks the admin API for the bucket's size. Regular users usually
// lack the permission, so callers treat an error as "unknown".
func (s *MinioStorage) BucketUsage(ctx context.Context) (BucketUsage, error) {
	mdm, err := s.clients.NewAdminClient(s.creds)
	if err != nil {
		return BucketUsage{}, err
	}
	info, err := mdm.DataUsageInfo(ctx)
	if err != nil {
		return BucketUsage{}, err
	}

	if u, ok := info.BucketsUsage[s.creds.BucketName]; ok {
		return BucketUsage{Objects: u.ObjectsCount, Size: u.Size}, nil
	}
	if size, ok := info.BucketSizes[s.creds.BucketName]; ok {
		return BucketUsage{Size: size}, nil
	}
	return BucketUsage{}, fmt.Errorf("no usage data for bucket %q", s.creds.BucketName)
}
