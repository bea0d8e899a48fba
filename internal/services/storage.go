package services

import (
	"bytes"
	"context"
	"time"

	"github.com/damacus/s3ducky/internal/models"
	"github.com/klauspost/compress/zip"
)

// Content types used for downloads
const (
	ContentTypeOctetStream = "application/octet-stream"
	ContentTypeZip         = "application/zip"
)

// Blob is a downloaded payload
type Blob struct {
	ContentType string
	Data        []byte
}

// Storage is the object-storage capability the browser consumes. An
// implementation is bound to one set of credentials.
type Storage interface {
	// ValidateCredentials checks that the credentials can reach the bucket
	ValidateCredentials(ctx context.Context) error
	// ListObjects returns objects whose key starts with the credential prefix
	ListObjects(ctx context.Context) ([]models.FileEntry, error)
	// DownloadOne returns the raw bytes of one object
	DownloadOne(ctx context.Context, key string) (*Blob, error)
	// DownloadMany returns a zip archive holding every requested object
	DownloadMany(ctx context.Context, keys []string) (*Blob, error)
}

// StorageFactory creates Storage bound to credentials
type StorageFactory interface {
	NewStorage(creds models.Credentials) (Storage, error)
}

// BucketUsage summarises the size of a bucket
type BucketUsage struct {
	Objects uint64
	Size    uint64
}

// UsageReporter is implemented by backends that can report bucket usage
type UsageReporter interface {
	BucketUsage(ctx context.Context) (BucketUsage, error)
}

type archiveEntry struct {
	name     string
	modified time.Time
	data     []byte
}

// buildArchive writes entries into a zip in the given order
func buildArchive(entries []archiveEntry) (*Blob, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, e := range entries {
		hdr := &zip.FileHeader{
			Name:     e.name,
			Method:   zip.Deflate,
			Modified: e.modified,
		}
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			_ = zw.Close()
			return nil, err
		}
		if _, err := w.Write(e.data); err != nil {
			_ = zw.Close()
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return &Blob{ContentType: ContentTypeZip, Data: buf.Bytes()}, nil
}
