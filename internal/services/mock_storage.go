package services

import (
	"context"
	"strings"
	"time"

	"github.com/damacus/s3ducky/internal/models"
)

// MockFiles is the canned listing served by MockStorage
var MockFiles = []models.FileEntry{
	{Key: "documents/report-2024.pdf", Size: 2048576, LastModified: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), ETag: `"abc123"`},
	{Key: "images/logo.png", Size: 524288, LastModified: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), ETag: `"def456"`},
	{Key: "data/export.csv", Size: 1048576, LastModified: time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC), ETag: `"ghi789"`},
	{Key: "backup/database.sql", Size: 10485760, LastModified: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), ETag: `"jkl012"`},
}

// mockContent is the body of every object served by MockStorage
const mockContent = "Mock file content"

// MockStorage serves a fixed listing after an artificial delay. It accepts
// any credentials and never talks to the network.
type MockStorage struct {
	creds models.Credentials
	files []models.FileEntry
	delay time.Duration
}

func (s *MockStorage) ValidateCredentials(ctx context.Context) error {
	if err := s.wait(ctx, s.delay+s.delay/4); err != nil {
		return wrap(ErrCredentialValidationFailed, err)
	}
	return nil
}

func (s *MockStorage) ListObjects(ctx context.Context) ([]models.FileEntry, error) {
	if err := s.wait(ctx, s.delay); err != nil {
		return nil, wrap(ErrListingFailed, err)
	}
	return filterByPrefix(s.files, s.creds.Prefix), nil
}

func (s *MockStorage) DownloadOne(ctx context.Context, key string) (*Blob, error) {
	if err := s.wait(ctx, s.delay/2); err != nil {
		return nil, wrap(ErrDownloadFailed, err)
	}
	return &Blob{ContentType: ContentTypeOctetStream, Data: []byte(mockContent)}, nil
}

func (s *MockStorage) DownloadMany(ctx context.Context, keys []string) (*Blob, error) {
	if err := s.wait(ctx, s.delay+s.delay/4); err != nil {
		return nil, wrap(ErrDownloadFailed, err)
	}

	entries := make([]archiveEntry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, archiveEntry{
			name:     archiveName(k, s.creds.Prefix),
			modified: s.modified(k),
			data:     []byte(mockContent),
		})
	}
	blob, err := buildArchive(entries)
	if err != nil {
		return nil, wrap(ErrDownloadFailed, err)
	}
	return blob, nil
}

func (s *MockStorage) modified(key string) time.Time {
	for _, f := range s.files {
		if f.Key == key {
			return f.LastModified
		}
	}
	return time.Time{}
}

func (s *MockStorage) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// MockFactory hands out MockStorage instances
type MockFactory struct {
	// Files overrides MockFiles when set
	Files []models.FileEntry
	Delay time.Duration
}

func (f *MockFactory) NewStorage(creds models.Credentials) (Storage, error) {
	files := f.Files
	if files == nil {
		files = MockFiles
	}
	return &MockStorage{creds: creds, files: files, delay: f.Delay}, nil
}

// filterByPrefix keeps entries whose key starts with prefix (case-sensitive)
func filterByPrefix(files []models.FileEntry, prefix string) []models.FileEntry {
	out := make([]models.FileEntry, 0, len(files))
	for _, f := range files {
		if strings.HasPrefix(f.Key, prefix) {
			out = append(out, f)
		}
	}
	return out
}

// archiveName is the path of key inside a download archive, relative to prefix
// when the prefix is a folder
func archiveName(key, prefix string) string {
	name := key
	if strings.HasSuffix(prefix, "/") {
		name = strings.TrimPrefix(key, prefix)
	}
	if name == "" {
		name = key
	}
	return name
}
