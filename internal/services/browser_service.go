package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/damacus/s3ducky/internal/models"
	"github.com/damacus/s3ducky/internal/session"
	"github.com/rs/zerolog"
)

// Download modes
const (
	ModeSingle  = "single"
	ModeArchive = "archive"
)

// Download is a payload ready to be sent to the browser
type Download struct {
	Filename    string
	ContentType string
	Mode        string
	Data        []byte
}

// BrowserService drives a session store through the storage facade:
// connect, list, select and download. Facade failures end up as the store's
// error message; nothing is retried.
type BrowserService struct {
	factory StorageFactory
	log     zerolog.Logger
	now     func() time.Time
}

func NewBrowserService(factory StorageFactory, log zerolog.Logger) *BrowserService {
	return &BrowserService{factory: factory, log: log, now: time.Now}
}

// Connect validates creds and, on success, marks the store connected and
// starts its session clock
func (b *BrowserService) Connect(ctx context.Context, store *session.Store, creds models.Credentials) error {
	epoch := store.Epoch()
	store.SetLoading(true)
	defer store.SetLoading(false)
	store.Update(epoch, func(tx *session.Txn) { tx.SetError("") })

	start := time.Now()
	err := b.validate(ctx, creds)
	observe("validate", start, err)
	if err != nil {
		b.log.Warn().Err(err).
			Str("bucket", creds.BucketName).
			Str("region", creds.Region).
			Msg("credential validation failed")
		store.Update(epoch, func(tx *session.Txn) { tx.SetError(UserMessage(err)) })
		return err
	}

	store.Update(epoch, func(tx *session.Txn) {
		tx.SetCredentials(creds)
		tx.SetConnected(true)
		tx.InitSession()
	})
	b.log.Info().Str("bucket", creds.BucketName).Str("prefix", creds.Prefix).Msg("session connected")
	return nil
}

func (b *BrowserService) validate(ctx context.Context, creds models.Credentials) error {
	storage, err := b.factory.NewStorage(creds)
	if err == nil {
		err = storage.ValidateCredentials(ctx)
	}
	if err != nil && !errors.Is(err, ErrCredentialValidationFailed) {
		err = wrap(ErrCredentialValidationFailed, err)
	}
	return err
}

// LoadFiles refreshes the listing. On failure the listing is emptied so no
// stale data is shown.
func (b *BrowserService) LoadFiles(ctx context.Context, store *session.Store) error {
	storage, epoch, creds, err := b.open(store)
	if err != nil {
		return err
	}

	store.SetLoading(true)
	defer store.SetLoading(false)
	store.Update(epoch, func(tx *session.Txn) { tx.SetError("") })

	start := time.Now()
	files, err := storage.ListObjects(ctx)
	observe("list", start, err)
	if err != nil {
		if !errors.Is(err, ErrListingFailed) {
			err = wrap(ErrListingFailed, err)
		}
		b.log.Warn().Err(err).Str("bucket", creds.BucketName).Msg("listing failed")
		store.Update(epoch, func(tx *session.Txn) {
			tx.SetError(UserMessage(err))
			tx.SetFiles(nil)
		})
		return err
	}

	if !store.Update(epoch, func(tx *session.Txn) { tx.SetFiles(files) }) {
		b.log.Debug().Str("bucket", creds.BucketName).Msg("discarding listing for cleared session")
	}
	return nil
}

// ToggleVisible selects every file matching query, or clears the selection
// when all of them are already selected
func (b *BrowserService) ToggleVisible(store *session.Store, query string) {
	st := store.Snapshot()
	visible := FilterFiles(st.Files, query)

	allSelected := len(visible) > 0
	keys := make([]string, 0, len(visible))
	for _, f := range visible {
		keys = append(keys, f.Key)
		if !st.IsSelected(f.Key) {
			allSelected = false
		}
	}

	if allSelected {
		store.DeselectAllFiles()
		return
	}
	store.SelectFiles(keys)
}

// Download fetches the selection: one key uses the single-object path, more
// than one builds an archive. The selection is kept on failure and cleared on
// success.
func (b *BrowserService) Download(ctx context.Context, store *session.Store) (*Download, error) {
	storage, epoch, creds, err := b.open(store)
	if err != nil {
		return nil, err
	}

	keys := store.SelectedKeys()
	if len(keys) == 0 {
		return nil, ErrNoSelection
	}

	store.SetLoading(true)
	defer store.SetLoading(false)

	var (
		blob *Blob
		dl   = &Download{}
	)
	start := time.Now()
	if len(keys) == 1 {
		dl.Mode = ModeSingle
		dl.Filename = SingleFilename(keys[0])
		blob, err = storage.DownloadOne(ctx, keys[0])
	} else {
		dl.Mode = ModeArchive
		dl.Filename = ArchiveFilename(b.now())
		blob, err = storage.DownloadMany(ctx, keys)
	}
	observe("download_"+dl.Mode, start, err)

	if err != nil {
		if !errors.Is(err, ErrDownloadFailed) {
			err = wrap(ErrDownloadFailed, err)
		}
		b.log.Warn().Err(err).Str("bucket", creds.BucketName).Int("keys", len(keys)).Msg("download failed")
		store.Update(epoch, func(tx *session.Txn) { tx.SetError(UserMessage(err)) })
		return nil, err
	}

	dl.ContentType = blob.ContentType
	dl.Data = blob.Data
	downloadedBytesTotal.WithLabelValues(dl.Mode).Add(float64(len(blob.Data)))

	store.Update(epoch, func(tx *session.Txn) {
		tx.DeselectAllFiles()
		tx.SetError("")
	})
	return dl, nil
}

// Usage reports bucket usage when the backend supports it
func (b *BrowserService) Usage(ctx context.Context, store *session.Store) (BucketUsage, bool) {
	storage, _, creds, err := b.open(store)
	if err != nil {
		return BucketUsage{}, false
	}
	reporter, ok := storage.(UsageReporter)
	if !ok {
		return BucketUsage{}, false
	}

	usage, err := reporter.BucketUsage(ctx)
	if err != nil {
		b.log.Debug().Err(err).Str("bucket", creds.BucketName).Msg("bucket usage unavailable")
		return BucketUsage{}, false
	}
	return usage, true
}

func (b *BrowserService) open(store *session.Store) (Storage, uint64, models.Credentials, error) {
	epoch := store.Epoch()
	st := store.Snapshot()
	if !st.Connected || st.Credentials == nil {
		return nil, 0, models.Credentials{}, ErrNotConnected
	}
	storage, err := b.factory.NewStorage(*st.Credentials)
	if err != nil {
		return nil, 0, models.Credentials{}, fmt.Errorf("open storage: %w", err)
	}
	return storage, epoch, *st.Credentials, nil
}

// FilterFiles keeps files whose key contains query, ignoring case
func FilterFiles(files []models.FileEntry, query string) []models.FileEntry {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return files
	}
	out := make([]models.FileEntry, 0, len(files))
	for _, f := range files {
		if strings.Contains(strings.ToLower(f.Key), query) {
			out = append(out, f)
		}
	}
	return out
}

// SingleFilename is the download name of one object: its last path segment
func SingleFilename(key string) string {
	name := path.Base(key)
	if name == "." || name == "/" || name == "" || strings.HasSuffix(key, "/") {
		return "download"
	}
	return name
}

// ArchiveFilename names a multi-file download after the current UTC date
func ArchiveFilename(now time.Time) string {
	return fmt.Sprintf("s3ducky-files-%s.zip", now.UTC().Format("2006-01-02"))
}
