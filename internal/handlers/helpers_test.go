package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/damacus/s3ducky/internal/models"
	"github.com/damacus/s3ducky/internal/services"
	"github.com/damacus/s3ducky/internal/session"
	"github.com/damacus/s3ducky/internal/utils"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// recordingRenderer remembers the last template and data it was asked to render
type recordingRenderer struct {
	name string
	data interface{}
}

func (r *recordingRenderer) Render(_ io.Writer, name string, data interface{}, _ echo.Context) error {
	r.name = name
	r.data = data
	return nil
}

// failingStorage accepts credentials and fails everything else
type failingStorage struct{}

func (failingStorage) ValidateCredentials(context.Context) error { return nil }

func (failingStorage) ListObjects(context.Context) ([]models.FileEntry, error) {
	return nil, errors.New("listing failed: timeout")
}

func (failingStorage) DownloadOne(context.Context, string) (*services.Blob, error) {
	return nil, errors.New("download failed: NoSuchKey")
}

func (failingStorage) DownloadMany(context.Context, []string) (*services.Blob, error) {
	return nil, errors.New("download failed: NoSuchKey")
}

type failingFactory struct{}

func (failingFactory) NewStorage(models.Credentials) (services.Storage, error) {
	return failingStorage{}, nil
}

// rejectingFactory turns down every credential
type rejectingFactory struct{}

func (rejectingFactory) NewStorage(models.Credentials) (services.Storage, error) {
	return nil, errors.New("InvalidAccessKeyId")
}

var testRegions = []models.Region{
	{Value: "us-east-1", Label: "US East (N. Virginia)"},
	{Value: "eu-west-1", Label: "Europe (Ireland)"},
}

var testCreds = models.Credentials{
	AccessKey:  "AKIAEXAMPLE",
	SecretKey:  "secret",
	Region:     "us-east-1",
	BucketName: "demo",
}

func testPolicy() session.Policy {
	return session.Policy{Duration: 30 * time.Minute, Warning: 5 * time.Minute, CheckInterval: time.Hour}
}

func newTestRegistry(t *testing.T) *session.Registry {
	t.Helper()
	r := session.NewRegistry(testPolicy(), 16)
	t.Cleanup(r.Close)
	return r
}

func newEcho() (*echo.Echo, *recordingRenderer) {
	e := echo.New()
	r := &recordingRenderer{}
	e.Renderer = r
	return e, r
}

func formRequest(method, target string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

// connectedStore returns a store already connected through svc with its listing loaded
func connectedStore(t *testing.T, svc *services.BrowserService) *session.Store {
	t.Helper()
	store := session.NewStore(session.WithPolicy(testPolicy()))
	require.NoError(t, svc.Connect(context.Background(), store, testCreds))
	require.NoError(t, svc.LoadFiles(context.Background(), store))
	return store
}

func withSession(c echo.Context, store *session.Store) {
	c.Set(utils.ContextKeySession, store)
	c.Set(utils.ContextKeySessionID, "test-session")
}

func newMockBrowser() *services.BrowserService {
	return services.NewBrowserService(&services.MockFactory{}, zerolog.Nop())
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}
