package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/damacus/s3ducky/internal/services"
	"github.com/damacus/s3ducky/internal/session"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	cfg := testConfig()
	registry := session.NewRegistry(session.DefaultPolicy(), cfg.MaxSessions)
	t.Cleanup(registry.Close)
	return newServer(cfg, &services.MockFactory{}, registry, zerolog.Nop())
}

func TestServerAddsSecurityHeadersOnHealth(t *testing.T) {
	e := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestServerRejectsConnectWithoutCSRFToken(t *testing.T) {
	e := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/connect", strings.NewReader("accessKey=a"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServerRedirectsProtectedRoutesWithoutSession(t *testing.T) {
	e := newTestServer(t)

	for _, path := range []string{"/browser", "/browser/files", "/browser/download", "/browser/usage"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/", rec.Header().Get("Location"))
		})
	}
}

func TestServerExposesMetrics(t *testing.T) {
	e := newTestServer(t)

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "s3ducky_http_requests_total")
}
