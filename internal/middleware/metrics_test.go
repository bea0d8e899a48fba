package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCountsRequestsByRoute(t *testing.T) {
	e := echo.New()
	e.Use(Metrics())
	e.GET("/items/:id", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	counter := httpRequestsTotal.WithLabelValues("/items/:id", http.MethodGet, "200")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"1", "2"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/"+id, nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestMetricsRecordsErrorStatus(t *testing.T) {
	e := echo.New()
	e.Use(Metrics())
	e.GET("/fail", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "nope")
	})

	counter := httpRequestsTotal.WithLabelValues("/fail", http.MethodGet, "418")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestMetricsPassesErrorsToOuterMiddleware(t *testing.T) {
	e := echo.New()
	var seen error
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			seen = next(c)
			return seen
		}
	})
	e.Use(Metrics())
	e.GET("/broken", func(c echo.Context) error {
		return errors.New("backend exploded")
	})

	counter := httpRequestsTotal.WithLabelValues("/broken", http.MethodGet, "500")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/broken", nil))

	assert.EqualError(t, seen, "backend exploded")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
