package handlers

import (
	"net/http"
	"time"

	"github.com/damacus/s3ducky/internal/session"
	"github.com/damacus/s3ducky/internal/utils"
	"github.com/labstack/echo/v4"
)

// GetSession retrieves the session store placed in the context by the session middleware
func GetSession(c echo.Context) (*session.Store, error) {
	val := c.Get(utils.ContextKeySession)
	if val == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	store, ok := val.(*session.Store)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	return store, nil
}

// GetSessionID returns the registry id of the session resolved by the session middleware
func GetSessionID(c echo.Context) string {
	id, _ := c.Get(utils.ContextKeySessionID).(string)
	return id
}

// GetSessionOrRedirect retrieves the session store or sends the user back to the connect form
func GetSessionOrRedirect(c echo.Context) (*session.Store, error) {
	store, err := GetSession(c)
	if err != nil {
		return nil, Redirect(c, "/")
	}
	return store, nil
}

// HTMXRedirect sets the HX-Redirect header and returns a 200 OK response.
// This is used for HTMX requests that should trigger a client-side redirect.
func HTMXRedirect(c echo.Context, url string) error {
	c.Response().Header().Set("HX-Redirect", url)
	return c.NoContent(http.StatusOK)
}

// Redirect picks HTMXRedirect for htmx requests and a 303 otherwise
func Redirect(c echo.Context, url string) error {
	if IsHTMX(c) {
		return HTMXRedirect(c, url)
	}
	return c.Redirect(http.StatusSeeOther, url)
}

func IsHTMX(c echo.Context) bool {
	return c.Request().Header.Get("HX-Request") == "true"
}

// CSRFToken returns the token set by the CSRF middleware, if any
func CSRFToken(c echo.Context) string {
	token, _ := c.Get("csrf").(string)
	return token
}

func setSessionCookie(c echo.Context, value string, ttl time.Duration) {
	cookie := new(http.Cookie)
	cookie.Name = utils.CookieName
	cookie.Value = value
	cookie.Expires = time.Now().Add(ttl)
	cookie.Path = "/"
	cookie.HttpOnly = true
	cookie.SameSite = http.SameSiteStrictMode
	cookie.Secure = requestIsSecure(c)
	c.SetCookie(cookie)
}

// ClearSessionCookie expires the session cookie in the browser
func ClearSessionCookie(c echo.Context) {
	cookie := new(http.Cookie)
	cookie.Name = utils.CookieName
	cookie.Value = ""
	cookie.Expires = time.Now().Add(-1 * time.Hour)
	cookie.MaxAge = -1
	cookie.Path = "/"
	cookie.HttpOnly = true
	cookie.SameSite = http.SameSiteStrictMode
	cookie.Secure = requestIsSecure(c)
	c.SetCookie(cookie)
}

func requestIsSecure(c echo.Context) bool {
	req := c.Request()
	if req.TLS != nil {
		return true
	}

	return req.Header.Get("X-Forwarded-Proto") == "https"
}
