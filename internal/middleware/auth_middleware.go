package middleware

import (
	"net/http"
	"strings"

	"github.com/damacus/s3ducky/internal/services"
	"github.com/damacus/s3ducky/internal/session"
	"github.com/damacus/s3ducky/internal/utils"
	"github.com/labstack/echo/v4"
)

// publicPaths are served without a connected session
var publicPaths = map[string]bool{
	"/":        true,
	"/connect": true,
	"/health":  true,
	"/metrics": true,
	"/logout":  true,
}

// SessionMiddleware resolves the DuckySeal cookie to a connected session store
func SessionMiddleware(authService *services.AuthService, registry *session.Registry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Skip for public routes
			path := c.Request().URL.Path
			if publicPaths[path] || strings.HasPrefix(path, "/static/") {
				return next(c)
			}

			// Get Cookie
			cookie, err := c.Cookie(utils.CookieName)
			if err != nil {
				return redirectHome(c)
			}

			id, err := authService.OpenSessionID(cookie.Value)
			if err != nil {
				// Invalid cookie - Clear it to prevent loop
				return expire(c)
			}

			store, ok := registry.Get(id)
			if !ok {
				return expire(c)
			}
			if !store.Connected() {
				// Cleared by the expiry watcher; drop what is left of it
				registry.Remove(id)
				sessionsExpiredTotal.Inc()
				return expire(c)
			}

			c.Set(utils.ContextKeySession, store)
			c.Set(utils.ContextKeySessionID, id)

			return next(c)
		}
	}
}

func expire(c echo.Context) error {
	cookie := new(http.Cookie)
	cookie.Name = utils.CookieName
	cookie.Value = ""
	cookie.Path = "/"
	cookie.MaxAge = -1
	cookie.HttpOnly = true
	cookie.SameSite = http.SameSiteStrictMode
	c.SetCookie(cookie)
	return redirectHome(c)
}

func redirectHome(c echo.Context) error {
	if c.Request().Header.Get("HX-Request") == "true" {
		c.Response().Header().Set("HX-Redirect", "/")
		return c.NoContent(http.StatusOK)
	}
	return c.Redirect(http.StatusSeeOther, "/")
}
