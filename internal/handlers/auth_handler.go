package handlers

import (
	"net/http"
	"strings"

	"github.com/damacus/s3ducky/internal/models"
	"github.com/damacus/s3ducky/internal/services"
	"github.com/damacus/s3ducky/internal/session"
	"github.com/damacus/s3ducky/internal/utils"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ConnectPageData feeds the connect form
type ConnectPageData struct {
	Regions   []models.Region
	CSRFToken string
	Error     string
}

type AuthHandler struct {
	authService *services.AuthService
	browser     *services.BrowserService
	registry    *session.Registry
	regions     []models.Region
	log         zerolog.Logger
}

func NewAuthHandler(authService *services.AuthService, browser *services.BrowserService, registry *session.Registry, regions []models.Region, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		browser:     browser,
		registry:    registry,
		regions:     regions,
		log:         log,
	}
}

// ConnectPage renders the credential form, or forwards a connected session to the browser
func (h *AuthHandler) ConnectPage(c echo.Context) error {
	if _, store, ok := h.currentSession(c); ok && store.Connected() {
		return c.Redirect(http.StatusSeeOther, "/browser")
	}
	return c.Render(http.StatusOK, "connect", ConnectPageData{
		Regions:   h.regions,
		CSRFToken: CSRFToken(c),
	})
}

// Connect validates the submitted credentials and opens a new session
func (h *AuthHandler) Connect(c echo.Context) error {
	creds := models.Credentials{
		AccessKey:  strings.TrimSpace(c.FormValue("accessKey")),
		SecretKey:  c.FormValue("secretKey"),
		Region:     strings.TrimSpace(c.FormValue("region")),
		BucketName: strings.TrimSpace(c.FormValue("bucketName")),
		Prefix:     strings.TrimSpace(c.FormValue("prefix")),
	}

	if !creds.Complete() {
		return c.Render(http.StatusOK, "connect_error", "Access key, secret key, region and bucket are required")
	}
	if !h.knownRegion(creds.Region) {
		return c.Render(http.StatusOK, "connect_error", "Unknown region")
	}

	// A new connect always starts from a fresh session
	if id, _, ok := h.currentSession(c); ok {
		h.registry.Remove(id)
	}

	id, store := h.registry.Create()
	if err := h.browser.Connect(c.Request().Context(), store, creds); err != nil {
		h.registry.Remove(id)
		return c.Render(http.StatusOK, "connect_error", services.UserMessage(err))
	}

	sealed, err := h.authService.SealSessionID(id)
	if err != nil {
		h.registry.Remove(id)
		h.log.Error().Err(err).Msg("failed to seal session id")
		return c.HTML(http.StatusInternalServerError, "Failed to create session")
	}
	setSessionCookie(c, sealed, store.Policy().Duration)

	return HTMXRedirect(c, "/browser")
}

// Logout drops the session and its credentials
func (h *AuthHandler) Logout(c echo.Context) error {
	if id, _, ok := h.currentSession(c); ok {
		h.registry.Remove(id)
		h.log.Info().Msg("session disconnected")
	}
	ClearSessionCookie(c)
	return Redirect(c, "/")
}

func (h *AuthHandler) currentSession(c echo.Context) (string, *session.Store, bool) {
	cookie, err := c.Cookie(utils.CookieName)
	if err != nil {
		return "", nil, false
	}
	id, err := h.authService.OpenSessionID(cookie.Value)
	if err != nil {
		return "", nil, false
	}
	store, ok := h.registry.Get(id)
	if !ok {
		return "", nil, false
	}
	return id, store, true
}

func (h *AuthHandler) knownRegion(value string) bool {
	for _, r := range h.regions {
		if r.Value == value {
			return true
		}
	}
	return false
}
