package handlers

import (
	"fmt"
	"net/http"

	"github.com/damacus/s3ducky/internal/models"
	"github.com/damacus/s3ducky/internal/session"
	"github.com/labstack/echo/v4"
)

type SessionHandler struct {
	registry *session.Registry
}

func NewSessionHandler(registry *session.Registry) *SessionHandler {
	return &SessionHandler{registry: registry}
}

// Status renders the expiry banner. It is polled by the browser page; once
// the session is gone the client is sent back to the connect form.
func (h *SessionHandler) Status(c echo.Context) error {
	store, err := GetSessionOrRedirect(c)
	if store == nil {
		return err
	}

	status := store.Status()
	if status.State == session.StateNone {
		store.Expire()
		if id := GetSessionID(c); id != "" {
			h.registry.Remove(id)
		}
		ClearSessionCookie(c)
		return Redirect(c, "/")
	}

	return c.Render(http.StatusOK, "session_warning", models.SessionWarning{
		Visible:   status.Warning,
		Countdown: status.Countdown(),
		PollEvery: pollEvery(store.Policy()),
	})
}

func pollEvery(p session.Policy) string {
	ms := p.CheckInterval.Milliseconds()
	if ms <= 0 {
		ms = session.DefaultCheckInterval.Milliseconds()
	}
	return fmt.Sprintf("%dms", ms)
}
