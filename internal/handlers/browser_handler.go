package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/damacus/s3ducky/internal/models"
	"github.com/damacus/s3ducky/internal/services"
	"github.com/damacus/s3ducky/internal/session"
	"github.com/damacus/s3ducky/internal/utils"
	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// BrowserPage is the view model shared by the browser page and its partials
type BrowserPage struct {
	Bucket string
	Prefix string
	Region string
	Query  string

	Rows               []models.FileRow
	TotalCount         int
	SelectedCount      int
	SelectionLabel     string
	AllVisibleSelected bool

	Loading   bool
	Error     string
	Warning   models.SessionWarning
	CSRFToken string
}

// UsageWidget is the bucket usage partial
type UsageWidget struct {
	Available bool
	Objects   string
	Size      string
}

type BrowserHandler struct {
	browser *services.BrowserService
	log     zerolog.Logger
}

func NewBrowserHandler(browser *services.BrowserService, log zerolog.Logger) *BrowserHandler {
	return &BrowserHandler{browser: browser, log: log}
}

// Browse refreshes the listing and renders the full browser page
func (h *BrowserHandler) Browse(c echo.Context) error {
	store, err := GetSessionOrRedirect(c)
	if store == nil {
		return err
	}

	if err := h.browser.LoadFiles(c.Request().Context(), store); errors.Is(err, services.ErrNotConnected) {
		return Redirect(c, "/")
	}
	return c.Render(http.StatusOK, "browser", h.page(c, store, c.QueryParam("q")))
}

// Files renders the file table for the current listing without refreshing it
func (h *BrowserHandler) Files(c echo.Context) error {
	store, err := GetSessionOrRedirect(c)
	if store == nil {
		return err
	}
	return h.renderTable(c, store)
}

// Refresh reloads the listing from storage
func (h *BrowserHandler) Refresh(c echo.Context) error {
	store, err := GetSessionOrRedirect(c)
	if store == nil {
		return err
	}

	if err := h.browser.LoadFiles(c.Request().Context(), store); errors.Is(err, services.ErrNotConnected) {
		return Redirect(c, "/")
	}
	return h.renderTable(c, store)
}

// Toggle flips the selection of one file
func (h *BrowserHandler) Toggle(c echo.Context) error {
	store, err := GetSessionOrRedirect(c)
	if store == nil {
		return err
	}

	key := c.FormValue("key")
	if key == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "key is required")
	}
	store.ToggleFileSelection(key)
	return h.renderTable(c, store)
}

// SelectAll selects every visible file, or clears the selection when they
// are all selected already
func (h *BrowserHandler) SelectAll(c echo.Context) error {
	store, err := GetSessionOrRedirect(c)
	if store == nil {
		return err
	}

	h.browser.ToggleVisible(store, query(c))
	return h.renderTable(c, store)
}

func (h *BrowserHandler) DeselectAll(c echo.Context) error {
	store, err := GetSessionOrRedirect(c)
	if store == nil {
		return err
	}

	store.DeselectAllFiles()
	return h.renderTable(c, store)
}

// Download sends the selection as a single file or a zip archive. On failure
// the page is rendered again with the error and the selection intact.
func (h *BrowserHandler) Download(c echo.Context) error {
	store, err := GetSessionOrRedirect(c)
	if store == nil {
		return err
	}

	dl, err := h.browser.Download(c.Request().Context(), store)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrNotConnected):
		return Redirect(c, "/")
	case errors.Is(err, services.ErrNoSelection):
		store.SetError(services.UserMessage(err))
		return c.Render(http.StatusBadRequest, "browser", h.page(c, store, query(c)))
	default:
		return c.Render(http.StatusBadGateway, "browser", h.page(c, store, query(c)))
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", dl.Filename))
	return c.Blob(http.StatusOK, dl.ContentType, dl.Data)
}

// Usage renders the bucket usage widget; backends without usage data show "unknown"
func (h *BrowserHandler) Usage(c echo.Context) error {
	store, err := GetSessionOrRedirect(c)
	if store == nil {
		return err
	}

	widget := UsageWidget{}
	if usage, ok := h.browser.Usage(c.Request().Context(), store); ok {
		widget.Available = true
		widget.Objects = humanize.Comma(int64(usage.Objects))
		widget.Size = utils.FormatBytes(usage.Size)
	}
	return c.Render(http.StatusOK, "usage", widget)
}

func (h *BrowserHandler) renderTable(c echo.Context, store *session.Store) error {
	return c.Render(http.StatusOK, "file_table", h.page(c, store, query(c)))
}

func (h *BrowserHandler) page(c echo.Context, store *session.Store, q string) BrowserPage {
	st := store.Snapshot()
	status := store.Status()

	p := BrowserPage{
		Query:     q,
		Loading:   st.Loading,
		Error:     st.Error,
		CSRFToken: CSRFToken(c),
		Warning: models.SessionWarning{
			Visible:   status.Warning,
			Countdown: status.Countdown(),
			PollEvery: pollEvery(store.Policy()),
		},
		TotalCount:    len(st.Files),
		SelectedCount: len(st.Selected),
	}
	if st.Credentials != nil {
		p.Bucket = st.Credentials.BucketName
		p.Prefix = st.Credentials.Prefix
		p.Region = st.Credentials.Region
	}

	visible := services.FilterFiles(st.Files, q)
	p.Rows = make([]models.FileRow, 0, len(visible))
	p.AllVisibleSelected = len(visible) > 0
	for _, f := range visible {
		selected := st.IsSelected(f.Key)
		if !selected {
			p.AllVisibleSelected = false
		}
		p.Rows = append(p.Rows, models.FileRow{
			Key:           f.Key,
			FormattedSize: utils.FormatFileSize(f.Size),
			FormattedDate: utils.FormatDate(f.LastModified),
			Selected:      selected,
		})
	}
	p.SelectionLabel = selectionLabel(p.SelectedCount)
	return p
}

func selectionLabel(n int) string {
	switch n {
	case 0:
		return ""
	case 1:
		return "1 file selected"
	default:
		return fmt.Sprintf("%d files selected", n)
	}
}

// query reads the search filter from the query string or the submitted form
func query(c echo.Context) string {
	return strings.TrimSpace(c.FormValue("q"))
}
