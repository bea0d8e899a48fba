package renderer

import (
	"html/template"
	"io"
	"io/fs"
	"net/http"

	"github.com/damacus/s3ducky/views"
	"github.com/labstack/echo/v4"
)

// TemplateRenderer implements echo.Renderer
type TemplateRenderer struct {
	Templates map[string]*template.Template
}

// New creates a new TemplateRenderer with pre-parsed templates
func New() *TemplateRenderer {
	return NewFromFS(views.FS)
}

// NewFromFS parses templates from fsys, laid out like the views package
func NewFromFS(fsys fs.FS) *TemplateRenderer {
	r := &TemplateRenderer{
		Templates: make(map[string]*template.Template),
	}
	r.parseTemplates(fsys)
	return r
}

func (t *TemplateRenderer) parseTemplates(fsys fs.FS) {
	parse := func(name string, files ...string) {
		t.Templates[name] = template.Must(template.ParseFS(fsys, files...))
	}

	parse("connect",
		"layouts/base.html",
		"partials/connect_error.html",
		"pages/connect.html",
	)
	parse("browser",
		"layouts/base.html",
		"partials/file_table.html",
		"partials/session_warning.html",
		"partials/usage.html",
		"pages/browser.html",
	)

	// Partials swapped in by htmx
	parse("file_table", "partials/file_table.html")
	parse("session_warning", "partials/session_warning.html")
	parse("usage", "partials/usage.html")
	parse("connect_error", "partials/connect_error.html")
}

// selfExecutingTemplates lists templates that execute their own named block instead of "base"
var selfExecutingTemplates = map[string]bool{
	"file_table":      true,
	"session_warning": true,
	"usage":           true,
	"connect_error":   true,
}

// Render renders a template document
func (t *TemplateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	tmpl, ok := t.Templates[name]
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "Template not found: "+name)
	}

	// Templates that define their own named block execute that block directly
	if selfExecutingTemplates[name] {
		return tmpl.ExecuteTemplate(w, name, data)
	}
	// All other templates (pages with layout) execute the "base" block
	return tmpl.ExecuteTemplate(w, "base", data)
}
