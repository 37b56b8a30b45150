// Package view renders the admin pages and the form template sets.
package view

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"io"
	"io/fs"
	"net/url"
	"path"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/formicula/backend/internal/forms"
	"github.com/formicula/backend/internal/i18n"
	"github.com/formicula/backend/internal/links"
	"github.com/formicula/backend/internal/model"
	"github.com/formicula/backend/internal/service"
)

// Page wraps the data of an admin page with the layout fields.
type Page struct {
	Flashes   []model.Advisory
	Links     []links.Link
	CSRFToken string
	UserID    string
	Data      any
}

// FormView is the data of a form.html template.
type FormView struct {
	Page      *service.FormPage
	CSRFToken string
	Values    url.Values
	// Errors maps field names to messages.
	Errors  map[string]string
	Flashes []model.Advisory
}

// ConfirmView is the data of a confirm.html template.
type ConfirmView struct {
	Form       int
	Input      *model.FormInput
	Contact    *model.Contact
	Stored     bool
	UserMailed bool
}

// Renderer executes the embedded page templates and the form template sets.
type Renderer struct {
	pages   map[string]*htmltemplate.Template
	catalog *forms.Catalog
	funcs   map[string]any
}

// New parses layout.html and every pages/*.html of templates. Form template
// sets are read from catalog on each call so edited templates show up
// without a restart.
func New(templates fs.FS, catalog *forms.Catalog, tr i18n.Translator, lang string) (*Renderer, error) {
	r := &Renderer{
		pages:   make(map[string]*htmltemplate.Template),
		catalog: catalog,
		funcs: map[string]any{
			"T":        tr.T,
			"lang":     func() string { return lang },
			"join":     strings.Join,
			"datetime": func(t time.Time) string { return t.Local().Format("2006-01-02 15:04") },
		},
	}

	names, err := fs.Glob(templates, "pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("view: glob pages: %w", err)
	}
	for _, name := range names {
		t, err := htmltemplate.New("layout.html").Funcs(r.funcs).ParseFS(templates, "layout.html", name)
		if err != nil {
			return nil, fmt.Errorf("view: parse %s: %w", name, err)
		}
		r.pages[strings.TrimSuffix(path.Base(name), ".html")] = t
	}
	return r, nil
}

// Page renders the admin page name inside the layout.
func (r *Renderer) Page(w io.Writer, name string, p Page) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("view: unknown page %q", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, p); err != nil {
		return fmt.Errorf("view: render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// Form renders the HTML template name of the form template set.
func (r *Renderer) Form(w io.Writer, form int, name string, data any) error {
	fsys, err := r.catalog.FS(form)
	if err != nil {
		return err
	}
	t, err := htmltemplate.New(name).Funcs(r.funcs).ParseFS(fsys, name)
	if err != nil {
		return fmt.Errorf("view: parse form %d %s: %w", form, name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Errorf("view: render form %d %s: %w", form, name, err)
	}
	_, err = buf.WriteTo(w)
	return err
}

// RenderMail renders a mail body of the form template set. ".txt"
// templates are executed without HTML escaping.
func (r *Renderer) RenderMail(form int, name string, data any) (string, error) {
	if !strings.HasSuffix(name, ".txt") {
		var buf bytes.Buffer
		if err := r.Form(&buf, form, name, data); err != nil {
			return "", err
		}
		return buf.String(), nil
	}

	fsys, err := r.catalog.FS(form)
	if err != nil {
		return "", err
	}
	t, err := texttemplate.New(name).Funcs(r.funcs).ParseFS(fsys, name)
	if err != nil {
		return "", fmt.Errorf("view: parse mail %d %s: %w", form, name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("view: render mail %d %s: %w", form, name, err)
	}
	return buf.String(), nil
}
