package handler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/formicula/backend/internal/i18n"
	"github.com/formicula/backend/internal/links"
	"github.com/formicula/backend/internal/model"
	"github.com/formicula/backend/internal/permission"
	"github.com/formicula/backend/internal/session"
	"github.com/formicula/backend/internal/view"
	"github.com/formicula/backend/pkg/auth"
)

// PageRenderer renders admin pages.
type PageRenderer interface {
	Page(w io.Writer, name string, p view.Page) error
}

// FormRenderer renders the templates of a form template set.
type FormRenderer interface {
	Form(w io.Writer, form int, name string, data any) error
}

// EnvironmentChecker reports missing server capabilities as advisories.
type EnvironmentChecker interface {
	Check(ctx context.Context) ([]model.Advisory, error)
}

// LinkProvider returns the module menu entries.
type LinkProvider interface {
	Links(ctx context.Context, category links.Category) []links.Link
}

// AdvisoryRecorder counts advisories shown to users.
type AdvisoryRecorder interface {
	Advisory(typ string)
}

// Deps are the collaborators shared by all page handlers.
type Deps struct {
	Sessions    *session.Manager
	Pages       PageRenderer
	Perms       permission.Checker
	Links       LinkProvider
	Environment EnvironmentChecker
	Translator  i18n.Translator
	Advisories  AdvisoryRecorder
}

// Handler holds the helpers the page handlers have in common: permission
// checks, flash advisories, anti-forgery tokens and page rendering.
type Handler struct {
	deps Deps
}

// New creates a Handler.
func New(deps Deps) *Handler {
	return &Handler{deps: deps}
}

func (h *Handler) t(key string, args ...any) string {
	return h.deps.Translator.T(key, args...)
}

// allow writes 403 and returns false when the caller lacks level.
func (h *Handler) allow(w http.ResponseWriter, r *http.Request, level permission.Level) bool {
	if h.deps.Perms.HasPermission(r.Context(), permission.Component, "::", level) {
		return true
	}
	http.Error(w, h.t("Access denied."), http.StatusForbidden)
	return false
}

// flash queues advisories for the next rendered page.
func (h *Handler) flash(w http.ResponseWriter, r *http.Request, advisories ...model.Advisory) {
	if len(advisories) == 0 {
		return
	}
	if err := h.deps.Sessions.AddFlash(w, r, advisories...); err != nil {
		slog.ErrorContext(r.Context(), "failed to store flash", "error", err)
		return
	}
	if h.deps.Advisories != nil {
		for _, a := range advisories {
			h.deps.Advisories.Advisory(a.Type)
		}
	}
}

// checkEnvironment flashes the environment advisories. Failures are logged
// and do not stop the request.
func (h *Handler) checkEnvironment(w http.ResponseWriter, r *http.Request) {
	if h.deps.Environment == nil {
		return
	}
	advisories, err := h.deps.Environment.Check(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "environment check failed", "error", err)
		return
	}
	h.flash(w, r, advisories...)
}

// validCSRF checks the csrf_token form value against the session.
func (h *Handler) validCSRF(r *http.Request) bool {
	return h.deps.Sessions.ValidCSRF(r, r.FormValue("csrf_token"))
}

// render writes the admin page name with status.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	ctx := r.Context()
	flashes, err := h.deps.Sessions.Flashes(w, r)
	if err != nil {
		slog.WarnContext(ctx, "failed to read flashes", "error", err)
	}
	token, err := h.deps.Sessions.CSRFToken(w, r)
	if err != nil {
		h.serverError(w, r, "failed to issue csrf token", err)
		return
	}
	userID, _ := auth.UserIDFromContext(ctx)

	page := view.Page{
		Flashes:   flashes,
		CSRFToken: token,
		UserID:    userID,
		Data:      data,
	}
	if h.deps.Links != nil {
		page.Links = h.deps.Links.Links(ctx, links.CategoryAdmin)
	}

	var buf bytes.Buffer
	if err := h.deps.Pages.Page(&buf, name, page); err != nil {
		h.serverError(w, r, "failed to render page", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusSeeOther)
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.ErrorContext(r.Context(), msg, "error", err, "path", r.URL.Path)
	http.Error(w, h.t("An error occurred."), http.StatusInternalServerError)
}

// queryID parses the query parameter key as a positive id.
func queryID(r *http.Request, key string) (int64, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get(key), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// fieldErrors maps validation problems to field names.
func fieldErrors(err *model.ValidationError) map[string]string {
	out := make(map[string]string, len(err.Errors))
	for _, fe := range err.Errors {
		if _, ok := out[fe.Field]; !ok {
			out[fe.Field] = fe.Message
		}
	}
	return out
}
