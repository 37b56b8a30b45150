package handler

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/spf13/cast"

	"github.com/formicula/backend/internal/captcha"
	"github.com/formicula/backend/internal/model"
	"github.com/formicula/backend/internal/permission"
	"github.com/formicula/backend/internal/service"
	"github.com/formicula/backend/internal/view"
	"github.com/formicula/backend/pkg/auth"
)

const (
	maxUploadBytes = 10 << 20
	customPrefix   = "custom_"
)

// UserHandler serves the visitor side: the form, its submission and the
// captcha images.
type UserHandler struct {
	*Handler
	forms    service.FormService
	renderer FormRenderer
	cacheDir string
}

// NewUserHandler creates a UserHandler. cacheDir holds the captcha images.
func NewUserHandler(h *Handler, forms service.FormService, renderer FormRenderer, cacheDir string) *UserHandler {
	return &UserHandler{Handler: h, forms: forms, renderer: renderer, cacheDir: cacheDir}
}

// Form handles GET /user/form?form=&cid=.
func (h *UserHandler) Form(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, permission.Comment) {
		return
	}
	q := r.URL.Query()
	form := -1
	if n, err := cast.ToIntE(q.Get("form")); err == nil && q.Get("form") != "" {
		form = n
	}
	h.renderForm(w, r, http.StatusOK, form, cast.ToInt64(q.Get("cid")), nil, nil)
}

// Send handles POST /user/send.
func (h *UserHandler) Send(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, permission.Comment) {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(w, h.t("Invalid request."), http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	f := r.PostForm

	form := -1
	if n, err := cast.ToIntE(f.Get("form")); err == nil && f.Get("form") != "" {
		form = n
	}
	contactID := cast.ToInt64(f.Get("cid"))

	if !h.validCSRF(r) {
		h.flash(w, r, model.ErrorAdvisory(h.t("Invalid security token.")))
		h.renderForm(w, r, http.StatusForbidden, form, contactID, f, nil)
		return
	}

	expected, hasCaptcha, err := h.deps.Sessions.TakeCaptchaAnswer(w, r)
	if err != nil {
		slog.WarnContext(ctx, "failed to read captcha answer", "error", err)
	}

	in := &model.FormInput{
		Form:            form,
		ContactID:       contactID,
		Name:            f.Get("name"),
		Email:           f.Get("email"),
		Company:         f.Get("company"),
		Phone:           f.Get("phone"),
		URL:             f.Get("url"),
		Location:        f.Get("location"),
		Comment:         f.Get("comment"),
		UserFormat:      f.Get("userformat"),
		Custom:          customFields(f),
		Values:          f,
		CaptchaInput:    f.Get("captcha"),
		CaptchaExpected: expected,
		HasCaptcha:      hasCaptcha,
		IPAddress:       clientIP(r, 1),
	}
	in.UserID, _ = auth.UserIDFromContext(ctx)

	if file, header, err := r.FormFile("attachment"); err == nil {
		defer file.Close()
		in.Attachment = &model.Upload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Content:     file,
		}
	}

	res, err := h.forms.Send(ctx, in)
	if err != nil {
		var verr *model.ValidationError
		switch {
		case errors.As(err, &verr):
			h.renderForm(w, r, http.StatusUnprocessableEntity, in.Form, contactID, f, fieldErrors(verr))
		case errors.Is(err, model.ErrAttachmentNotStored):
			h.flash(w, r, model.ErrorAdvisory(h.t("The attachment could not be stored.")))
			h.renderForm(w, r, http.StatusInternalServerError, in.Form, contactID, f, nil)
		case errors.Is(err, model.ErrMailNotSent):
			h.flash(w, r, model.ErrorAdvisory(h.t("Your message could not be sent.")))
			h.renderForm(w, r, http.StatusInternalServerError, in.Form, contactID, f, nil)
		default:
			h.serverError(w, r, "form submission failed", err)
		}
		return
	}

	var buf bytes.Buffer
	err = h.renderer.Form(&buf, in.Form, "confirm.html", view.ConfirmView{
		Form:       in.Form,
		Input:      in,
		Contact:    res.Contact,
		Stored:     res.Stored,
		UserMailed: res.UserMailed,
	})
	if err != nil {
		h.serverError(w, r, "failed to render confirmation", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// Captcha handles GET /user/captcha/{file}. Only image files directly inside
// the cache directory are served.
func (h *UserHandler) Captcha(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("file")
	if !captcha.IsImageFile(name) {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	http.ServeFile(w, r, filepath.Join(h.cacheDir, name))
}

// renderForm prepares and renders form.html with the posted values and
// field errors. A new captcha answer replaces the previous one.
func (h *UserHandler) renderForm(w http.ResponseWriter, r *http.Request, status, form int, contactID int64, values map[string][]string, errs map[string]string) {
	ctx := r.Context()
	page, err := h.forms.Prepare(ctx, form, contactID)
	if err != nil {
		h.serverError(w, r, "failed to prepare form", err)
		return
	}
	if page.Captcha != nil {
		if err := h.deps.Sessions.SetCaptchaAnswer(w, r, page.Captcha.Answer); err != nil {
			h.serverError(w, r, "failed to store captcha answer", err)
			return
		}
	}
	flashes, err := h.deps.Sessions.Flashes(w, r)
	if err != nil {
		slog.WarnContext(ctx, "failed to read flashes", "error", err)
	}
	token, err := h.deps.Sessions.CSRFToken(w, r)
	if err != nil {
		h.serverError(w, r, "failed to issue csrf token", err)
		return
	}

	var buf bytes.Buffer
	err = h.renderer.Form(&buf, page.Form, "form.html", view.FormView{
		Page:      page,
		CSRFToken: token,
		Values:    values,
		Errors:    errs,
		Flashes:   flashes,
	})
	if err != nil {
		h.serverError(w, r, "failed to render form", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// customFields collects the custom_* fields without their prefix.
func customFields(values map[string][]string) map[string]string {
	out := make(map[string]string)
	for k, v := range values {
		if name, ok := strings.CutPrefix(k, customPrefix); ok && name != "" && len(v) > 0 {
			out[name] = v[0]
		}
	}
	return out
}
