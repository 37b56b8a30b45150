package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/spf13/cast"

	"github.com/formicula/backend/internal/cachedir"
	"github.com/formicula/backend/internal/forms"
	"github.com/formicula/backend/internal/model"
	"github.com/formicula/backend/internal/permission"
	"github.com/formicula/backend/internal/service"
)

const configURL = "/config/config"

// FormLister lists the installed form template sets.
type FormLister interface {
	Forms() ([]forms.Form, error)
}

// CacheRecorder counts removed cache files.
type CacheRecorder interface {
	CacheFilesRemoved(n int)
}

// ConfigHandler serves the module settings and the captcha cache reset.
type ConfigHandler struct {
	*Handler
	settings service.SettingsService
	forms    FormLister
	cacheDir string
	cache    CacheRecorder
}

// NewConfigHandler creates a ConfigHandler. cacheDir holds the captcha images.
func NewConfigHandler(h *Handler, settings service.SettingsService, forms FormLister, cacheDir string, cache CacheRecorder) *ConfigHandler {
	return &ConfigHandler{Handler: h, settings: settings, forms: forms, cacheDir: cacheDir, cache: cache}
}

type formChoice struct {
	Value    int
	Label    string
	Selected bool
}

type configPage struct {
	Config      model.ModuleConfig
	Forms       []formChoice
	UploadError string
	CacheDir    string
}

// Config handles GET and POST /config/config.
func (h *ConfigHandler) Config(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, permission.Admin) {
		return
	}
	h.checkEnvironment(w, r)
	ctx := r.Context()

	if r.Method != http.MethodPost {
		cfg, err := h.settings.Config(ctx)
		if err != nil {
			h.serverError(w, r, "failed to load settings", err)
			return
		}
		h.renderConfig(w, r, http.StatusOK, cfg, "")
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, h.t("Invalid request."), http.StatusBadRequest)
		return
	}
	if r.PostForm.Get("cancel") != "" {
		h.flash(w, r, model.StatusAdvisory(h.t("Operation cancelled.")))
		h.redirect(w, r, configURL)
		return
	}

	submitted := configFromForm(r)
	if !h.validCSRF(r) {
		h.flash(w, r, model.ErrorAdvisory(h.t("Invalid security token.")))
		h.renderConfig(w, r, http.StatusForbidden, submitted, "")
		return
	}

	if _, err := h.settings.Save(ctx, submitted); err != nil {
		if errors.Is(err, model.ErrUploadDirNotWritable) {
			msg := h.t("The webserver cannot write into this directory!")
			h.flash(w, r, model.ErrorAdvisory(msg))
			h.renderConfig(w, r, http.StatusUnprocessableEntity, submitted, msg)
			return
		}
		h.serverError(w, r, "failed to save settings", err)
		return
	}

	h.flash(w, r, model.StatusAdvisory(h.t("Done! Module configuration updated.")))
	h.redirect(w, r, configURL)
}

// ClearCache handles POST /config/clearcache.
func (h *ConfigHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, permission.Admin) {
		return
	}
	if !h.validCSRF(r) {
		h.flash(w, r, model.ErrorAdvisory(h.t("Invalid security token.")))
		h.redirect(w, r, submissionListURL)
		return
	}

	removed, err := cachedir.Clear(h.cacheDir)
	if h.cache != nil {
		h.cache.CacheFilesRemoved(removed)
	}
	advisories := []model.Advisory{model.StatusAdvisory(h.t("The captcha image cache has been cleared."))}
	if err != nil {
		slog.WarnContext(r.Context(), "captcha cache not fully cleared", "dir", h.cacheDir, "removed", removed, "error", err)
		advisories = append(advisories, model.ErrorAdvisory(h.t("Some captcha images could not be removed.")))
	}
	h.flash(w, r, advisories...)
	h.redirect(w, r, submissionListURL)
}

func (h *ConfigHandler) renderConfig(w http.ResponseWriter, r *http.Request, status int, cfg model.ModuleConfig, uploadErr string) {
	list, err := h.forms.Forms()
	if err != nil {
		slog.WarnContext(r.Context(), "failed to scan form templates", "error", err)
	}
	choices := make([]formChoice, 0, len(list))
	for _, f := range list {
		choices = append(choices, formChoice{
			Value:    f.Number,
			Label:    f.Label(h.deps.Translator),
			Selected: f.Number == cfg.DefaultForm,
		})
	}
	h.render(w, r, status, "config", configPage{
		Config:      cfg,
		Forms:       choices,
		UploadError: uploadErr,
		CacheDir:    h.cacheDir,
	})
}

// configFromForm reads the submitted settings. Unchecked boxes are absent
// from the form and read as false.
func configFromForm(r *http.Request) model.ModuleConfig {
	f := r.PostForm
	checked := func(name string) bool { return cast.ToBool(f.Get(name)) }
	format := func(name, fallback string) string {
		switch v := f.Get(name); v {
		case model.FormatHTML, model.FormatPlain:
			return v
		default:
			return fallback
		}
	}

	defaults := model.DefaultModuleConfig()
	defaultForm := cast.ToInt(f.Get(model.VarDefaultForm))
	if defaultForm < 0 {
		defaultForm = defaults.DefaultForm
	}

	return model.ModuleConfig{
		DefaultForm:  defaultForm,
		ShowCompany:  checked(model.VarShowCompany),
		ShowPhone:    checked(model.VarShowPhone),
		ShowURL:      checked(model.VarShowURL),
		ShowLocation: checked(model.VarShowLocation),
		ShowComment:  checked(model.VarShowComment),

		ShowFileAttachment:  checked(model.VarShowFileAttachment),
		UploadDirectory:     strings.TrimSpace(f.Get(model.VarUploadDirectory)),
		DeleteUploadedFiles: checked(model.VarDeleteUploadedFiles),

		SendConfirmationToUser: checked(model.VarSendConfirmationToUser),
		DefaultAdminFormat:     format(model.VarDefaultAdminFormat, defaults.DefaultAdminFormat),
		DefaultUserFormat:      format(model.VarDefaultUserFormat, defaults.DefaultUserFormat),
		ShowUserFormat:         checked(model.VarShowUserFormat),
		UseContactsAsSender:    checked(model.VarUseContactsAsSender),

		EnableSpamCheck:          checked(model.VarEnableSpamCheck),
		ExcludeSpamCheck:         f.Get(model.VarExcludeSpamCheck),
		StoreSubmissionData:      checked(model.VarStoreSubmissionData),
		StoreSubmissionDataForms: f.Get(model.VarStoreSubmissionDataForms),
	}
}
