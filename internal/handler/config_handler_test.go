package handler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/formicula/backend/internal/forms"
	"github.com/formicula/backend/internal/model"
	"github.com/formicula/backend/internal/permission"
)

type mockSettingsService struct {
	cfg      model.ModuleConfig
	saveFunc func(ctx context.Context, cfg model.ModuleConfig) (model.ModuleConfig, error)
	saved    []model.ModuleConfig
}

func (m *mockSettingsService) Config(ctx context.Context) (model.ModuleConfig, error) {
	return m.cfg, nil
}

func (m *mockSettingsService) Save(ctx context.Context, cfg model.ModuleConfig) (model.ModuleConfig, error) {
	m.saved = append(m.saved, cfg)
	if m.saveFunc != nil {
		return m.saveFunc(ctx, cfg)
	}
	return cfg, nil
}

func (m *mockSettingsService) DisableSpamCheck(ctx context.Context) error {
	m.cfg.EnableSpamCheck = false
	return nil
}

type staticForms []forms.Form

func (s staticForms) Forms() ([]forms.Form, error) { return s, nil }

type cacheCount struct{ removed int }

func (c *cacheCount) CacheFilesRemoved(n int) { c.removed += n }

func newConfigHandler(te *testEnv, settings *mockSettingsService, cacheDir string, cache CacheRecorder) *ConfigHandler {
	list := staticForms{{Number: 0, Templates: 6}, {Number: 1, Templates: 2}}
	return NewConfigHandler(te.handler, settings, list, cacheDir, cache)
}

func TestConfigHandler_Get(t *testing.T) {
	te := newTestEnv(permission.Admin)
	cfg := model.DefaultModuleConfig()
	cfg.DefaultForm = 1
	h := newConfigHandler(te, &mockSettingsService{cfg: cfg}, "/tmp/cache", nil)

	rec := httptest.NewRecorder()
	h.Config(rec, getRequest("/config/config"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data := te.pages.last(t).page.Data.(configPage)
	if data.Config != cfg {
		t.Errorf("expected stored config, got %+v", data.Config)
	}
	want := []formChoice{
		{Value: 0, Label: "Form #0 containing 6 templates"},
		{Value: 1, Label: "Form #1 containing 2 templates", Selected: true},
	}
	if fmt.Sprint(data.Forms) != fmt.Sprint(want) {
		t.Errorf("want %+v, got %+v", want, data.Forms)
	}
	if data.CacheDir != "/tmp/cache" {
		t.Errorf("unexpected cache dir %q", data.CacheDir)
	}
}

func TestConfigHandler_AccessDenied(t *testing.T) {
	te := newTestEnv(permission.Delete)
	h := newConfigHandler(te, &mockSettingsService{}, t.TempDir(), nil)

	rec := httptest.NewRecorder()
	h.Config(rec, getRequest("/config/config"))
	if rec.Code != http.StatusForbidden {
		t.Errorf("config: expected 403, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ClearCache(rec, postRequest("/config/clearcache", nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("clearcache: expected 403, got %d", rec.Code)
	}
}

func TestConfigHandler_Cancel(t *testing.T) {
	te := newTestEnv(permission.Admin)
	settings := &mockSettingsService{cfg: model.DefaultModuleConfig()}
	h := newConfigHandler(te, settings, t.TempDir(), nil)

	rec := httptest.NewRecorder()
	h.Config(rec, postRequest("/config/config", url.Values{"cancel": {"1"}, "showPhone": {"1"}}))

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/config/config" {
		t.Fatalf("expected redirect, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if len(settings.saved) != 0 {
		t.Error("cancel must not save")
	}
	if !hasAdvisory(te.flashes(t, rec), model.AdvisoryStatus, "Operation cancelled.") {
		t.Error("expected cancelled flash")
	}
}

func TestConfigHandler_Save(t *testing.T) {
	te := newTestEnv(permission.Admin)
	settings := &mockSettingsService{cfg: model.DefaultModuleConfig()}
	h := newConfigHandler(te, settings, t.TempDir(), nil)
	cookies, token := te.csrf(t)

	form := url.Values{
		"csrf_token":               {token},
		"save":                     {"1"},
		"defaultForm":              {"1"},
		"showCompany":              {"1"},
		"showFileAttachment":       {"1"},
		"uploadDirectory":          {"  uploads  "},
		"defaultAdminFormat":       {"plain"},
		"defaultUserFormat":        {"rtf"},
		"enableSpamCheck":          {"1"},
		"excludeSpamCheck":         {"1, 2"},
		"storeSubmissionData":      {"1"},
		"storeSubmissionDataForms": {" 3 "},
	}
	rec := httptest.NewRecorder()
	h.Config(rec, postRequest("/config/config", form, cookies...))

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/config/config" {
		t.Fatalf("expected redirect, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if len(settings.saved) != 1 {
		t.Fatalf("expected one save, got %d", len(settings.saved))
	}
	want := model.ModuleConfig{
		DefaultForm:              1,
		ShowCompany:              true,
		ShowFileAttachment:       true,
		UploadDirectory:          "uploads",
		DefaultAdminFormat:       model.FormatPlain,
		DefaultUserFormat:        model.FormatHTML,
		EnableSpamCheck:          true,
		ExcludeSpamCheck:         "1, 2",
		StoreSubmissionData:      true,
		StoreSubmissionDataForms: " 3 ",
	}
	if settings.saved[0] != want {
		t.Errorf("want %+v\ngot  %+v", want, settings.saved[0])
	}
	if !hasAdvisory(te.flashes(t, rec), model.AdvisoryStatus, "Done! Module configuration updated.") {
		t.Error("expected updated flash")
	}
}

func TestConfigHandler_SaveLeavesUpdateLogToService(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	te := newTestEnv(permission.Admin)
	h := newConfigHandler(te, &mockSettingsService{cfg: model.DefaultModuleConfig()}, t.TempDir(), nil)
	cookies, token := te.csrf(t)

	rec := httptest.NewRecorder()
	h.Config(rec, postRequest("/config/config", url.Values{"csrf_token": {token}, "save": {"1"}}, cookies...))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no handler log output, got:\n%s", buf.String())
	}
}

func TestConfigHandler_SaveUploadDirNotWritable(t *testing.T) {
	te := newTestEnv(permission.Admin)
	settings := &mockSettingsService{
		cfg: model.DefaultModuleConfig(),
		saveFunc: func(ctx context.Context, cfg model.ModuleConfig) (model.ModuleConfig, error) {
			return model.ModuleConfig{}, fmt.Errorf("save: %w", model.ErrUploadDirNotWritable)
		},
	}
	h := newConfigHandler(te, settings, t.TempDir(), nil)
	cookies, token := te.csrf(t)

	rec := httptest.NewRecorder()
	h.Config(rec, postRequest("/config/config", url.Values{
		"csrf_token":      {token},
		"uploadDirectory": {"/readonly"},
		"showPhone":       {"1"},
	}, cookies...))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	p := te.pages.last(t).page
	data := p.Data.(configPage)
	if data.Config.UploadDirectory != "/readonly" || !data.Config.ShowPhone {
		t.Errorf("expected submitted values re-rendered, got %+v", data.Config)
	}
	if data.UploadError != "The webserver cannot write into this directory!" {
		t.Errorf("unexpected upload error %q", data.UploadError)
	}
	if !hasAdvisory(p.Flashes, model.AdvisoryError, "The webserver cannot write into this directory!") {
		t.Errorf("expected error flash, got %+v", p.Flashes)
	}
}

func TestConfigHandler_SaveInvalidToken(t *testing.T) {
	te := newTestEnv(permission.Admin)
	settings := &mockSettingsService{cfg: model.DefaultModuleConfig()}
	h := newConfigHandler(te, settings, t.TempDir(), nil)
	cookies, _ := te.csrf(t)

	rec := httptest.NewRecorder()
	h.Config(rec, postRequest("/config/config", url.Values{"csrf_token": {"forged"}}, cookies...))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if len(settings.saved) != 0 {
		t.Error("forged request must not save")
	}
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestConfigHandler_ClearCache(t *testing.T) {
	te := newTestEnv(permission.Admin)
	dir := t.TempDir()
	writeFiles(t, dir, ".htaccess", "index.html", "a.png", "b.gif")
	if err := os.Mkdir(filepath.Join(dir, "keep"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFiles(t, filepath.Join(dir, "keep"), "c.png")
	cache := &cacheCount{}
	h := newConfigHandler(te, &mockSettingsService{}, dir, cache)
	cookies, token := te.csrf(t)

	rec := httptest.NewRecorder()
	h.ClearCache(rec, postRequest("/config/clearcache", url.Values{"csrf_token": {token}}, cookies...))

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/submission/view" {
		t.Fatalf("expected redirect to submissions, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if fmt.Sprint(names) != "[.htaccess index.html keep]" {
		t.Errorf("unexpected remaining entries %v", names)
	}
	if _, err := os.Stat(filepath.Join(dir, "keep", "c.png")); err != nil {
		t.Errorf("sub-directory content must stay: %v", err)
	}
	if cache.removed != 2 {
		t.Errorf("expected 2 removed files recorded, got %d", cache.removed)
	}
	if !hasAdvisory(te.flashes(t, rec), model.AdvisoryStatus, "The captcha image cache has been cleared.") {
		t.Error("expected cleared flash")
	}
}

func TestConfigHandler_ClearCacheInvalidToken(t *testing.T) {
	te := newTestEnv(permission.Admin)
	dir := t.TempDir()
	writeFiles(t, dir, "a.png")
	h := newConfigHandler(te, &mockSettingsService{}, dir, nil)
	cookies, _ := te.csrf(t)

	rec := httptest.NewRecorder()
	h.ClearCache(rec, postRequest("/config/clearcache", url.Values{"csrf_token": {"forged"}}, cookies...))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	if _, err := os.Stat(filepath.Join(dir, "a.png")); err != nil {
		t.Errorf("forged request must not clear the cache: %v", err)
	}
}

func TestConfigHandler_ClearCacheMissingDir(t *testing.T) {
	te := newTestEnv(permission.Admin)
	h := newConfigHandler(te, &mockSettingsService{}, filepath.Join(t.TempDir(), "missing"), nil)
	cookies, token := te.csrf(t)

	rec := httptest.NewRecorder()
	h.ClearCache(rec, postRequest("/config/clearcache", url.Values{"csrf_token": {token}}, cookies...))

	flashes := te.flashes(t, rec)
	if !hasAdvisory(flashes, model.AdvisoryError, "Some captcha images could not be removed.") {
		t.Errorf("expected partial failure flash, got %+v", flashes)
	}
}
