package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/formicula/backend/internal/model"
)

func newTestSettings(repo *mockModuleVarRepository, writable bool) SettingsService {
	return NewSettingsService(repo,
		func(dir string) string { return "/srv/" + dir },
		func(string) bool { return writable },
	)
}

func TestSettingsService_Config_DefaultsForMissingVars(t *testing.T) {
	repo := &mockModuleVarRepository{vars: map[string]string{model.VarShowPhone: "0"}}
	cfg, err := newTestSettings(repo, true).Config(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ShowPhone {
		t.Error("expected showPhone=false from stored var")
	}
	if cfg.UploadDirectory != model.DefaultUploadDirectory {
		t.Errorf("expected default upload directory, got %q", cfg.UploadDirectory)
	}
}

func TestSettingsService_Save_StripsWhitespace(t *testing.T) {
	repo := &mockModuleVarRepository{}
	cfg := model.DefaultModuleConfig()
	cfg.ExcludeSpamCheck = " 1, 2 ,\t3 "
	cfg.StoreSubmissionDataForms = "0,\n 4"

	saved, err := newTestSettings(repo, true).Save(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved.ExcludeSpamCheck != "1,2,3" {
		t.Errorf("excludeSpamCheck = %q", saved.ExcludeSpamCheck)
	}
	if repo.vars[model.VarExcludeSpamCheck] != "1,2,3" || repo.vars[model.VarStoreSubmissionDataForms] != "0,4" {
		t.Errorf("stored lists not stripped: %v", repo.vars)
	}
}

func TestSettingsService_Save_LogsUpdate(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	if _, err := newTestSettings(&mockModuleVarRepository{}, true).Save(context.Background(), model.DefaultModuleConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := strings.Count(buf.String(), "module configuration updated"); n != 1 {
		t.Errorf("expected one update log line, got %d:\n%s", n, buf.String())
	}
}

func TestSettingsService_Save_RejectsUnwritableUploadDir(t *testing.T) {
	repo := &mockModuleVarRepository{vars: map[string]string{model.VarShowPhone: "1"}}
	cfg := model.DefaultModuleConfig()
	cfg.ShowPhone = false

	_, err := newTestSettings(repo, false).Save(context.Background(), cfg)
	if !errors.Is(err, model.ErrUploadDirNotWritable) {
		t.Fatalf("expected ErrUploadDirNotWritable, got %v", err)
	}
	if repo.setCalls != 0 {
		t.Error("expected nothing to be persisted")
	}
	if repo.vars[model.VarShowPhone] != "1" {
		t.Error("prior configuration changed")
	}
}

func TestSettingsService_Save_EmptyUploadDirSkipsCheck(t *testing.T) {
	repo := &mockModuleVarRepository{}
	cfg := model.DefaultModuleConfig()
	cfg.UploadDirectory = ""

	if _, err := newTestSettings(repo, false).Save(context.Background(), cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.setCalls != 1 {
		t.Errorf("expected one SetVars call, got %d", repo.setCalls)
	}
}

func TestSettingsService_DisableSpamCheck(t *testing.T) {
	repo := &mockModuleVarRepository{vars: map[string]string{model.VarEnableSpamCheck: "true"}}
	svc := newTestSettings(repo, true)

	if err := svc.DisableSpamCheck(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg, _ := svc.Config(context.Background())
	if cfg.EnableSpamCheck {
		t.Error("expected spam check disabled")
	}
}
