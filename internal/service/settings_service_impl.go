package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/formicula/backend/internal/model"
	"github.com/formicula/backend/internal/repository"
)

// settingsServiceImpl is the production implementation of SettingsService.
type settingsServiceImpl struct {
	vars     repository.ModuleVarRepository
	resolve  func(dir string) string
	writable func(dir string) bool
}

// NewSettingsService creates a SettingsService. resolve maps the configured
// upload directory to a filesystem path and writable tests it.
func NewSettingsService(vars repository.ModuleVarRepository, resolve func(string) string, writable func(string) bool) SettingsService {
	return &settingsServiceImpl{vars: vars, resolve: resolve, writable: writable}
}

func (s *settingsServiceImpl) Config(ctx context.Context) (model.ModuleConfig, error) {
	vars, err := s.vars.GetAll(ctx, ModuleName)
	if err != nil {
		return model.ModuleConfig{}, fmt.Errorf("load module vars: %w", err)
	}
	return model.ModuleConfigFromVars(vars), nil
}

func (s *settingsServiceImpl) Save(ctx context.Context, cfg model.ModuleConfig) (model.ModuleConfig, error) {
	if dir := strings.TrimSpace(cfg.UploadDirectory); dir != "" && !s.writable(s.resolve(dir)) {
		return cfg, fmt.Errorf("%w: %s", model.ErrUploadDirNotWritable, dir)
	}
	cfg = cfg.Normalize()
	if err := s.vars.SetVars(ctx, ModuleName, cfg.Vars()); err != nil {
		return cfg, fmt.Errorf("save module vars: %w", err)
	}
	slog.InfoContext(ctx, "module configuration updated")
	return cfg, nil
}

func (s *settingsServiceImpl) DisableSpamCheck(ctx context.Context) error {
	return s.vars.SetVar(ctx, ModuleName, model.VarEnableSpamCheck, strconv.FormatBool(false))
}
