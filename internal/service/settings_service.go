package service

import (
	"context"

	"github.com/formicula/backend/internal/model"
)

// ModuleName is the extension name module variables are stored under.
const ModuleName = "Formicula"

// SettingsService loads and saves the module configuration.
type SettingsService interface {
	// Config returns the stored configuration with defaults for missing values.
	Config(ctx context.Context) (model.ModuleConfig, error)

	// Save normalizes and persists cfg. It returns ErrUploadDirNotWritable,
	// leaving the stored configuration untouched, when a configured upload
	// directory cannot be written.
	Save(ctx context.Context, cfg model.ModuleConfig) (model.ModuleConfig, error)

	// DisableSpamCheck switches the captcha off.
	DisableSpamCheck(ctx context.Context) error
}
