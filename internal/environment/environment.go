// Package environment checks the runtime capabilities the spam check depends
// on and switches the spam check off when they are missing.
package environment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/formicula/backend/internal/i18n"
	"github.com/formicula/backend/internal/model"
)

// Advisory messages.
const (
	MsgMailUnavailable = "Mailer module is not available - unable to send emails!"
	MsgNoImageFunction = "There are no image function available - Captchas have been disabled."
	MsgCacheDirMissing = "Formicula cache directory does not exist or is not writable - Captchas have been disabled."
	MsgMarkerMissing   = "Formicula cache directory does not contain the required .htaccess file - Captchas have been disabled."
)

// Capabilities is the outcome of the capability probes. Fields that were not
// probed are left false and are never consulted by Evaluate.
type Capabilities struct {
	MailAvailable    bool
	ImageEncoder     bool
	CacheDirWritable bool
	MarkerPresent    bool
}

// Result of Evaluate.
type Result struct {
	Advisories []model.Advisory
	Config     model.ModuleConfig
	// Changed is set when the spam check was switched off.
	Changed bool
}

// Evaluate applies the capability rules to cfg. Advisory messages are the
// untranslated keys.
func Evaluate(caps Capabilities, cfg model.ModuleConfig) Result {
	res := Result{Config: cfg}
	if !caps.MailAvailable {
		res.Advisories = append(res.Advisories, model.ErrorAdvisory(MsgMailUnavailable))
	}
	if !cfg.EnableSpamCheck {
		return res
	}

	disable := func(msg string) {
		res.Advisories = append(res.Advisories, model.StatusAdvisory(msg))
		res.Config.EnableSpamCheck = false
		res.Changed = true
	}
	if !caps.ImageEncoder {
		disable(MsgNoImageFunction)
	}
	if !caps.CacheDirWritable {
		disable(MsgCacheDirMissing)
	} else if !caps.MarkerPresent {
		disable(MsgMarkerMissing)
	}
	return res
}

// Probe inspects the runtime.
type Probe interface {
	MailAvailable(ctx context.Context) bool
	ImageEncoderAvailable() bool
	DirWritable(dir string) bool
	FileExists(path string) bool
}

// SettingsStore loads the module configuration and persists the downgraded
// spam check flag.
type SettingsStore interface {
	Config(ctx context.Context) (model.ModuleConfig, error)
	DisableSpamCheck(ctx context.Context) error
}

// Checker runs the probes lazily and applies Evaluate.
type Checker struct {
	probe    Probe
	settings SettingsStore
	tr       i18n.Translator
	cacheDir string
	logger   *slog.Logger
}

// NewChecker creates a Checker for the cache directory cacheDir.
func NewChecker(probe Probe, settings SettingsStore, tr i18n.Translator, cacheDir string, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{probe: probe, settings: settings, tr: tr, cacheDir: cacheDir, logger: logger}
}

// Check returns translated advisories. When the spam check is already
// disabled no image or directory probe runs.
func (c *Checker) Check(ctx context.Context) ([]model.Advisory, error) {
	cfg, err := c.settings.Config(ctx)
	if err != nil {
		return nil, fmt.Errorf("environment: load config: %w", err)
	}

	caps := Capabilities{MailAvailable: c.probe.MailAvailable(ctx)}
	if cfg.EnableSpamCheck {
		caps.ImageEncoder = c.probe.ImageEncoderAvailable()
		caps.CacheDirWritable = c.probe.DirWritable(c.cacheDir)
		if caps.CacheDirWritable {
			caps.MarkerPresent = c.probe.FileExists(markerPath(c.cacheDir))
		}
	}

	res := Evaluate(caps, cfg)
	if res.Changed {
		if err := c.settings.DisableSpamCheck(ctx); err != nil {
			return nil, fmt.Errorf("environment: disable spam check: %w", err)
		}
		c.logger.WarnContext(ctx, "spam check disabled", "cache_dir", c.cacheDir, "capabilities", caps)
	}

	out := make([]model.Advisory, len(res.Advisories))
	for i, a := range res.Advisories {
		out[i] = model.Advisory{Type: a.Type, Message: c.tr.T(a.Message)}
	}
	return out, nil
}
