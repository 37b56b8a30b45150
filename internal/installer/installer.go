// Package installer installs, upgrades and removes the module's persistent
// state: tables, module variables, the seeded contact and the cache directory.
package installer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/formicula/backend/internal/cachedir"
	"github.com/formicula/backend/internal/i18n"
	"github.com/formicula/backend/internal/model"
	"github.com/formicula/backend/internal/repository"
)

const (
	// ExtensionName is the name the installed version is recorded under.
	ExtensionName = "Formicula"
	// CurrentVersion is the version Install and Upgrade leave behind.
	CurrentVersion = "5.0.2"
)

// ErrAlreadyInstalled is returned by Install when a version is recorded.
var ErrAlreadyInstalled = errors.New("installer: already installed")

// Schema manages the module tables.
type Schema interface {
	Create(ctx context.Context) error
	Update(ctx context.Context) error
	Drop(ctx context.Context) error
}

// TxRunner runs fn in a transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Deps collects the collaborators of New.
type Deps struct {
	Tx          TxRunner
	Schema      Schema
	HostTables  func(ctx context.Context) error
	Contacts    repository.ContactRepository
	Submissions repository.SubmissionRepository
	Vars        repository.ModuleVarRepository
	Extensions  repository.ExtensionRepository
	Translator  i18n.Translator
	// CacheDir is the module cache directory.
	CacheDir string
	// AdminEmail receives mail for the seeded Webmaster contact.
	AdminEmail string
}

// Installer implements install, upgrade and uninstall.
type Installer struct {
	Deps
	steps []step
}

// New returns an Installer.
func New(d Deps) *Installer {
	i := &Installer{Deps: d}
	i.steps = i.upgradeSteps()
	return i
}

// InstalledVersion returns the recorded version or model.ErrNotFound.
func (i *Installer) InstalledVersion(ctx context.Context) (string, error) {
	return i.Extensions.Version(ctx, ExtensionName)
}

// Install creates the tables, seeds the Webmaster contact, writes the default
// configuration and provisions the cache directory. Cache problems are
// reported as advisories and do not fail the install.
func (i *Installer) Install(ctx context.Context) ([]model.Advisory, error) {
	if err := i.HostTables(ctx); err != nil {
		return nil, fmt.Errorf("installer: host tables: %w", err)
	}
	if v, err := i.InstalledVersion(ctx); err == nil {
		return nil, fmt.Errorf("%w: version %s", ErrAlreadyInstalled, v)
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("installer: read version: %w", err)
	}

	if err := i.Schema.Create(ctx); err != nil {
		return nil, fmt.Errorf("installer: create schema: %w", err)
	}

	err := i.Tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := i.Contacts.Create(ctx, i.webmaster()); err != nil {
			return fmt.Errorf("seed contact: %w", err)
		}
		if err := i.Vars.SetVars(ctx, ExtensionName, model.DefaultModuleConfig().Vars()); err != nil {
			return fmt.Errorf("write module vars: %w", err)
		}
		return i.Extensions.SetVersion(ctx, ExtensionName, CurrentVersion)
	})
	if err != nil {
		return nil, fmt.Errorf("installer: %w", err)
	}

	advisories := []model.Advisory{i.provisionCache(ctx)}
	slog.InfoContext(ctx, "module installed", "version", CurrentVersion)
	return advisories, nil
}

func (i *Installer) webmaster() *model.Contact {
	name := i.Translator.T("Webmaster")
	return &model.Contact{
		Name:           name,
		Email:          i.AdminEmail,
		Public:         true,
		SenderName:     name,
		SenderEmail:    i.AdminEmail,
		SendingSubject: i.Translator.T("Your mail to %s", "%s"),
	}
}

func (i *Installer) provisionCache(ctx context.Context) model.Advisory {
	err := cachedir.Provision(i.CacheDir)
	switch {
	case err == nil:
		return model.StatusAdvisory(i.Translator.T("Successfully created the cache directory with a .htaccess file in it."))
	case errors.Is(err, cachedir.ErrCreateDir):
		slog.WarnContext(ctx, "create cache directory failed", "dir", i.CacheDir, "error", err)
		return model.ErrorAdvisory(i.Translator.T("Could not create the cache directory %s. Please create it manually.", i.CacheDir))
	default:
		slog.WarnContext(ctx, "create cache marker failed", "dir", i.CacheDir, "error", err)
		return model.ErrorAdvisory(i.Translator.T("Could not create the .htaccess file in %s. Please create it manually.", i.CacheDir))
	}
}

// Uninstall drops the tables, removes the module variables and the recorded
// version, then removes the cache directory. A cache removal failure is
// reported as an advisory.
func (i *Installer) Uninstall(ctx context.Context) ([]model.Advisory, error) {
	if err := i.Schema.Drop(ctx); err != nil {
		return nil, fmt.Errorf("installer: drop schema: %w", err)
	}
	err := i.Tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := i.Vars.DeleteAll(ctx, ExtensionName); err != nil {
			return fmt.Errorf("delete module vars: %w", err)
		}
		if err := i.Extensions.Delete(ctx, ExtensionName); err != nil && !errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("delete version: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("installer: %w", err)
	}

	var advisories []model.Advisory
	if info, err := os.Stat(i.CacheDir); err == nil && info.IsDir() {
		if err := cachedir.Remove(i.CacheDir); err != nil {
			slog.WarnContext(ctx, "remove cache directory failed", "dir", i.CacheDir, "error", err)
			advisories = append(advisories, model.ErrorAdvisory(
				i.Translator.T("An error occurred while removing the cache directory at %s.", i.CacheDir)))
		}
	}
	slog.InfoContext(ctx, "module uninstalled")
	return advisories, nil
}
