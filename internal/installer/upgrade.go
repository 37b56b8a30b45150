package installer

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/mod/semver"

	"github.com/formicula/backend/internal/model"
)

// step is one upgrade migration. It runs for every installed version up to
// and including its tag.
type step struct {
	version string
	run     func(ctx context.Context) error
}

func (i *Installer) upgradeSteps() []step {
	return []step{
		{version: "4.0.0"},
		{version: "4.0.1"},
		// created_user_id / updated_user_id became created_by / updated_by
		{version: "4.0.2", run: i.Submissions.RenameLegacyActorColumns},
		// company column
		{version: "5.0.0", run: i.Schema.Update},
		{version: "5.0.1", run: func(ctx context.Context) error {
			return i.Vars.SetVar(ctx, ExtensionName, model.VarUploadDirectory, model.DefaultUploadDirectory)
		}},
	}
}

// Upgrade applies every step from the one tagged old onwards. Each step
// commits on its own together with the version it leads to, so a failed
// upgrade resumes at the failed step. A schema failure is also returned as
// an error advisory.
func (i *Installer) Upgrade(ctx context.Context, old string) ([]model.Advisory, error) {
	start, err := i.firstStep(old)
	if err != nil {
		return nil, err
	}
	if start == len(i.steps) {
		slog.InfoContext(ctx, "nothing to upgrade", "version", old)
		return nil, nil
	}
	if err := i.HostTables(ctx); err != nil {
		return nil, fmt.Errorf("installer: host tables: %w", err)
	}

	for n := start; n < len(i.steps); n++ {
		s := i.steps[n]
		next := CurrentVersion
		if n+1 < len(i.steps) {
			next = i.steps[n+1].version
		}

		err := i.Tx.RunInTx(ctx, func(ctx context.Context) error {
			if s.run != nil {
				if err := s.run(ctx); err != nil {
					return err
				}
			}
			return i.Extensions.SetVersion(ctx, ExtensionName, next)
		})
		if err != nil {
			slog.ErrorContext(ctx, "upgrade step failed", "step", s.version, "error", err)
			advisory := model.ErrorAdvisory(i.Translator.T("Database error: %s", err.Error()))
			return []model.Advisory{advisory}, fmt.Errorf("installer: upgrade step %s: %w", s.version, err)
		}
		slog.InfoContext(ctx, "upgrade step applied", "step", s.version, "version", next)
	}
	return nil, nil
}

// firstStep returns the index of the first step tagged old or later, or
// len(steps) when old is newer than every step.
func (i *Installer) firstStep(old string) (int, error) {
	v := "v" + old
	if !semver.IsValid(v) {
		return 0, fmt.Errorf("%w: %q", model.ErrUnsupportedVersion, old)
	}
	if semver.Compare(v, "v"+i.steps[0].version) < 0 {
		return 0, fmt.Errorf("%w: %s is older than %s", model.ErrUnsupportedVersion, old, i.steps[0].version)
	}
	for n, s := range i.steps {
		if semver.Compare("v"+s.version, v) >= 0 {
			return n, nil
		}
	}
	return len(i.steps), nil
}
