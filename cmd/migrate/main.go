package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/formicula/backend/internal/config"
	"github.com/formicula/backend/internal/i18n"
	"github.com/formicula/backend/internal/installer"
	"github.com/formicula/backend/internal/logging"
	"github.com/formicula/backend/internal/model"
	"github.com/formicula/backend/internal/repository"
	"github.com/formicula/backend/internal/service"
)

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: migrate <command>

Commands:
  install               create the tables, seed the Webmaster contact and the default configuration
  upgrade [version]     upgrade from version (default: the recorded version)
  uninstall             drop the tables, configuration and cache directory
  status                print the recorded version and the schema version
  hash-password <pw>    print the bcrypt hash for AUTH_ADMIN_PASSWORD_HASH`)
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	cmd := os.Args[1]

	if cmd == "hash-password" {
		if len(os.Args) != 3 {
			usage()
		}
		hash, err := service.HashPassword(os.Args[2])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log)

	ctx := context.Background()
	pool, err := repository.NewPool(ctx, cfg.Database.DSN, cfg.Database.MaxConns)
	if err != nil {
		logging.Fatal("connect failed", "error", err)
	}
	defer pool.Close()

	schema, err := repository.NewSchemaToolFromPool(pool)
	if err != nil {
		logging.Fatal("schema tool failed", "error", err)
	}

	inst := installer.New(installer.Deps{
		Tx:     repository.NewTxManager(pool),
		Schema: schema,
		HostTables: func(ctx context.Context) error {
			return repository.EnsureHostTables(ctx, pool)
		},
		Contacts:    repository.NewPgContactRepository(pool),
		Submissions: repository.NewPgSubmissionRepository(pool),
		Vars:        repository.NewPgModuleVarRepository(pool),
		Extensions:  repository.NewPgExtensionRepository(pool),
		Translator:  i18n.New(cfg.Site.Language),
		CacheDir:    cfg.Paths.CacheDir(),
		AdminEmail:  cfg.Site.AdminEmail,
	})

	var advisories []model.Advisory
	switch cmd {
	case "install":
		advisories, err = inst.Install(ctx)
	case "upgrade":
		old := ""
		if len(os.Args) > 2 {
			old = os.Args[2]
		} else if old, err = inst.InstalledVersion(ctx); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				logging.Fatal("module is not installed")
			}
			logging.Fatal("read installed version failed", "error", err)
		}
		advisories, err = inst.Upgrade(ctx, old)
	case "uninstall":
		advisories, err = inst.Uninstall(ctx)
	case "status":
		printStatus(ctx, inst, schema)
		return
	default:
		usage()
	}

	for _, a := range advisories {
		slog.Warn(a.Message, "type", a.Type)
	}
	if err != nil {
		logging.Fatal(cmd+" failed", "error", err)
	}
	slog.Info(cmd + " completed")
}

func printStatus(ctx context.Context, inst *installer.Installer, schema *repository.SchemaTool) {
	version, err := inst.InstalledVersion(ctx)
	switch {
	case errors.Is(err, model.ErrNotFound):
		version = "not installed"
	case err != nil:
		logging.Fatal("read installed version failed", "error", err)
	}
	schemaVersion, err := schema.Version(ctx)
	if err != nil {
		logging.Fatal("read schema version failed", "error", err)
	}
	fmt.Printf("installed: %s\ncurrent:   %s\nschema:    %d\n", version, installer.CurrentVersion, schemaVersion)
}
