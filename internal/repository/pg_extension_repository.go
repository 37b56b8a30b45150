package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
)

const extensionTable = "extensions"

// ExtensionRepository records which version of an extension is installed.
type ExtensionRepository interface {
	Version(ctx context.Context, name string) (string, error)
	SetVersion(ctx context.Context, name, version string) error
	Delete(ctx context.Context, name string) error
}

// PgExtensionRepository is the PostgreSQL implementation of ExtensionRepository.
type PgExtensionRepository struct {
	db Querier
}

// NewPgExtensionRepository creates a PgExtensionRepository backed by db.
func NewPgExtensionRepository(db Querier) *PgExtensionRepository {
	return &PgExtensionRepository{db: db}
}

var _ ExtensionRepository = (*PgExtensionRepository)(nil)

// Version returns ErrNotFound when the extension is not installed.
func (r *PgExtensionRepository) Version(ctx context.Context, name string) (string, error) {
	sqlStr, args, err := psql.Select("version").From(extensionTable).Where(sq.Eq{"name": name}).ToSql()
	if err != nil {
		return "", err
	}
	var version string
	if err := QuerierFromCtx(ctx, r.db).QueryRow(ctx, sqlStr, args...).Scan(&version); err != nil {
		return "", mapError(err, "extension", name)
	}
	return version, nil
}

// SetVersion records version as installed.
func (r *PgExtensionRepository) SetVersion(ctx context.Context, name, version string) error {
	sqlStr, args, err := psql.Insert(extensionTable).
		Columns("name", "version").
		Values(name, version).
		Suffix("ON CONFLICT (name) DO UPDATE SET version = EXCLUDED.version, updated_at = NOW()").
		ToSql()
	if err != nil {
		return err
	}
	if _, err := QuerierFromCtx(ctx, r.db).Exec(ctx, sqlStr, args...); err != nil {
		return mapError(err, "extension", name)
	}
	return nil
}

// Delete forgets the extension.
func (r *PgExtensionRepository) Delete(ctx context.Context, name string) error {
	sqlStr, args, err := psql.Delete(extensionTable).Where(sq.Eq{"name": name}).ToSql()
	if err != nil {
		return err
	}
	if _, err := QuerierFromCtx(ctx, r.db).Exec(ctx, sqlStr, args...); err != nil {
		return mapError(err, "extension", name)
	}
	return nil
}
