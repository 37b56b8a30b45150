package repository

import (
	"context"
	"sort"

	sq "github.com/Masterminds/squirrel"
)

const moduleVarTable = "module_vars"

// ModuleVarRepository stores per-extension key/value settings.
type ModuleVarRepository interface {
	GetAll(ctx context.Context, modname string) (map[string]string, error)
	SetVars(ctx context.Context, modname string, vars map[string]string) error
	SetVar(ctx context.Context, modname, name, value string) error
	DeleteAll(ctx context.Context, modname string) error
}

// PgModuleVarRepository is the PostgreSQL implementation of ModuleVarRepository.
type PgModuleVarRepository struct {
	db Querier
}

// NewPgModuleVarRepository creates a PgModuleVarRepository backed by db.
func NewPgModuleVarRepository(db Querier) *PgModuleVarRepository {
	return &PgModuleVarRepository{db: db}
}

var _ ModuleVarRepository = (*PgModuleVarRepository)(nil)

// GetAll returns every variable of modname. An unknown module yields an empty map.
func (r *PgModuleVarRepository) GetAll(ctx context.Context, modname string) (map[string]string, error) {
	sqlStr, args, err := psql.Select("name", "value").From(moduleVarTable).Where(sq.Eq{"modname": modname}).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := QuerierFromCtx(ctx, r.db).Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, mapError(err, "module vars", modname)
	}
	defer rows.Close()

	vars := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		vars[name] = value
	}
	return vars, rows.Err()
}

// SetVars upserts all vars in a single statement, so either every value is
// written or none is.
func (r *PgModuleVarRepository) SetVars(ctx context.Context, modname string, vars map[string]string) error {
	if len(vars) == 0 {
		return nil
	}
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	insert := psql.Insert(moduleVarTable).Columns("modname", "name", "value")
	for _, name := range names {
		insert = insert.Values(modname, name, vars[name])
	}
	sqlStr, args, err := insert.
		Suffix("ON CONFLICT (modname, name) DO UPDATE SET value = EXCLUDED.value").
		ToSql()
	if err != nil {
		return err
	}
	if _, err := QuerierFromCtx(ctx, r.db).Exec(ctx, sqlStr, args...); err != nil {
		return mapError(err, "module vars", modname)
	}
	return nil
}

// SetVar upserts a single variable.
func (r *PgModuleVarRepository) SetVar(ctx context.Context, modname, name, value string) error {
	return r.SetVars(ctx, modname, map[string]string{name: value})
}

// DeleteAll removes every variable of modname.
func (r *PgModuleVarRepository) DeleteAll(ctx context.Context, modname string) error {
	sqlStr, args, err := psql.Delete(moduleVarTable).Where(sq.Eq{"modname": modname}).ToSql()
	if err != nil {
		return err
	}
	if _, err := QuerierFromCtx(ctx, r.db).Exec(ctx, sqlStr, args...); err != nil {
		return mapError(err, "module vars", modname)
	}
	return nil
}
