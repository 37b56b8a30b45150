package repository

import (
	"context"
	"fmt"
)

// EnsureHostTables creates the tables that outlive the module's own schema:
// module variables and installed extension versions.
func EnsureHostTables(ctx context.Context, q Querier) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS module_vars (
			modname TEXT NOT NULL,
			name    TEXT NOT NULL,
			value   TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (modname, name)
		)`,
		`CREATE TABLE IF NOT EXISTS extensions (
			name       TEXT PRIMARY KEY,
			version    TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
	for _, stmt := range stmts {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure host tables: %w", err)
		}
	}
	return nil
}
