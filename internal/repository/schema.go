package repository

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrations returns the embedded goose migrations for the module tables.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// SchemaTool creates, updates and drops the module tables with goose.
type SchemaTool struct {
	provider *goose.Provider
}

// NewSchemaTool builds a SchemaTool on a database/sql handle.
func NewSchemaTool(db *sql.DB) (*SchemaTool, error) {
	provider, err := goose.NewProvider(goose.DialectPostgres, db, Migrations())
	if err != nil {
		return nil, fmt.Errorf("goose new provider: %w", err)
	}
	return &SchemaTool{provider: provider}, nil
}

// NewSchemaToolFromPool wraps pool in a database/sql handle for goose.
func NewSchemaToolFromPool(pool *pgxpool.Pool) (*SchemaTool, error) {
	return NewSchemaTool(stdlib.OpenDBFromPool(pool))
}

// Create applies every migration.
func (s *SchemaTool) Create(ctx context.Context) error {
	if _, err := s.provider.Up(ctx); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// Update applies the pending migrations.
func (s *SchemaTool) Update(ctx context.Context) error {
	return s.Create(ctx)
}

// Drop rolls every migration back.
func (s *SchemaTool) Drop(ctx context.Context) error {
	if _, err := s.provider.DownTo(ctx, 0); err != nil {
		return fmt.Errorf("goose down: %w", err)
	}
	return nil
}

// Version reports the applied migration version.
func (s *SchemaTool) Version(ctx context.Context) (int64, error) {
	return s.provider.GetDBVersion(ctx)
}
