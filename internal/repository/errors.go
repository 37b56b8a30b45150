package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/formicula/backend/internal/model"
)

// ErrNotFound is returned when a requested record does not exist in the database.
var ErrNotFound = model.ErrNotFound

// mapError converts pgx errors into model errors and adds the entity for context.
func mapError(err error, entity string, id any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %v: %w", entity, id, err)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", entity, id, ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23514" { // check_violation
		return fmt.Errorf("%s %v: %w", entity, id, model.ErrValidation)
	}
	return fmt.Errorf("%s %v: %w", entity, id, err)
}
