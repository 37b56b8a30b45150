package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formicula/backend/internal/model"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func submissionRow(rows *pgxmock.Rows, id int64, name string, at time.Time) *pgxmock.Rows {
	return rows.AddRow(id, 0, name, name+"@example.com", "", "", "", "", "hello",
		[]string{}, map[string]string{}, "127.0.0.1", model.SubmissionStatusNew, "", "", at, at)
}

func TestPgSubmissionRepository_List_MostRecentFirst(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPgSubmissionRepository(mock)
	now := time.Now()

	rows := pgxmock.NewRows(submissionColumns)
	submissionRow(rows, 3, "carol", now)
	submissionRow(rows, 2, "bob", now)
	submissionRow(rows, 1, "alice", now)
	mock.ExpectQuery(`SELECT .* FROM formicula_submission ORDER BY id DESC`).WillReturnRows(rows)

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int64{3, 2, 1}, []int64{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, "carol", got[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgSubmissionRepository_FindByID(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		setup   func(mock pgxmock.PgxPoolIface)
		wantErr error
	}{
		{
			name: "found",
			setup: func(mock pgxmock.PgxPoolIface) {
				rows := submissionRow(pgxmock.NewRows(submissionColumns), 7, "dave", now)
				mock.ExpectQuery(regexp.QuoteMeta(`FROM formicula_submission WHERE id = $1`)).
					WithArgs(int64(7)).
					WillReturnRows(rows)
			},
		},
		{
			name: "not found",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT`).WithArgs(int64(7)).WillReturnError(pgx.ErrNoRows)
			},
			wantErr: model.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockPool(t)
			tt.setup(mock)
			repo := NewPgSubmissionRepository(mock)

			got, err := repo.FindByID(context.Background(), 7)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, int64(7), got.ID)
				assert.Equal(t, "dave@example.com", got.Email)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPgSubmissionRepository_Create(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPgSubmissionRepository(mock)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO formicula_submission .* RETURNING id, created_at, updated_at`).
		WithArgs(2, "erin", "erin@example.com", "ACME", "", "", "", "hi",
			[]string{}, map[string]string{}, "10.0.0.1", model.SubmissionStatusNew, "", "").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(11), now, now))

	s := &model.Submission{FormNumber: 2, Name: "erin", Email: "erin@example.com", Company: "ACME", Comment: "hi", IPAddress: "10.0.0.1"}
	require.NoError(t, repo.Create(context.Background(), s))
	assert.Equal(t, int64(11), s.ID)
	assert.Equal(t, model.SubmissionStatusNew, s.Status)
	assert.Equal(t, now, s.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgSubmissionRepository_Delete(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM formicula_submission WHERE id = $1`)).
			WithArgs(int64(5)).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		require.NoError(t, NewPgSubmissionRepository(mock).Delete(context.Background(), 5))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectExec(`DELETE`).WithArgs(int64(5)).WillReturnResult(pgxmock.NewResult("DELETE", 0))

		err := NewPgSubmissionRepository(mock).Delete(context.Background(), 5)
		assert.ErrorIs(t, err, model.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPgSubmissionRepository_RenameLegacyActorColumns(t *testing.T) {
	t.Run("renames present columns", func(t *testing.T) {
		mock := newMockPool(t)
		for _, pair := range legacyActorColumns {
			mock.ExpectQuery(`information_schema.columns`).
				WithArgs(submissionTable, pair[0]).
				WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
			mock.ExpectExec(regexp.QuoteMeta("ALTER TABLE formicula_submission RENAME COLUMN " + pair[0] + " TO " + pair[1])).
				WillReturnResult(pgxmock.NewResult("ALTER", 0))
		}

		require.NoError(t, NewPgSubmissionRepository(mock).RenameLegacyActorColumns(context.Background()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("skips renamed columns", func(t *testing.T) {
		mock := newMockPool(t)
		for _, pair := range legacyActorColumns {
			mock.ExpectQuery(`information_schema.columns`).
				WithArgs(submissionTable, pair[0]).
				WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
		}

		require.NoError(t, NewPgSubmissionRepository(mock).RenameLegacyActorColumns(context.Background()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("inspection error", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery(`information_schema.columns`).
			WithArgs(submissionTable, legacyActorColumns[0][0]).
			WillReturnError(errors.New("boom"))

		err := NewPgSubmissionRepository(mock).RenameLegacyActorColumns(context.Background())
		assert.ErrorContains(t, err, "inspect column created_user_id: boom")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
