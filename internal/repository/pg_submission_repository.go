package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/formicula/backend/internal/model"
)

const submissionTable = "formicula_submission"

var submissionColumns = []string{
	"id", "form_number", "name", "email", "company", "phone", "url", "location", "comment",
	"attachments", "custom_data", "ip_address", "status", "created_by", "updated_by",
	"created_at", "updated_at",
}

// legacyActorColumns maps the pre-4.0.2 creator/updater columns to their names.
var legacyActorColumns = [][2]string{
	{"created_user_id", "created_by"},
	{"updated_user_id", "updated_by"},
}

// SubmissionRepository defines the persistence interface for archived form submissions.
type SubmissionRepository interface {
	List(ctx context.Context) ([]*model.Submission, error)
	FindByID(ctx context.Context, id int64) (*model.Submission, error)
	Create(ctx context.Context, s *model.Submission) error
	Delete(ctx context.Context, id int64) error
	RenameLegacyActorColumns(ctx context.Context) error
}

// PgSubmissionRepository is the PostgreSQL implementation of SubmissionRepository.
type PgSubmissionRepository struct {
	db Querier
}

// NewPgSubmissionRepository creates a PgSubmissionRepository backed by db.
func NewPgSubmissionRepository(db Querier) *PgSubmissionRepository {
	return &PgSubmissionRepository{db: db}
}

var _ SubmissionRepository = (*PgSubmissionRepository)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (*model.Submission, error) {
	var s model.Submission
	err := row.Scan(
		&s.ID, &s.FormNumber, &s.Name, &s.Email, &s.Company, &s.Phone, &s.URL, &s.Location, &s.Comment,
		&s.Attachments, &s.CustomData, &s.IPAddress, &s.Status, &s.CreatedBy, &s.UpdatedBy,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns every submission, most recent id first.
func (r *PgSubmissionRepository) List(ctx context.Context) ([]*model.Submission, error) {
	sqlStr, args, err := psql.Select(submissionColumns...).From(submissionTable).OrderBy("id DESC").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := QuerierFromCtx(ctx, r.db).Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, mapError(err, "submission", "list")
	}
	defer rows.Close()

	var submissions []*model.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		submissions = append(submissions, s)
	}
	return submissions, rows.Err()
}

// FindByID returns ErrNotFound when no submission has the id.
func (r *PgSubmissionRepository) FindByID(ctx context.Context, id int64) (*model.Submission, error) {
	sqlStr, args, err := psql.Select(submissionColumns...).From(submissionTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	s, err := scanSubmission(QuerierFromCtx(ctx, r.db).QueryRow(ctx, sqlStr, args...))
	if err != nil {
		return nil, mapError(err, "submission", id)
	}
	return s, nil
}

// Create inserts s and fills in ID and timestamps from the RETURNING clause.
func (r *PgSubmissionRepository) Create(ctx context.Context, s *model.Submission) error {
	if s.Status == "" {
		s.Status = model.SubmissionStatusNew
	}
	attachments := s.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	customData := s.CustomData
	if customData == nil {
		customData = map[string]string{}
	}

	sqlStr, args, err := psql.Insert(submissionTable).
		Columns("form_number", "name", "email", "company", "phone", "url", "location", "comment",
			"attachments", "custom_data", "ip_address", "status", "created_by", "updated_by").
		Values(s.FormNumber, s.Name, s.Email, s.Company, s.Phone, s.URL, s.Location, s.Comment,
			attachments, customData, s.IPAddress, s.Status, s.CreatedBy, s.UpdatedBy).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return err
	}
	err = QuerierFromCtx(ctx, r.db).QueryRow(ctx, sqlStr, args...).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return mapError(err, "submission", "new")
	}
	return nil
}

// Delete removes the submission with id.
func (r *PgSubmissionRepository) Delete(ctx context.Context, id int64) error {
	sqlStr, args, err := psql.Delete(submissionTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	tag, err := QuerierFromCtx(ctx, r.db).Exec(ctx, sqlStr, args...)
	if err != nil {
		return mapError(err, "submission", id)
	}
	if tag.RowsAffected() == 0 {
		return mapError(ErrNotFound, "submission", id)
	}
	return nil
}

// RenameLegacyActorColumns renames created_user_id/updated_user_id to
// created_by/updated_by. Columns that were already renamed are skipped.
func (r *PgSubmissionRepository) RenameLegacyActorColumns(ctx context.Context) error {
	q := QuerierFromCtx(ctx, r.db)
	for _, pair := range legacyActorColumns {
		var exists bool
		err := q.QueryRow(ctx,
			`SELECT EXISTS (
				SELECT 1 FROM information_schema.columns
				WHERE table_name = $1 AND column_name = $2
			)`,
			submissionTable, pair[0],
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("inspect column %s: %w", pair[0], err)
		}
		if !exists {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s", submissionTable, pair[0], pair[1])
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("rename column %s: %w", pair[0], err)
		}
	}
	return nil
}
