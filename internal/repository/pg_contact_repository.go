package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/formicula/backend/internal/model"
)

const contactTable = "formicula_contact"

var contactColumns = []string{"id", "name", "email", "public", "sender_name", "sender_email", "sending_subject"}

// ContactRepository defines the persistence interface for mail recipients.
type ContactRepository interface {
	List(ctx context.Context, publicOnly bool) ([]*model.Contact, error)
	FindByID(ctx context.Context, id int64) (*model.Contact, error)
	Create(ctx context.Context, c *model.Contact) error
	Update(ctx context.Context, c *model.Contact) error
	Delete(ctx context.Context, id int64) error
}

// PgContactRepository is the PostgreSQL implementation of ContactRepository.
type PgContactRepository struct {
	db Querier
}

// NewPgContactRepository creates a PgContactRepository backed by db.
func NewPgContactRepository(db Querier) *PgContactRepository {
	return &PgContactRepository{db: db}
}

// Ensure PgContactRepository implements ContactRepository at compile time.
var _ ContactRepository = (*PgContactRepository)(nil)

// List returns contacts ordered by name. publicOnly restricts the result to
// contacts visitors may address.
func (r *PgContactRepository) List(ctx context.Context, publicOnly bool) ([]*model.Contact, error) {
	query := psql.Select(contactColumns...).From(contactTable).OrderBy("name ASC", "id ASC")
	if publicOnly {
		query = query.Where(sq.Eq{"public": true})
	}
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := QuerierFromCtx(ctx, r.db).Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, mapError(err, "contact", "list")
	}
	defer rows.Close()

	var contacts []*model.Contact
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Public, &c.SenderName, &c.SenderEmail, &c.SendingSubject); err != nil {
			return nil, err
		}
		contacts = append(contacts, &c)
	}
	return contacts, rows.Err()
}

// FindByID returns ErrNotFound when no contact has the id.
func (r *PgContactRepository) FindByID(ctx context.Context, id int64) (*model.Contact, error) {
	sqlStr, args, err := psql.Select(contactColumns...).From(contactTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}

	var c model.Contact
	err = QuerierFromCtx(ctx, r.db).QueryRow(ctx, sqlStr, args...).
		Scan(&c.ID, &c.Name, &c.Email, &c.Public, &c.SenderName, &c.SenderEmail, &c.SendingSubject)
	if err != nil {
		return nil, mapError(err, "contact", id)
	}
	return &c, nil
}

// Create inserts c and sets c.ID from the RETURNING clause.
func (r *PgContactRepository) Create(ctx context.Context, c *model.Contact) error {
	sqlStr, args, err := psql.Insert(contactTable).
		Columns("name", "email", "public", "sender_name", "sender_email", "sending_subject").
		Values(c.Name, c.Email, c.Public, c.SenderName, c.SenderEmail, c.SendingSubject).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return err
	}
	if err := QuerierFromCtx(ctx, r.db).QueryRow(ctx, sqlStr, args...).Scan(&c.ID); err != nil {
		return mapError(err, "contact", c.Name)
	}
	return nil
}

// Update overwrites every column of the contact with c.ID.
func (r *PgContactRepository) Update(ctx context.Context, c *model.Contact) error {
	sqlStr, args, err := psql.Update(contactTable).
		Set("name", c.Name).
		Set("email", c.Email).
		Set("public", c.Public).
		Set("sender_name", c.SenderName).
		Set("sender_email", c.SenderEmail).
		Set("sending_subject", c.SendingSubject).
		Where(sq.Eq{"id": c.ID}).
		ToSql()
	if err != nil {
		return err
	}
	tag, err := QuerierFromCtx(ctx, r.db).Exec(ctx, sqlStr, args...)
	if err != nil {
		return mapError(err, "contact", c.ID)
	}
	if tag.RowsAffected() == 0 {
		return mapError(ErrNotFound, "contact", c.ID)
	}
	return nil
}

// Delete removes the contact with id.
func (r *PgContactRepository) Delete(ctx context.Context, id int64) error {
	sqlStr, args, err := psql.Delete(contactTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	tag, err := QuerierFromCtx(ctx, r.db).Exec(ctx, sqlStr, args...)
	if err != nil {
		return mapError(err, "contact", id)
	}
	if tag.RowsAffected() == 0 {
		return mapError(ErrNotFound, "contact", id)
	}
	return nil
}
