package service

import (
	"context"

	"github.com/formicula/backend/internal/model"
)

// ContactService manages the recipients visitors can address.
type ContactService interface {
	// List returns contacts ordered by name. publicOnly restricts the list to
	// contacts shown on the visitor form.
	List(ctx context.Context, publicOnly bool) ([]*model.Contact, error)

	Get(ctx context.Context, id int64) (*model.Contact, error)

	// Save validates c and creates it when c.ID is zero, else updates it.
	Save(ctx context.Context, c *model.Contact) error

	Delete(ctx context.Context, id int64) error
}
