package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/formicula/backend/internal/model"
	"github.com/formicula/backend/internal/repository"
)

// contactServiceImpl is the production implementation of ContactService.
type contactServiceImpl struct {
	repo repository.ContactRepository
}

// NewContactService creates a ContactService backed by the given repository.
func NewContactService(repo repository.ContactRepository) ContactService {
	return &contactServiceImpl{repo: repo}
}

func (s *contactServiceImpl) List(ctx context.Context, publicOnly bool) ([]*model.Contact, error) {
	return s.repo.List(ctx, publicOnly)
}

func (s *contactServiceImpl) Get(ctx context.Context, id int64) (*model.Contact, error) {
	return s.repo.FindByID(ctx, id)
}

// Save trims the input and fills empty sender fields from the contact itself.
func (s *contactServiceImpl) Save(ctx context.Context, c *model.Contact) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.SenderName = strings.TrimSpace(c.SenderName)
	c.SenderEmail = strings.TrimSpace(c.SenderEmail)
	if err := c.Validate(); err != nil {
		return err
	}
	if c.SenderName == "" {
		c.SenderName = c.Name
	}
	if c.SenderEmail == "" {
		c.SenderEmail = c.Email
	}

	if c.ID == 0 {
		if err := s.repo.Create(ctx, c); err != nil {
			return err
		}
		slog.InfoContext(ctx, "contact created", "contact_id", c.ID)
		return nil
	}
	return s.repo.Update(ctx, c)
}

func (s *contactServiceImpl) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "contact deleted", "contact_id", id)
	return nil
}
