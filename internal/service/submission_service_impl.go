package service

import (
	"context"
	"log/slog"

	"github.com/formicula/backend/internal/model"
	"github.com/formicula/backend/internal/repository"
	"github.com/formicula/backend/internal/storage"
)

// UploadStore opens the attachment storage for an upload directory setting.
type UploadStore func(uploadDirectory string) storage.Storage

// submissionServiceImpl is the production implementation of SubmissionService.
type submissionServiceImpl struct {
	repo     repository.SubmissionRepository
	settings SettingsService
	uploads  UploadStore
}

// NewSubmissionService creates a SubmissionService.
func NewSubmissionService(repo repository.SubmissionRepository, settings SettingsService, uploads UploadStore) SubmissionService {
	return &submissionServiceImpl{repo: repo, settings: settings, uploads: uploads}
}

func (s *submissionServiceImpl) List(ctx context.Context) ([]*model.Submission, error) {
	return s.repo.List(ctx)
}

func (s *submissionServiceImpl) Get(ctx context.Context, id int64) (*model.Submission, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *submissionServiceImpl) Delete(ctx context.Context, id int64) error {
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "submission deleted", "submission_id", id)

	if len(sub.Attachments) == 0 {
		return nil
	}
	cfg, err := s.settings.Config(ctx)
	if err != nil || !cfg.DeleteUploadedFiles {
		return nil
	}
	store := s.uploads(cfg.UploadDirectory)
	for _, key := range sub.Attachments {
		if err := store.Delete(ctx, key); err != nil {
			slog.WarnContext(ctx, "remove attachment failed", "submission_id", id, "file", key, "error", err)
		}
	}
	return nil
}
