package service

import (
	"context"

	"github.com/formicula/backend/internal/model"
)

// SubmissionService gives administrators access to archived submissions.
type SubmissionService interface {
	// List returns all submissions, most recent first.
	List(ctx context.Context) ([]*model.Submission, error)

	Get(ctx context.Context, id int64) (*model.Submission, error)

	// Delete removes the submission. Its stored attachments are removed too
	// when deleteUploadedFiles is set.
	Delete(ctx context.Context, id int64) error
}
