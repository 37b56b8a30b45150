package service

import (
	"context"
	"html/template"

	"github.com/formicula/backend/internal/captcha"
	"github.com/formicula/backend/internal/model"
)

// FormPage is everything the visitor form template needs.
type FormPage struct {
	Form     int
	Config   model.ModuleConfig
	Contacts []*model.Contact
	Selected int64
	// Captcha is nil when the form needs no spam check.
	Captcha *captcha.Challenge
	Hooks   []template.HTML
}

// FormService handles the visitor side of the module.
type FormService interface {
	// Prepare resolves form (falling back to the default form) and issues a
	// captcha when the form requires one.
	Prepare(ctx context.Context, form int, contactID int64) (*FormPage, error)

	// Send validates the input, mails the contact and optionally the
	// visitor, and archives the submission when configured. Validation
	// problems are returned as *model.ValidationError.
	Send(ctx context.Context, in *model.FormInput) (*model.SendResult, error)
}

// MailRenderer renders the mail templates of a form.
type MailRenderer interface {
	RenderMail(form int, name string, data any) (string, error)
}

// ChallengeIssuer creates captcha challenges.
type ChallengeIssuer interface {
	New() (*captcha.Challenge, error)
}

// Recorder receives submission and mail counters.
type Recorder interface {
	Submission(form int, outcome string)
	Mail(kind string, err error)
}

// MailData is passed to the mail templates.
type MailData struct {
	SiteName   string
	Form       int
	Contact    *model.Contact
	Input      *model.FormInput
	Attachment string
}
