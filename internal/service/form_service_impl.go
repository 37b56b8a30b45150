package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/mail"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/formicula/backend/internal/captcha"
	"github.com/formicula/backend/internal/forms"
	"github.com/formicula/backend/internal/hook"
	"github.com/formicula/backend/internal/i18n"
	"github.com/formicula/backend/internal/mailer"
	"github.com/formicula/backend/internal/metrics"
	"github.com/formicula/backend/internal/model"
	"github.com/formicula/backend/internal/repository"
)

// Mail kinds reported to the Recorder.
const (
	MailKindAdmin        = "admin"
	MailKindConfirmation = "confirmation"
)

// SiteInfo identifies the hosting site in outgoing mails.
type SiteInfo struct {
	Name   string
	Sender mail.Address
}

// FormServiceDeps collects the collaborators of NewFormService.
type FormServiceDeps struct {
	Settings    SettingsService
	Contacts    repository.ContactRepository
	Submissions repository.SubmissionRepository
	Mailer      mailer.Sender
	Renderer    MailRenderer
	Captcha     ChallengeIssuer
	Forms       *forms.Catalog
	Hooks       *hook.Bus
	Uploads     UploadStore
	Recorder    Recorder
	Translator  i18n.Translator
	Site        SiteInfo
}

// formServiceImpl is the production implementation of FormService.
type formServiceImpl struct {
	FormServiceDeps
}

// NewFormService creates a FormService.
func NewFormService(deps FormServiceDeps) FormService {
	return &formServiceImpl{FormServiceDeps: deps}
}

func (s *formServiceImpl) Prepare(ctx context.Context, form int, contactID int64) (*FormPage, error) {
	cfg, err := s.Settings.Config(ctx)
	if err != nil {
		return nil, err
	}
	contacts, err := s.Contacts.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}

	page := &FormPage{
		Form:     s.Forms.Resolve(form, cfg.DefaultForm),
		Config:   cfg,
		Contacts: contacts,
		Selected: contactID,
	}
	if page.Selected == 0 && len(contacts) == 1 {
		page.Selected = contacts[0].ID
	}

	if cfg.SpamCheckRequired(page.Form) {
		ch, err := s.Captcha.New()
		if err != nil {
			slog.ErrorContext(ctx, "captcha generation failed", "form", page.Form, "error", err)
		} else {
			page.Captcha = ch
		}
	}

	page.Hooks, err = s.Hooks.Display(ctx, hook.DisplayHook{Event: hook.EventName(hook.FormEdit), Form: page.Form})
	if err != nil {
		return nil, fmt.Errorf("form_edit hooks: %w", err)
	}
	return page, nil
}

func (s *formServiceImpl) Send(ctx context.Context, in *model.FormInput) (*model.SendResult, error) {
	cfg, err := s.Settings.Config(ctx)
	if err != nil {
		return nil, err
	}
	in.Form = s.Forms.Resolve(in.Form, cfg.DefaultForm)

	contact, err := s.validate(ctx, cfg, in)
	if err != nil {
		if errors.Is(err, model.ErrValidation) {
			s.Recorder.Submission(in.Form, metrics.OutcomeRejected)
		}
		return nil, err
	}

	var attachment *mailer.Attachment
	var key string
	if cfg.ShowFileAttachment && in.Attachment != nil && in.Attachment.Filename != "" {
		attachment, key, err = s.storeAttachment(ctx, cfg, in.Attachment)
		if err != nil {
			s.Recorder.Submission(in.Form, metrics.OutcomeFailed)
			return nil, err
		}
	}
	cleanup := func() {
		if key == "" || !cfg.DeleteUploadedFiles {
			return
		}
		if err := s.Uploads(cfg.UploadDirectory).Delete(ctx, key); err != nil {
			slog.WarnContext(ctx, "remove attachment failed", "file", key, "error", err)
		}
	}

	data := MailData{SiteName: s.Site.Name, Form: in.Form, Contact: contact, Input: in}
	if attachment != nil {
		data.Attachment = attachment.Filename
	}

	adminMsg, err := s.adminMail(cfg, contact, in, data, attachment)
	if err == nil {
		err = s.Mailer.Send(ctx, adminMsg)
		s.Recorder.Mail(MailKindAdmin, err)
	}
	if err != nil {
		slog.ErrorContext(ctx, "admin mail failed", "form", in.Form, "contact_id", contact.ID, "error", err)
		s.Recorder.Submission(in.Form, metrics.OutcomeFailed)
		cleanup()
		return nil, fmt.Errorf("%w: %w", model.ErrMailNotSent, err)
	}

	res := &model.SendResult{Contact: contact}
	if cfg.SendConfirmationToUser {
		userMsg, err := s.userMail(cfg, contact, in, data)
		if err == nil {
			err = s.Mailer.Send(ctx, userMsg)
			s.Recorder.Mail(MailKindConfirmation, err)
		}
		if err != nil {
			slog.WarnContext(ctx, "confirmation mail failed", "form", in.Form, "error", err)
		} else {
			res.UserMailed = true
		}
	}

	if cfg.StoresSubmissionsFor(in.Form) {
		sub := &model.Submission{
			FormNumber: in.Form,
			Name:       in.Name,
			Email:      in.Email,
			Company:    in.Company,
			Phone:      in.Phone,
			URL:        in.URL,
			Location:   in.Location,
			Comment:    in.Comment,
			CustomData: in.Custom,
			IPAddress:  in.IPAddress,
			CreatedBy:  in.UserID,
			UpdatedBy:  in.UserID,
		}
		if key != "" {
			sub.Attachments = []string{key}
		}
		if err := s.Submissions.Create(ctx, sub); err != nil {
			slog.ErrorContext(ctx, "store submission failed", "form", in.Form, "error", err)
		} else {
			res.Submission = sub
			res.Stored = true
		}
	}
	if !res.Stored {
		cleanup()
	}

	outcome := metrics.OutcomeSent
	if res.Stored {
		outcome = metrics.OutcomeStored
	}
	s.Recorder.Submission(in.Form, outcome)
	slog.InfoContext(ctx, "form submitted", "form", in.Form, "contact_id", contact.ID, "stored", res.Stored)
	return res, nil
}

// validate checks the visitor input and returns the addressed contact.
func (s *formServiceImpl) validate(ctx context.Context, cfg model.ModuleConfig, in *model.FormInput) (*model.Contact, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)

	var errs []model.FieldError
	add := func(field, msg string) {
		errs = append(errs, model.FieldError{Field: field, Message: s.Translator.T(msg)})
	}

	contact, err := s.Contacts.FindByID(ctx, in.ContactID)
	switch {
	case errors.Is(err, model.ErrNotFound) || (err == nil && !contact.Public):
		contact = nil
		add("cid", "Please select a contact.")
	case err != nil:
		return nil, fmt.Errorf("load contact: %w", err)
	}
	if in.Name == "" {
		add("name", "Please enter your name.")
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		add("email", "Please enter a valid email address.")
	}
	if cfg.SpamCheckRequired(in.Form) && (!in.HasCaptcha || !captcha.Verify(in.CaptchaExpected, in.CaptchaInput)) {
		add("captcha", "The calculation is not correct.")
	}

	vh := &hook.ValidationHook{Event: hook.EventName(hook.ValidateEdit), Form: in.Form, Values: in.Values}
	if err := s.Hooks.Validate(ctx, vh); err != nil {
		return nil, fmt.Errorf("validate_edit hooks: %w", err)
	}
	var hookErr *model.ValidationError
	if errors.As(vh.Err(), &hookErr) {
		errs = append(errs, hookErr.Errors...)
	}

	if len(errs) > 0 {
		return nil, &model.ValidationError{Errors: errs}
	}
	return contact, nil
}

func (s *formServiceImpl) storeAttachment(ctx context.Context, cfg model.ModuleConfig, up *model.Upload) (*mailer.Attachment, string, error) {
	content, err := io.ReadAll(up.Content)
	if err != nil {
		return nil, "", fmt.Errorf("%w: read: %w", model.ErrAttachmentNotStored, err)
	}
	key := uuid.NewString() + strings.ToLower(filepath.Ext(filepath.Base(up.Filename)))
	if _, err := s.Uploads(cfg.UploadDirectory).Save(ctx, key, bytes.NewReader(content)); err != nil {
		slog.ErrorContext(ctx, "store attachment failed", "file", up.Filename, "error", err)
		return nil, "", fmt.Errorf("%w: %w", model.ErrAttachmentNotStored, err)
	}
	contentType := up.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &mailer.Attachment{Filename: filepath.Base(up.Filename), ContentType: contentType, Content: content}, key, nil
}

func (s *formServiceImpl) adminMail(cfg model.ModuleConfig, contact *model.Contact, in *model.FormInput, data MailData, att *mailer.Attachment) (mailer.Message, error) {
	html := cfg.DefaultAdminFormat != model.FormatPlain
	body, err := s.Renderer.RenderMail(in.Form, mailTemplate("adminmail", html), data)
	if err != nil {
		return mailer.Message{}, err
	}
	msg := mailer.Message{
		From:    s.Site.Sender,
		To:      []mail.Address{{Name: contact.Name, Address: contact.Email}},
		ReplyTo: &mail.Address{Name: in.Name, Address: in.Email},
		Subject: s.Translator.T("Form submission from %s", in.Name),
		Body:    body,
		HTML:    html,
	}
	if att != nil {
		msg.Attachments = []mailer.Attachment{*att}
	}
	return msg, nil
}

func (s *formServiceImpl) userMail(cfg model.ModuleConfig, contact *model.Contact, in *model.FormInput, data MailData) (mailer.Message, error) {
	format := cfg.DefaultUserFormat
	if cfg.ShowUserFormat && (in.UserFormat == model.FormatHTML || in.UserFormat == model.FormatPlain) {
		format = in.UserFormat
	}
	html := format != model.FormatPlain
	body, err := s.Renderer.RenderMail(in.Form, mailTemplate("usermail", html), data)
	if err != nil {
		return mailer.Message{}, err
	}

	from := s.Site.Sender
	if cfg.UseContactsAsSender {
		from = contactSender(contact)
	}
	subject := contact.SendingSubject
	if subject == "" {
		subject = s.Translator.T("Your mail to %s", "%s")
	}
	return mailer.Message{
		From:    from,
		To:      []mail.Address{{Name: in.Name, Address: in.Email}},
		Subject: strings.ReplaceAll(subject, "%s", s.Site.Name),
		Body:    body,
		HTML:    html,
	}, nil
}

func contactSender(c *model.Contact) mail.Address {
	addr := mail.Address{Name: c.SenderName, Address: c.SenderEmail}
	if addr.Name == "" {
		addr.Name = c.Name
	}
	if addr.Address == "" {
		addr.Address = c.Email
	}
	return addr
}

func mailTemplate(base string, html bool) string {
	if html {
		return base + ".html"
	}
	return base + ".txt"
}
