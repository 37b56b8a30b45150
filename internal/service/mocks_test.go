package service

import (
	"context"
	"io"
	"strings"

	"github.com/formicula/backend/internal/captcha"
	"github.com/formicula/backend/internal/mailer"
	"github.com/formicula/backend/internal/model"
	"github.com/formicula/backend/internal/storage"
)

// ---------------------------------------------------------------------------
// repository mocks
// ---------------------------------------------------------------------------

type mockContactRepository struct {
	listFunc     func(ctx context.Context, publicOnly bool) ([]*model.Contact, error)
	findByIDFunc func(ctx context.Context, id int64) (*model.Contact, error)
	createFunc   func(ctx context.Context, c *model.Contact) error
	updateFunc   func(ctx context.Context, c *model.Contact) error
	deleteFunc   func(ctx context.Context, id int64) error
}

func (m *mockContactRepository) List(ctx context.Context, publicOnly bool) ([]*model.Contact, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, publicOnly)
	}
	return nil, nil
}

func (m *mockContactRepository) FindByID(ctx context.Context, id int64) (*model.Contact, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, model.ErrNotFound
}

func (m *mockContactRepository) Create(ctx context.Context, c *model.Contact) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, c)
	}
	return nil
}

func (m *mockContactRepository) Update(ctx context.Context, c *model.Contact) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, c)
	}
	return nil
}

func (m *mockContactRepository) Delete(ctx context.Context, id int64) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

type mockSubmissionRepository struct {
	listFunc     func(ctx context.Context) ([]*model.Submission, error)
	findByIDFunc func(ctx context.Context, id int64) (*model.Submission, error)
	createFunc   func(ctx context.Context, s *model.Submission) error
	deleteFunc   func(ctx context.Context, id int64) error
}

func (m *mockSubmissionRepository) List(ctx context.Context) ([]*model.Submission, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return nil, nil
}

func (m *mockSubmissionRepository) FindByID(ctx context.Context, id int64) (*model.Submission, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, model.ErrNotFound
}

func (m *mockSubmissionRepository) Create(ctx context.Context, s *model.Submission) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, s)
	}
	return nil
}

func (m *mockSubmissionRepository) Delete(ctx context.Context, id int64) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockSubmissionRepository) RenameLegacyActorColumns(context.Context) error { return nil }

type mockModuleVarRepository struct {
	vars       map[string]string
	setVarsErr error
	setCalls   int
}

func (m *mockModuleVarRepository) GetAll(_ context.Context, _ string) (map[string]string, error) {
	out := make(map[string]string, len(m.vars))
	for k, v := range m.vars {
		out[k] = v
	}
	return out, nil
}

func (m *mockModuleVarRepository) SetVars(_ context.Context, _ string, vars map[string]string) error {
	m.setCalls++
	if m.setVarsErr != nil {
		return m.setVarsErr
	}
	if m.vars == nil {
		m.vars = map[string]string{}
	}
	for k, v := range vars {
		m.vars[k] = v
	}
	return nil
}

func (m *mockModuleVarRepository) SetVar(ctx context.Context, modname, name, value string) error {
	return m.SetVars(ctx, modname, map[string]string{name: value})
}

func (m *mockModuleVarRepository) DeleteAll(context.Context, string) error {
	m.vars = nil
	return nil
}

// ---------------------------------------------------------------------------
// collaborator mocks
// ---------------------------------------------------------------------------

type mockSettingsService struct {
	cfg model.ModuleConfig
	err error
}

func (m *mockSettingsService) Config(context.Context) (model.ModuleConfig, error) { return m.cfg, m.err }

func (m *mockSettingsService) Save(_ context.Context, cfg model.ModuleConfig) (model.ModuleConfig, error) {
	m.cfg = cfg
	return cfg, nil
}

func (m *mockSettingsService) DisableSpamCheck(context.Context) error {
	m.cfg.EnableSpamCheck = false
	return nil
}

type mockMailer struct {
	sent    []mailer.Message
	errFunc func(msg mailer.Message) error
}

func (m *mockMailer) Send(_ context.Context, msg mailer.Message) error {
	if m.errFunc != nil {
		if err := m.errFunc(msg); err != nil {
			return err
		}
	}
	m.sent = append(m.sent, msg)
	return nil
}

type mockRenderer struct{}

func (mockRenderer) RenderMail(form int, name string, data any) (string, error) {
	d := data.(MailData)
	return name + ":" + d.Input.Name, nil
}

type mockIssuer struct {
	challenge *captcha.Challenge
	err       error
}

func (m *mockIssuer) New() (*captcha.Challenge, error) { return m.challenge, m.err }

type mockRecorder struct {
	submissions []string
	mails       []string
}

func (m *mockRecorder) Submission(_ int, outcome string) { m.submissions = append(m.submissions, outcome) }

func (m *mockRecorder) Mail(kind string, err error) {
	if err != nil {
		kind += ":failed"
	}
	m.mails = append(m.mails, kind)
}

// memStorage is an in-memory storage.Storage.
type memStorage struct {
	files   map[string]string
	saveErr error
}

var _ storage.Storage = (*memStorage)(nil)

func newMemStorage() *memStorage { return &memStorage{files: map[string]string{}} }

func (s *memStorage) Save(_ context.Context, key string, data io.Reader) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	s.files[key] = string(b)
	return key, nil
}

func (s *memStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	v, ok := s.files[key]
	if !ok {
		return nil, model.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(v)), nil
}

func (s *memStorage) Delete(_ context.Context, key string) error {
	delete(s.files, key)
	return nil
}
