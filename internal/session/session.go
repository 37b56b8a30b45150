// Package session keeps per-visitor state in a signed cookie: flash
// advisories, the anti-forgery token, the pending captcha answer and the
// logged-in administrator.
package session

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/formicula/backend/internal/model"
	"github.com/formicula/backend/pkg/auth"
)

const (
	cookieName    = "formicula_state"
	csrfKey       = "csrf_token"
	captchaKey    = "captcha_answer"
	userKey       = "user_id"
	csrfTokenSize = 32
)

// Manager wraps a gorilla session store.
type Manager struct {
	store sessions.Store
}

// NewManager returns a Manager backed by a cookie store signed with secret.
// Cookies older than maxAge seconds are rejected when decoded.
func NewManager(secret []byte, maxAge int, secure bool) *Manager {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	store.MaxAge(maxAge)
	return NewManagerWithStore(store)
}

// NewManagerWithStore returns a Manager using store.
func NewManagerWithStore(store sessions.Store) *Manager {
	return &Manager{store: store}
}

// get returns the request's session. A cookie that no longer decodes
// yields the fresh session the store registered for this request, so later
// calls in the same request see the same values.
func (m *Manager) get(r *http.Request) *sessions.Session {
	s, _ := m.store.Get(r, cookieName)
	if s == nil {
		s = sessions.NewSession(m.store, cookieName)
		s.IsNew = true
	}
	return s
}

func (m *Manager) save(w http.ResponseWriter, r *http.Request, s *sessions.Session) error {
	if err := s.Save(r, w); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	return nil
}

// AddFlash queues advisories for the next rendered page.
func (m *Manager) AddFlash(w http.ResponseWriter, r *http.Request, advisories ...model.Advisory) error {
	if len(advisories) == 0 {
		return nil
	}
	s := m.get(r)
	for _, a := range advisories {
		s.AddFlash(a.Message, a.Type)
	}
	return m.save(w, r, s)
}

// Flashes returns and clears queued advisories, errors first.
func (m *Manager) Flashes(w http.ResponseWriter, r *http.Request) ([]model.Advisory, error) {
	s := m.get(r)
	var out []model.Advisory
	for _, typ := range []string{model.AdvisoryError, model.AdvisoryStatus} {
		for _, f := range s.Flashes(typ) {
			if msg, ok := f.(string); ok {
				out = append(out, model.Advisory{Type: typ, Message: msg})
			}
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, m.save(w, r, s)
}

// CSRFToken returns the session's anti-forgery token, creating it on first use.
func (m *Manager) CSRFToken(w http.ResponseWriter, r *http.Request) (string, error) {
	s := m.get(r)
	if token, ok := s.Values[csrfKey].(string); ok && token != "" {
		return token, nil
	}
	b := make([]byte, csrfTokenSize)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session: csrf token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(b)
	s.Values[csrfKey] = token
	return token, m.save(w, r, s)
}

// ValidCSRF reports whether token matches the session's anti-forgery token.
func (m *Manager) ValidCSRF(r *http.Request, token string) bool {
	expected, ok := m.get(r).Values[csrfKey].(string)
	if !ok || expected == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(token)) == 1
}

// SetCaptchaAnswer remembers the expected captcha answer.
func (m *Manager) SetCaptchaAnswer(w http.ResponseWriter, r *http.Request, answer int) error {
	s := m.get(r)
	s.Values[captchaKey] = answer
	return m.save(w, r, s)
}

// TakeCaptchaAnswer returns and forgets the expected captcha answer. Each
// answer can be checked once.
func (m *Manager) TakeCaptchaAnswer(w http.ResponseWriter, r *http.Request) (int, bool, error) {
	s := m.get(r)
	answer, ok := s.Values[captchaKey].(int)
	if !ok {
		return 0, false, nil
	}
	delete(s.Values, captchaKey)
	return answer, true, m.save(w, r, s)
}

// SetUser records userID as the logged-in administrator. The anti-forgery
// token is rotated so a token issued before login stops working.
func (m *Manager) SetUser(w http.ResponseWriter, r *http.Request, userID string) error {
	s := m.get(r)
	s.Values[userKey] = userID
	delete(s.Values, csrfKey)
	return m.save(w, r, s)
}

// ClearUser logs the administrator out and drops the anti-forgery token.
func (m *Manager) ClearUser(w http.ResponseWriter, r *http.Request) error {
	s := m.get(r)
	delete(s.Values, userKey)
	delete(s.Values, csrfKey)
	return m.save(w, r, s)
}

// UserID returns the logged-in administrator, if any.
func (m *Manager) UserID(r *http.Request) (string, bool) {
	id, ok := m.get(r).Values[userKey].(string)
	return id, ok && id != ""
}

// Identify stores the logged-in user id in the request context. Anonymous
// requests pass through unchanged; authorization is left to the permission
// checks of each route.
func (m *Manager) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := m.UserID(r); ok {
			r = r.WithContext(auth.WithUserID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}
