package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formicula/backend/internal/model"
	"github.com/formicula/backend/pkg/auth"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

// roundTrip runs fn on a request carrying cookies and returns the cookies
// the response set, merged over the previous ones.
func roundTrip(t *testing.T, cookies []*http.Cookie, fn func(w http.ResponseWriter, r *http.Request)) []*http.Cookie {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	fn(rec, req)

	set := rec.Result().Cookies()
	if len(set) == 0 {
		return cookies
	}
	return set[len(set)-1:]
}

func TestManager_FlashesAreConsumedOnce(t *testing.T) {
	m := NewManager(testSecret, 3600, false)

	cookies := roundTrip(t, nil, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, m.AddFlash(w, r,
			model.StatusAdvisory("Done! Module configuration updated."),
			model.ErrorAdvisory("Mailer module is not available - unable to send emails!"),
		))
	})

	cookies = roundTrip(t, cookies, func(w http.ResponseWriter, r *http.Request) {
		got, err := m.Flashes(w, r)
		require.NoError(t, err)
		assert.Equal(t, []model.Advisory{
			model.ErrorAdvisory("Mailer module is not available - unable to send emails!"),
			model.StatusAdvisory("Done! Module configuration updated."),
		}, got)
	})

	roundTrip(t, cookies, func(w http.ResponseWriter, r *http.Request) {
		got, err := m.Flashes(w, r)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestManager_CSRFToken(t *testing.T) {
	m := NewManager(testSecret, 3600, false)
	var token string

	cookies := roundTrip(t, nil, func(w http.ResponseWriter, r *http.Request) {
		var err error
		token, err = m.CSRFToken(w, r)
		require.NoError(t, err)
		assert.NotEmpty(t, token)
	})

	roundTrip(t, cookies, func(w http.ResponseWriter, r *http.Request) {
		again, err := m.CSRFToken(w, r)
		require.NoError(t, err)
		assert.Equal(t, token, again)
		assert.True(t, m.ValidCSRF(r, token))
		assert.False(t, m.ValidCSRF(r, token+"x"))
		assert.False(t, m.ValidCSRF(r, ""))
	})

	roundTrip(t, nil, func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, m.ValidCSRF(r, token), "token from another session")
	})
}

func TestManager_CaptchaAnswerIsSingleUse(t *testing.T) {
	m := NewManager(testSecret, 3600, false)

	cookies := roundTrip(t, nil, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, m.SetCaptchaAnswer(w, r, 12))
	})

	cookies = roundTrip(t, cookies, func(w http.ResponseWriter, r *http.Request) {
		answer, ok, err := m.TakeCaptchaAnswer(w, r)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 12, answer)
	})

	roundTrip(t, cookies, func(w http.ResponseWriter, r *http.Request) {
		_, ok, err := m.TakeCaptchaAnswer(w, r)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestManager_TamperedCookieStartsFreshSession(t *testing.T) {
	m := NewManager(testSecret, 3600, false)
	bad := []*http.Cookie{{Name: cookieName, Value: "garbage"}}

	roundTrip(t, bad, func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, m.ValidCSRF(r, "anything"))
		token, err := m.CSRFToken(w, r)
		require.NoError(t, err)
		assert.NotEmpty(t, token)
	})
}

func TestManager_TamperedCookieKeepsValuesWithinRequest(t *testing.T) {
	m := NewManager(testSecret, 3600, false)
	bad := []*http.Cookie{{Name: cookieName, Value: "garbage"}}

	roundTrip(t, bad, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, m.AddFlash(w, r, model.ErrorAdvisory("Invalid security token.")))
		got, err := m.Flashes(w, r)
		require.NoError(t, err)
		assert.Equal(t, []model.Advisory{model.ErrorAdvisory("Invalid security token.")}, got)

		token, err := m.CSRFToken(w, r)
		require.NoError(t, err)
		assert.True(t, m.ValidCSRF(r, token))
	})
}

func TestManager_UserLoginAndLogout(t *testing.T) {
	m := NewManager(testSecret, 3600, false)
	var before string

	cookies := roundTrip(t, nil, func(w http.ResponseWriter, r *http.Request) {
		var err error
		before, err = m.CSRFToken(w, r)
		require.NoError(t, err)
		_, ok := m.UserID(r)
		assert.False(t, ok)
	})

	cookies = roundTrip(t, cookies, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, m.SetUser(w, r, "admin@example.com"))
	})

	cookies = roundTrip(t, cookies, func(w http.ResponseWriter, r *http.Request) {
		id, ok := m.UserID(r)
		assert.True(t, ok)
		assert.Equal(t, "admin@example.com", id)
		assert.False(t, m.ValidCSRF(r, before), "token issued before login")
	})

	cookies = roundTrip(t, cookies, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, m.ClearUser(w, r))
	})

	roundTrip(t, cookies, func(w http.ResponseWriter, r *http.Request) {
		_, ok := m.UserID(r)
		assert.False(t, ok)
	})
}

func TestManager_SessionFromAnotherSecretIsAnonymous(t *testing.T) {
	other := NewManager([]byte("fedcba9876543210fedcba9876543210"), 3600, false)
	m := NewManager(testSecret, 3600, false)

	cookies := roundTrip(t, nil, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, other.SetUser(w, r, "admin@example.com"))
	})

	roundTrip(t, cookies, func(w http.ResponseWriter, r *http.Request) {
		_, ok := m.UserID(r)
		assert.False(t, ok)
	})
}

func TestManager_Identify(t *testing.T) {
	m := NewManager(testSecret, 3600, false)

	var seen string
	var found bool
	h := m.Identify(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, found = auth.UserIDFromContext(r.Context())
	}))

	cookies := roundTrip(t, nil, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, m.SetUser(w, r, "admin@example.com"))
	})

	roundTrip(t, cookies, func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r)
	})
	assert.True(t, found)
	assert.Equal(t, "admin@example.com", seen)

	roundTrip(t, nil, func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r)
	})
	assert.False(t, found, "anonymous request")

	roundTrip(t, []*http.Cookie{{Name: cookieName, Value: "garbage"}}, func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r)
	})
	assert.False(t, found, "tampered cookie")
}
