package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/formicula/backend/internal/model"
	"github.com/formicula/backend/internal/service"
)

// AuthHandler logs the administrator in and out.
type AuthHandler struct {
	*Handler
	authService service.AuthService
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(h *Handler, authService service.AuthService) *AuthHandler {
	return &AuthHandler{Handler: h, authService: authService}
}

type loginPage struct {
	Next  string
	Email string
}

// Login handles GET and POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.FormValue("next"))
	if r.Method != http.MethodPost {
		h.render(w, r, http.StatusOK, "login", loginPage{Next: next})
		return
	}

	email := strings.TrimSpace(r.PostFormValue("email"))
	if !h.validCSRF(r) {
		h.flash(w, r, model.ErrorAdvisory(h.t("Invalid security token.")))
		h.render(w, r, http.StatusForbidden, "login", loginPage{Next: next, Email: email})
		return
	}

	userID, err := h.authService.Authenticate(r.Context(), email, r.PostFormValue("password"))
	if err != nil {
		if !errors.Is(err, model.ErrInvalidCredentials) {
			h.serverError(w, r, "login failed", err)
			return
		}
		h.flash(w, r, model.ErrorAdvisory(h.t("Invalid email or password.")))
		h.render(w, r, http.StatusUnauthorized, "login", loginPage{Next: next, Email: email})
		return
	}

	if err := h.deps.Sessions.SetUser(w, r, userID); err != nil {
		h.serverError(w, r, "login failed", err)
		return
	}
	h.redirect(w, r, next)
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if !h.validCSRF(r) {
		http.Error(w, h.t("Invalid security token."), http.StatusForbidden)
		return
	}
	if err := h.deps.Sessions.ClearUser(w, r); err != nil {
		h.serverError(w, r, "logout failed", err)
		return
	}
	h.redirect(w, r, "/login")
}

// safeNext keeps redirects on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return submissionListURL
	}
	return next
}
