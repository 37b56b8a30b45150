package service

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/formicula/backend/internal/model"
)

// AuthServiceImpl checks logins against the configured administrator.
type AuthServiceImpl struct {
	adminEmail   string
	passwordHash []byte
}

// NewAuthService creates an AuthService for one administrator account. An
// empty email disables login.
func NewAuthService(adminEmail, passwordHash string) AuthService {
	return &AuthServiceImpl{adminEmail: strings.TrimSpace(adminEmail), passwordHash: []byte(passwordHash)}
}

func (s *AuthServiceImpl) Authenticate(ctx context.Context, email, password string) (string, error) {
	if s.adminEmail == "" || len(s.passwordHash) == 0 {
		return "", model.ErrInvalidCredentials
	}
	hashErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
	if !strings.EqualFold(strings.TrimSpace(email), s.adminEmail) || hashErr != nil {
		slog.WarnContext(ctx, "login failed", "email", email)
		return "", model.ErrInvalidCredentials
	}
	slog.InfoContext(ctx, "admin logged in")
	return strings.ToLower(s.adminEmail), nil
}

// HashPassword returns the bcrypt hash stored in the auth configuration.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
