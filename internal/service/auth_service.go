package service

import "context"

// AuthService checks administrator credentials.
type AuthService interface {
	// Authenticate returns the user id for valid credentials and
	// model.ErrInvalidCredentials otherwise.
	Authenticate(ctx context.Context, email, password string) (string, error)
}
