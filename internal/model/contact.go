package model

import (
	"net/mail"
	"strings"
)

// Contact is a named mail recipient a visitor can address through a form.
type Contact struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Public         bool   `json:"public"`
	SenderName     string `json:"sender_name"`
	SenderEmail    string `json:"sender_email"`
	SendingSubject string `json:"sending_subject"`
}

// Validate checks the contact invariants: a name is always required and a
// public contact must carry a parseable email address.
func (c *Contact) Validate() error {
	var errs []FieldError
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if c.Public && strings.TrimSpace(c.Email) == "" {
		errs = append(errs, FieldError{Field: "email", Message: "required for public contacts"})
	} else if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			errs = append(errs, FieldError{Field: "email", Message: "invalid address"})
		}
	}
	if c.SenderEmail != "" {
		if _, err := mail.ParseAddress(c.SenderEmail); err != nil {
			errs = append(errs, FieldError{Field: "sender_email", Message: "invalid address"})
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}
