package model

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the repository, service and handler layers.
var (
	ErrNotFound             = errors.New("not found")
	ErrValidation           = errors.New("validation error")
	ErrUploadDirNotWritable = errors.New("upload directory is not writable")
	ErrUnsupportedVersion   = errors.New("unsupported version")
	ErrInvalidCSRFToken     = errors.New("invalid csrf token")
	ErrMailNotSent          = errors.New("mail could not be sent")
	ErrAttachmentNotStored  = errors.New("attachment could not be stored")
	ErrInvalidCredentials   = errors.New("invalid credentials")
)

// FieldError describes a validation problem with a single input field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError groups field level validation problems.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Errors: []FieldError{{Field: field, Message: message}}}
}
