package model

import (
	"io"
	"net/url"
)

// Upload is a file attached to a visitor submission.
type Upload struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

// FormInput is a visitor submission as received from the form.
type FormInput struct {
	Form      int
	ContactID int64
	Name      string
	Email     string
	Company   string
	Phone     string
	URL       string
	Location  string
	Comment   string
	// UserFormat is the confirmation mail format picked by the visitor.
	UserFormat string
	// Custom holds the custom_* fields without their prefix.
	Custom map[string]string
	// Values is the raw posted form, passed to validation hooks.
	Values url.Values

	CaptchaInput    string
	CaptchaExpected int
	// HasCaptcha is false when no challenge was issued to the visitor.
	HasCaptcha bool

	Attachment *Upload
	IPAddress  string
	UserID     string
}

// SendResult describes a processed submission.
type SendResult struct {
	Contact    *Contact
	Submission *Submission
	Stored     bool
	UserMailed bool
}
