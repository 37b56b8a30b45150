package model

import "time"

// SubmissionStatus values.
const (
	SubmissionStatusNew  = "new"
	SubmissionStatusRead = "read"
)

// Submission is an archived visitor form submission.
type Submission struct {
	ID          int64             `json:"id"`
	FormNumber  int               `json:"form_number"`
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	Company     string            `json:"company,omitempty"`
	Phone       string            `json:"phone,omitempty"`
	URL         string            `json:"url,omitempty"`
	Location    string            `json:"location,omitempty"`
	Comment     string            `json:"comment,omitempty"`
	Attachments []string          `json:"attachments,omitempty"`
	CustomData  map[string]string `json:"custom_data,omitempty"`
	IPAddress   string            `json:"ip_address,omitempty"`
	Status      string            `json:"status"`
	CreatedBy   string            `json:"created_by,omitempty"`
	UpdatedBy   string            `json:"updated_by,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}
