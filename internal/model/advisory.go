package model

// Advisory flash types.
const (
	AdvisoryStatus = "status"
	AdvisoryError  = "error"
)

// Advisory is a user-facing message attached to the next rendered page.
type Advisory struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// StatusAdvisory returns an informational advisory.
func StatusAdvisory(msg string) Advisory { return Advisory{Type: AdvisoryStatus, Message: msg} }

// ErrorAdvisory returns an error advisory.
func ErrorAdvisory(msg string) Advisory { return Advisory{Type: AdvisoryError, Message: msg} }
