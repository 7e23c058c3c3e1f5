// Package apierror renders daylog API failures as RFC 9457 problem details
// (https://www.rfc-editor.org/rfc/rfc9457.html).
package apierror

// ProblemDetails is the body of every error response
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	RequestID   string       `json:"request_id,omitempty"`
	UserMessage string       `json:"user_message,omitempty"` // safe to show in a UI
	RetryAfter  *int         `json:"retry_after,omitempty"`  // seconds
	Action      string       `json:"action,omitempty"`       // "authenticate" or "retry"
	Errors      []FieldError `json:"errors,omitempty"`
}

// FieldError describes one invalid request field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"` // validator tag or a domain code such as unknown_reason
}

func (p *ProblemDetails) Error() string {
	if p.Detail != "" {
		return p.Detail
	}
	return p.Title
}
