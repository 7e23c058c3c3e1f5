package apierror

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ContentTypeProblemJSON is the media type of an RFC 9457 problem
const ContentTypeProblemJSON = "application/problem+json"

// WriteProblem writes problem as the response. Instance defaults to the
// request path, and a RetryAfter value is mirrored in the Retry-After header.
func WriteProblem(c *gin.Context, problem *ProblemDetails) {
	if problem.Instance == "" && c.Request != nil {
		problem.Instance = c.Request.URL.Path
	}

	c.Header("Content-Type", ContentTypeProblemJSON)
	if problem.RetryAfter != nil {
		c.Header("Retry-After", strconv.Itoa(*problem.RetryAfter))
	}

	c.JSON(problem.Status, problem)
}

// GetRequestID returns the id the request logger assigned, falling back to
// the client's X-Request-ID header
func GetRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

func newProblem(typ, requestID, detail, userMessage string) *ProblemDetails {
	pt := problemTypes[typ]
	return &ProblemDetails{
		Type:        typ,
		Title:       pt.title,
		Status:      pt.status,
		Detail:      detail,
		RequestID:   requestID,
		UserMessage: userMessage,
	}
}

// NewValidationError reports every failing request field at once
func NewValidationError(requestID string, errors []FieldError) *ProblemDetails {
	p := newProblem(TypeValidation, requestID,
		"One or more fields failed validation",
		"Please check your input and try again")
	p.Errors = errors
	return p
}

func NewNotFoundError(requestID, resource, id string) *ProblemDetails {
	detail := fmt.Sprintf("%s was not found", resource)
	if id != "" {
		detail = fmt.Sprintf("%s with ID '%s' was not found", resource, id)
	}
	return newProblem(TypeNotFound, requestID, detail,
		fmt.Sprintf("The requested %s could not be found", resource))
}

// NewRateLimitError tells the client to wait retryAfter seconds
func NewRateLimitError(requestID string, retryAfter int) *ProblemDetails {
	p := newProblem(TypeRateLimit, requestID,
		fmt.Sprintf("Rate limit exceeded. Please retry after %d seconds", retryAfter),
		"Too many requests. Please wait before trying again.")
	p.RetryAfter = &retryAfter
	p.Action = "retry"
	return p
}

// NewInternalError never carries the underlying error; log it instead
func NewInternalError(requestID string) *ProblemDetails {
	return newProblem(TypeInternal, requestID,
		"An unexpected error occurred",
		"Something went wrong. Please try again later.")
}

func NewBadRequestError(requestID, detail, userMessage string) *ProblemDetails {
	return newProblem(TypeBadRequest, requestID, detail, userMessage)
}

func NewUnauthorizedError(requestID string) *ProblemDetails {
	p := newProblem(TypeUnauthorized, requestID,
		"Authentication is required to access this resource",
		"Please sign in to continue")
	p.Action = "authenticate"
	return p
}

// NewInvalidIDError reports a path or query id that is not a usable UUID
func NewInvalidIDError(requestID, field, value string) *ProblemDetails {
	p := newProblem(TypeInvalidID, requestID,
		fmt.Sprintf("Invalid identifier for field '%s': '%s'", field, value),
		"Invalid identifier format")
	p.Errors = []FieldError{{Field: field, Message: "must be a valid UUID", Code: "invalid_id"}}
	return p
}
