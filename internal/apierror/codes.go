package apierror

import "net/http"

// Problem type URIs, used as the "type" member of a problem
const (
	TypeValidation   = "urn:daylog:error:validation"
	TypeNotFound     = "urn:daylog:error:not_found"
	TypeRateLimit    = "urn:daylog:error:rate_limit"
	TypeUnauthorized = "urn:daylog:error:unauthorized"
	TypeInternal     = "urn:daylog:error:internal"
	TypeInvalidID    = "urn:daylog:error:invalid_id"
	TypeBadRequest   = "urn:daylog:error:bad_request"
)

// problemType is the fixed part of every problem of one type
type problemType struct {
	status int
	title  string
}

var problemTypes = map[string]problemType{
	TypeValidation:   {http.StatusBadRequest, "Validation Error"},
	TypeNotFound:     {http.StatusNotFound, "Resource Not Found"},
	TypeRateLimit:    {http.StatusTooManyRequests, "Rate Limit Exceeded"},
	TypeUnauthorized: {http.StatusUnauthorized, "Authentication Required"},
	TypeInternal:     {http.StatusInternalServerError, "Internal Server Error"},
	TypeInvalidID:    {http.StatusBadRequest, "Invalid Identifier"},
	TypeBadRequest:   {http.StatusBadRequest, "Bad Request"},
}

// Title returns the summary shared by every problem of type typ
func Title(typ string) string {
	return problemTypes[typ].title
}
