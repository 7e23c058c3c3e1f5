package middleware

import (
	"github.com/gin-gonic/gin"
)

// apiSecurityHeaders are sent on every response
var apiSecurityHeaders = map[string]string{
	"X-Content-Type-Options":  "nosniff",
	"X-Frame-Options":         "DENY",
	"Referrer-Policy":         "no-referrer",
	"Cache-Control":           "no-store",
	"Pragma":                  "no-cache",
	"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
	"Permissions-Policy":      "geolocation=(), microphone=(), camera=()",
}

// SecurityHeaders adds security-related HTTP headers to all responses.
// Insights and reflections describe a person's days, so nothing is cacheable.
// HSTS is only sent in production, where the API sits behind TLS.
func SecurityHeaders(production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		for name, value := range apiSecurityHeaders {
			c.Header(name, value)
		}
		if production {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
